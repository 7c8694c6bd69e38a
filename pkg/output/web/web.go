package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/output"
)

const (
	// clientBuffer is the number of lines queued per websocket client before
	// new lines are dropped for it.
	clientBuffer = 32
	writeTimeout = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Snapshot is the JSON form of the latest line.
type Snapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	Line      string         `json:"line"`
	Readings  []flex.Reading `json:"readings"`
}

// Server serves the latest line over HTTP and streams lines to websocket
// clients. A slow client loses lines instead of stalling the pipeline.
type Server struct {
	srv *http.Server

	mu      sync.RWMutex
	latest  *Snapshot
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Ensure Server implements output.Output.
var _ output.Output = (*Server)(nil)

// New starts an HTTP server on addr.
func New(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("web listen %s: %w", addr, err)
	}

	s := newServer()
	s.srv = &http.Server{Handler: s.Handler()}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("web: server error: %v", err)
		}
	}()
	log.Printf("web: listening on %s", ln.Addr())
	return s, nil
}

func newServer() *Server {
	return &Server{clients: make(map[*client]struct{})}
}

// Handler returns the HTTP routes: /api/angles and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/angles", s.handleAngles)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Publish stores the line and queues it for every websocket client.
func (s *Server) Publish(l output.Line) error {
	readings := make([]flex.Reading, len(l.Readings))
	copy(readings, l.Readings)
	snap := &Snapshot{Timestamp: l.Timestamp, Line: l.Text, Readings: readings}
	msg := []byte(l.Text)

	s.mu.Lock()
	s.latest = snap
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			// client too slow, skip this line
		}
	}
	s.mu.Unlock()
	return nil
}

// Close disconnects all clients and stops the HTTP server.
func (s *Server) Close() error {
	s.mu.Lock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()

	if s.srv != nil {
		return s.srv.Close()
	}
	return nil
}

func (s *Server) handleAngles(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap := s.latest
	s.mu.RUnlock()

	if snap == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go c.writeLoop()

	// Read until the client goes away; incoming messages are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: websocket error: %v", err)
			}
			break
		}
	}

	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
