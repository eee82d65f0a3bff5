// ABOUTME: WebSocket control server for a running player
// ABOUTME: Applies set/get requests to the controller and broadcasts state
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Sendspin/filterplay/pkg/tap"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPath = "/control"

	pingInterval  = 30 * time.Second
	writeDeadline = 10 * time.Second
	sendQueue     = 16
)

// Controller is the part of the playback controller the server drives
type Controller interface {
	ID() string
	AssetURL() string
	Params() tap.Params
	Set(tap.Params) tap.Params
}

// Config holds server configuration
type Config struct {
	// Port to listen on; zero picks a free port
	Port int

	// Path of the websocket endpoint (default: /control)
	Path string
}

// Server exposes the controller over websocket
type Server struct {
	config     Config
	controller Controller
	upgrader   websocket.Upgrader
	mux        *http.ServeMux

	httpServer *http.Server
	listener   net.Listener

	clients   map[string]*client
	clientsMu sync.RWMutex

	// serialises read-merge-set so concurrent partial updates are not lost
	setMu sync.Mutex

	wg sync.WaitGroup
}

// client is one connected remote
type client struct {
	id       string
	conn     *websocket.Conn
	sendChan chan Message
}

// NewServer creates a control server for ctl
func NewServer(ctl Controller, config Config) *Server {
	if config.Path == "" {
		config.Path = DefaultPath
	}

	s := &Server{
		config:     config,
		controller: ctl,
		mux:        http.NewServeMux(),
		clients:    make(map[string]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local network control surface; non-browser clients send no Origin
				if origin := r.Header.Get("Origin"); origin != "" {
					logrus.WithField("origin", origin).Warn("Accepting control connection from browser origin")
				}
				return true
			},
		},
	}
	s.mux.HandleFunc(config.Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the control endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Path returns the websocket endpoint path
func (s *Server) Path() string {
	return s.config.Path
}

// Start listens on the configured port and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.config.Port, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("Control server failed")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr": ln.Addr().String(),
		"path": s.config.Path,
	}).Info("Control server listening")

	return nil
}

// Port returns the port the server is bound to, or zero before Start
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Stop closes every connection and shuts the HTTP server down
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.clientsMu.Lock()
	for _, c := range s.clients {
		c.conn.Close()
	}
	s.clientsMu.Unlock()

	s.wg.Wait()

	if err != nil {
		return fmt.Errorf("control server shutdown: %w", err)
	}
	return nil
}

// Broadcast sends the parameter tuple to every connected client
func (s *Server) Broadcast(p tap.Params) {
	msg := s.state(p, "")

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		s.send(c, msg)
	}
}

// Clients returns the number of connected clients
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{
		id:       uuid.New().String(),
		conn:     conn,
		sendChan: make(chan Message, sendQueue),
	}

	s.clientsMu.Lock()
	s.clients[c.id] = c
	s.clientsMu.Unlock()

	log := logrus.WithFields(logrus.Fields{"client": c.id, "remote": r.RemoteAddr})
	log.Info("Control client connected")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c.id)
		close(c.sendChan)
		s.clientsMu.Unlock()
		conn.Close()
		log.Info("Control client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("Control read failed")
			}
			return
		}
		s.handleMessage(c, data)
	}
}

// clientWriter owns all writes to the connection
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteJSON(msg); err != nil {
				logrus.WithError(err).WithField("client", c.id).Debug("Control write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleMessage(c *client, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.send(c, Message{Type: TypeError, Error: fmt.Sprintf("invalid message: %v", err)})
		return
	}

	switch msg.Type {
	case TypeGet:
		s.send(c, s.state(s.controller.Params(), msg.ID))

	case TypeSet:
		s.setMu.Lock()
		applied := s.controller.Set(msg.Merge(s.controller.Params()))
		s.setMu.Unlock()

		logrus.WithFields(logrus.Fields{
			"client":    c.id,
			"enabled":   applied.Enabled,
			"frequency": applied.CornerFrequency,
			"gain":      applied.Gain,
		}).Debug("Remote set")

		s.send(c, s.state(applied, msg.ID))

	default:
		err := fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Type)
		s.send(c, Message{Type: TypeError, ID: msg.ID, Error: err.Error()})
	}
}

func (s *Server) state(p tap.Params, id string) Message {
	msg := StateMessage(p)
	msg.ID = id
	msg.Asset = s.controller.AssetURL()
	msg.Player = s.controller.ID()
	return msg
}

// send queues msg without blocking; a client that stops reading loses messages
func (s *Server) send(c *client, msg Message) {
	select {
	case c.sendChan <- msg:
	default:
		logrus.WithField("client", c.id).Warn("Control client send buffer full, dropping message")
	}
}
