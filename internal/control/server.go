// ABOUTME: Scene bridge server driving the audio engine over WebSocket
// ABOUTME: Manages client sessions, dispatches audio commands and broadcasts meters
package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Resonate-Protocol/casino-audio/internal/discovery"
	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/Resonate-Protocol/casino-audio/pkg/engine"
	"github.com/Resonate-Protocol/casino-audio/pkg/mixer"
	"github.com/Resonate-Protocol/casino-audio/pkg/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "control")

const (
	// DefaultPort is the bridge listen port
	DefaultPort = 8927
	// DefaultMeterInterval is the server/meters broadcast period
	DefaultMeterInterval = 100 * time.Millisecond

	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
	sendBuffer    = 64
)

// Engine is the part of the audio engine the bridge drives
type Engine interface {
	Play(id mixer.SoundID, opts engine.PlayOptions)
	PlaySpatial(key string, id mixer.SoundID, pos audio.Vec3, opts engine.SpatialOptions)
	UpdateSpatialPosition(key string, pos audio.Vec3)
	StopSpatial(key string)
	UpdateListener(pos, forward, up audio.Vec3)
	SetBusVolume(bus mixer.BusID, gain float32)
	FadeBusVolume(bus mixer.BusID, target float32, d time.Duration)
	GetBusVolume(bus mixer.BusID) float32
	SetMuted(muted bool)
	Muted() bool
	Resume() error
	Meters() engine.Meters
	Stats() engine.Stats
	Sounds() []mixer.SoundID
	Config() engine.Config
}

// Config holds server configuration
type Config struct {
	Port          int
	Name          string
	EnableMDNS    bool
	MeterInterval time.Duration
}

// Server is the scene bridge
type Server struct {
	config   Config
	serverID string
	engine   Engine
	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*Client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client is a connected scene
type Client struct {
	ID        string
	Name      string
	Conn      *websocket.Conn
	Connected time.Time

	commands uint64
	sendChan chan any
	mu       sync.RWMutex
}

// ClientInfo is a snapshot of a client for display
type ClientInfo struct {
	ID        string
	Name      string
	Connected time.Time
	Commands  uint64
}

// New creates a bridge for eng
func New(config Config, eng Engine) *Server {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Name == "" {
		config.Name = "casino-audio"
	}
	if config.MeterInterval <= 0 {
		config.MeterInterval = DefaultMeterInterval
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		engine:   eng,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// The scene is served from arbitrary local origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the bridge endpoint
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves until Stop is called or the listener fails
func (s *Server) Start() error {
	addr := net.JoinHostPort("", strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop is called or the listener fails
func (s *Server) Serve(ln net.Listener) error {
	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.WithError(err).Warn("Failed to start mDNS advertisement")
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.broadcastMeters()
	}()

	s.httpServer = &http.Server{Handler: s.mux}
	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":   ln.Addr().String(),
		"server": s.serverID,
	}).Info("Scene bridge listening")

	var serverErr error
	select {
	case <-s.stopChan:
		log.Info("Scene bridge shutting down")
	case err := <-errChan:
		log.WithError(err).Error("HTTP server error")
		serverErr = err
		s.Stop()
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}
	s.closeClients()

	s.wg.Wait()
	log.Info("Scene bridge stopped")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Clients returns the connected clients sorted by name
func (s *Server) Clients() []ClientInfo {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	out := make([]ClientInfo, 0, len(s.clients))
	for _, c := range s.clients {
		c.mu.RLock()
		out = append(out, ClientInfo{ID: c.ID, Name: c.Name, Connected: c.Connected, Commands: c.commands})
		c.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	shutdown := s.isShutdown
	s.shutdownMu.RUnlock()
	if shutdown {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade error")
		return
	}
	log.WithField("remote", r.RemoteAddr).Debug("New WebSocket connection")

	s.handleConnection(conn)
}

func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	_, data, err := conn.ReadMessage()
	if err != nil {
		log.WithError(err).Debug("Error reading hello")
		return
	}
	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		log.WithError(err).Warn("Bad hello")
		return
	}
	if env.Type != protocol.TypeClientHello {
		log.WithField("type", env.Type).Warn("Expected client/hello")
		return
	}

	var hello protocol.ClientHello
	if err := env.Decode(&hello); err != nil || hello.ClientID == "" {
		writeError(conn, protocol.ErrCodeBadPayload, "client/hello requires client_id")
		return
	}
	if hello.Name == "" {
		hello.Name = hello.ClientID
	}

	client := &Client{
		ID:        hello.ClientID,
		Name:      hello.Name,
		Conn:      conn,
		Connected: time.Now(),
		sendChan:  make(chan any, sendBuffer),
	}

	s.clientsMu.Lock()
	if existing, ok := s.clients[hello.ClientID]; ok {
		s.clientsMu.Unlock()
		log.WithFields(logrus.Fields{
			"client": hello.ClientID,
			"name":   existing.Name,
		}).Warn("Rejecting duplicate client id")
		writeError(conn, protocol.ErrCodeDuplicateClient, "client id already connected")
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	log.WithFields(logrus.Fields{"client": client.ID, "name": client.Name}).Info("Scene connected")

	writerDone := make(chan struct{})
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		close(client.sendChan)
		<-writerDone
		log.WithField("name", client.Name).Info("Scene disconnected")
	}()

	if err := s.sendMessage(client, protocol.TypeServerHello, s.serverHello()); err != nil {
		log.WithError(err).Warn("Error sending server hello")
		close(writerDone)
		return
	}

	go func() {
		defer close(writerDone)
		s.clientWriter(client)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("WebSocket error")
			}
			return
		}
		s.handleClientMessage(client, data)
	}
}

func (s *Server) serverHello() protocol.ServerHello {
	ids := s.engine.Sounds()
	sounds := make([]string, len(ids))
	for i, id := range ids {
		sounds[i] = string(id)
	}
	buses := make([]string, 0, mixer.NumBuses)
	for b := mixer.BusID(0); int(b) < mixer.NumBuses; b++ {
		buses = append(buses, b.String())
	}
	return protocol.ServerHello{
		ServerID:   s.serverID,
		Name:       s.config.Name,
		Version:    protocol.ProtocolVersion,
		SampleRate: s.engine.Config().SampleRate,
		Sounds:     sounds,
		Buses:      buses,
	}
}

// clientWriter drains the client's queue onto the socket
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("Error writing message")
				client.Conn.Close()
				drain(client.sendChan)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				client.Conn.Close()
				drain(client.sendChan)
				return
			}
		}
	}
}

func drain(ch chan any) {
	for range ch {
	}
}

// sendMessage queues a JSON message without blocking
func (s *Server) sendMessage(client *Client, msgType string, payload any) error {
	select {
	case client.sendChan <- protocol.Message{Type: msgType, Payload: payload}:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

func (s *Server) sendError(client *Client, code, message string) {
	if err := s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{Code: code, Message: message}); err != nil {
		log.WithError(err).Debug("Dropping error reply")
	}
}

// writeError replies on a connection that has no writer goroutine yet
func writeError(conn *websocket.Conn, code, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	conn.WriteJSON(protocol.Message{
		Type:    protocol.TypeServerError,
		Payload: protocol.ServerError{Code: code, Message: message},
	})
}

func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		c.Conn.Close()
	}
}

// broadcastMeters sends a meter snapshot to every client each interval
func (s *Server) broadcastMeters() {
	ticker := time.NewTicker(s.config.MeterInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
		}

		s.clientsMu.RLock()
		if len(s.clients) == 0 {
			s.clientsMu.RUnlock()
			continue
		}
		snapshot := s.meters()
		for _, c := range s.clients {
			// slow clients skip a reading
			s.sendMessage(c, protocol.TypeServerMeters, snapshot)
		}
		s.clientsMu.RUnlock()
	}
}

func (s *Server) meters() protocol.Meters {
	m := s.engine.Meters()
	st := s.engine.Stats()
	buses := make(map[string]float32, mixer.NumBuses)
	for b := mixer.BusID(0); int(b) < mixer.NumBuses; b++ {
		buses[b.String()] = s.engine.GetBusVolume(b)
	}
	return protocol.Meters{
		MomentaryLUFS:  m.Momentary,
		ShortTermLUFS:  m.ShortTerm,
		IntegratedLUFS: m.Integrated,
		TruePeakDB:     m.TruePeakDB,
		Correlation:    m.Correlation,
		GainReduction:  m.GainReductionDB,
		ActiveVoices:   st.ActiveVoices,
		SpatialSources: st.SpatialSources,
		Clips:          st.Clips,
		Muted:          s.engine.Muted(),
		Buses:          buses,
	}
}
