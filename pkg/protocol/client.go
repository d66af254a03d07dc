// ABOUTME: WebSocket client for the scene bridge
// ABOUTME: Handles connection, handshake, command sending and meter routing
package protocol

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "protocol")

const (
	// Path is the HTTP path of the bridge endpoint
	Path = "/audio"

	handshakeTimeout = 5 * time.Second
	writeTimeout     = 10 * time.Second
)

// ErrNotConnected is returned when sending on a closed client
var ErrNotConnected = errors.New("not connected")

// Config holds client configuration
type Config struct {
	ServerAddr string // host:port
	ClientID   string // generated when empty
	Name       string
}

// Client is a scene-side connection to the audio daemon
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex
	wmu    sync.Mutex
	hello  ServerHello

	// Meters receives server/meters broadcasts; stale values are dropped
	Meters chan Meters
	// Errors receives server/error replies
	Errors chan ServerError

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a client. Nothing is dialled until Connect.
func NewClient(config Config) *Client {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		Meters: make(chan Meters, 10),
		Errors: make(chan ServerError, 10),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID returns the client id sent in the handshake
func (c *Client) ID() string { return c.config.ClientID }

// Connect dials the daemon and performs the hello handshake
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: Path}
	log.WithField("url", u.String()).Debug("Connecting")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()
	return nil
}

func (c *Client) handshake() error {
	hello := ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  ProtocolVersion,
	}
	if err := c.send(TypeClientHello, hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	env, err := ParseEnvelope(data)
	if err != nil {
		return err
	}
	switch env.Type {
	case TypeServerHello:
	case TypeServerError:
		var se ServerError
		if err := env.Decode(&se); err != nil {
			return err
		}
		return fmt.Errorf("server rejected hello: %s: %s", se.Code, se.Message)
	default:
		return fmt.Errorf("expected server/hello, got %s", env.Type)
	}

	var sh ServerHello
	if err := env.Decode(&sh); err != nil {
		return err
	}
	c.mu.Lock()
	c.hello = sh
	c.mu.Unlock()

	log.WithFields(logrus.Fields{
		"server": sh.Name,
		"sounds": len(sh.Sounds),
	}).Info("Handshake complete")
	return nil
}

// ServerHello returns the daemon's hello from the handshake
func (c *Client) ServerHello() ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hello
}

func (c *Client) send(msgType string, payload any) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()

	if !connected {
		return ErrNotConnected
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(Message{Type: msgType, Payload: payload})
}

func (c *Client) readMessages() {
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.WithError(err).Debug("Read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			log.WithField("type", messageType).Debug("Ignoring non-text message")
			continue
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	env, err := ParseEnvelope(data)
	if err != nil {
		log.WithError(err).Warn("Dropping malformed message")
		return
	}

	switch env.Type {
	case TypeServerMeters:
		var m Meters
		if err := env.Decode(&m); err != nil {
			log.WithError(err).Warn("Dropping malformed meters")
			return
		}
		select {
		case c.Meters <- m:
		default:
			// keep the channel fresh: drop the oldest reading
			select {
			case <-c.Meters:
			default:
			}
			select {
			case c.Meters <- m:
			default:
			}
		}

	case TypeServerError:
		var se ServerError
		if err := env.Decode(&se); err != nil {
			return
		}
		log.WithFields(logrus.Fields{"code": se.Code, "message": se.Message}).Warn("Server error")
		select {
		case c.Errors <- se:
		case <-time.After(100 * time.Millisecond):
		}

	default:
		log.WithField("type", env.Type).Debug("Unknown message type")
	}
}

// Play triggers a pooled one-shot
func (c *Client) Play(p Play) error { return c.send(TypePlay, p) }

// PlaySpatial starts a keyed 3D source
func (c *Client) PlaySpatial(p PlaySpatial) error { return c.send(TypePlaySpatial, p) }

// UpdateSpatial moves a keyed source
func (c *Client) UpdateSpatial(key string, pos Vec3) error {
	return c.send(TypeUpdateSpatial, UpdateSpatial{Key: key, Position: pos})
}

// StopSpatial removes a keyed source
func (c *Client) StopSpatial(key string) error {
	return c.send(TypeStopSpatial, StopSpatial{Key: key})
}

// UpdateListener moves the ear
func (c *Client) UpdateListener(l Listener) error { return c.send(TypeListener, l) }

// SetBusVolume sets a bus gain, fading over fade when positive
func (c *Client) SetBusVolume(bus string, volume float32, fade time.Duration) error {
	return c.send(TypeBusVolume, BusVolume{Bus: bus, Volume: volume, FadeMs: int(fade.Milliseconds())})
}

// SetMuted mutes or unmutes the master output
func (c *Client) SetMuted(muted bool) error { return c.send(TypeMute, Mute{Muted: muted}) }

// Resume asks the daemon to resume a suspended device
func (c *Client) Resume() error { return c.send(TypeResume, nil) }

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Debug("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
