// ABOUTME: Scene bridge message type definitions
// ABOUTME: Defines the envelope and payload structs for every message type
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
)

// ProtocolVersion is the wire protocol version sent in hello messages
const ProtocolVersion = 1

// Message types
const (
	TypeClientHello   = "client/hello"
	TypeServerHello   = "server/hello"
	TypeServerError   = "server/error"
	TypeServerMeters  = "server/meters"
	TypePlay          = "audio/play"
	TypePlaySpatial   = "audio/play_spatial"
	TypeUpdateSpatial = "audio/update_spatial"
	TypeStopSpatial   = "audio/stop_spatial"
	TypeListener      = "audio/listener"
	TypeBusVolume     = "audio/bus_volume"
	TypeMute          = "audio/mute"
	TypeResume        = "audio/resume"
)

// Error codes carried by server/error
const (
	ErrCodeDuplicateClient = "duplicate_client_id"
	ErrCodeBadPayload      = "bad_payload"
	ErrCodeUnknownBus      = "unknown_bus"
	ErrCodeUnknownType     = "unknown_type"
	ErrCodeResumeFailed    = "resume_failed"
)

// Message is the top-level wrapper for all outgoing messages
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Envelope is a received message whose payload is decoded on demand
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParseEnvelope decodes the outer wrapper of a message
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to parse message: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("message has no type")
	}
	return env, nil
}

// Decode unmarshals the payload into v. A missing payload leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to parse %s payload: %w", e.Type, err)
	}
	return nil
}

// Vec3 is a scene-space position or direction
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FromVec3 converts an engine vector to its wire form
func FromVec3(v audio.Vec3) Vec3 { return Vec3{X: v.X, Y: v.Y, Z: v.Z} }

// Audio converts to the engine vector type
func (v Vec3) Audio() audio.Vec3 { return audio.V3(v.X, v.Y, v.Z) }

// ClientHello is sent by the scene to open a session
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello is the daemon's response to client/hello
type ServerHello struct {
	ServerID   string   `json:"server_id"`
	Name       string   `json:"name"`
	Version    int      `json:"version"`
	SampleRate int      `json:"sample_rate"`
	Sounds     []string `json:"sounds"`
	Buses      []string `json:"buses"`
}

// ServerError reports a rejected command
type ServerError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// Play triggers a pooled one-shot. Nil fields take engine defaults;
// a volume of 0 is silent.
type Play struct {
	Sound        string   `json:"sound"`
	Volume       *float32 `json:"volume,omitempty"`
	Loop         bool     `json:"loop,omitempty"`
	PlaybackRate *float64 `json:"playback_rate,omitempty"`
}

// PlaySpatial starts a keyed 3D source. Nil fields take engine defaults;
// a rolloff of 0 disables distance attenuation.
type PlaySpatial struct {
	Key           string   `json:"key"`
	Sound         string   `json:"sound"`
	Position      Vec3     `json:"position"`
	Volume        *float32 `json:"volume,omitempty"`
	Loop          bool     `json:"loop,omitempty"`
	RefDistance   *float64 `json:"ref_distance,omitempty"`
	MaxDistance   *float64 `json:"max_distance,omitempty"`
	RolloffFactor *float64 `json:"rolloff_factor,omitempty"`
}

// Float32 returns a pointer to v for optional payload fields
func Float32(v float32) *float32 { return &v }

// Float64 returns a pointer to v for optional payload fields
func Float64(v float64) *float64 { return &v }

// UpdateSpatial moves a keyed source
type UpdateSpatial struct {
	Key      string `json:"key"`
	Position Vec3   `json:"position"`
}

// StopSpatial removes a keyed source
type StopSpatial struct {
	Key string `json:"key"`
}

// Listener moves the ear. A zero up vector means +Y.
type Listener struct {
	Position Vec3 `json:"position"`
	Forward  Vec3 `json:"forward"`
	Up       Vec3 `json:"up"`
}

// BusVolume sets or fades a bus gain
type BusVolume struct {
	Bus    string  `json:"bus"`
	Volume float32 `json:"volume"`
	FadeMs int     `json:"fade_ms,omitempty"`
}

// Mute silences or restores the master output
type Mute struct {
	Muted bool `json:"muted"`
}

// Meters is the periodic server/meters broadcast
type Meters struct {
	MomentaryLUFS  float64            `json:"momentary_lufs"`
	ShortTermLUFS  float64            `json:"short_term_lufs"`
	IntegratedLUFS float64            `json:"integrated_lufs"`
	TruePeakDB     float64            `json:"true_peak_db"`
	Correlation    float64            `json:"correlation"`
	GainReduction  float64            `json:"gain_reduction_db"`
	ActiveVoices   int                `json:"active_voices"`
	SpatialSources int                `json:"spatial_sources"`
	Clips          uint64             `json:"clips"`
	Muted          bool               `json:"muted"`
	Buses          map[string]float32 `json:"buses"`
}
