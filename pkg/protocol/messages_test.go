// ABOUTME: Tests for scene bridge message types
// ABOUTME: Verifies envelope parsing and payload field names
package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"play", `{"type":"audio/play","payload":{"sound":"click"}}`, TypePlay, false},
		{"no payload", `{"type":"audio/resume"}`, TypeResume, false},
		{"missing type", `{"payload":{}}`, "", true},
		{"not json", `hello`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if env.Type != tt.want {
				t.Errorf("expected type %q, got %q", tt.want, env.Type)
			}
		})
	}
}

func TestEnvelopeDecode(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type":"audio/play_spatial","payload":{
		"key":"slot-1","sound":"spin","position":{"x":1,"y":0,"z":-2},"loop":true,"max_distance":20}}`))
	if err != nil {
		t.Fatal(err)
	}

	var p PlaySpatial
	if err := env.Decode(&p); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if p.Key != "slot-1" || p.Sound != "spin" || !p.Loop || p.MaxDistance == nil || *p.MaxDistance != 20 {
		t.Errorf("unexpected payload %+v", p)
	}
	if p.Volume != nil || p.RolloffFactor != nil {
		t.Errorf("expected absent fields to stay nil, got %+v", p)
	}
	if p.Position.Audio() != audio.V3(1, 0, -2) {
		t.Errorf("unexpected position %+v", p.Position)
	}

	// Missing payloads decode to the zero value
	env, _ = ParseEnvelope([]byte(`{"type":"audio/resume"}`))
	var m Mute
	if err := env.Decode(&m); err != nil || m.Muted {
		t.Errorf("expected zero payload, got %+v (%v)", m, err)
	}

	env, _ = ParseEnvelope([]byte(`{"type":"audio/mute","payload":"yes"}`))
	if err := env.Decode(&m); err == nil {
		t.Error("expected error for mistyped payload")
	}
}

func TestMessageOmitsDefaults(t *testing.T) {
	data, err := json.Marshal(Message{Type: TypePlay, Payload: Play{Sound: "click"}})
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if got != `{"type":"audio/play","payload":{"sound":"click"}}` {
		t.Errorf("unexpected encoding %s", got)
	}

	data, _ = json.Marshal(Message{Type: TypeResume})
	if strings.Contains(string(data), "payload") {
		t.Errorf("expected payload omitted, got %s", data)
	}
}

func TestExplicitZeroSurvivesTheWire(t *testing.T) {
	tests := []struct {
		name  string
		input Play
		want  string
	}{
		{"unset", Play{Sound: "hover"}, `{"sound":"hover"}`},
		{"silent", Play{Sound: "hover", Volume: Float32(0)}, `{"sound":"hover","volume":0}`},
		{"half", Play{Sound: "hover", Volume: Float32(0.5)}, `{"sound":"hover","volume":0.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, data)
			}

			var back Play
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			if (back.Volume == nil) != (tt.input.Volume == nil) {
				t.Fatalf("volume presence changed: %v -> %v", tt.input.Volume, back.Volume)
			}
			if back.Volume != nil && *back.Volume != *tt.input.Volume {
				t.Errorf("expected volume %v, got %v", *tt.input.Volume, *back.Volume)
			}
		})
	}
}

func TestVec3RoundTrip(t *testing.T) {
	v := audio.V3(1.5, -2, 3)
	if got := FromVec3(v).Audio(); got != v {
		t.Errorf("expected %+v, got %+v", v, got)
	}
}
