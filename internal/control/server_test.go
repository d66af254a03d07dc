// ABOUTME: Tests for the scene bridge
// ABOUTME: Runs the bridge on httptest against a headless engine and a protocol client
package control

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/Resonate-Protocol/casino-audio/pkg/audio/output"
	"github.com/Resonate-Protocol/casino-audio/pkg/engine"
	"github.com/Resonate-Protocol/casino-audio/pkg/mixer"
	"github.com/Resonate-Protocol/casino-audio/pkg/protocol"
)

func newTestBridge(t *testing.T) (*engine.Engine, *Server, string) {
	t.Helper()

	eng := engine.New(engine.Config{Output: output.NewNull()})
	data := make([]float32, 48000)
	for i := range data {
		data[i] = 0.1
	}
	if err := eng.RegisterBuffer("click", audio.NewBuffer(48000, 1, data)); err != nil {
		t.Fatal(err)
	}
	if err := eng.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { eng.Dispose() })

	srv := New(Config{Name: "test-floor", MeterInterval: 20 * time.Millisecond}, eng)
	go srv.broadcastMeters()
	t.Cleanup(srv.Stop)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return eng, srv, strings.TrimPrefix(ts.URL, "http://")
}

func dial(t *testing.T, addr, id string) *protocol.Client {
	t.Helper()
	c := protocol.NewClient(protocol.Config{ServerAddr: addr, ClientID: id, Name: "scene-" + id})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// eventually polls cond until it holds or the deadline passes
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHelloListsSoundsAndBuses(t *testing.T) {
	_, _, addr := newTestBridge(t)
	c := dial(t, addr, "a")

	hello := c.ServerHello()
	if hello.Name != "test-floor" || hello.Version != protocol.ProtocolVersion {
		t.Errorf("unexpected hello %+v", hello)
	}
	if hello.SampleRate != engine.DefaultSampleRate {
		t.Errorf("expected sample rate %d, got %d", engine.DefaultSampleRate, hello.SampleRate)
	}
	if len(hello.Sounds) != 1 || hello.Sounds[0] != "click" {
		t.Errorf("expected [click], got %v", hello.Sounds)
	}
	if len(hello.Buses) != mixer.NumBuses || hello.Buses[0] != "master" {
		t.Errorf("unexpected buses %v", hello.Buses)
	}
}

func TestPlayCommandStartsVoice(t *testing.T) {
	eng, srv, addr := newTestBridge(t)
	c := dial(t, addr, "a")

	if err := c.Play(protocol.Play{Sound: "click", Volume: protocol.Float32(0.5)}); err != nil {
		t.Fatal(err)
	}
	eventually(t, "a playing voice", func() bool { return eng.PlayingVoices("click") == 1 })

	clients := srv.Clients()
	if len(clients) != 1 || clients[0].Commands != 1 {
		t.Errorf("expected one client with one command, got %+v", clients)
	}
}

func TestSpatialCommands(t *testing.T) {
	eng, _, addr := newTestBridge(t)
	c := dial(t, addr, "a")

	err := c.PlaySpatial(protocol.PlaySpatial{
		Key:      "slot-1",
		Sound:    "click",
		Position: protocol.Vec3{X: 2},
		Loop:     true,
	})
	if err != nil {
		t.Fatal(err)
	}
	eventually(t, "spatial source", func() bool { return eng.SpatialActive("slot-1") })

	if err := c.UpdateListener(protocol.Listener{Position: protocol.Vec3{Y: 1.7}, Forward: protocol.Vec3{Z: -1}}); err != nil {
		t.Fatal(err)
	}
	eventually(t, "listener move", func() bool { return eng.Listener().Position == audio.V3(0, 1.7, 0) })

	if err := c.StopSpatial("slot-1"); err != nil {
		t.Fatal(err)
	}
	eventually(t, "source stop", func() bool { return !eng.SpatialActive("slot-1") })
}

func TestBusCommands(t *testing.T) {
	eng, _, addr := newTestBridge(t)
	c := dial(t, addr, "a")

	if err := c.SetBusVolume("ambient", 0.25, 0); err != nil {
		t.Fatal(err)
	}
	eventually(t, "bus volume", func() bool { return eng.GetBusVolume(mixer.Ambient) == 0.25 })

	if err := c.SetMuted(true); err != nil {
		t.Fatal(err)
	}
	eventually(t, "mute", eng.Muted)

	if err := c.SetBusVolume("lobby", 0.5, 0); err != nil {
		t.Fatal(err)
	}
	select {
	case se := <-c.Errors:
		if se.Code != protocol.ErrCodeUnknownBus {
			t.Errorf("expected unknown_bus, got %+v", se)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected server/error for unknown bus")
	}
}

func TestMetersBroadcast(t *testing.T) {
	_, _, addr := newTestBridge(t)
	c := dial(t, addr, "a")

	select {
	case m := <-c.Meters:
		if len(m.Buses) != mixer.NumBuses || m.Buses["master"] != 1 {
			t.Errorf("unexpected bus gains %v", m.Buses)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a meters broadcast")
	}
}

func TestDuplicateClientRejected(t *testing.T) {
	_, _, addr := newTestBridge(t)
	dial(t, addr, "same")

	c := protocol.NewClient(protocol.Config{ServerAddr: addr, ClientID: "same"})
	if err := c.Connect(context.Background()); err == nil {
		c.Close()
		t.Fatal("expected duplicate client id to be rejected")
	}
}

func TestResumeCommand(t *testing.T) {
	_, _, addr := newTestBridge(t)
	c := dial(t, addr, "a")

	if err := c.Resume(); err != nil {
		t.Fatal(err)
	}
	select {
	case se := <-c.Errors:
		t.Fatalf("unexpected error %+v", se)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatchUnknownType(t *testing.T) {
	eng := engine.New(engine.Config{Output: output.NewNull()})
	srv := New(Config{}, eng)
	client := &Client{ID: "x", Name: "x", sendChan: make(chan any, 1)}

	srv.handleClientMessage(client, []byte(`{"type":"audio/explode"}`))

	select {
	case msg := <-client.sendChan:
		m := msg.(protocol.Message)
		se := m.Payload.(protocol.ServerError)
		if m.Type != protocol.TypeServerError || se.Code != protocol.ErrCodeUnknownType {
			t.Errorf("unexpected reply %+v", m)
		}
	default:
		t.Fatal("expected an error reply")
	}
}

func TestPayloadOptionsKeepExplicitZeros(t *testing.T) {
	tests := []struct {
		name       string
		input      protocol.Play
		wantVolume float32
		wantRate   float64
	}{
		{"defaults", protocol.Play{Sound: "click"}, 1, 1},
		{"silent", protocol.Play{Sound: "click", Volume: protocol.Float32(0)}, 0, 1},
		{"quiet and slow", protocol.Play{Sound: "click", Volume: protocol.Float32(0.3), PlaybackRate: protocol.Float64(0.5)}, 0.3, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := playOptions(tt.input)
			if got.Volume != tt.wantVolume || got.PlaybackRate != tt.wantRate {
				t.Errorf("expected volume %v rate %v, got %+v", tt.wantVolume, tt.wantRate, got)
			}
		})
	}

	spatial := spatialOptions(protocol.PlaySpatial{Key: "k", Sound: "click", RolloffFactor: protocol.Float64(0)})
	if spatial.RolloffFactor != 0 {
		t.Errorf("expected rolloff 0 to be kept, got %v", spatial.RolloffFactor)
	}
	if spatial.Volume != 1 || spatial.MaxDistance != 50 {
		t.Errorf("expected unset fields to take defaults, got %+v", spatial)
	}
}
