// ABOUTME: Tests for mDNS discovery
// ABOUTME: Validates manager lifecycle, TXT records and entry conversion
package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestNewManagerDefaults(t *testing.T) {
	m := NewManager(Config{ServiceName: "floor-1", Port: 8927})
	defer m.Stop()

	if m.config.Path != "/audio" {
		t.Errorf("expected default path /audio, got %q", m.config.Path)
	}
	if got := m.txtRecords(); len(got) != 1 || got[0] != "path=/audio" {
		t.Errorf("unexpected TXT records %v", got)
	}
	if m.Servers() == nil {
		t.Error("expected servers channel")
	}
}

func TestManagerStop(t *testing.T) {
	m := NewManager(Config{ServiceName: "test", Port: 8080})
	m.Stop()

	select {
	case <-m.ctx.Done():
	case <-time.After(100 * time.Millisecond):
		t.Error("context should be cancelled after Stop")
	}
}

func TestServerInfoFromEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *mdns.ServiceEntry
		wantNil  bool
		wantAddr string
		wantPath string
	}{
		{"nil entry", nil, true, "", ""},
		{"no ipv4", &mdns.ServiceEntry{Name: "x", Port: 1}, true, "", ""},
		{
			"default path",
			&mdns.ServiceEntry{Name: "floor", AddrV4: net.IPv4(192, 168, 1, 10), Port: 8927},
			false, "192.168.1.10:8927", "/audio",
		},
		{
			"txt path",
			&mdns.ServiceEntry{Name: "floor", AddrV4: net.IPv4(10, 0, 0, 2), Port: 9000, InfoFields: []string{"path=/bridge"}},
			false, "10.0.0.2:9000", "/bridge",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := serverInfo(tt.entry)
			if tt.wantNil {
				if info != nil {
					t.Fatalf("expected nil, got %+v", info)
				}
				return
			}
			if info.Addr() != tt.wantAddr {
				t.Errorf("expected addr %s, got %s", tt.wantAddr, info.Addr())
			}
			if info.Path != tt.wantPath {
				t.Errorf("expected path %s, got %s", tt.wantPath, info.Path)
			}
		})
	}
}

func TestGetLocalIPs(t *testing.T) {
	ips, err := getLocalIPs()
	if err != nil {
		t.Fatalf("getLocalIPs failed: %v", err)
	}
	for _, ip := range ips {
		if ip.To4() == nil || ip.IsLoopback() {
			t.Errorf("unexpected address %v", ip)
		}
	}
}
