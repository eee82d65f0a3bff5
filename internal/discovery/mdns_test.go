// ABOUTME: Tests for mDNS discovery
// ABOUTME: Covers configuration defaults and answer parsing
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Kitchen", Port: 8930})
	require.NotNil(t, mgr)
	assert.Equal(t, "/control", mgr.config.Path)

	mgr.Stop()
	mgr.Stop()
}

func TestTXTRecords(t *testing.T) {
	mgr := NewManager(Config{Path: "/filter", PlayerID: "abc"})
	assert.Equal(t, []string{"path=/filter", "id=abc"}, mgr.txtRecords())

	mgr = NewManager(Config{})
	assert.Equal(t, []string{"path=/control"}, mgr.txtRecords())
}

func TestPlayerFromEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       `Living\ Room._filterplay._tcp.local.`,
		Host:       "living.local.",
		AddrV4:     net.ParseIP("192.168.1.20"),
		Port:       8930,
		InfoFields: []string{"path=/filter", "id=p-1", "junk"},
	}

	p := playerFromEntry(entry)
	require.NotNil(t, p)
	assert.Equal(t, "Living Room", p.Name)
	assert.Equal(t, "192.168.1.20", p.Host)
	assert.Equal(t, 8930, p.Port)
	assert.Equal(t, "/filter", p.Path)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "192.168.1.20:8930", p.Addr())
	assert.Equal(t, "ws://192.168.1.20:8930/filter", p.URL())
}

func TestPlayerFromEntryFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		entry *mdns.ServiceEntry
		host  string
	}{
		{"ipv6", &mdns.ServiceEntry{Name: "a", AddrV6: net.ParseIP("fe80::1"), Port: 1}, "fe80::1"},
		{"hostname", &mdns.ServiceEntry{Name: "b", Host: "player.local.", Port: 1}, "player.local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := playerFromEntry(tt.entry)
			require.NotNil(t, p)
			assert.Equal(t, tt.host, p.Host)
			assert.Equal(t, "/control", p.Path)
		})
	}

	assert.Equal(t, "[fe80::1]:1", playerFromEntry(tests[0].entry).Addr())
}

func TestPlayerFromEntryRejectsUnusable(t *testing.T) {
	assert.Nil(t, playerFromEntry(nil))
	assert.Nil(t, playerFromEntry(&mdns.ServiceEntry{Name: "x", AddrV4: net.ParseIP("10.0.0.1")}))
	assert.Nil(t, playerFromEntry(&mdns.ServiceEntry{Name: "x", Port: 1}))
}

func TestPlayerFromEntryIgnoresRelativePath(t *testing.T) {
	p := playerFromEntry(&mdns.ServiceEntry{
		Name:       "x",
		AddrV4:     net.ParseIP("10.0.0.1"),
		Port:       1,
		InfoFields: []string{"path=control"},
	})
	require.NotNil(t, p)
	assert.Equal(t, "/control", p.Path)
}
