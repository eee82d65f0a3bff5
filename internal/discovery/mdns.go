// ABOUTME: mDNS service discovery for filterplay control surfaces
// ABOUTME: Advertises a running player and browses for players on the LAN
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/sirupsen/logrus"
)

const (
	// ServiceType is the DNS-SD type players advertise under
	ServiceType = "_filterplay._tcp"

	// DefaultQueryTimeout is how long a single browse query listens
	DefaultQueryTimeout = 3 * time.Second
)

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string // control endpoint path advertised in TXT
	PlayerID    string
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	players chan *PlayerInfo

	mu     sync.Mutex
	server *mdns.Server
}

// PlayerInfo describes a discovered player
type PlayerInfo struct {
	Name string
	Host string
	Port int
	Path string
	ID   string
}

// Addr returns host:port for dialing
func (p *PlayerInfo) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// URL returns the websocket control URL
func (p *PlayerInfo) URL() string {
	return "ws://" + p.Addr() + p.Path
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = "/control"
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		players: make(chan *PlayerInfo, 10),
	}
}

// Advertise announces this player via mDNS until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.mu.Lock()
	m.server = server
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"name": m.config.ServiceName,
		"port": m.config.Port,
		"type": ServiceType,
	}).Info("Advertising mDNS service")

	return nil
}

func (m *Manager) txtRecords() []string {
	txt := []string{"path=" + m.config.Path}
	if m.config.PlayerID != "" {
		txt = append(txt, "id="+m.config.PlayerID)
	}
	return txt
}

// Browse continuously searches for players and delivers them on Players
func (m *Manager) Browse() {
	go m.browseLoop()
}

func (m *Manager) browseLoop() {
	for m.ctx.Err() == nil {
		found, err := Lookup(m.ctx, DefaultQueryTimeout)
		if err != nil {
			logrus.WithError(err).Debug("mDNS query failed")
		}
		for _, p := range found {
			select {
			case m.players <- p:
			case <-m.ctx.Done():
				return
			}
		}
	}
}

// Players returns the channel of discovered players
func (m *Manager) Players() <-chan *PlayerInfo {
	return m.players
}

// Stop withdraws the advertisement and ends browsing
func (m *Manager) Stop() {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server != nil {
		m.server.Shutdown()
		m.server = nil
	}
}

// Lookup runs one query and returns every player that answered within timeout
func Lookup(ctx context.Context, timeout time.Duration) ([]*PlayerInfo, error) {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	entries := make(chan *mdns.ServiceEntry, 16)
	var players []*PlayerInfo
	done := make(chan struct{})

	go func() {
		defer close(done)
		seen := make(map[string]bool)
		for entry := range entries {
			p := playerFromEntry(entry)
			if p == nil || seen[p.Addr()] {
				continue
			}
			seen[p.Addr()] = true
			logrus.WithFields(logrus.Fields{"name": p.Name, "addr": p.Addr()}).Debug("Discovered player")
			players = append(players, p)
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Timeout = timeout
	params.Entries = entries
	params.DisableIPv6 = true

	err := mdns.Query(params)
	close(entries)
	<-done

	if err != nil {
		return players, fmt.Errorf("mdns query: %w", err)
	}
	return players, nil
}

// playerFromEntry converts an mDNS answer, returning nil when it has no
// usable address
func playerFromEntry(entry *mdns.ServiceEntry) *PlayerInfo {
	if entry == nil || entry.Port == 0 {
		return nil
	}

	p := &PlayerInfo{
		Name: instanceName(entry.Name),
		Port: entry.Port,
		Path: "/control",
	}

	switch {
	case entry.AddrV4 != nil:
		p.Host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		p.Host = entry.AddrV6.String()
	case entry.Host != "":
		p.Host = strings.TrimSuffix(entry.Host, ".")
	default:
		return nil
	}

	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "path":
			if strings.HasPrefix(value, "/") {
				p.Path = value
			}
		case "id":
			p.ID = value
		}
	}

	return p
}

// instanceName strips the service and domain from a full instance name
func instanceName(full string) string {
	if i := strings.Index(full, "."+ServiceType); i >= 0 {
		full = full[:i]
	}
	return strings.ReplaceAll(full, `\ `, " ")
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
