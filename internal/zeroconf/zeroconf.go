// Package zeroconf registers the console as an mDNS/DNS-SD service so
// other devices on the LAN can find it without knowing the address.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"
)

// Service manages mDNS service registration.
type Service struct {
	name    string // instance name / hostname, e.g. "hmconsole"
	port    int
	version string // module version from module.prop, "" when unknown
	live    bool   // whether a real daemon backs the console
	server  *zeroconf.Server
}

// New creates a zeroconf Service advertising the console on the given port.
func New(name string, port int, version string, live bool) *Service {
	return &Service{
		name:    name,
		port:    port,
		version: version,
		live:    live,
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at
// which point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	backend := "mock"
	if s.live {
		backend = "live"
	}
	txt := []string{"backend=" + backend}
	if s.version != "" {
		txt = append(txt, "version="+s.version)
	}

	server, err := zeroconf.Register(
		s.name,
		"_http._tcp",
		"local.",
		s.port,
		txt,
		nil, // all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	s.server = server
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"port", s.port,
		"txt", txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
