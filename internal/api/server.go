package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/remo-bridge/internal/infrastructure/config"
	"github.com/nerrad567/remo-bridge/internal/platform"
	"github.com/nerrad567/remo-bridge/internal/poller"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

// gracefulShutdownTimeout bounds the wait for in-flight requests on Close.
const gracefulShutdownTimeout = 10 * time.Second

// Logger is the logging interface used by the server.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// HealthCheck reports the health of one component.
type HealthCheck func(ctx context.Context) error

// Deps holds the dependencies of the server.
type Deps struct {
	Config   config.APIConfig
	Logger   Logger
	Poller   *poller.Poller
	Platform *platform.Platform
	// Gatherer serves /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Checks are run by /health, keyed by component name.
	Checks  map[string]HealthCheck
	Version string
}

// Server is the status HTTP server.
type Server struct {
	cfg       config.APIConfig
	logger    Logger
	poller    *poller.Poller
	platform  *platform.Platform
	gatherer  prometheus.Gatherer
	checks    map[string]HealthCheck
	version   string
	startTime time.Time

	hub          *Hub
	server       *http.Server
	listener     net.Listener
	cancel       context.CancelFunc
	unsubscribes []func()
}

// New creates a server. It does not listen until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Poller == nil {
		return nil, fmt.Errorf("poller is required")
	}
	if deps.Platform == nil {
		return nil, fmt.Errorf("platform is required")
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		poller:    deps.Poller,
		platform:  deps.Platform,
		gatherer:  gatherer,
		checks:    deps.Checks,
		version:   deps.Version,
		startTime: time.Now(),
	}
	s.hub = NewHub(deps.Logger, s.snapshot)
	return s, nil
}

// Start binds the listener, relays poller snapshots to WebSocket clients
// and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.unsubscribes = append(s.unsubscribes,
		s.poller.Devices.Subscribe(func(devices []remo.Device) { s.hub.Broadcast(ChannelDevices, devices) }),
		s.poller.Aircons.Subscribe(func([]remo.Appliance) { s.broadcastAppliances() }),
		s.poller.IRs.Subscribe(func([]remo.Appliance) { s.broadcastAppliances() }),
	)

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server listening", "address", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops relaying snapshots and shuts the server down, waiting for
// in-flight requests.
func (s *Server) Close() error {
	for _, unsubscribe := range s.unsubscribes {
		unsubscribe()
	}
	s.unsubscribes = nil

	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
