// Package status exposes the daemon state over HTTP and the gRPC health
// protocol.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kennygrant/sanitize"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"k8s.io/klog/v2"

	"github.com/ydb-platform/lid-manager/internal/manager"
	"github.com/ydb-platform/lid-manager/internal/mux"
)

// Service is the gRPC health service name reporting the lid watcher.
const Service = "lid-manager.LidWatcher"

type Server struct {
	mu    sync.RWMutex
	state manager.State
	seen  bool

	health *health.Server

	httpServer *http.Server
	grpcServer *grpc.Server
	socketPath string
}

func New() *Server {
	s := &Server{
		health: health.NewServer(),
	}
	s.health.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Sink returns the subscriber that keeps the server's copy of the state.
func (s *Server) Sink() mux.Sink[manager.State] {
	return mux.SinkFromFunc(s.update)
}

// Follow subscribes the server to src.
func (s *Server) Follow(src mux.Source[manager.State]) mux.CancelFunc {
	return src.Subscribe(s.Sink())
}

func (s *Server) update(state manager.State) {
	s.mu.Lock()
	s.state = state
	s.seen = true
	s.mu.Unlock()

	if state.LidDevice != "" {
		s.health.SetServingStatus(Service, healthpb.HealthCheckResponse_SERVING)
	} else {
		s.health.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

func (s *Server) snapshot() (manager.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.seen
}

func (s *Server) Healthz(resp http.ResponseWriter, req *http.Request) {
	state, seen := s.snapshot()
	if !seen {
		resp.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(resp, "not started")
		return
	}

	resp.WriteHeader(http.StatusOK)
	if state.LidDevice == "" {
		fmt.Fprintln(resp, "lid handling disabled")
	}
	if state.Supply == "" {
		fmt.Fprintln(resp, "no AC supply, assuming battery")
	}
}

func (s *Server) State(resp http.ResponseWriter, req *http.Request) {
	state, _ := s.snapshot()
	resp.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(resp).Encode(state); err != nil {
		klog.Errorf("failed to encode state: %v", err)
	}
}

func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("/healthz", s.Healthz)
	router.HandleFunc("/state", s.State)
	return router
}

// ServeHTTP listens on addr and serves /healthz and /state.
func (s *Server) ServeHTTP(addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		klog.Infof("serving /healthz and /state on %s", listener.Addr())
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Errorf("status server failed: %v", err)
		}
	}()
	return listener.Addr(), nil
}

// SocketPath is the health socket of the daemon named who inside dir.
func SocketPath(dir, who string) string {
	return filepath.Join(dir, sanitize.BaseName(who)+".sock")
}

// ServeGRPC serves the gRPC health service on a unix socket in dir.
func (s *Server) ServeGRPC(dir, who string) (string, error) {
	socketPath := SocketPath(dir, who)
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to remove socket file %s: %w", socketPath, err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return "", fmt.Errorf("failed to listen on socket %s: %w", socketPath, err)
	}

	s.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.socketPath = socketPath

	go func() {
		klog.Infof("serving gRPC health on socket %q", socketPath)
		if err := s.grpcServer.Serve(listener); err != nil {
			klog.Errorf("gRPC health server failed: %v", err)
		}
	}()
	return socketPath, nil
}

func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			klog.Warningf("failed to stop status server: %v", err)
		}
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
		os.Remove(s.socketPath)
	}
}
