package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/queue"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/shared/id"
)

// acceptRetryInterval paces the accept loop while Accept keeps failing
const acceptRetryInterval = 100 * time.Millisecond

var ErrNotListening = errors.New("broker is not listening")

// Server owns the queue and the listening socket
type Server struct {
	socketPath string
	queue      *queue.Queue
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	ids        *id.Generator
	pacer      *rate.Limiter

	mu       sync.Mutex
	listener *net.UnixListener
	conns    map[net.Conn]struct{}
}

// New creates a broker for q. It does not touch the socket path until Listen.
func New(socketPath string, q *queue.Queue, logger *logging.Logger, metrics *monitoring.Metrics) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	metrics.SetQueueCapacity(q.Cap())

	return &Server{
		socketPath: socketPath,
		queue:      q,
		logger:     logger.Named("broker"),
		metrics:    metrics,
		ids:        id.NewGenerator(),
		pacer:      rate.NewLimiter(rate.Every(acceptRetryInterval), 1),
		conns:      make(map[net.Conn]struct{}),
	}
}

// Listen removes a stale socket file and binds the endpoint. Removal and bind
// are not atomic; two brokers racing on one path can steal each other's socket.
func (s *Server) Listen() error {
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket %s: %w", s.socketPath, err)
	}

	addr := &net.UnixAddr{Name: s.socketPath, Net: "unix"}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.socketPath, err)
	}
	// the socket file goes away with the listener
	ln.SetUnlinkOnClose(true)

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("Broker listening",
		zap.String("socket", s.socketPath),
		zap.Int("queue_capacity", s.queue.Cap()),
	)
	return nil
}

// Addr returns the socket path
func (s *Server) Addr() string {
	return s.socketPath
}

// Queue returns the broker's queue
func (s *Server) Queue() *queue.Queue {
	return s.queue
}

// Metrics returns the broker's metrics collector
func (s *Server) Metrics() *monitoring.Metrics {
	return s.metrics
}

// Serve accepts connections until ctx is done or Close is called, serving
// each on its own goroutine. It returns after every session has ended.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return ErrNotListening
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		s.closeListener()
	}()

	g, gctx := errgroup.WithContext(ctx)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.metrics.IncAcceptErrors()
			s.logger.Warn("Accept failed", zap.Error(err))
			if werr := s.pacer.Wait(ctx); werr != nil {
				break
			}
			continue
		}

		s.track(conn)
		g.Go(func() error {
			defer s.untrack(conn)
			s.serveSession(gctx, conn)
			return nil
		})
	}

	cancel()
	s.closeConns()
	err := g.Wait()
	s.logger.Info("Broker stopped")
	return err
}

// Close stops accepting and unlinks the socket. Sessions in flight are
// unwound by Serve.
func (s *Server) Close() error {
	return s.closeListener()
}

func (s *Server) closeListener() error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	if ln == nil {
		return nil
	}
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}
