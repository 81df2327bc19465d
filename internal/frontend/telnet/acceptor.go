package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/connectfour/internal/config"
)

// SessionHandler runs the command loop for one connected client.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn) error
}

// Acceptor listens for Telnet connections and hands each one to a
// SessionHandler. It satisfies server.Service.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[*Conn]context.CancelFunc
	stopped  bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewAcceptor creates a Telnet acceptor with the given configuration.
//
// Precondition: handler and logger must be non-nil.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	return &Acceptor{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		conns:   make(map[*Conn]context.CancelFunc),
		done:    make(chan struct{}),
	}
}

// Listen binds the configured address. Port 0 picks a free port; see Addr.
func (a *Acceptor) Listen() error {
	lis, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	a.mu.Lock()
	a.listener = lis
	a.mu.Unlock()
	a.logger.Info("telnet acceptor listening", zap.String("addr", lis.Addr().String()))
	return nil
}

// Start binds the listener if needed and serves until ctx is cancelled or
// Stop is called.
func (a *Acceptor) Start(ctx context.Context) error {
	a.mu.Lock()
	bound := a.listener != nil
	a.mu.Unlock()
	if !bound {
		if err := a.Listen(); err != nil {
			return err
		}
	}
	return a.Serve(ctx)
}

// Serve accepts connections on the bound listener.
//
// Precondition: Listen has succeeded.
// Postcondition: Returns nil once the acceptor is stopped or ctx is cancelled.
func (a *Acceptor) Serve(ctx context.Context) error {
	a.mu.Lock()
	lis := a.listener
	a.mu.Unlock()
	if lis == nil {
		return errors.New("telnet acceptor is not listening")
	}

	go func() {
		select {
		case <-ctx.Done():
			a.Stop()
		case <-a.done:
		}
	}()

	for {
		raw, err := lis.Accept()
		if err != nil {
			if a.isStopped() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			a.logger.Error("accepting connection", zap.Error(err))
			continue
		}

		conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
		sessCtx, cancel := context.WithCancel(ctx)
		if !a.track(conn, cancel) {
			cancel()
			_ = conn.Close()
			return nil
		}
		go a.handleConn(sessCtx, conn)
	}
}

func (a *Acceptor) track(conn *Conn, cancel context.CancelFunc) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return false
	}
	a.conns[conn] = cancel
	a.wg.Add(1)
	return true
}

func (a *Acceptor) untrack(conn *Conn) {
	a.mu.Lock()
	if cancel, ok := a.conns[conn]; ok {
		cancel()
		delete(a.conns, conn)
	}
	a.mu.Unlock()
	a.wg.Done()
}

func (a *Acceptor) handleConn(ctx context.Context, conn *Conn) {
	defer a.untrack(conn)
	defer conn.Close()

	start := time.Now()
	addr := conn.RemoteAddr().String()
	a.logger.Info("client connected", zap.String("remote_addr", addr))

	if err := conn.Negotiate(); err != nil {
		a.logger.Warn("telnet negotiation failed", zap.String("remote_addr", addr), zap.Error(err))
		return
	}

	if err := a.handler.HandleSession(ctx, conn); err != nil {
		a.logger.Debug("session ended",
			zap.String("remote_addr", addr),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return
	}
	a.logger.Info("session ended cleanly",
		zap.String("remote_addr", addr),
		zap.Duration("duration", time.Since(start)),
	)
}

// Stop closes the listener and every open connection, then waits for the
// session goroutines to return. It is safe to call more than once.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	close(a.done)
	if a.listener != nil {
		_ = a.listener.Close()
	}
	for conn, cancel := range a.conns {
		cancel()
		_ = conn.Close()
	}
	a.mu.Unlock()

	a.wg.Wait()
	a.logger.Info("telnet acceptor stopped")
}

func (a *Acceptor) isStopped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}

// Addr returns the bound address, or "" before Listen.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return ""
}

// Sessions returns the number of connections currently being served.
func (a *Acceptor) Sessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.conns)
}
