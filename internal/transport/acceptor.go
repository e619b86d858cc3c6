// Package transport provides the TCP line transport: it accepts connections,
// assigns each a stable integer connection id, surfaces connect, data, and
// disconnect events to a handler, and exposes a send primitive keyed by
// connection id.
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/matchserver/internal/config"
	"github.com/cory-johannsen/matchserver/internal/protocol"
)

// EventHandler receives connection lifecycle and data events. Calls for a
// single connection are sequential; calls across connections are concurrent.
type EventHandler interface {
	HandleConnect(id int64)
	HandleDisconnect(id int64)
	HandleMessage(ctx context.Context, id int64, line string)
}

// Acceptor listens on a TCP port, assigns connection ids, and pumps each
// connection's inbound lines to an EventHandler.
type Acceptor struct {
	cfg     config.ListenConfig
	handler EventHandler
	logger  *zap.Logger

	listener net.Listener
	wg       sync.WaitGroup
	quit     chan struct{}

	mu      sync.Mutex
	running bool
	nextID  int64
	conns   map[int64]*Conn
}

// NewAcceptor creates an Acceptor with the given configuration.
//
// Precondition: cfg must have a valid port; handler and logger must be non-nil.
// Postcondition: Returns an Acceptor ready to be started with ListenAndServe.
func NewAcceptor(cfg config.ListenConfig, handler EventHandler, logger *zap.Logger) *Acceptor {
	return &Acceptor{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		quit:    make(chan struct{}),
		conns:   make(map[int64]*Conn),
	}
}

// ListenAndServe starts the TCP listener and accepts connections until Stop
// is called. This method blocks until the acceptor is stopped.
//
// Precondition: The acceptor must not already be running.
// Postcondition: The listener is closed when this method returns.
func (a *Acceptor) ListenAndServe() error {
	start := time.Now()

	listener, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}

	a.mu.Lock()
	a.listener = listener
	a.running = true
	a.mu.Unlock()

	a.logger.Info("acceptor listening",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("startup", time.Since(start)),
	)

	for {
		raw, err := listener.Accept()
		if err != nil {
			select {
			case <-a.quit:
				return nil
			default:
				a.logger.Error("accepting connection", zap.Error(err))
				continue
			}
		}

		a.wg.Add(1)
		go a.handleConn(raw)
	}
}

// handleConn runs the read loop for a single TCP connection.
func (a *Acceptor) handleConn(raw net.Conn) {
	defer a.wg.Done()
	start := time.Now()
	addr := raw.RemoteAddr().String()

	a.mu.Lock()
	a.nextID++
	conn := newConn(a.nextID, raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	a.conns[conn.ID()] = conn
	a.mu.Unlock()

	a.logger.Info("connection accepted",
		zap.Int64("conn_id", conn.ID()),
		zap.String("remote_addr", addr),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel context when quit signal received
	go func() {
		select {
		case <-a.quit:
			cancel()
			_ = conn.Close()
		case <-ctx.Done():
		}
	}()

	a.handler.HandleConnect(conn.ID())

	for {
		line, err := conn.ReadLine()
		if err != nil {
			a.logger.Debug("read loop ended",
				zap.Int64("conn_id", conn.ID()),
				zap.String("remote_addr", addr),
				zap.Error(err),
				zap.Duration("duration", time.Since(start)),
			)
			break
		}
		if line == "" {
			continue
		}
		a.handler.HandleMessage(ctx, conn.ID(), line)
	}

	a.mu.Lock()
	delete(a.conns, conn.ID())
	a.mu.Unlock()
	_ = conn.Close()

	a.handler.HandleDisconnect(conn.ID())
}

// Send encodes and delivers a message to the given live connection.
//
// Postcondition: Returns an error if the id is not a live connection, the
// message cannot be encoded, or the write fails.
func (a *Acceptor) Send(id int64, msg protocol.Message) error {
	a.mu.Lock()
	conn, ok := a.conns[id]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("no live connection %d", id)
	}

	line, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encoding message for connection %d: %w", id, err)
	}
	if err := conn.WriteLine(line); err != nil {
		return fmt.Errorf("writing to connection %d: %w", id, err)
	}
	return nil
}

// Stop gracefully stops the acceptor, closing the listener and all live
// connections and waiting for the read loops to finish.
//
// Postcondition: All connections are closed and goroutines have exited.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.quit)
	if a.listener != nil {
		a.listener.Close()
	}
	a.mu.Unlock()

	a.wg.Wait()

	a.logger.Info("acceptor stopped")
}

// Addr returns the actual listening address, or empty string if not yet listening.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return ""
}

// ConnCount returns the number of live connections.
func (a *Acceptor) ConnCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.conns)
}
