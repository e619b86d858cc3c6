// Package dispatch decodes inbound wire messages, validates them against the
// current server state, and drives the account store, matchmaking queue, and
// room registry to produce responses and broadcasts.
package dispatch

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/matchserver/internal/account"
	"github.com/cory-johannsen/matchserver/internal/game/match"
	"github.com/cory-johannsen/matchserver/internal/game/room"
	"github.com/cory-johannsen/matchserver/internal/protocol"
)

// Sender delivers an outbound message to a live connection. The transport
// acceptor satisfies this interface.
type Sender interface {
	Send(id int64, msg protocol.Message) error
}

// Dispatcher is the authoritative message handler. All mutations of the
// shared stores happen under a single mutex, so exactly one authoritative
// mutation is in flight at a time regardless of how many connection
// goroutines feed it.
type Dispatcher struct {
	accounts account.Store
	queue    *match.Queue
	rooms    *room.Registry
	sender   Sender
	logger   *zap.Logger

	mu sync.Mutex
}

// New creates a Dispatcher over the given collaborators.
//
// Precondition: all arguments must be non-nil.
func New(accounts account.Store, queue *match.Queue, rooms *room.Registry, sender Sender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		accounts: accounts,
		queue:    queue,
		rooms:    rooms,
		sender:   sender,
		logger:   logger,
	}
}

// HandleConnect records a new connection.
func (d *Dispatcher) HandleConnect(id int64) {
	d.logger.Info("client connected", zap.Int64("conn_id", id))
}

// HandleDisconnect cleans up all state referencing the connection: its queue
// slot is cleared and any room containing it is evicted.
//
// Postcondition: id resolves to no room and does not occupy the queue slot.
func (d *Dispatcher) HandleDisconnect(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.queue.Remove(id) {
		d.logger.Info("removed disconnected client from matchmaking queue",
			zap.Int64("conn_id", id),
		)
	}
	if r, ok := d.rooms.RemoveByPlayer(id); ok {
		d.logger.Info("evicted room after disconnect",
			zap.Int64("conn_id", id),
			zap.String("room_id", r.ID.String()),
		)
	}
	d.logger.Info("client disconnected", zap.Int64("conn_id", id))
}

// HandleMessage decodes and dispatches one inbound wire line. Malformed or
// out-of-sequence messages fail closed: they are logged and dropped, never
// answered and never fatal to the dispatch loop.
func (d *Dispatcher) HandleMessage(ctx context.Context, id int64, line string) {
	msg, err := protocol.Decode(line)
	if err != nil {
		d.logger.Warn("dropping malformed message",
			zap.Int64("conn_id", id),
			zap.Error(err),
		)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch msg.Signifier {
	case protocol.CreateAccountAttempt:
		d.handleCreateAccount(ctx, id, msg)
	case protocol.LoginAttempt:
		d.handleLogin(ctx, id, msg)
	case protocol.AddToGameRoomQueue:
		d.handleEnqueue(id)
	case protocol.TicTacToePlay:
		d.handlePlay(id)
	default:
		d.logger.Warn("dropping message with unknown signifier",
			zap.Int64("conn_id", id),
			zap.Int("signifier", msg.Signifier),
		)
	}
}

func (d *Dispatcher) handleCreateAccount(ctx context.Context, id int64, msg protocol.Message) {
	name, password, ok := d.credentials(id, msg)
	if !ok {
		return
	}

	acct, err := d.accounts.Create(ctx, name, password)
	if err != nil {
		if errors.Is(err, account.ErrAccountExists) {
			d.logger.Debug("account name taken",
				zap.Int64("conn_id", id),
				zap.String("name", name),
			)
		} else {
			// Persistence failure: the store rolled the record back, the
			// client hears a failure, and the error is surfaced here.
			d.logger.Error("creating account",
				zap.Int64("conn_id", id),
				zap.String("name", name),
				zap.Error(err),
			)
		}
		d.send(id, protocol.New(protocol.CreateAccountFailure))
		return
	}

	d.logger.Info("account created",
		zap.Int64("conn_id", id),
		zap.String("name", acct.Name),
	)
	d.send(id, protocol.New(protocol.CreateAccountSuccess))
}

func (d *Dispatcher) handleLogin(ctx context.Context, id int64, msg protocol.Message) {
	name, password, ok := d.credentials(id, msg)
	if !ok {
		return
	}

	acct, err := d.accounts.Authenticate(ctx, name, password)
	if err != nil {
		// Unknown name and wrong password share one failure signifier; the
		// two cases are indistinguishable on the wire.
		switch {
		case errors.Is(err, account.ErrAccountNotFound),
			errors.Is(err, account.ErrInvalidCredentials):
			d.logger.Debug("login rejected",
				zap.Int64("conn_id", id),
				zap.String("name", name),
			)
		default:
			d.logger.Error("authenticating account",
				zap.Int64("conn_id", id),
				zap.String("name", name),
				zap.Error(err),
			)
		}
		d.send(id, protocol.New(protocol.LoginFailure))
		return
	}

	d.logger.Info("login succeeded",
		zap.Int64("conn_id", id),
		zap.String("name", acct.Name),
	)
	d.send(id, protocol.New(protocol.LoginSuccess))
}

func (d *Dispatcher) handleEnqueue(id int64) {
	// A connection occupies at most one room, so an enqueue from a roomed
	// player fails closed like any other out-of-sequence message.
	if r, err := d.rooms.FindByPlayer(id); err == nil {
		d.logger.Warn("dropping enqueue from player already in a room",
			zap.Int64("conn_id", id),
			zap.String("room_id", r.ID.String()),
		)
		return
	}

	res := d.queue.Enqueue(id)
	if !res.Paired {
		// The client is left waiting; no response is defined for this case.
		d.logger.Info("client waiting for match", zap.Int64("conn_id", id))
		return
	}

	r := d.rooms.Create(res.Opponent, id)
	d.logger.Info("game room started",
		zap.String("room_id", r.ID.String()),
		zap.Int64("player_a", r.PlayerA),
		zap.Int64("player_b", r.PlayerB),
	)
	d.send(id, protocol.New(protocol.GameRoomStarted))
	d.send(res.Opponent, protocol.New(protocol.GameRoomStarted))
}

func (d *Dispatcher) handlePlay(id int64) {
	r, err := d.rooms.FindByPlayer(id)
	if err != nil {
		d.logger.Warn("dropping play from player with no room",
			zap.Int64("conn_id", id),
			zap.Error(err),
		)
		return
	}

	opponent, err := r.Opponent(id)
	if err != nil {
		// Registry invariant violation: report, never guess a substitute id.
		d.logger.Error("room contains player it does not index",
			zap.Int64("conn_id", id),
			zap.String("room_id", r.ID.String()),
			zap.Error(err),
		)
		return
	}

	d.logger.Debug("relaying play",
		zap.Int64("from", id),
		zap.Int64("to", opponent),
		zap.String("room_id", r.ID.String()),
	)
	d.send(opponent, protocol.New(protocol.OpponentPlayed))
}

// credentials extracts the (name, password) payload shared by the account
// messages. Field-count mismatches fail closed.
func (d *Dispatcher) credentials(id int64, msg protocol.Message) (string, string, bool) {
	name, err := msg.Field(0)
	if err == nil {
		var password string
		password, err = msg.Field(1)
		if err == nil {
			return name, password, true
		}
	}
	d.logger.Warn("dropping account message with missing fields",
		zap.Int64("conn_id", id),
		zap.Int("signifier", msg.Signifier),
		zap.Error(err),
	)
	return "", "", false
}

// send encodes and delivers a message, logging delivery failures. A failed
// send is not fatal: the transport owns connection teardown.
func (d *Dispatcher) send(id int64, msg protocol.Message) {
	if err := d.sender.Send(id, msg); err != nil {
		d.logger.Warn("sending message",
			zap.Int64("conn_id", id),
			zap.Int("signifier", msg.Signifier),
			zap.Error(err),
		)
	}
}
