package dispatch_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/matchserver/internal/account"
	"github.com/cory-johannsen/matchserver/internal/config"
	"github.com/cory-johannsen/matchserver/internal/game/dispatch"
	"github.com/cory-johannsen/matchserver/internal/game/match"
	"github.com/cory-johannsen/matchserver/internal/game/room"
	"github.com/cory-johannsen/matchserver/internal/protocol"
	"github.com/cory-johannsen/matchserver/internal/testutil"
	"github.com/cory-johannsen/matchserver/internal/transport"
)

// startServer wires the full stack (file store, queue, registry, dispatcher,
// acceptor) the way cmd/server does, on an ephemeral port.
func startServer(t *testing.T) *transport.Acceptor {
	t.Helper()

	store, err := account.OpenFileStore(filepath.Join(t.TempDir(), "accounts.txt"))
	require.NoError(t, err)

	cfg := config.ListenConfig{
		Host:         "127.0.0.1",
		Port:         0,
		WriteTimeout: 5 * time.Second,
	}

	var acceptor *transport.Acceptor
	d := dispatch.New(store, match.NewQueue(), room.NewRegistry(),
		senderFunc(func(id int64, msg protocol.Message) error {
			return acceptor.Send(id, msg)
		}), zap.NewNop())
	acceptor = transport.NewAcceptor(cfg, d, zap.NewNop())

	go func() { _ = acceptor.ListenAndServe() }()
	t.Cleanup(acceptor.Stop)

	require.Eventually(t, func() bool { return acceptor.Addr() != "" },
		2*time.Second, 10*time.Millisecond, "server never started listening")
	return acceptor
}

type senderFunc func(id int64, msg protocol.Message) error

func (f senderFunc) Send(id int64, msg protocol.Message) error { return f(id, msg) }

func TestServer_AccountFlow(t *testing.T) {
	srv := startServer(t)
	c := testutil.NewProtocolClient(t, srv.Addr())

	c.Send(protocol.New(protocol.CreateAccountAttempt, "alice", "pw1"))
	assert.Equal(t, protocol.CreateAccountSuccess, c.Recv(2*time.Second).Signifier)

	c.Send(protocol.New(protocol.CreateAccountAttempt, "alice", "pw2"))
	assert.Equal(t, protocol.CreateAccountFailure, c.Recv(2*time.Second).Signifier)

	c.Send(protocol.New(protocol.LoginAttempt, "alice", "pw1"))
	assert.Equal(t, protocol.LoginSuccess, c.Recv(2*time.Second).Signifier)

	c.Send(protocol.New(protocol.LoginAttempt, "alice", "wrong"))
	assert.Equal(t, protocol.LoginFailure, c.Recv(2*time.Second).Signifier)
}

func TestServer_MatchAndRelay(t *testing.T) {
	srv := startServer(t)
	c1 := testutil.NewProtocolClient(t, srv.Addr())
	c2 := testutil.NewProtocolClient(t, srv.Addr())

	// First enqueue waits silently.
	c1.Send(protocol.New(protocol.AddToGameRoomQueue))
	c1.AssertSilent(200 * time.Millisecond)

	// Second enqueue pairs; both hear it.
	c2.Send(protocol.New(protocol.AddToGameRoomQueue))
	assert.Equal(t, protocol.GameRoomStarted, c1.Recv(2*time.Second).Signifier)
	assert.Equal(t, protocol.GameRoomStarted, c2.Recv(2*time.Second).Signifier)

	// A play reaches the opponent only.
	c1.Send(protocol.New(protocol.TicTacToePlay))
	assert.Equal(t, protocol.OpponentPlayed, c2.Recv(2*time.Second).Signifier)
	c1.AssertSilent(200 * time.Millisecond)

	c2.Send(protocol.New(protocol.TicTacToePlay))
	assert.Equal(t, protocol.OpponentPlayed, c1.Recv(2*time.Second).Signifier)
}

func TestServer_MalformedInputSurvives(t *testing.T) {
	srv := startServer(t)
	c := testutil.NewProtocolClient(t, srv.Addr())

	c.SendRaw("garbage")
	c.SendRaw("99")
	c.Send(protocol.New(protocol.TicTacToePlay)) // no room
	c.AssertSilent(200 * time.Millisecond)

	// The connection and the server are still healthy.
	c.Send(protocol.New(protocol.CreateAccountAttempt, "bob", "pw"))
	assert.Equal(t, protocol.CreateAccountSuccess, c.Recv(2*time.Second).Signifier)
}

func TestServer_ThirdEnqueueStartsFreshCycle(t *testing.T) {
	srv := startServer(t)
	c1 := testutil.NewProtocolClient(t, srv.Addr())
	c2 := testutil.NewProtocolClient(t, srv.Addr())
	c3 := testutil.NewProtocolClient(t, srv.Addr())

	c1.Send(protocol.New(protocol.AddToGameRoomQueue))
	c2.Send(protocol.New(protocol.AddToGameRoomQueue))
	assert.Equal(t, protocol.GameRoomStarted, c1.Recv(2*time.Second).Signifier)
	assert.Equal(t, protocol.GameRoomStarted, c2.Recv(2*time.Second).Signifier)

	c3.Send(protocol.New(protocol.AddToGameRoomQueue))
	c3.AssertSilent(200 * time.Millisecond)
}
