// Package testutil provides test helpers including container management
// and test client utilities.
package testutil

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/cory-johannsen/matchserver/internal/protocol"
)

// ProtocolClient is a line-protocol test client for integration testing.
type ProtocolClient struct {
	conn   net.Conn
	reader *bufio.Reader
	t      *testing.T
}

// NewProtocolClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected ProtocolClient or fails the test.
func NewProtocolClient(t *testing.T, addr string) *ProtocolClient {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}

	t.Cleanup(func() {
		conn.Close()
	})

	return &ProtocolClient{
		conn:   conn,
		reader: bufio.NewReader(conn),
		t:      t,
	}
}

// Send writes one wire message to the server.
//
// Postcondition: The encoded message plus newline is written, or the test fails.
func (c *ProtocolClient) Send(msg protocol.Message) {
	c.t.Helper()
	line, err := msg.Encode()
	if err != nil {
		c.t.Fatalf("encoding %+v: %v", msg, err)
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\n", line); err != nil {
		c.t.Fatalf("sending %q: %v", line, err)
	}
}

// SendRaw writes a raw line to the server, bypassing encoding. Useful for
// driving malformed input.
func (c *ProtocolClient) SendRaw(line string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\n", line); err != nil {
		c.t.Fatalf("sending raw %q: %v", line, err)
	}
}

// Recv reads and decodes the next message from the server.
//
// Postcondition: Returns the decoded message, or fails the test on timeout
// or decode error.
func (c *ProtocolClient) Recv(timeout time.Duration) protocol.Message {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	line, err := c.reader.ReadString('\n')
	if err != nil {
		c.t.Fatalf("reading message: %v", err)
	}
	msg, err := protocol.Decode(line[:len(line)-1])
	if err != nil {
		c.t.Fatalf("decoding %q: %v", line, err)
	}
	return msg
}

// AssertSilent fails the test if the server sends anything within the window.
func (c *ProtocolClient) AssertSilent(window time.Duration) {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(window))

	buf := make([]byte, 1)
	n, err := c.conn.Read(buf)
	if err == nil || n > 0 {
		c.t.Fatalf("expected silence, got data")
	}
	if netErr, ok := err.(net.Error); !ok || !netErr.Timeout() {
		c.t.Fatalf("expected read timeout, got: %v", err)
	}
}

// Close closes the underlying connection.
func (c *ProtocolClient) Close() {
	c.conn.Close()
}
