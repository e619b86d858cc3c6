package transport

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Conn wraps a TCP connection with line-based reading and writing. One wire
// message occupies one line.
type Conn struct {
	id     int64
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// newConn wraps a raw TCP connection.
//
// Precondition: raw must be a valid, open network connection.
func newConn(id int64, raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		id:           id,
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// ID returns the connection id assigned by the acceptor. The id is stable
// until disconnect and is never reused for the process lifetime.
func (c *Conn) ID() int64 {
	return c.id
}

// ReadLine reads a single message line. The returned line does not include
// the trailing newline; a trailing \r is stripped.
//
// Postcondition: Returns the next line of input, or an error (including io.EOF).
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine sends a message line followed by \n to the client.
//
// Precondition: line must not contain newline characters.
// Postcondition: line + \n is written to the connection.
func (c *Conn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := fmt.Fprintf(c.raw, "%s\n", line)
	return err
}

// Close closes the underlying TCP connection.
//
// Postcondition: The connection is closed and no longer usable.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the remote network address of the client.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}
