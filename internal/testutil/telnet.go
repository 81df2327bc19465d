// Package testutil provides helpers shared by integration tests.
package testutil

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/connectfour/internal/frontend/telnet"
)

// TelnetClient is a simple Telnet test client for integration testing.
// Output is buffered across reads; each ReadUntil consumes the buffer up to
// and including its match.
type TelnetClient struct {
	conn   net.Conn
	t      *testing.T
	buffer string
	// partial holds an escape sequence split across reads.
	partial string
}

// NewTelnetClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &TelnetClient{conn: conn, t: t}
}

// ReadUntil reads until substr appears in the ANSI-stripped output or the
// timeout passes. It returns the output up to and including the match.
//
// Precondition: substr must be non-empty.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	var out string
	c.readFor(timeout, func() bool {
		idx := strings.Index(c.buffer, substr)
		if idx < 0 {
			return false
		}
		end := idx + len(substr)
		out, c.buffer = c.buffer[:end], c.buffer[end:]
		return true
	}, substr)
	return out
}

// Capture reads until re matches and returns its first submatch.
//
// Precondition: re has at least one capture group.
func (c *TelnetClient) Capture(re *regexp.Regexp, timeout time.Duration) string {
	c.t.Helper()
	var group string
	c.readFor(timeout, func() bool {
		loc := re.FindStringSubmatchIndex(c.buffer)
		if loc == nil {
			return false
		}
		group = c.buffer[loc[2]:loc[3]]
		c.buffer = c.buffer[loc[1]:]
		return true
	}, re.String())
	return group
}

func (c *TelnetClient) readFor(timeout time.Duration, match func() bool, what string) {
	c.t.Helper()
	if match() {
		return
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	tmp := make([]byte, 4096)
	for {
		n, err := c.conn.Read(tmp)
		if n > 0 {
			c.append(string(tmp[:n]))
			if match() {
				return
			}
		}
		if err != nil {
			c.t.Fatalf("reading until %q: got %q, error: %v", what, c.buffer, err)
		}
	}
}

func (c *TelnetClient) append(chunk string) {
	data := c.partial + chunk
	c.partial = ""
	if esc := strings.LastIndexByte(data, '\033'); esc >= 0 && unterminated(data[esc:]) {
		data, c.partial = data[:esc], data[esc:]
	}
	c.buffer += telnet.StripANSI(data)
}

// unterminated reports whether seq, starting at ESC, lacks its final byte.
func unterminated(seq string) bool {
	if len(seq) < 2 {
		return true
	}
	if seq[1] != '[' {
		return false
	}
	for i := 2; i < len(seq); i++ {
		if seq[i] >= 0x40 && seq[i] <= 0x7e {
			return false
		}
	}
	return true
}

// Send writes a line of text to the server, appending \r\n.
//
// Precondition: text should not contain trailing newline characters.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}
