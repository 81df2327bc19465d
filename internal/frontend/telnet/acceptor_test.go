package telnet

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/connectfour/internal/config"
)

// echoHandler repeats each line back until the client says bye.
type echoHandler struct {
	sessions atomic.Int32
}

func (h *echoHandler) HandleSession(ctx context.Context, conn *Conn) error {
	h.sessions.Add(1)
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		if line == "bye" {
			return conn.WriteLine("goodbye")
		}
		if err := conn.WriteLine("echo: " + line); err != nil {
			return err
		}
	}
}

func startAcceptor(t *testing.T, h SessionHandler) (*Acceptor, <-chan error) {
	t.Helper()
	cfg := config.TelnetConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	acc := NewAcceptor(cfg, h, zaptest.NewLogger(t))
	require.NoError(t, acc.Listen())

	errCh := make(chan error, 1)
	go func() { errCh <- acc.Serve(context.Background()) }()
	t.Cleanup(acc.Stop)
	return acc, errCh
}

// dialTelnet connects and consumes the option negotiation.
func dialTelnet(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	c, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	_ = c.SetDeadline(time.Now().Add(5 * time.Second))

	r := bufio.NewReader(c)
	neg := make([]byte, 3)
	_, err = io.ReadFull(r, neg)
	require.NoError(t, err)
	require.Equal(t, []byte{IAC, WILL, OptSuppressGoAhead}, neg)
	return c, r
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\r\n")
}

func TestAcceptor_EchoSession(t *testing.T) {
	h := &echoHandler{}
	acc, _ := startAcceptor(t, h)
	require.NotEmpty(t, acc.Addr())

	c, r := dialTelnet(t, acc.Addr())
	_, err := c.Write([]byte("create\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "echo: create", readLine(t, r))

	_, err = c.Write([]byte("bye\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "goodbye", readLine(t, r))
	assert.Equal(t, int32(1), h.sessions.Load())

	require.Eventually(t, func() bool { return acc.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestAcceptor_MultipleClients(t *testing.T) {
	h := &echoHandler{}
	acc, _ := startAcceptor(t, h)

	const clients = 4
	conns := make([]net.Conn, clients)
	readers := make([]*bufio.Reader, clients)
	for i := range conns {
		conns[i], readers[i] = dialTelnet(t, acc.Addr())
	}
	for i, c := range conns {
		_, err := c.Write([]byte("move " + string(rune('0'+i)) + "\r\n"))
		require.NoError(t, err)
	}
	for i, r := range readers {
		assert.Equal(t, "echo: move "+string(rune('0'+i)), readLine(t, r))
	}
	assert.Equal(t, int32(clients), h.sessions.Load())
	assert.Equal(t, clients, acc.Sessions())
}

func TestAcceptor_StopClosesOpenSessions(t *testing.T) {
	acc, errCh := startAcceptor(t, &echoHandler{})
	c, r := dialTelnet(t, acc.Addr())
	_, err := c.Write([]byte("hello\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", readLine(t, r))

	acc.Stop()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
	_, err = r.ReadString('\n')
	assert.Error(t, err)
	assert.Equal(t, 0, acc.Sessions())
}

func TestAcceptor_ContextCancelStops(t *testing.T) {
	cfg := config.TelnetConfig{Host: "127.0.0.1", Port: 0}
	acc := NewAcceptor(cfg, &echoHandler{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- acc.Start(ctx) }()
	require.Eventually(t, func() bool { return acc.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	acc.Stop()
}

func TestAcceptor_ServeWithoutListen(t *testing.T) {
	acc := NewAcceptor(config.TelnetConfig{Host: "127.0.0.1"}, &echoHandler{}, zaptest.NewLogger(t))
	assert.Error(t, acc.Serve(context.Background()))
	assert.Empty(t, acc.Addr())
}
