package telnet

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// pipeConn returns a Conn over one end of an in-memory pipe and the client end.
func pipeConn(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return NewConn(server, time.Second, time.Second), client
}

func TestConn_ReadLineStripsNegotiation(t *testing.T) {
	cases := []struct {
		name  string
		input []byte
		want  string
	}{
		{"plain", []byte("create\r\n"), "create"},
		{"bare newline", []byte("join\n"), "join"},
		{"will option", []byte{IAC, WILL, OptEcho, 'm', 'o', 'v', 'e', '\n'}, "move"},
		{"do option mid-line", []byte{'d', IAC, DO, OptLinemode, 'r', 'o', 'p', '\n'}, "drop"},
		{"subnegotiation", []byte{IAC, SB, 24, 0, 'v', 't', IAC, SE, 'q', 'u', 'i', 't', '\n'}, "quit"},
		{"nop", []byte{'o', IAC, NOP, 'k', '\n'}, "ok"},
		{"control characters", []byte{'a', 0x07, '\t', 'b', '\n'}, "a\tb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, client := pipeConn(t)
			go func() { _, _ = client.Write(tc.input) }()

			line, err := conn.ReadLine()
			require.NoError(t, err)
			assert.Equal(t, tc.want, line)
		})
	}
}

func TestConn_ReadLineEOF(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		_, _ = client.Write([]byte("partial"))
		_ = client.Close()
	}()

	line, err := conn.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "partial", line)
}

func TestConn_NegotiateSuppressesGoAhead(t *testing.T) {
	conn, client := pipeConn(t)
	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 3)
		_, _ = io.ReadFull(client, buf)
		got <- buf
	}()

	require.NoError(t, conn.Negotiate())
	assert.Equal(t, []byte{IAC, WILL, OptSuppressGoAhead}, <-got)
}

func TestConn_WriteLinesIsOneBlock(t *testing.T) {
	conn, client := pipeConn(t)
	r := bufio.NewReader(client)
	done := make(chan error, 1)
	go func() { done <- conn.WriteLines("one", "two") }()

	first, err := r.ReadString('\n')
	require.NoError(t, err)
	second, err := r.ReadString('\n')
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, "one\r\n", first)
	assert.Equal(t, "two\r\n", second)
}

func TestConn_NotifyRedrawsPrompt(t *testing.T) {
	conn, client := pipeConn(t)
	r := bufio.NewReader(client)

	go func() { _ = conn.WritePrompt("> ") }()
	prompt := make([]byte, 2)
	_, err := io.ReadFull(r, prompt)
	require.NoError(t, err)
	assert.Equal(t, "> ", string(prompt))

	go func() { _ = conn.Notify("your turn") }()
	want := ClearLine + "your turn\r\n> "
	got := make([]byte, len(want))
	_, err = io.ReadFull(r, got)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}

// Property: input free of IAC and control bytes is read back unchanged.
func TestPropertyReadLine_PrintableRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`[ -~]{0,80}`).Draw(rt, "text")

		server, client := net.Pipe()
		defer server.Close()
		defer client.Close()
		conn := NewConn(server, time.Second, time.Second)
		go func() { _, _ = client.Write([]byte(text + "\r\n")) }()

		line, err := conn.ReadLine()
		if err != nil {
			rt.Fatalf("read: %v", err)
		}
		if line != text {
			rt.Fatalf("got %q want %q", line, text)
		}
	})
}

// Property: any option negotiation interleaved with text is dropped.
func TestPropertyReadLine_DropsOptionNegotiation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 1, 5).Draw(rt, "words")
		cmds := []byte{WILL, WONT, DO, DONT}

		var input []byte
		for _, w := range words {
			cmd := cmds[rapid.IntRange(0, len(cmds)-1).Draw(rt, "cmd")]
			opt := byte(rapid.IntRange(0, 254).Draw(rt, "opt"))
			input = append(input, IAC, cmd, opt)
			input = append(input, w...)
		}
		input = append(input, '\n')

		server, client := net.Pipe()
		defer server.Close()
		defer client.Close()
		conn := NewConn(server, time.Second, time.Second)
		go func() { _, _ = client.Write(input) }()

		line, err := conn.ReadLine()
		if err != nil {
			rt.Fatalf("read: %v", err)
		}
		if want := strings.Join(words, ""); line != want {
			rt.Fatalf("got %q want %q", line, want)
		}
	})
}

func TestConn_ReadLineLineBreakVariants(t *testing.T) {
	conn, client := pipeConn(t)
	go func() { _, _ = client.Write([]byte("a\r\nb\r\x00c\rd\ne\n")) }()

	for _, want := range []string{"a", "b", "c", "d", "e"} {
		line, err := conn.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}
}

func TestConn_ReadLineSequenceSplitAcrossWrites(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		_, _ = client.Write([]byte{'m', IAC})
		_, _ = client.Write([]byte{SB, 31, 0, 80})
		_, _ = client.Write([]byte{IAC})
		_, _ = client.Write([]byte{SE, '4', '\n'})
	}()

	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "m4", line)
}

func TestDecoder_EscapedIACIsNotText(t *testing.T) {
	var d decoder
	assert.False(t, d.text(IAC))
	assert.False(t, d.text(IAC))
	assert.True(t, d.text('x'))
}
