package telnet

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"time"
)

// Telnet command and option bytes (RFC 854, RFC 858).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptLinemode        byte = 34
)

type decodeState uint8

const (
	stateData decodeState = iota
	stateCommand
	stateOption
	stateSub
	stateSubIAC
)

// decoder separates text from Telnet commands in the inbound byte stream.
// Commands, option negotiation and subnegotiation blocks are consumed
// silently; only text bytes are reported.
type decoder struct {
	state decodeState
	// afterCR is set once a line ended on \r, so a following \n or NUL
	// belongs to the same line break.
	afterCR bool
}

// text feeds b through the decoder and reports whether it is a text byte.
func (d *decoder) text(b byte) bool {
	switch d.state {
	case stateCommand:
		switch b {
		case WILL, WONT, DO, DONT:
			d.state = stateOption
		case SB:
			d.state = stateSub
		default:
			// IAC IAC (a literal 0xFF), NOP, GA and the rest carry no text.
			d.state = stateData
		}
		return false
	case stateOption:
		d.state = stateData
		return false
	case stateSub:
		if b == IAC {
			d.state = stateSubIAC
		}
		return false
	case stateSubIAC:
		if b == SE {
			d.state = stateData
		} else {
			d.state = stateSub
		}
		return false
	}

	if b == IAC {
		d.state = stateCommand
		return false
	}
	if d.afterCR {
		d.afterCR = false
		if b == '\n' || b == 0 {
			return false
		}
	}
	return true
}

// Conn is one Telnet client. Reads are line oriented with Telnet commands
// removed; writes are serialised so output pushed from another goroutine
// never splits a block written by the command loop.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	dec    decoder

	readTimeout  time.Duration
	writeTimeout time.Duration

	mu sync.Mutex
	// prompt is the last prompt written; Notify redraws it.
	prompt string
}

// NewConn wraps raw. Zero timeouts disable the corresponding deadline.
//
// Precondition: raw must be an open connection.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate offers to suppress go-ahead. The client keeps local echo and
// line editing.
func (c *Conn) Negotiate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(string([]byte{IAC, WILL, OptSuppressGoAhead}))
}

// ReadLine returns the next line of text without its terminator. Lines end
// at \r\n, \r\0, a bare \r or a bare \n. Control characters other than tab
// are dropped.
//
// Postcondition: On error the text read so far is returned with it.
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	var line strings.Builder
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return line.String(), err
		}
		if !c.dec.text(b) {
			continue
		}
		switch {
		case b == '\r':
			c.dec.afterCR = true
			return line.String(), nil
		case b == '\n':
			return line.String(), nil
		case b < 32 && b != '\t':
			continue
		}
		line.WriteByte(b)
	}
}

// WriteLine writes text followed by \r\n.
//
// Precondition: text has no trailing newline.
func (c *Conn) WriteLine(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(text + "\r\n")
}

// Write writes data unchanged.
func (c *Conn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(string(data))
}

// WritePrompt writes prompt without a line break and remembers it for Notify.
func (c *Conn) WritePrompt(prompt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
	return c.sendLocked(prompt)
}

// WriteLines writes every line followed by \r\n in a single write.
func (c *Conn) WriteLines(lines ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(joinLines(lines))
}

// Notify writes lines that arrive while the player may be typing: the prompt
// line is erased, the lines written, and the prompt drawn again.
func (c *Conn) Notify(lines ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(ClearLine + joinLines(lines) + c.prompt)
}

// sendLocked writes s under the write deadline.
//
// Precondition: c.mu is held.
func (c *Conn) sendLocked(s string) error {
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write([]byte(s))
	return err
}

func joinLines(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	return b.String()
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the client's network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}
