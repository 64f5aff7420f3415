// Package basex is a client for the BaseX XML database server protocol
// plus a Connector that serializes access to one session.
package basex

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

// Protocol codes for query and input commands.
const (
	codeQuery   byte = 0x00
	codeClose   byte = 0x02
	codeBind    byte = 0x03
	codeExecute byte = 0x05
	codeCreate  byte = 0x08
	codeAdd     byte = 0x09
)

// Client is one authenticated session with a BaseX server.
// A Client is not safe for concurrent use.
type Client struct {
	conn   net.Conn
	r      *bufio.Reader
	w      *bufio.Writer
	info   string
	broken bool
}

// Dial connects to addr and logs in.
func Dial(ctx context.Context, addr, user, password string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnError{Phase: PhaseDial, Err: err}
	}
	c := newClient(conn)
	if err := c.login(ctx, user, password); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func newClient(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}
}

func (c *Client) login(ctx context.Context, user, password string) error {
	return c.do(ctx, func() error {
		greeting, err := c.readString()
		if err != nil {
			return err
		}
		code, nonce := password, greeting
		if realm, n, ok := strings.Cut(greeting, ":"); ok {
			code, nonce = user+":"+realm+":"+password, n
		}
		if err := c.writeStrings(user, digest(code, nonce)); err != nil {
			return err
		}
		ok, err := c.readStatus()
		if err != nil {
			return err
		}
		if !ok {
			return ErrAccessDenied
		}
		return nil
	})
}

func digest(code, nonce string) string {
	inner := md5.Sum([]byte(code))
	outer := md5.Sum([]byte(hex.EncodeToString(inner[:]) + nonce))
	return hex.EncodeToString(outer[:])
}

// Execute runs a database command such as "OPEN db" or "XQUERY 1+1" and
// returns its result. Info returns the command info afterwards.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	var result string
	err := c.do(ctx, func() error {
		if err := c.writeStrings(command); err != nil {
			return err
		}
		var err error
		if result, err = c.readString(); err != nil {
			return err
		}
		if c.info, err = c.readString(); err != nil {
			return err
		}
		ok, err := c.readStatus()
		if err != nil {
			return err
		}
		if !ok {
			return &ServerError{Message: c.info}
		}
		return nil
	})
	return result, err
}

// Info returns the info string of the last command.
func (c *Client) Info() string { return c.info }

// Create creates database name from XML input. Empty input creates an
// empty database. The new database is opened.
func (c *Client) Create(ctx context.Context, name, input string) error {
	return c.sendInput(ctx, codeCreate, name, []byte(input))
}

// Add adds an XML document to the open database at path.
func (c *Client) Add(ctx context.Context, path, input string) error {
	return c.sendInput(ctx, codeAdd, path, []byte(input))
}

func (c *Client) sendInput(ctx context.Context, code byte, arg string, input []byte) error {
	return c.do(ctx, func() error {
		if err := c.w.WriteByte(code); err != nil {
			return &ConnError{Phase: PhaseSend, Err: err}
		}
		if err := c.writeRaw([]byte(arg)); err != nil {
			return err
		}
		if err := c.writeRaw(input); err != nil {
			return err
		}
		if err := c.flush(); err != nil {
			return err
		}
		var err error
		if c.info, err = c.readString(); err != nil {
			return err
		}
		ok, err := c.readStatus()
		if err != nil {
			return err
		}
		if !ok {
			return &ServerError{Message: c.info}
		}
		return nil
	})
}

// Query registers an XQuery on the server. The returned handle must be closed.
func (c *Client) Query(ctx context.Context, query string) (*Query, error) {
	id, err := c.queryCommand(ctx, codeQuery, query)
	if err != nil {
		return nil, err
	}
	return &Query{c: c, id: id}, nil
}

// RunQuery registers query, binds vars as external variables, executes it
// and closes the handle.
func (c *Client) RunQuery(ctx context.Context, query string, vars map[string]string) (string, error) {
	q, err := c.Query(ctx, query)
	if err != nil {
		return "", err
	}
	for name, value := range vars {
		if err := q.Bind(ctx, name, value, ""); err != nil {
			_ = q.Close(ctx)
			return "", err
		}
	}
	out, err := q.Execute(ctx)
	if err != nil {
		if !IsConnectionError(err) {
			_ = q.Close(ctx)
		}
		return "", err
	}
	if err := q.Close(ctx); err != nil {
		return "", err
	}
	return out, nil
}

// queryCommand sends code followed by args and reads one result string
// and a status byte. On error the server sends the message after the status.
func (c *Client) queryCommand(ctx context.Context, code byte, args ...string) (string, error) {
	var result string
	err := c.do(ctx, func() error {
		if err := c.w.WriteByte(code); err != nil {
			return &ConnError{Phase: PhaseSend, Err: err}
		}
		if err := c.writeStrings(args...); err != nil {
			return err
		}
		var err error
		if result, err = c.readString(); err != nil {
			return err
		}
		ok, err := c.readStatus()
		if err != nil {
			return err
		}
		if !ok {
			msg, err := c.readString()
			if err != nil {
				return err
			}
			return &ServerError{Message: msg}
		}
		return nil
	})
	return result, err
}

// Close ends the session.
func (c *Client) Close() error {
	if c.broken {
		return c.conn.Close()
	}
	c.broken = true
	_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = c.writeStrings("exit")
	return c.conn.Close()
}

// do runs one request/response exchange under the context deadline.
// Cancelling ctx interrupts blocked I/O; the client is then broken.
func (c *Client) do(ctx context.Context, fn func() error) error {
	if c.broken {
		return ErrClientClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, hasDeadline := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		c.broken = true
		return &ConnError{Phase: PhaseSend, Err: err}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	err := fn()
	stop()
	if err != nil {
		ctxErr := ctx.Err()
		if ctxErr == nil && hasDeadline && errors.Is(err, os.ErrDeadlineExceeded) {
			ctxErr = context.DeadlineExceeded
		}
		if ctxErr != nil {
			c.broken = true
			return fmt.Errorf("%w: %w", ctxErr, err)
		}
		if IsConnectionError(err) {
			if _, server := err.(*ServerError); !server {
				c.broken = true
			}
		}
	}
	return err
}

// Broken reports whether the connection failed and the client must be replaced.
func (c *Client) Broken() bool { return c.broken }

// ---------------------------------------------------------------------------
// Framing
// ---------------------------------------------------------------------------

// writeStrings writes each string followed by a zero byte and flushes.
func (c *Client) writeStrings(ss ...string) error {
	for _, s := range ss {
		if err := c.writeRaw([]byte(s)); err != nil {
			return err
		}
	}
	return c.flush()
}

// writeRaw writes b escaping 0x00 and 0xFF with a 0xFF prefix, then a zero byte.
func (c *Client) writeRaw(b []byte) error {
	for _, ch := range b {
		if ch == 0x00 || ch == 0xFF {
			if err := c.w.WriteByte(0xFF); err != nil {
				return &ConnError{Phase: PhaseSend, Err: err}
			}
		}
		if err := c.w.WriteByte(ch); err != nil {
			return &ConnError{Phase: PhaseSend, Err: err}
		}
	}
	if err := c.w.WriteByte(0x00); err != nil {
		return &ConnError{Phase: PhaseSend, Err: err}
	}
	return nil
}

func (c *Client) flush() error {
	if err := c.w.Flush(); err != nil {
		return &ConnError{Phase: PhaseSend, Err: err}
	}
	return nil
}

// readString reads up to the next unescaped zero byte.
func (c *Client) readString() (string, error) {
	var sb strings.Builder
	for {
		ch, err := c.r.ReadByte()
		if err != nil {
			return "", &ConnError{Phase: PhaseReceive, Err: err}
		}
		switch ch {
		case 0x00:
			return sb.String(), nil
		case 0xFF:
			ch, err = c.r.ReadByte()
			if err != nil {
				return "", &ConnError{Phase: PhaseReceive, Err: err}
			}
		}
		sb.WriteByte(ch)
	}
}

// readStatus reads the status byte: true for success.
func (c *Client) readStatus() (bool, error) {
	ch, err := c.r.ReadByte()
	if err != nil {
		return false, &ConnError{Phase: PhaseReceive, Err: err}
	}
	return ch == 0x00, nil
}
