package basex

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

func loggedIn(t *testing.T, srv *fakeServer) *Client {
	t.Helper()
	c := newClient(srv.pipe())
	require.NoError(t, c.login(context.Background(), "admin", "secret"))
	return c
}

func TestDigest(t *testing.T) {
	t.Parallel()

	// md5(md5("admin:BaseX:admin") + "123")
	assert.Equal(t, "e784c14d372fa4332fda074edd7e743c", digest("admin:BaseX:admin", "123"))
	assert.NotEqual(t, digest("x", "y"), digest("x", "z"))
}

func TestClient_Login(t *testing.T) {
	t.Parallel()

	t.Run("realm digest", func(t *testing.T) {
		t.Parallel()
		srv := newFakeServer(t)
		c := newClient(srv.pipe())
		assert.NoError(t, c.login(context.Background(), "admin", "secret"))
	})

	t.Run("legacy nonce digest", func(t *testing.T) {
		t.Parallel()
		srv := newFakeServer(t)
		srv.greeting = "1369578179679"
		c := newClient(srv.pipe())
		assert.NoError(t, c.login(context.Background(), "admin", "secret"))
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		srv := newFakeServer(t)
		c := newClient(srv.pipe())
		err := c.login(context.Background(), "admin", "nope")
		assert.ErrorIs(t, err, ErrAccessDenied)
		assert.False(t, IsConnectionError(err))
	})
}

func TestClient_Execute(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	c := loggedIn(t, srv)
	ctx := context.Background()

	out, err := c.Execute(ctx, "XQUERY 1+1")
	require.NoError(t, err)
	assert.Equal(t, "1+1", out)
	assert.Equal(t, "Query executed", c.Info())

	_, err = c.Execute(ctx, "OPEN missing")
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Database 'missing' was not found.", se.Message)
	assert.False(t, c.Broken(), "server errors keep the session")

	_, err = c.Execute(ctx, "OPEN dictionary")
	require.NoError(t, err)
	assert.Equal(t, []string{"XQUERY 1+1", "OPEN missing", "OPEN dictionary"}, srv.recorded())
}

func TestClient_RunQuery(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	c := loggedIn(t, srv)

	out, err := c.RunQuery(context.Background(), "declare variable $name external; $name", map[string]string{"name": "nyumba"})
	require.NoError(t, err)
	assert.Equal(t, "result:declare variable $name external; $name:nyumba", out)

	srv.mu.Lock()
	assert.Empty(t, srv.queries, "query handle closed")
	srv.mu.Unlock()
}

func TestClient_QueryHandle(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	c := loggedIn(t, srv)
	ctx := context.Background()

	q, err := c.Query(ctx, "count(//entry)")
	require.NoError(t, err)
	assert.Equal(t, "q1", q.ID())

	require.NoError(t, q.Bind(ctx, "$x", "1", "xs:integer"))
	out, err := q.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, "result:count(//entry)", out)
	require.NoError(t, q.Close(ctx))
}

func TestClient_QueryServerError(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	c := loggedIn(t, srv)

	_, err := c.RunQuery(context.Background(), "syntax error (", nil)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Message, "XPST0003")
	assert.False(t, IsConnectionError(err))

	out, err := c.Execute(context.Background(), "XQUERY 2")
	require.NoError(t, err, "session usable after a query error")
	assert.Equal(t, "2", out)
}

func TestClient_Escaping(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	c := loggedIn(t, srv)
	ctx := context.Background()

	input := "<a>\x00\xff</a>"
	require.NoError(t, c.Create(ctx, "dictionary", input))
	srv.mu.Lock()
	assert.Equal(t, input, srv.inputs["dictionary"])
	srv.mu.Unlock()

	out, err := c.RunQuery(ctx, "escaped", nil)
	require.NoError(t, err)
	assert.Equal(t, "a\x00b", out)
}

func TestClient_ContextCancelBreaksSession(t *testing.T) {
	t.Parallel()

	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { _ = serverConn.Close() })
	c := newClient(clientConn)

	// Nothing ever answers on serverConn except draining writes.
	go func() {
		buf := make([]byte, 256)
		for {
			if _, err := serverConn.Read(buf); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Execute(ctx, "XQUERY 1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, c.Broken())

	_, err = c.Execute(context.Background(), "XQUERY 1")
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestClient_ConnectionLoss(t *testing.T) {
	t.Parallel()

	clientConn, serverConn := net.Pipe()
	c := newClient(clientConn)
	_ = serverConn.Close()

	_, err := c.Execute(context.Background(), "XQUERY 1")
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
	assert.True(t, IsUnsent(err))
	assert.True(t, c.Broken())
}

func TestIsConnectionError(t *testing.T) {
	t.Parallel()

	assert.False(t, IsConnectionError(nil))
	assert.False(t, IsConnectionError(context.Canceled))
	assert.False(t, IsConnectionError(&ServerError{Message: "[XPST0003] bad"}))
	assert.True(t, IsConnectionError(&ServerError{Message: "No database opened."}))
	assert.True(t, IsConnectionError(&ConnError{Phase: PhaseReceive, Err: errors.New("x")}))
	assert.True(t, IsConnectionError(ErrClientClosed))
	assert.False(t, IsConnectionError(ErrNoDatabase))

	assert.False(t, IsUnsent(&ConnError{Phase: PhaseReceive, Err: errors.New("x")}))
	assert.True(t, IsUnsent(&ConnError{Phase: PhaseDial, Err: errors.New("x")}))
}

func TestMapError(t *testing.T) {
	t.Parallel()

	wrapped := domain.NewDatabaseError("update", "dictionary", &ServerError{Message: "[dws:not-found] e1"})
	assert.ErrorIs(t, MapError(wrapped, "entry", "e1"), domain.ErrNotFound)

	exists := domain.NewDatabaseError("update", "dictionary", &ServerError{Message: "[dws:exists] e1"})
	assert.ErrorIs(t, MapError(exists, "entry", "e1"), domain.ErrAlreadyExists)

	other := MapError(domain.NewDatabaseError("query", "dictionary", io.EOF), "entry", "e1")
	assert.ErrorIs(t, other, domain.ErrDatabase)
	assert.Contains(t, other.Error(), "entry e1")

	assert.ErrorIs(t, MapError(context.Canceled, "entry", "e1"), context.Canceled)
	assert.NoError(t, MapError(nil, "entry", "e1"))
}
