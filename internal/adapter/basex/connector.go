package basex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// Session is the part of Client the Connector uses.
type Session interface {
	Execute(ctx context.Context, command string) (string, error)
	RunQuery(ctx context.Context, query string, vars map[string]string) (string, error)
	Create(ctx context.Context, name, input string) error
	Add(ctx context.Context, path, input string) error
	Close() error
}

// DialFunc opens a new authenticated session.
type DialFunc func(ctx context.Context) (Session, error)

// Config holds connection settings for a Connector.
type Config struct {
	Host         string
	Port         int
	Username     string
	Password     string
	Database     string
	DialTimeout  time.Duration
	QueryTimeout time.Duration
	MaxRetries   int
	RetryBase    time.Duration
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Connector owns one BaseX session and serializes every call on it.
// Queries that name another database in collection('...') run with that
// database opened and the configured one reopened afterwards.
type Connector struct {
	cfg    Config
	log    *slog.Logger
	dial   DialFunc
	mu     sync.Mutex
	sess   Session
	opened bool
}

// NewConnector creates a connector. The session is opened lazily or by Connect.
func NewConnector(logger *slog.Logger, cfg Config) *Connector {
	c := &Connector{
		cfg: cfg,
		log: logger.With("adapter", "basex", "database", cfg.Database),
	}
	c.dial = func(ctx context.Context) (Session, error) {
		if cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
			defer cancel()
		}
		return Dial(ctx, cfg.Addr(), cfg.Username, cfg.Password)
	}
	return c
}

// NewConnectorWithDialer is NewConnector with a custom session factory.
func NewConnectorWithDialer(logger *slog.Logger, cfg Config, dial DialFunc) *Connector {
	c := NewConnector(logger, cfg)
	c.dial = dial
	return c
}

// Database returns the configured database name.
func (c *Connector) Database() string { return c.cfg.Database }

// Connect opens the session now instead of on first use.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.session(ctx)
	if err != nil {
		return domain.NewDatabaseError("connect", c.cfg.Database, err)
	}
	return nil
}

// Close ends the session.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	err := c.sess.Close()
	c.sess = nil
	c.opened = false
	return err
}

// Ping checks that the server answers.
func (c *Connector) Ping(ctx context.Context) error {
	_, err := c.ExecuteCommand(ctx, "XQUERY 1")
	return err
}

// ExecuteQuery runs a read-only XQuery with vars bound as external
// variables. Connection failures are retried with a fresh session.
func (c *Connector) ExecuteQuery(ctx context.Context, query string, vars map[string]string) (string, error) {
	return c.run(ctx, "query", query, IsConnectionError, func(ctx context.Context, s Session) (string, error) {
		return s.RunQuery(ctx, query, vars)
	})
}

// ExecuteUpdate runs an updating XQuery. It is resent only when the
// previous attempt failed before reaching the server.
func (c *Connector) ExecuteUpdate(ctx context.Context, query string, vars map[string]string) error {
	_, err := c.run(ctx, "update", query, IsUnsent, func(ctx context.Context, s Session) (string, error) {
		return s.RunQuery(ctx, query, vars)
	})
	return err
}

// ExecuteCommand runs a database command on the configured database.
func (c *Connector) ExecuteCommand(ctx context.Context, command string) (string, error) {
	return c.run(ctx, "command", "", IsConnectionError, func(ctx context.Context, s Session) (string, error) {
		return s.Execute(ctx, command)
	})
}

// AddDocument adds an XML document at path to the configured database.
func (c *Connector) AddDocument(ctx context.Context, path, xml string) error {
	_, err := c.run(ctx, "add", "", IsUnsent, func(ctx context.Context, s Session) (string, error) {
		if err := c.requireOpen(); err != nil {
			return "", err
		}
		return "", s.Add(ctx, path, xml)
	})
	return err
}

// DatabaseExists reports whether database name exists on the server.
func (c *Connector) DatabaseExists(ctx context.Context, name string) (bool, error) {
	out, err := c.ExecuteQuery(ctx, "declare variable $name external; db:exists($name)", map[string]string{"name": name})
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

// CreateDatabase creates database name with an optional initial document.
// Creating the configured database also opens it for this session.
func (c *Connector) CreateDatabase(ctx context.Context, name, input string) error {
	_, err := c.run(ctx, "create", "", IsUnsent, func(ctx context.Context, s Session) (string, error) {
		if err := s.Create(ctx, name, input); err != nil {
			return "", err
		}
		if name == c.cfg.Database {
			c.opened = true
			return "", nil
		}
		return "", c.reopen(ctx, s)
	})
	return err
}

// EnsureDatabase creates the configured database with input when it does not exist.
func (c *Connector) EnsureDatabase(ctx context.Context, input string) error {
	ok, err := c.DatabaseExists(ctx, c.cfg.Database)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	c.log.Info("creating database")
	return c.CreateDatabase(ctx, c.cfg.Database, input)
}

// DropDatabase drops database name.
func (c *Connector) DropDatabase(ctx context.Context, name string) error {
	_, err := c.run(ctx, "drop", "", IsConnectionError, func(ctx context.Context, s Session) (string, error) {
		if name == c.cfg.Database {
			c.opened = false
		}
		return s.Execute(ctx, "DROP DB "+name)
	})
	return err
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

var collectionRe = regexp.MustCompile(`collection\(['"]([^'"/]+)`)

// DetectDatabase returns the database named by the first collection('...')
// call in query, or "".
func DetectDatabase(query string) string {
	m := collectionRe.FindStringSubmatch(query)
	if m == nil {
		return ""
	}
	return m[1]
}

type callFunc func(ctx context.Context, s Session) (string, error)

// run executes fn on the session under the connector lock, switching
// database when query names another one and retrying while retryable
// accepts the failure.
func (c *Connector) run(ctx context.Context, op, query string, retryable func(error) bool, fn callFunc) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	var out string
	attempt := 0
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++
		s, err := c.session(ctx)
		if err != nil {
			if IsConnectionError(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		out, err = c.call(ctx, s, query, fn)
		if err == nil {
			return nil
		}
		if b, ok := s.(interface{ Broken() bool }); ok && b.Broken() && !IsConnectionError(err) {
			c.drop()
			return err
		}
		if IsConnectionError(err) {
			c.drop()
			if retryable(err) {
				c.log.WarnContext(ctx, "basex connection lost, retrying",
					slog.String("op", op), slog.Int("attempt", attempt), slog.String("error", err.Error()))
				return retry.RetryableError(err)
			}
		}
		return err
	})
	requestDuration.WithLabelValues(op, resultLabel(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", domain.NewDatabaseError(op, c.cfg.Database, err)
	}
	return out, nil
}

func (c *Connector) call(ctx context.Context, s Session, query string, fn callFunc) (string, error) {
	target := DetectDatabase(query)
	if target == "" || target == c.cfg.Database {
		return fn(ctx, s)
	}

	c.log.DebugContext(ctx, "switching database", slog.String("target", target))
	databaseSwitchesTotal.Inc()
	if _, err := s.Execute(ctx, "OPEN "+target); err != nil {
		return "", fmt.Errorf("open %s: %w", target, err)
	}
	out, err := fn(ctx, s)
	// Restore with a fresh context so a cancelled call still reopens.
	restoreCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if rerr := c.reopen(restoreCtx, s); rerr != nil {
		// The session is left on target; the next call starts a new one.
		c.log.WarnContext(ctx, "restore database failed, dropping session",
			slog.String("target", target), slog.String("error", rerr.Error()))
		c.drop()
	}
	return out, err
}

// reopen makes the configured database the open one again.
func (c *Connector) reopen(ctx context.Context, s Session) error {
	if c.cfg.Database == "" || !c.opened {
		_, err := s.Execute(ctx, "CLOSE")
		return err
	}
	_, err := s.Execute(ctx, "OPEN "+c.cfg.Database)
	return err
}

func (c *Connector) requireOpen() error {
	if !c.opened {
		return fmt.Errorf("%w: %s", ErrNoDatabase, c.cfg.Database)
	}
	return nil
}

// session returns the live session, dialing and opening the configured
// database when needed. Callers hold c.mu.
func (c *Connector) session(ctx context.Context) (Session, error) {
	if c.sess != nil {
		return c.sess, nil
	}
	s, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.sess = s
	c.opened = false
	if c.cfg.Database == "" {
		return s, nil
	}
	if _, err := s.Execute(ctx, "OPEN "+c.cfg.Database); err != nil {
		var se *ServerError
		if errors.As(err, &se) {
			// The database may not exist yet; EnsureDatabase creates it.
			c.log.WarnContext(ctx, "open database failed", slog.String("error", se.Message))
			return s, nil
		}
		c.drop()
		return nil, err
	}
	c.opened = true
	return s, nil
}

// drop discards a broken session.
func (c *Connector) drop() {
	if c.sess == nil {
		return
	}
	_ = c.sess.Close()
	c.sess = nil
	c.opened = false
	reconnectsTotal.Inc()
}

func (c *Connector) backoff() retry.Backoff {
	base := c.cfg.RetryBase
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	maxRetries := c.cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(base))
}
