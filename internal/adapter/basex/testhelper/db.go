// Package testhelper starts a shared BaseX server for integration tests.
package testhelper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/heartmarshall/dictionary-writing-system/internal/adapter/basex"
)

// EmptyLIFT is the initial document of a test database.
const EmptyLIFT = `<lift version="0.13"/>`

var (
	once       sync.Once
	sharedHost string
	sharedPort int
	initErr    error
)

// SetupTestDB starts a shared BaseX container (once for the entire test run),
// creates a fresh database for the calling test and returns a connector
// opened on it. The database is dropped via t.Cleanup.
// Skipped with -short.
func SetupTestDB(t *testing.T) *basex.Connector {
	t.Helper()
	if testing.Short() {
		t.Skip("testhelper: BaseX integration test skipped in short mode")
	}

	once.Do(func() {
		sharedHost, sharedPort, initErr = startContainer()
	})
	if initErr != nil {
		t.Fatalf("testhelper: failed to setup BaseX: %v", initErr)
	}

	name := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	conn := basex.NewConnector(slog.New(slog.NewTextHandler(io.Discard, nil)), basex.Config{
		Host:         sharedHost,
		Port:         sharedPort,
		Username:     "admin",
		Password:     "admin",
		Database:     name,
		DialTimeout:  10 * time.Second,
		QueryTimeout: 30 * time.Second,
		MaxRetries:   2,
		RetryBase:    50 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := conn.EnsureDatabase(ctx, EmptyLIFT); err != nil {
		t.Fatalf("testhelper: create database %s: %v", name, err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = conn.DropDatabase(ctx, name)
		_ = conn.Close()
	})

	return conn
}

func startContainer() (string, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "basex/basexhttp:9.7.3",
		ExposedPorts: []string{"1984/tcp"},
		WaitingFor:   wait.ForListeningPort("1984/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", 0, fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "1984")
	if err != nil {
		return "", 0, fmt.Errorf("get mapped port: %w", err)
	}

	p, err := strconv.Atoi(port.Port())
	if err != nil {
		return "", 0, fmt.Errorf("parse port %q: %w", port.Port(), err)
	}
	return host, p, nil
}
