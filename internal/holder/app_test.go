package holder

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/config"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestNewApp_PoolError(t *testing.T) {
	orig := openPool
	t.Cleanup(func() { openPool = orig })
	openPool = func(context.Context, *config.Config) (*dbx.Pool, error) {
		return nil, errors.New("connection refused")
	}

	c := &config.Config{}
	c.LoadDefaults()
	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	pool, err := dbx.Open(context.Background(), "sqlite", "file::memory:", dbx.PoolConfig{MaxConns: 1, AcquireTimeout: time.Second})
	require.NoError(t, err)

	var out bytes.Buffer
	c := &config.Config{EndpointAddrHTTP: "127.0.0.1:0"}
	app := &App{config: c, logger: logging.NewJSONLogger(&out, "info"), pool: pool, handler: http.NotFoundHandler()}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Contains(t, out.String(), "Starting HTTP server")
	assert.Contains(t, out.String(), "Stopped")
}
