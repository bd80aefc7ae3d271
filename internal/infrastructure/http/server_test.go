package http

import (
	"context"
	nethttp "net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/james-reichert/cccfunctions/internal/config"
)

// Shutdown makes Start return http.ErrServerClosed; process wiring must not
// treat that as a startup failure.
func TestServer_ShutdownStopsStartCleanly(t *testing.T) {
	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "payment-reconciler", JWTSecret: "test-secret"},
		Server:  config.ServerConfig{HTTP: config.HTTPConfig{Host: "127.0.0.1", Port: 0}},
	}
	srv := NewServer(cfg, zap.NewNop(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	require.Eventually(t, func() bool {
		return srv.echo.ListenerAddr() != nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Shutdown(context.Background()))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, nethttp.ErrServerClosed)
	case <-time.After(time.Second):
		t.Fatal("server did not stop after shutdown")
	}
}
