// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/memed/internal/config"
	"github.com/ManuGH/memed/internal/log"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForListen(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("listen timeout")
}

func testServerCfg(addr string) config.ServerConfig {
	return config.ServerConfig{
		ListenAddr:      addr,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 5 * time.Second,
	}
}

func TestNewManager_ValidDeps(t *testing.T) {
	mgr, err := NewManager(testServerCfg("127.0.0.1:0"), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)
	require.NotNil(t, mgr)
}

func TestNewManager_MissingLogger(t *testing.T) {
	_, err := NewManager(testServerCfg("127.0.0.1:0"), Deps{
		Logger:     zerolog.Nop().Level(zerolog.Disabled),
		APIHandler: http.NotFoundHandler(),
	})
	require.ErrorIs(t, err, ErrMissingLogger)
}

func TestNewManager_MissingAPIHandler(t *testing.T) {
	_, err := NewManager(testServerCfg("127.0.0.1:0"), Deps{
		Logger: log.WithComponent("test"),
	})
	require.ErrorIs(t, err, ErrMissingAPIHandler)
}

func TestManager_StartAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	addr := reserveListenAddr(t)
	mgr, err := NewManager(testServerCfg(addr), Deps{
		Logger: log.WithComponent("test"),
		APIHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	startErr := make(chan error, 1)
	go func() { startErr <- mgr.Start(ctx) }()

	require.NoError(t, waitForListen(addr, 3*time.Second))

	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-startErr:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("manager did not stop after context cancellation")
	}
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	mgr, err := NewManager(testServerCfg("127.0.0.1:0"), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	err = mgr.Shutdown(context.Background())
	require.ErrorIs(t, err, ErrManagerNotStarted)
}

func TestManager_DoubleStart(t *testing.T) {
	addr := reserveListenAddr(t)
	mgr, err := NewManager(testServerCfg(addr), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startErr := make(chan error, 1)
	go func() { startErr <- mgr.Start(ctx) }()
	require.NoError(t, waitForListen(addr, 3*time.Second))

	err = mgr.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	cancel()
	require.NoError(t, <-startErr)
}

func TestManager_ShutdownHooksLIFO(t *testing.T) {
	addr := reserveListenAddr(t)
	mgr, err := NewManager(testServerCfg(addr), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	var mu sync.Mutex
	var order []string
	hook := func(name string) ShutdownHook {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	mgr.RegisterShutdownHook("first", hook("first"))
	mgr.RegisterShutdownHook("second", hook("second"))
	mgr.RegisterShutdownHook("third", hook("third"))

	ctx, cancel := context.WithCancel(context.Background())
	startErr := make(chan error, 1)
	go func() { startErr <- mgr.Start(ctx) }()
	require.NoError(t, waitForListen(addr, 3*time.Second))

	cancel()
	require.NoError(t, <-startErr)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestManager_HookErrorsAreCollected(t *testing.T) {
	addr := reserveListenAddr(t)
	mgr, err := NewManager(testServerCfg(addr), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	mgr.RegisterShutdownHook("broken", func(context.Context) error {
		return errors.New("release failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	startErr := make(chan error, 1)
	go func() { startErr <- mgr.Start(ctx) }()
	require.NoError(t, waitForListen(addr, 3*time.Second))

	cancel()
	err = <-startErr
	require.Error(t, err)
	assert.Contains(t, err.Error(), "release failed")
}

func TestManager_MetricsServer(t *testing.T) {
	apiAddr := reserveListenAddr(t)
	metricsAddr := reserveListenAddr(t)

	mgr, err := NewManager(testServerCfg(apiAddr), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
		MetricsAddr: metricsAddr,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	startErr := make(chan error, 1)
	go func() { startErr <- mgr.Start(ctx) }()

	require.NoError(t, waitForListen(apiAddr, 3*time.Second))
	require.NoError(t, waitForListen(metricsAddr, 3*time.Second))

	resp, err := http.Get("http://" + metricsAddr + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-startErr)
}
