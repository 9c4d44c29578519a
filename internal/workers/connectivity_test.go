package workers

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestConnectivity_NotifiesOnReconnectOnly(t *testing.T) {
	c := NewConnectivity(true)
	ch := c.Watch()

	assert.False(t, c.Set(true))
	assert.True(t, c.Set(false))
	assert.False(t, c.Online())
	select {
	case <-ch:
		t.Fatal("notified on going offline")
	default:
	}

	assert.True(t, c.Set(true))
	select {
	case <-ch:
	default:
		t.Fatal("not notified on reconnect")
	}
}

func TestConnectivity_Probe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewConnectivity(true)

	var up atomic.Bool
	check := func(context.Context) error {
		if up.Load() {
			return nil
		}
		return errors.New("unreachable")
	}
	go c.Probe(ctx, 10*time.Millisecond, check, zaptest.NewLogger(t))

	require.Eventually(t, func() bool { return !c.Online() }, 2*time.Second, 5*time.Millisecond)
	up.Store(true)
	require.Eventually(t, c.Online, 2*time.Second, 5*time.Millisecond)
}

func TestDialCheck(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	check := DialCheck(addr, time.Second)
	require.NoError(t, check(context.Background()))

	require.NoError(t, ln.Close())
	assert.Error(t, check(context.Background()))
}

func TestProbeAddr(t *testing.T) {
	assert.Equal(t, "script.google.com:443", ProbeAddr("https://script.google.com/macros/s/x/exec"))
	assert.Equal(t, "localhost:9200", ProbeAddr("http://localhost:9200"))
	assert.Equal(t, "example.org:80", ProbeAddr("http://example.org"))
	assert.Equal(t, "", ProbeAddr(""))
}
