package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil knowledge base returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingKnowledgeBase)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{KB: &mockKB{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("trigger tool enabled", func(t *testing.T) {
		server, err := NewServer(&Ports{KB: &mockKB{}, AllowTrigger: true})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	var nilPorts *Ports
	assert.ErrorIs(t, nilPorts.Validate(), ErrMissingKnowledgeBase)
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingKnowledgeBase)
	assert.NoError(t, (&Ports{KB: &mockKB{}}).Validate())
}

func TestServer_Handler(t *testing.T) {
	server, err := NewServer(&Ports{KB: &mockKB{}})
	require.NoError(t, err)
	assert.NotNil(t, server.Handler())
}

func TestServer_RunHTTP_StopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{KB: &mockKB{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.RunHTTP(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunHTTP did not return after cancel")
	}
}
