package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_SendNeverBlocks(t *testing.T) {
	req := require.New(t)
	cfg := NewConfig()
	cfg.SendBufferSize = 2
	client := NewClient(nil, nil, "127.0.0.1:1", "token", *cfg)

	req.NotEmpty(client.ID())
	req.Equal("token", client.Credential())

	req.NoError(client.Send([]byte("one")))
	req.NoError(client.Send([]byte("two")))
	req.ErrorIs(client.Send([]byte("three")), ErrSendBufferFull)

	client.closeSend()
	client.closeSend()
	req.ErrorIs(client.Send([]byte("four")), ErrClientClosed)
	req.NoError(client.Close())

	// The queued frames are still drained by the write pump
	req.Equal([]byte("one"), <-client.send)
	req.Equal([]byte("two"), <-client.send)
	_, open := <-client.send
	req.False(open)
}

func TestClient_IDsAreUnique(t *testing.T) {
	a := NewClient(nil, nil, "", "", *NewConfig())
	b := NewClient(nil, nil, "", "", *NewConfig())
	require.NotEqual(t, a.ID(), b.ID())
}
