package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.err
}

func TestNATSPublisher_Publish(t *testing.T) {
	conn := &fakeConn{}
	pub, err := NewNATSPublisher(conn)
	require.NoError(t, err)

	err = pub.Publish(context.Background(), "cart.notices", map[string]string{"kind": "out_of_stock"})
	require.NoError(t, err)

	assert.Equal(t, "cart.notices", conn.subject)
	var got map[string]string
	require.NoError(t, json.Unmarshal(conn.data, &got))
	assert.Equal(t, "out_of_stock", got["kind"])
}

func TestNATSPublisher_Errors(t *testing.T) {
	_, err := NewNATSPublisher(nil)
	assert.Error(t, err)

	conn := &fakeConn{err: errors.New("nats: connection closed")}
	pub, err := NewNATSPublisher(conn)
	require.NoError(t, err)
	err = pub.Publish(context.Background(), "cart.notices", "x")
	assert.ErrorContains(t, err, "connection closed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = pub.Publish(ctx, "cart.notices", "x")
	assert.ErrorIs(t, err, context.Canceled)
}
