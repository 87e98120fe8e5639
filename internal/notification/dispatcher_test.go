package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/pubsub"
)

func TestPubSubDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	dispatcher, err := NewPubSubDispatcher(ctx, "mem://notices")
	require.NoError(t, err)
	defer func() {
		_ = dispatcher.Shutdown(ctx)
	}()

	sub, err := pubsub.OpenSubscription(ctx, "mem://notices")
	require.NoError(t, err)
	defer func() {
		_ = sub.Shutdown(ctx)
	}()

	err = dispatcher.Dispatch(ctx, "voter-123", TemplateProvisionalResults, map[string]any{
		"election_id": "e-1",
	})
	require.NoError(t, err)

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msg, err := sub.Receive(recvCtx)
	require.NoError(t, err)
	defer msg.Ack()

	assert.Equal(t, string(TemplateProvisionalResults), msg.Metadata["template"])

	var got message
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, "voter-123", got.Recipient)
	assert.Equal(t, TemplateProvisionalResults, got.Template)
	assert.Equal(t, "e-1", got.Data["election_id"])
}

func TestNewPubSubDispatcher_InvalidURL(t *testing.T) {
	_, err := NewPubSubDispatcher(context.Background(), "bogus://nope")
	assert.Error(t, err)
}
