// Package notification publishes voter-facing notices to a message broker.
// Delivery is asynchronous: downstream workers own templating and transport.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"gocloud.dev/pubsub"

	// Register pubsub drivers
	_ "gocloud.dev/pubsub/mempubsub"
)

// Template identifies a notice type. Payload rendering happens downstream.
type Template string

const (
	// TemplateProvisionalResults announces provisional results once an
	// election closes. Dispatched exactly once per election.
	TemplateProvisionalResults Template = "provisional_results"

	// TemplateLockoutNotice informs a voter their secret code is locked.
	TemplateLockoutNotice Template = "lockout_notice"
)

// Dispatcher publishes notices for asynchronous delivery.
type Dispatcher interface {
	// Dispatch publishes one notice. The recipient is an opaque address
	// (voter ID, officer channel) resolved by the delivery worker.
	Dispatch(ctx context.Context, recipient string, template Template, data map[string]any) error

	// Shutdown flushes pending sends and releases the topic.
	Shutdown(ctx context.Context) error
}

// message is the wire format published to the topic.
type message struct {
	Recipient string         `json:"recipient"`
	Template  Template       `json:"template"`
	Data      map[string]any `json:"data,omitempty"`
}

// PubSubDispatcher publishes JSON notices to a gocloud.dev/pubsub topic.
type PubSubDispatcher struct {
	topic *pubsub.Topic
}

// NewPubSubDispatcher opens the topic identified by topicURL.
// Supports mem://, gcppubsub://, awssqs:// and other registered drivers.
func NewPubSubDispatcher(ctx context.Context, topicURL string) (*PubSubDispatcher, error) {
	topic, err := pubsub.OpenTopic(ctx, topicURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open notification topic: %w", err)
	}
	return &PubSubDispatcher{topic: topic}, nil
}

// Dispatch publishes one notice as a JSON message with the template in the
// message metadata for broker-side routing.
func (p *PubSubDispatcher) Dispatch(
	ctx context.Context,
	recipient string,
	template Template,
	data map[string]any,
) error {
	body, err := json.Marshal(message{
		Recipient: recipient,
		Template:  template,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = p.topic.Send(ctx, &pubsub.Message{
		Body: body,
		Metadata: map[string]string{
			"template": string(template),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

// Shutdown flushes pending sends and releases the topic.
func (p *PubSubDispatcher) Shutdown(ctx context.Context) error {
	return p.topic.Shutdown(ctx)
}
