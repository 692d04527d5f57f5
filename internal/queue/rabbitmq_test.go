package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublisher_NotConnected(t *testing.T) {
	p := NewPublisher(nil, "user_events", nil)

	err := p.PublishJSON(context.Background(), map[string]string{"id": "1"})

	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestPublisher_MarshalError(t *testing.T) {
	p := NewPublisher(nil, "user_events", nil)

	err := p.PublishJSON(context.Background(), make(chan int))

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConnected)
}
