package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, payload []byte, attrs map[string]string) (string, error) {
	args := m.Called(ctx, topic, payload, attrs)
	return args.String(0), args.Error(1)
}

func TestResetURL(t *testing.T) {
	assert.Equal(t, "https://app.example/reset-password?token=a%2Bb", ResetURL("https://app.example/", "a+b"))
}

func TestPubSubSender_PublishesResetEmail(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, "reset-topic", mock.MatchedBy(func(payload []byte) bool {
		var msg ResetEmail
		if err := json.Unmarshal(payload, &msg); err != nil {
			return false
		}
		return msg.Email == "ana@x.com" && msg.Kind == "password_reset" &&
			msg.ResetURL == "https://app.example/reset-password?token=tok"
	}), map[string]string{"kind": "password_reset"}).Return("msg-1", nil)

	s := NewPubSubSender(pub, "reset-topic", "https://app.example", zerolog.Nop())
	require.NoError(t, s.SendPasswordReset(context.Background(), "ana@x.com", "tok"))
	pub.AssertExpectations(t)
}

func TestPubSubSender_PropagatesPublishError(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("unavailable"))

	s := NewPubSubSender(pub, "reset-topic", "https://app.example", zerolog.Nop())
	assert.Error(t, s.SendPasswordReset(context.Background(), "ana@x.com", "tok"))
}
