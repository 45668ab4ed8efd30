package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/team-portal/internal/models"
)

func TestNewUserRegistered(t *testing.T) {
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	user := models.User{
		UUID:         "u-1",
		Name:         "Ann",
		Username:     "ann",
		PasswordHash: "$2a$10$hash",
		Team:         "core",
		Role:         "member",
	}

	ev := NewUserRegistered(user, at)
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "user.registered", got["event"])
	assert.Equal(t, "ann", got["username"])
	assert.Equal(t, "core", got["team"])
	assert.Equal(t, "member", got["role"])
	assert.NotContains(t, string(body), "$2a$10$hash")
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.UserRegistered(context.Background(), models.User{Username: "ann"}))
}

func TestAMQPPublisher_CancelledContext(t *testing.T) {
	p := &AMQPPublisher{exchange: "accounts", now: time.Now}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.UserRegistered(ctx, models.User{Username: "ann"})
	assert.ErrorIs(t, err, context.Canceled)
}
