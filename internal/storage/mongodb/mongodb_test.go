package mongodb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/team-portal/internal/models"
	"github.com/magabrotheeeer/team-portal/internal/storage"
)

func setupStorage(t *testing.T) *Storage {
	if testing.Short() {
		t.Skip("skipping mongo container test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("27017/tcp"),
			wait.ForLog("Waiting for connections"),
		).WithDeadline(2 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	s, err := New(ctx, uri, "portal_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_Users(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	ann := models.User{
		Name:         "Ann",
		Username:     "ann",
		PasswordHash: "$2a$10$hash",
		Team:         "core",
		Role:         "member",
	}

	id, err := s.CreateUser(ctx, ann)
	require.NoError(t, err)
	assert.Len(t, id, 24)

	got, err := s.GetUserByUsername(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, id, got.UUID)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, ann.PasswordHash, got.PasswordHash)
	assert.Equal(t, "member", got.Role)

	dup := ann
	dup.Team = "other"
	_, err = s.CreateUser(ctx, dup)
	require.ErrorIs(t, err, storage.ErrDuplicateUsername)

	got, err = s.GetUserByUsername(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "core", got.Team)

	_, err = s.GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}
