package session_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filedeck/pkg/session"
)

func TestRedisStore(t *testing.T) {
	t.Parallel()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := session.NewRedisStore(client, "test:session:"+uuid.NewString()[:8]+":")
	userID := uuid.New()

	sess := session.NewSession(uuid.NewString(), &userID, "fp", time.Hour)
	sess.Set(session.KeyUsername, "alice")
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	name, _ := got.GetString(session.KeyUsername)
	assert.Equal(t, "alice", name)

	require.NoError(t, store.UpdateActivity(ctx, sess.Token, time.Now()))
	assert.ErrorIs(t, store.Update(ctx, session.NewSession("missing", nil, "", time.Hour)), session.ErrSessionNotFound)
	assert.ErrorIs(t, store.Create(ctx, session.NewSession("old", nil, "", -time.Second)), session.ErrSessionExpired)

	require.NoError(t, store.DeleteByUserID(ctx, userID.String()))
	_, err = store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
