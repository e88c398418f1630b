package session_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/filedeck/pkg/session"
)

func TestNewSession(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sess := session.NewSession("token", &userID, "fp", time.Hour)

	assert.Equal(t, "token", sess.Token)
	assert.Equal(t, &userID, sess.UserID)
	assert.True(t, sess.IsAuthenticated())
	assert.False(t, sess.IsExpired())
	assert.NotNil(t, sess.Data)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Second)
}

func TestSession_State(t *testing.T) {
	t.Parallel()

	var nilSession *session.Session
	assert.False(t, nilSession.IsAuthenticated())
	assert.False(t, nilSession.IsExpired())
	assert.True(t, nilSession.ValidateFingerprint("anything"))

	anon := session.NewSession("token", nil, "", time.Hour)
	assert.False(t, anon.IsAuthenticated())

	expired := session.NewSession("token", nil, "", -time.Second)
	assert.True(t, expired.IsExpired())
}

func TestSession_Data(t *testing.T) {
	t.Parallel()

	sess := &session.Session{}
	sess.Set(session.KeyRole, "admin")
	sess.Set("count", 3)

	role, ok := sess.GetString(session.KeyRole)
	assert.True(t, ok)
	assert.Equal(t, "admin", role)

	_, ok = sess.GetString("count")
	assert.False(t, ok)

	sess.Delete(session.KeyRole)
	_, ok = sess.Get(session.KeyRole)
	assert.False(t, ok)
}

func TestSession_ValidateFingerprint(t *testing.T) {
	t.Parallel()

	bound := session.NewSession("token", nil, "abc", time.Hour)
	assert.True(t, bound.ValidateFingerprint("abc"))
	assert.False(t, bound.ValidateFingerprint("abd"))
	assert.False(t, bound.ValidateFingerprint(""))

	unbound := session.NewSession("token", nil, "", time.Hour)
	assert.True(t, unbound.ValidateFingerprint("whatever"))
}
