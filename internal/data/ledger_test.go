package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpiredClosesOnlyStaleActiveSessions(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	stale := now.Add(-SessionTTL - time.Hour)
	fresh := now.Add(-time.Hour)
	closedAt := now.Add(-20 * 24 * time.Hour)

	in := []LoginSession{
		{SessionID: "stale", StartTime: stale},
		{SessionID: "fresh", StartTime: fresh},
		{SessionID: "closed", StartTime: stale.Add(-time.Hour), EndTime: &closedAt, DurationMS: 1},
	}
	out := SweepExpired(in, now, SessionTTL)

	require.Len(t, out, 3)

	require.NotNil(t, out[0].EndTime)
	assert.True(t, out[0].EndTime.Equal(stale.Add(SessionTTL)))
	assert.Equal(t, SessionTTL.Milliseconds(), out[0].DurationMS)
	assert.True(t, out[0].Expired)

	assert.True(t, out[1].Active())
	assert.False(t, out[1].Expired)

	assert.Equal(t, in[2], out[2], "already closed sessions are untouched")

	// input slice is not mutated
	assert.True(t, in[0].Active())
}

func TestOpenSessionSweepsBeforeAppending(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	in := []LoginSession{{SessionID: "old", StartTime: now.Add(-15 * 24 * time.Hour)}}

	out := OpenSession(in, "new", now, SessionTTL)

	require.Len(t, out, 2)
	assert.True(t, out[0].Expired)
	assert.Equal(t, "new", out[1].SessionID)
	assert.True(t, out[1].Active())
	assert.True(t, out[1].StartTime.Equal(now))
}

func TestEnsureActiveIsIdempotent(t *testing.T) {
	now := time.Now().UTC()

	s, appended := EnsureActive(nil, "sid", now)
	require.True(t, appended)
	require.Len(t, s, 1)

	s, appended = EnsureActive(s, "sid", now.Add(time.Minute))
	assert.False(t, appended)
	assert.Len(t, s, 1)
}

func TestEnsureActiveAppendsAfterClose(t *testing.T) {
	now := time.Now().UTC()
	s, _ := EnsureActive(nil, "sid", now)
	s, closed := CloseSession(s, "sid", now.Add(time.Minute))
	require.True(t, closed)

	s, appended := EnsureActive(s, "sid", now.Add(2*time.Minute))
	assert.True(t, appended, "a closed entry does not count as active")
	assert.Len(t, s, 2)
}

func TestCloseSession(t *testing.T) {
	start := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	in := []LoginSession{{SessionID: "a", StartTime: start}, {SessionID: "b", StartTime: start}}

	out, closed := CloseSession(in, "b", end)
	require.True(t, closed)
	assert.True(t, out[0].Active())
	require.NotNil(t, out[1].EndTime)
	assert.True(t, out[1].EndTime.Equal(end))
	assert.Equal(t, (90 * time.Minute).Milliseconds(), out[1].DurationMS)
	assert.False(t, out[1].Expired)

	_, closed = CloseSession(out, "b", end)
	assert.False(t, closed, "a session closes exactly once")

	_, closed = CloseSession(out, "missing", end)
	assert.False(t, closed)
}

func TestDailyKey(t *testing.T) {
	// 23:30 at UTC-5 is already the next day in UTC
	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2026, 1, 31, 23, 30, 0, 0, loc)
	assert.Equal(t, "daily-2026-02-01", DailyKey(ts))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
	assert.False(t, Role("").Valid())
}
