package data

import "time"

// The functions below are the reference semantics of the session ledger. The
// memory store applies them directly; the Mongo store expresses the same rules
// as single-document update pipelines so each transition is atomic.

// SweepExpired closes every active session that started more than ttl before now.
// A swept session ends at StartTime+ttl and is flagged expired.
func SweepExpired(sessions []LoginSession, now time.Time, ttl time.Duration) []LoginSession {
	cutoff := now.Add(-ttl)
	out := make([]LoginSession, len(sessions))
	for i, s := range sessions {
		if s.Active() && s.StartTime.Before(cutoff) {
			end := s.StartTime.Add(ttl)
			s.EndTime = &end
			s.DurationMS = ttl.Milliseconds()
			s.Expired = true
		}
		out[i] = s
	}
	return out
}

// OpenSession sweeps stale sessions and appends a new active one for sessionID.
func OpenSession(sessions []LoginSession, sessionID string, now time.Time, ttl time.Duration) []LoginSession {
	swept := SweepExpired(sessions, now, ttl)
	return append(swept, LoginSession{SessionID: sessionID, StartTime: now})
}

// HasActive reports whether sessionID has an active ledger entry.
func HasActive(sessions []LoginSession, sessionID string) bool {
	return activeIndex(sessions, sessionID) >= 0
}

// EnsureActive appends an active entry for sessionID unless one already exists.
// The returned bool is true when an entry was appended.
func EnsureActive(sessions []LoginSession, sessionID string, now time.Time) ([]LoginSession, bool) {
	if HasActive(sessions, sessionID) {
		return sessions, false
	}
	return append(sessions, LoginSession{SessionID: sessionID, StartTime: now}), true
}

// CloseSession ends the active entry for sessionID at now. Closing an
// already-closed or unknown session is a no-op.
func CloseSession(sessions []LoginSession, sessionID string, now time.Time) ([]LoginSession, bool) {
	i := activeIndex(sessions, sessionID)
	if i < 0 {
		return sessions, false
	}
	out := make([]LoginSession, len(sessions))
	copy(out, sessions)
	end := now
	out[i].EndTime = &end
	out[i].DurationMS = now.Sub(out[i].StartTime).Milliseconds()
	out[i].Expired = false
	return out, true
}

func activeIndex(sessions []LoginSession, sessionID string) int {
	for i, s := range sessions {
		if s.SessionID == sessionID && s.Active() {
			return i
		}
	}
	return -1
}
