package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/nickyhof/CommitKV"
	"github.com/nickyhof/CommitKV/core"
	"github.com/nickyhof/CommitKV/db"
)

// session is the per-connection state: which database queries run against
// and who is running them.
type session struct {
	id            string
	database      string
	user          *core.User
	authenticated bool
	tokenExpiry   time.Time
	executor      *db.Executor
}

func newSession(instance *CommitKV.Instance) *session {
	s := &session{
		id:       uuid.NewString(),
		database: instance.Config().Database.Default,
	}
	s.rebind(instance)
	return s
}

// rebind rebuilds the executor after the database or user changed.
func (s *session) rebind(instance *CommitKV.Instance) {
	s.executor = instance.Session(s.database, s.user)
}

func (s *session) login(instance *CommitKV.Instance, user *core.User, expiry time.Time) {
	s.user = user
	s.authenticated = true
	s.tokenExpiry = expiry
	s.rebind(instance)
}

func (s *session) use(instance *CommitKV.Instance, database string) {
	s.database = database
	s.rebind(instance)
}

// expired reports whether a JWT-authenticated session outlived its token.
func (s *session) expired(now time.Time) bool {
	return !s.tokenExpiry.IsZero() && now.After(s.tokenExpiry)
}

func (s *session) username() string {
	if s.user == nil {
		return "-"
	}
	return s.user.Username
}
