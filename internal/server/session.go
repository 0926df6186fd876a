package server

import (
	"go.heapstore/internal/auth"
	"go.heapstore/internal/storage"
)

// Session is the per connection state. Every connection runs inside one
// transaction id until it sends COMMIT.
type Session struct {
	user *auth.User
	tid  storage.TransactionID
}

func newSession() *Session {
	return &Session{tid: storage.NewTransactionID()}
}

func (s *Session) IsAuth() bool {
	return s.user != nil
}

func (s *Session) canRead(id storage.ContainerID) bool {
	return s.IsAuth() && s.user.CanAccess(id)
}

func (s *Session) canWrite(id storage.ContainerID) bool {
	return s.canRead(id) && s.user.Permission() == storage.ReadWrite
}
