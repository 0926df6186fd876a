package auth

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Store interface {
	GetUser(username string) (*User, error)
	SaveUser(*User) error
	DeleteUser(username string) error
	ListUsers() ([]*User, error)
}
