package auth

import (
	"errors"
	"fmt"
	"slices"

	"go.heapstore/internal/storage"
)

type Authenticator struct {
	store Store
}

func NewAuthenticator(store Store) *Authenticator {
	return &Authenticator{store: store}
}

func (a *Authenticator) Store() Store {
	return a.store
}

// Authenticate reports unknown users and bad passwords the same way
func (a *Authenticator) Authenticate(username, password string) (*User, error) {
	u, err := a.store.GetUser(username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// CreateUser hashes password and stores a user with no granted containers
func (a *Authenticator) CreateUser(username, password string, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}

	if _, err := a.store.GetUser(username); err == nil {
		return fmt.Errorf("%s: %w", username, ErrUserExists)
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	// Later we should implement minimum length / complexity
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return a.store.SaveUser(&User{
		Username: username,
		Password: string(hash),
		Role:     role,
	})
}

// Grant gives username access to container id
func (a *Authenticator) Grant(username string, id storage.ContainerID) error {
	u, err := a.store.GetUser(username)
	if err != nil {
		return err
	}

	if !slices.Contains(u.Containers, id) {
		u.Containers = append(u.Containers, id)
	}
	return a.store.SaveUser(u)
}

func (a *Authenticator) Revoke(username string, id storage.ContainerID) error {
	u, err := a.store.GetUser(username)
	if err != nil {
		return err
	}

	if i := slices.Index(u.Containers, id); i != -1 {
		u.Containers = slices.Delete(u.Containers, i, i+1)
	}
	return a.store.SaveUser(u)
}
