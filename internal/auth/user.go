package auth

import (
	"slices"

	"golang.org/x/crypto/bcrypt"

	"go.heapstore/internal/storage"
)

type Role string

const (
	// Allowed to create and remove containers
	RoleSuperuser Role = "superuser"
	// Read / Write on granted containers
	RoleUser Role = "user"
	// Readonly on granted containers
	RoleGuest Role = "guest"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperuser, RoleUser, RoleGuest:
		return true
	}
	return false
}

type User struct {
	Username   string                `json:"username"`
	Password   string                `json:"password"`
	Role       Role                  `json:"role"`
	Containers []storage.ContainerID `json:"containers"`
}

func (u *User) IsSuperuser() bool {
	return u.Role == RoleSuperuser
}

func (u *User) IsGuest() bool {
	return u.Role == RoleGuest
}

func (u *User) CanAccess(id storage.ContainerID) bool {
	return u.IsSuperuser() || slices.Contains(u.Containers, id)
}

// Permission is the access mode this user's reads and writes run with
func (u *User) Permission() storage.Permission {
	if u.IsGuest() {
		return storage.ReadOnly
	}
	return storage.ReadWrite
}

// Basic password hashing - might be fun to implement from scratch later
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
