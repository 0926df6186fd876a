package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.heapstore/internal/storage"
)

func newTestAuth(t *testing.T) (*Authenticator, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "users.json")
	fs, err := NewFileStore(path)
	require.NoError(t, err)

	return NewAuthenticator(fs), path
}

func TestCreateAndAuthenticate(t *testing.T) {
	a, _ := newTestAuth(t)

	require.NoError(t, a.CreateUser("alice", "hunter2", RoleUser))

	u, err := a.Authenticate("alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, RoleUser, u.Role)
	assert.NotEqual(t, "hunter2", u.Password)

	_, err = a.Authenticate("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate("bob", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserErrors(t *testing.T) {
	a, _ := newTestAuth(t)

	require.NoError(t, a.CreateUser("alice", "pw", RoleGuest))
	assert.ErrorIs(t, a.CreateUser("alice", "pw", RoleGuest), ErrUserExists)
	assert.Error(t, a.CreateUser("carol", "pw", Role("admin")))
}

func TestGrantRevoke(t *testing.T) {
	a, _ := newTestAuth(t)
	require.NoError(t, a.CreateUser("alice", "pw", RoleUser))

	require.NoError(t, a.Grant("alice", 3))
	require.NoError(t, a.Grant("alice", 3))
	require.NoError(t, a.Grant("alice", 5))

	u, err := a.Store().GetUser("alice")
	require.NoError(t, err)
	assert.Equal(t, []storage.ContainerID{3, 5}, u.Containers)
	assert.True(t, u.CanAccess(3))
	assert.False(t, u.CanAccess(4))

	require.NoError(t, a.Revoke("alice", 3))
	require.NoError(t, a.Revoke("alice", 9))

	u, err = a.Store().GetUser("alice")
	require.NoError(t, err)
	assert.Equal(t, []storage.ContainerID{5}, u.Containers)

	assert.ErrorIs(t, a.Grant("nobody", 1), ErrUserNotFound)
}

func TestPermissions(t *testing.T) {
	su := &User{Role: RoleSuperuser}
	assert.True(t, su.CanAccess(42))
	assert.Equal(t, storage.ReadWrite, su.Permission())

	guest := &User{Role: RoleGuest, Containers: []storage.ContainerID{1}}
	assert.True(t, guest.CanAccess(1))
	assert.Equal(t, storage.ReadOnly, guest.Permission())
}

func TestFileStorePersists(t *testing.T) {
	a, path := newTestAuth(t)
	require.NoError(t, a.CreateUser("alice", "pw", RoleUser))
	require.NoError(t, a.CreateUser("bob", "pw", RoleGuest))
	require.NoError(t, a.Grant("bob", 2))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	fs, err := NewFileStore(path)
	require.NoError(t, err)

	users, err := fs.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, []storage.ContainerID{2}, users[1].Containers)

	require.NoError(t, fs.DeleteUser("alice"))
	assert.ErrorIs(t, fs.DeleteUser("alice"), ErrUserNotFound)
	_, err = fs.GetUser("alice")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFileStoreReturnsCopies(t *testing.T) {
	a, _ := newTestAuth(t)
	require.NoError(t, a.CreateUser("alice", "pw", RoleUser))
	require.NoError(t, a.Grant("alice", 1))

	u, err := a.Store().GetUser("alice")
	require.NoError(t, err)
	u.Containers[0] = 99
	u.Role = RoleSuperuser

	again, err := a.Store().GetUser("alice")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, again.Role)
	assert.Equal(t, []storage.ContainerID{1}, again.Containers)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}
