package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"
)

type FileStore struct {
	path  string
	mu    sync.RWMutex
	users map[string]*User
}

func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path:  path,
		users: make(map[string]*User),
	}

	if err := fs.load(); err != nil {
		return nil, err
	}

	return fs, nil
}

// Load the user catalog from fs.path
func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.Open(fs.path)
	if os.IsNotExist(err) {
		// first run, the file is written on the first save
		return nil
	}

	if err != nil {
		return err
	}
	defer f.Close()

	var list []*User
	if err := json.NewDecoder(f).Decode(&list); err != nil {
		return fmt.Errorf("parse %s: %w", fs.path, err)
	}

	for _, u := range list {
		fs.users[u.Username] = u
	}
	return nil
}

// write from memory to user catalog
func (fs *FileStore) persist() error {
	f, err := os.OpenFile(fs.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	defer f.Close()

	list := make([]*User, 0, len(fs.users))
	for _, u := range fs.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return json.NewEncoder(f).Encode(list)
}

func copyUser(u *User) *User {
	return &User{
		Username:   u.Username,
		Role:       u.Role,
		Password:   u.Password,
		Containers: slices.Clone(u.Containers),
	}
}

func (fs *FileStore) GetUser(username string) (*User, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	u, ok := fs.users[username]
	if !ok {
		return nil, fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}

	// Create a deep copy so we aren't holding a reference
	return copyUser(u), nil
}

func (fs *FileStore) SaveUser(u *User) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.users[u.Username] = copyUser(u)
	return fs.persist()
}

func (fs *FileStore) DeleteUser(username string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.users[username]; !ok {
		return fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}

	delete(fs.users, username)
	return fs.persist()
}

func (fs *FileStore) ListUsers() ([]*User, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	list := make([]*User, 0, len(fs.users))
	for _, u := range fs.users {
		list = append(list, copyUser(u))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })

	return list, nil
}
