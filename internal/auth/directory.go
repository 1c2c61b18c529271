package auth

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-portal/meridian-portal/internal/shared"
)

// Directory resolves accounts by email.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// MemoryDirectory is the mock/local account store.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryDirectory builds a directory from the given accounts.
func NewMemoryDirectory(users ...User) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[string]User, len(users))}
	for _, u := range users {
		d.users[strings.ToLower(u.Email)] = u
	}
	return d
}

// FindByEmail returns the account for the email, case-insensitively.
func (d *MemoryDirectory) FindByEmail(ctx context.Context, email string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := u
	out.Roles = append([]string(nil), u.Roles...)
	return &out, nil
}

// SeedUsers returns the demo accounts, one per role tier, all sharing the
// configured seed password.
func SeedUsers(seedPassword string) ([]User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	h := string(hash)
	return []User{
		{ID: "u-0001", Email: "root@meridian.local", DisplayName: "Root", PasswordHash: h, Roles: []string{"superAdmin"}, IsActive: true},
		{ID: "u-0002", Email: "admin@meridian.local", DisplayName: "Portal Admin", PasswordHash: h, Roles: []string{"admin"}, IsActive: true},
		{ID: "u-0003", Email: "manager@meridian.local", DisplayName: "Ops Manager", PasswordHash: h, Roles: []string{"manager"}, IsActive: true},
		{ID: "u-0004", Email: "employee@meridian.local", DisplayName: "Employee", PasswordHash: h, Roles: []string{"employee"}, IsActive: true},
		{ID: "u-0005", Email: "viewer@meridian.local", DisplayName: "Viewer", PasswordHash: h, Roles: []string{"viewer"}, IsActive: true},
	}, nil
}
