// Package identity resolves public profile details of other users.
package identity

import (
	"context"
	"errors"
	"sync"

	"firebase.google.com/go/v4/auth"
)

var ErrUserNotFound = errors.New("user not found")

type Profile struct {
	UID         string
	DisplayName string
	PhotoURL    string
}

type Directory interface {
	Lookup(ctx context.Context, uid string) (*Profile, error)
}

type firebaseDirectory struct {
	client *auth.Client
}

// NewFirebaseDirectory looks users up in Firebase Authentication.
func NewFirebaseDirectory(client *auth.Client) Directory {
	return &firebaseDirectory{client: client}
}

func (d *firebaseDirectory) Lookup(ctx context.Context, uid string) (*Profile, error) {
	user, err := d.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &Profile{UID: user.UID, DisplayName: user.DisplayName, PhotoURL: user.PhotoURL}, nil
}

// StaticDirectory serves profiles from memory. Unknown uids resolve to a bare
// profile so header-auth deployments work without a user store.
type StaticDirectory struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewStaticDirectory(profiles ...Profile) *StaticDirectory {
	d := &StaticDirectory{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		d.profiles[p.UID] = p
	}
	return d
}

// Remember stores or replaces a profile.
func (d *StaticDirectory) Remember(p Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[p.UID] = p
}

func (d *StaticDirectory) Lookup(_ context.Context, uid string) (*Profile, error) {
	if uid == "" {
		return nil, ErrUserNotFound
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if p, ok := d.profiles[uid]; ok {
		return &p, nil
	}
	return &Profile{UID: uid, DisplayName: uid}, nil
}
