// Package session carries the authenticated caller through service calls.
package session

import "errors"

var ErrUnauthenticated = errors.New("unauthenticated")

// Session identifies the caller of one operation.
type Session struct {
	UID         string
	DisplayName string
	PhotoURL    string
}

func (s Session) Valid() bool {
	return s.UID != ""
}

// Require returns ErrUnauthenticated for an empty session.
func (s Session) Require() error {
	if !s.Valid() {
		return ErrUnauthenticated
	}
	return nil
}

// Name returns the display name, falling back to the uid.
func (s Session) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.UID
}
