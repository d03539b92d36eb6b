// Package session holds the client's only process-wide mutable state:
// one bearer credential and the profile fetched with it. It is cleared
// as a unit on logout or on any authentication failure.
package session

import "sync"

// Profile is the authenticated identity as the backend reports it.
type Profile struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Credits  int    `json:"credits"`
}

// Store is a thread-safe credential holder.
type Store struct {
	mu      sync.RWMutex
	token   string
	profile *Profile
}

func NewStore() *Store {
	return &Store{}
}

// SetToken stores the credential after login or registration.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Token returns the credential and whether one is present.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// SetProfile caches the last fetched profile.
func (s *Store) SetProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.profile = &cp
}

// Profile returns the cached profile, if any.
func (s *Store) Profile() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return Profile{}, false
	}
	return *s.profile, true
}

// UserID returns the cached identity id, empty when logged out.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return ""
	}
	return s.profile.ID
}

// Clear wipes both credential and profile in one step.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.profile = nil
}
