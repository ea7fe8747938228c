package household

import (
	"errors"
	"strings"

	"github.com/hearthapp/hearth/internal/auth"
)

var (
	ErrRestricted      = errors.New("restricted to family members")
	ErrEmailExists     = errors.New("email already registered")
	ErrAccountExists   = errors.New("account already exists; please login")
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrMemberNotFound  = errors.New("member not found")
)

// SignUp registers an account for an allow-listed name, hashes the password,
// and broadcasts the new member. The name must not already hold an account;
// a roster member without one is claimed in place.
func (s *Store) SignUp(name, email, password string) (string, error) {
	if _, ok := s.allowed[name]; !ok {
		return "", ErrRestricted
	}
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	cred, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	for _, m := range s.state.Members {
		if strings.ToLower(strings.TrimSpace(m.Email)) == normalizedEmail && normalizedEmail != "" {
			s.mu.Unlock()
			return "", ErrEmailExists
		}
	}
	for _, m := range s.state.Members {
		if m.Name == name && m.Email != "" {
			s.mu.Unlock()
			return "", ErrAccountExists
		}
	}
	member := Member{
		ID:         s.newID(),
		Name:       name,
		Role:       RoleForName(name),
		Email:      normalizedEmail,
		Credential: cred,
	}
	s.state.Members = append(s.state.Members, member)
	s.mu.Unlock()
	s.publish(KindMemberAdd, member)
	return member.ID, nil
}

// SignInWithCredentials authenticates by email and password and marks the
// member current.
func (s *Store) SignInWithCredentials(email, password string) error {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.state.Members {
		if strings.ToLower(strings.TrimSpace(m.Email)) != normalizedEmail {
			continue
		}
		if _, ok := s.allowed[m.Name]; !ok {
			return ErrRestricted
		}
		if m.Credential.IsZero() || !m.Credential.Verify(password) {
			return ErrInvalidPassword
		}
		s.state.CurrentMemberID = m.ID
		return nil
	}
	return ErrAccountNotFound
}

// SignIn marks an allow-listed roster member current without a password.
// Quick member switching on a trusted family device.
func (s *Store) SignIn(memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.state.Members {
		if m.ID != memberID {
			continue
		}
		if _, ok := s.allowed[m.Name]; !ok {
			return ErrRestricted
		}
		s.state.CurrentMemberID = m.ID
		return nil
	}
	return ErrMemberNotFound
}

// SignOut clears the current member.
func (s *Store) SignOut() {
	s.mu.Lock()
	s.state.CurrentMemberID = ""
	s.mu.Unlock()
}

// RoleForName maps the fixed family roster to roles: Sheldon is the teen,
// Sidney the child, everyone else an adult.
func RoleForName(name string) Role {
	switch name {
	case "Sheldon":
		return RoleTeen
	case "Sidney":
		return RoleChild
	default:
		return RoleAdult
	}
}
