package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// Authenticator exchanges account credentials for an auth key
type Authenticator interface {
	Login(ctx context.Context, email, password string) (authKey string, err error)
}

// Resettable is cleared whenever the session identity changes
type Resettable interface {
	Reset()
}

// ReadOnlySwitch toggles monitoring mode on the shared execution context
type ReadOnlySwitch interface {
	SetReadOnly(readOnly bool)
}

// Info describes the current session
type Info struct {
	LoggedIn   bool
	Email      string
	Monitoring bool
}

// Service handles login, monitoring and logout
type Service struct {
	store    *Store
	auth     Authenticator
	editor   Resettable
	readOnly ReadOnlySwitch
	log      *log.Logger
}

// NewService wires the session service. editor is reset on every identity
// change; readOnly is switched on while monitoring.
func NewService(store *Store, auth Authenticator, editor Resettable, readOnly ReadOnlySwitch, logger *log.Logger) *Service {
	return &Service{
		store:    store,
		auth:     auth,
		editor:   editor,
		readOnly: readOnly,
		log:      logger,
	}
}

// Restore applies the cached monitoring flag to the execution context
func (s *Service) Restore(ctx context.Context) (Info, error) {
	info, err := s.Status(ctx)
	if err != nil {
		return Info{}, err
	}
	s.readOnly.SetReadOnly(info.Monitoring)
	return info, nil
}

// Login authenticates with email and password and starts an editable session
func (s *Service) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}

	authKey, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := s.start(ctx, authKey, email, false); err != nil {
		return err
	}
	s.log.Info("Logged in", "email", email)
	return nil
}

// Monitor starts a read-only session with another account's auth key
func (s *Service) Monitor(ctx context.Context, authKey string) error {
	authKey = strings.TrimSpace(authKey)
	if authKey == "" {
		return errors.New("auth key is required")
	}
	if err := s.start(ctx, authKey, "", true); err != nil {
		return err
	}
	s.log.Info("Monitoring session started")
	return nil
}

func (s *Service) start(ctx context.Context, authKey, email string, monitoring bool) error {
	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn("Failed to clear previous session", "error", err)
	}
	s.editor.Reset()
	if err := s.store.SetCredentials(ctx, authKey, email, monitoring); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	s.readOnly.SetReadOnly(monitoring)
	return nil
}

// Logout clears the cache and resets the editor
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.editor.Reset()
	s.readOnly.SetReadOnly(false)
	s.log.Info("Logged out")
	return nil
}

// Status reports the cached session state
func (s *Service) Status(ctx context.Context) (Info, error) {
	_, email, err := s.store.Credentials(ctx)
	if errors.Is(err, ErrNotLoggedIn) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, err
	}
	monitoring, err := s.store.Monitoring(ctx)
	if err != nil {
		return Info{}, err
	}
	return Info{LoggedIn: true, Email: email, Monitoring: monitoring}, nil
}
