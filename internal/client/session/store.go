// Package session owns process-wide knowledge of the current user. The
// Store is the single writer of that state: every other component receives
// the store by injection and only reads snapshots from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tanvir-rifat007/maker-cli/internal/client/api"
	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
	"github.com/tanvir-rifat007/maker-cli/internal/logging"
)

// State is the auth settlement state. Loading only exists before the initial
// credential check resolves; it is never re-entered afterwards.
type State int

const (
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNotActivated is the soft login failure: the credential was accepted but
// the account's email is not confirmed yet. Distinct from wrong-password
// rejections (api.ErrUnauthorized).
var ErrNotActivated = errors.New("account is not activated")

// Store is the authentication session store.
type Store struct {
	client api.Client
	log    logging.Logger

	initOnce sync.Once

	mu    sync.Mutex
	state State
	user  *models.UserSession
}

func NewStore(client api.Client, log logging.Logger) *Store {
	return &Store{
		client: client,
		log:    log.With("component", "session"),
		state:  StateLoading,
	}
}

// Initialize runs the startup credential check. The first call performs
// exactly one request against /api/users/me; any non-success outcome,
// including a network failure, settles the store as Anonymous rather than
// leaving it stuck in Loading. Subsequent calls are no-ops.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		user, err := s.client.CurrentUser(ctx)
		if err != nil || !user.IsAuthenticated() {
			if err != nil && !errors.Is(err, api.ErrUnauthorized) {
				s.log.Warn(ctx, "credential check failed", "error", err)
			}
			s.set(StateAnonymous, nil)
			return
		}
		s.set(StateAuthenticated, user)
	})
}

// Login authenticates and then re-fetches the canonical session record: the
// login response and the current-session response are not guaranteed to have
// identical shapes, so login is "try to authenticate" and the follow-up
// fetch is "get the authoritative record". An unactivated account is a soft
// failure (ErrNotActivated) and leaves the store Anonymous.
func (s *Store) Login(ctx context.Context, email, password string) (*models.UserSession, error) {
	if err := s.client.Login(ctx, email, password); err != nil {
		return nil, err
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user != nil && !user.Activated {
		s.set(StateAnonymous, nil)
		return nil, ErrNotActivated
	}
	if !user.IsAuthenticated() {
		s.set(StateAnonymous, nil)
		return nil, api.ErrUnauthorized
	}

	s.set(StateAuthenticated, user)
	s.log.Info(ctx, "logged in", "user_id", user.ID)
	return user, nil
}

// Logout notifies the server on a best-effort basis and then clears local
// state unconditionally: logging out locally must never fail, and calling it
// again while already Anonymous is a harmless no-op.
func (s *Store) Logout(ctx context.Context) {
	if err := s.client.Logout(ctx); err != nil {
		s.log.Warn(ctx, "logout request failed, clearing local session anyway", "error", err)
	}
	s.set(StateAnonymous, nil)
}

// Register creates a new account. The account starts unactivated, so the
// store state does not change; the user activates via the mailed link and
// then logs in.
func (s *Store) Register(ctx context.Context, name, email, password string) (*models.UserSession, error) {
	return s.client.Register(ctx, name, email, password)
}

// State returns the current settlement state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns a copy of the current user record, or nil when there is none.
func (s *Store) User() *models.UserSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) set(state State, user *models.UserSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.user = user
}
