package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"portal/pkg/generator"
	"portal/pkg/session"
	"portal/pkg/user"
)

const (
	DefaultSessionTTL   = time.Hour
	DefaultStoreTimeout = 3 * time.Second
)

type ServiceInterface interface {
	Authenticate(ctx context.Context, identifier, secret string) (*user.User, error)
	Login(ctx context.Context, identifier, secret string) (*session.Session, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, sessionID string) (session.Summary, error)
}

type Options struct {
	SessionTTL   time.Duration
	StoreTimeout time.Duration
	// HashCost is the bcrypt cost of stored passwords; the decoy hash
	// compared for unknown users uses the same cost. Zero or out of
	// bcrypt's range means bcrypt.DefaultCost.
	HashCost int
}

type Authenticator struct {
	Users    user.Repository
	Sessions session.Repository
	Logger   *slog.Logger

	ttl     time.Duration
	timeout time.Duration
	cost    int

	Now   func() time.Time
	NewID func() (string, error)

	decoyOnce sync.Once
	decoy     []byte
}

func NewAuthenticator(users user.Repository, sessions session.Repository, logger *slog.Logger, opts Options) *Authenticator {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.HashCost < bcrypt.MinCost || opts.HashCost > bcrypt.MaxCost {
		opts.HashCost = bcrypt.DefaultCost
	}
	return &Authenticator{
		Users:    users,
		Sessions: sessions,
		Logger:   logger,
		ttl:      opts.SessionTTL,
		timeout:  opts.StoreTimeout,
		cost:     opts.HashCost,
		Now:      time.Now,
		NewID:    generator.NewSessionID,
	}
}

func (a *Authenticator) Authenticate(ctx context.Context, identifier, secret string) (*user.User, error) {
	if identifier == "" || secret == "" {
		return nil, fmt.Errorf("%w: empty identifier or secret", ErrInvalidCredentials)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	u, err := a.Users.FindByUsername(lookupCtx, identifier)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// burn the same bcrypt time as a real comparison
			_ = bcrypt.CompareHashAndPassword(a.decoyHash(), []byte(secret))
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func (a *Authenticator) Login(ctx context.Context, identifier, secret string) (*session.Session, error) {
	u, err := a.Authenticate(ctx, identifier, secret)
	if err != nil {
		a.Logger.Info("login rejected", "user", identifier, "reason", err.Error())
		return nil, err
	}

	id, err := a.NewID()
	if err != nil {
		return nil, fmt.Errorf("%w: session id: %w", ErrSessionPersistence, err)
	}

	now := a.Now().UTC()
	sess := &session.Session{
		ID:        id,
		Summary:   session.SummaryOf(u),
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}

	putCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.Sessions.Put(putCtx, sess); err != nil {
		a.discard(id)
		a.Logger.Error("login session store", "user", u.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSessionPersistence, err)
	}

	a.Logger.Info("login", "user", u.ID, "role", u.Role)
	return sess, nil
}

// Logout always succeeds from the caller's point of view.
func (a *Authenticator) Logout(ctx context.Context, sessionID string) error {
	if !generator.ValidSessionID(sessionID) {
		return nil
	}

	delCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.Sessions.Delete(delCtx, sessionID); err != nil {
		a.Logger.Warn("logout session delete", "error", err)
		return nil
	}

	a.Logger.Info("logout")
	return nil
}

func (a *Authenticator) CurrentUser(ctx context.Context, sessionID string) (session.Summary, error) {
	if !generator.ValidSessionID(sessionID) {
		return session.Summary{}, ErrNotAuthenticated
	}

	getCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	sess, err := a.Sessions.Get(getCtx, sessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			a.Logger.Warn("session lookup", "error", err)
		}
		return session.Summary{}, ErrNotAuthenticated
	}

	// stores are expected to hide expired sessions; this covers those that
	// only expire lazily
	if sess.Expired(a.Now()) {
		return session.Summary{}, ErrNotAuthenticated
	}

	return sess.Summary, nil
}

// discard removes a session whose write may have landed after the store
// call reported failure.
func (a *Authenticator) discard(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.Sessions.Delete(ctx, id); err != nil {
		a.Logger.Warn("discard session", "error", err)
	}
}

func (a *Authenticator) decoyHash() []byte {
	a.decoyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("decoy-password"), a.cost)
		if err != nil {
			a.Logger.Error("decoy hash", "cost", a.cost, "error", err)
			h, _ = bcrypt.GenerateFromPassword([]byte("decoy-password"), bcrypt.DefaultCost)
		}
		a.decoy = h
	})
	return a.decoy
}
