package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"alliancedash/pkg/auth"
	"alliancedash/pkg/domain"
	"alliancedash/pkg/store"
)

// Authenticate checks an admin's password. Rows still holding a legacy
// SHA-256 digest are rehashed with bcrypt after a successful check.
func (a *App) Authenticate(username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, nil
	}
	hash, ok, err := a.store.FindPasswordHash(username, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("find admin: %w", err)
	}
	if !ok || !auth.CheckPassword(password, hash) {
		return false, nil
	}
	if auth.IsLegacyHash(hash) {
		a.upgradeHash(username, password)
	}
	return true, nil
}

func (a *App) upgradeHash(username, password string) {
	upgraded, err := auth.HashPassword(password)
	if err != nil {
		slog.Warn("password rehash failed", "username", username, "err", err)
		return
	}
	if _, err := a.store.UpdatePassword(username, upgraded); err != nil {
		slog.Warn("password rehash not saved", "username", username, "err", err)
		return
	}
	slog.Info("legacy password hash upgraded", "username", username)
}

// Login authenticates an admin and issues a session token.
func (a *App) Login(username, password string) (domain.Session, string, error) {
	ok, err := a.Authenticate(username, password)
	if err != nil {
		return domain.Session{}, "", err
	}
	if !ok {
		return domain.Session{}, "", ErrInvalidCredentials
	}
	session := domain.Session{Authenticated: true, Role: domain.RoleAdmin, Username: strings.TrimSpace(username)}
	token, err := a.sessions.NewSession(session)
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("issue session: %w", err)
	}
	return session, token, nil
}

// Guest grants a read-only session without credentials.
func (a *App) Guest() (domain.Session, string, error) {
	session := domain.Session{Authenticated: true, Role: domain.RoleGuest}
	token, err := a.sessions.NewSession(session)
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("issue session: %w", err)
	}
	return session, token, nil
}

// SessionFromToken resolves a bearer token. Any failure yields an
// unauthenticated session and ErrUnauthorized.
func (a *App) SessionFromToken(token string) (domain.Session, error) {
	session, err := a.sessions.SessionFromToken(token)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return session, nil
}

// Logout revokes the token until it would have expired.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// ChangePassword re-checks the current password, applies the length
// policy and stores the new hash. Every session issued to the user before
// the change is revoked, including the caller's.
func (a *App) ChangePassword(session domain.Session, current, next string) (string, error) {
	if err := requireAdmin(session); err != nil {
		return "", err
	}
	ok, err := a.Authenticate(session.Username, current)
	if err != nil {
		slog.Error("password change lookup failed", "username", session.Username, "err", err)
		return "", ErrPasswordUpdateFailed
	}
	if !ok {
		return "", ErrCurrentPasswordIncorrect
	}
	if err := auth.ValidatePassword(next); err != nil {
		return "", err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		slog.Error("password hash failed", "username", session.Username, "err", err)
		return "", ErrPasswordUpdateFailed
	}
	updated, err := a.store.UpdatePassword(session.Username, hash)
	if err != nil || !updated {
		return "", ErrPasswordUpdateFailed
	}
	if revoker, ok := a.sessions.(store.UserSessionRevoker); ok {
		if err := revoker.RevokeUserSessions(session.Username, a.now()); err != nil {
			slog.Warn("session revocation after password change failed", "username", session.Username, "err", err)
		}
	}
	return "Password updated successfully.", nil
}

// IsCredentialError reports errors that only mean "bad input from the user".
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrCurrentPasswordIncorrect) ||
		errors.Is(err, auth.ErrPasswordTooShort) ||
		errors.Is(err, auth.ErrPasswordTooLong)
}
