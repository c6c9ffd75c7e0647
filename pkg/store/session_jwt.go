package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"alliancedash/pkg/domain"
)

const (
	defaultJWTIssuer   = "alliancedash"
	defaultJWTAudience = "alliancedash-api"
	minSecretBytes     = 16
)

var defaultJWTLeeway = 30 * time.Second

// JWTOptions configures JWT claim validation behavior.
type JWTOptions struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
}

type sessionClaims struct {
	Role string `json:"role"`
	// IssuedAtNs is compared against user revocation cutoffs; iat is whole seconds.
	IssuedAtNs int64 `json:"iat_ns,omitempty"`
	jwt.RegisteredClaims
}

// JWTSessionStore issues and validates HS256 session tokens carrying the role.
type JWTSessionStore struct {
	ttl     time.Duration
	revoker TokenRevoker
	secret  []byte

	issuer   string
	audience string
	leeway   time.Duration
}

// NewJWTSessionStore builds an HS256 session store.
func NewJWTSessionStore(secret []byte, ttl time.Duration, revoker TokenRevoker, opts JWTOptions) (*JWTSessionStore, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretBytes)
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	opts = normalizeJWTOptions(opts)
	return &JWTSessionStore{
		ttl:      ttl,
		revoker:  revoker,
		secret:   append([]byte(nil), secret...),
		issuer:   opts.Issuer,
		audience: opts.Audience,
		leeway:   opts.Leeway,
	}, nil
}

// RandomSecret returns n random bytes for an ephemeral signing key.
func RandomSecret(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// NewSession signs a token for an authenticated session.
func (s *JWTSessionStore) NewSession(session domain.Session) (string, error) {
	if !session.Authenticated {
		return "", errors.New("cannot issue token for unauthenticated session")
	}
	subject := strings.TrimSpace(session.Username)
	if subject == "" {
		subject = string(session.Role)
	}
	now, err := s.issueTime(subject)
	if err != nil {
		return "", err
	}
	claims := sessionClaims{
		Role:       string(session.Role),
		IssuedAtNs: now.UnixNano(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        randomHexID(12),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// issueTime is now, or just past the subject's revocation cutoff when the
// clock has not moved beyond it yet.
func (s *JWTSessionStore) issueTime(subject string) (time.Time, error) {
	now := time.Now().UTC()
	userRevoker, ok := s.revoker.(UserTokenRevoker)
	if !ok {
		return now, nil
	}
	cutoff, err := userRevoker.RevokedAfter(subject)
	if err != nil {
		return time.Time{}, fmt.Errorf("read revocation cutoff: %w", err)
	}
	if !cutoff.IsZero() && !now.After(cutoff) {
		now = cutoff.Add(time.Nanosecond)
	}
	return now, nil
}

// SessionFromToken validates a token and returns the session it carries.
func (s *JWTSessionStore) SessionFromToken(token string) (domain.Session, error) {
	claims, err := s.parseAndVerify(token)
	if err != nil {
		return domain.Session{}, err
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(claims.ID)
		if err != nil {
			return domain.Session{}, err
		}
		if revoked {
			return domain.Session{}, errors.New("token revoked")
		}
		if userRevoker, ok := s.revoker.(UserTokenRevoker); ok {
			cutoff, err := userRevoker.RevokedAfter(claims.Subject)
			if err != nil {
				return domain.Session{}, err
			}
			if !cutoff.IsZero() && !issuedAt(claims).After(cutoff) {
				return domain.Session{}, errors.New("token revoked for user")
			}
		}
	}
	role := domain.Role(claims.Role)
	switch role {
	case domain.RoleAdmin:
		return domain.Session{Authenticated: true, Role: role, Username: claims.Subject}, nil
	case domain.RoleGuest:
		return domain.Session{Authenticated: true, Role: role}, nil
	default:
		return domain.Session{}, errors.New("token role invalid")
	}
}

// DeleteSession revokes the token until it expires.
func (s *JWTSessionStore) DeleteSession(token string) error {
	if s.revoker == nil {
		return nil
	}
	claims, err := s.parseAndVerify(token)
	if err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(claims.ID, time.Until(claims.ExpiresAt.Time))
}

// RevokeUserSessions revokes all sessions for a user issued before/at cutoff.
func (s *JWTSessionStore) RevokeUserSessions(username string, since time.Time) error {
	if s.revoker == nil {
		return nil
	}
	userRevoker, ok := s.revoker.(UserTokenRevoker)
	if !ok {
		return errors.New("session revoker does not support user revocation")
	}
	return userRevoker.RevokeUser(username, since)
}

func (s *JWTSessionStore) parseAndVerify(token string) (sessionClaims, error) {
	claims := sessionClaims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, errors.New("invalid token format")
	}
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		parserOptions = append(parserOptions, jwt.WithAudience(s.audience))
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, parserOptions...)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return claims, err
	}
	if strings.TrimSpace(claims.ID) == "" {
		return claims, errors.New("token jti missing")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return claims, errors.New("token subject missing")
	}
	return claims, nil
}

func issuedAt(claims sessionClaims) time.Time {
	if claims.IssuedAtNs > 0 {
		return time.Unix(0, claims.IssuedAtNs).UTC()
	}
	if claims.IssuedAt != nil {
		return claims.IssuedAt.Time.UTC()
	}
	return time.Time{}
}

func randomHexID(nBytes int) string {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", buf)
}

func normalizeJWTOptions(opts JWTOptions) JWTOptions {
	opts.Issuer = strings.TrimSpace(opts.Issuer)
	opts.Audience = strings.TrimSpace(opts.Audience)
	if opts.Issuer == "" {
		opts.Issuer = defaultJWTIssuer
	}
	if opts.Audience == "" {
		opts.Audience = defaultJWTAudience
	}
	if opts.Leeway <= 0 {
		opts.Leeway = defaultJWTLeeway
	}
	return opts
}
