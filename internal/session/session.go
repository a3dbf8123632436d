// Package session carries the signed-in admin's credentials through a
// request's context so every backend call authenticates explicitly.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing authorization token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Session is the per-request identity of an admin.
type Session struct {
	// Token is the bearer token forwarded to the backend.
	Token   string
	AdminID string
	// ID keys per-session state such as staged orders.
	ID string
}

// Claims is the subset of the backend's token claims the console reads.
type Claims struct {
	AdminID string `json:"ADMIN_ID"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok && s.Token != ""
}

// Parser turns an Authorization header into a Session. With a secret it
// verifies the HMAC signature; without one it only decodes the claims
// and leaves verification to the backend.
type Parser struct {
	secret []byte
	now    func() time.Time
}

func NewParser(secret string) *Parser {
	p := &Parser{now: time.Now}
	if secret != "" {
		p.secret = []byte(secret)
	}
	return p
}

// Parse extracts the session from a "Bearer <token>" header value.
func (p *Parser) Parse(header string) (Session, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Session{}, ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return Session{}, ErrInvalidToken
	}
	token := parts[1]

	claims := &Claims{}
	if p.secret != nil {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return p.secret, nil
		}, jwt.WithTimeFunc(p.now))
		if err != nil || !parsed.Valid {
			return Session{}, ErrInvalidToken
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return Session{}, ErrInvalidToken
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && !p.now().Before(exp.Time) {
			return Session{}, ErrInvalidToken
		}
	}
	if claims.AdminID == "" {
		return Session{}, ErrInvalidToken
	}

	s := Session{Token: token, AdminID: claims.AdminID, ID: claims.AdminID}
	if p.secret == nil {
		// Unverified claims can be forged, so state is keyed by the token itself.
		sum := sha256.Sum256([]byte(token))
		s.ID = hex.EncodeToString(sum[:])
	}
	return s, nil
}
