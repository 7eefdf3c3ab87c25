package roundremote

import (
	"context"
	"errors"
	"fmt"

	"github.com/Black-And-White-Club/scorecard/pkg/jwt"
	"golang.org/x/oauth2"
)

// ErrNoSession is returned when no club session is available for a call.
var ErrNoSession = errors.New("no club session")

// Session is the request-scoped identity used to route and authorise remote calls.
type Session struct {
	ClubID      string
	GolferID    string
	GolfLinkNo  string
	AccessToken string
}

// TokenSource exposes the session token to oauth2 aware transports.
func (s Session) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.AccessToken, TokenType: "Bearer"})
}

// SessionProvider resolves the session for the current call.
type SessionProvider interface {
	Session(ctx context.Context) (Session, error)
}

// StaticSessionProvider always returns the same session.
type StaticSessionProvider struct {
	S Session
}

func (p StaticSessionProvider) Session(context.Context) (Session, error) {
	if p.S.ClubID == "" {
		return Session{}, ErrNoSession
	}
	return p.S, nil
}

type tokenCtxKey struct{}

// WithToken attaches a bearer token to ctx for TokenSessionProvider.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// TokenFromContext returns the token set by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenCtxKey{}).(string)
	return tok, ok && tok != ""
}

// TokenSessionProvider derives the session from a signed session token carried on
// the context, falling back to a configured token for headless callers.
type TokenSessionProvider struct {
	validator jwt.Service
	fallback  string
}

func NewTokenSessionProvider(validator jwt.Service, fallbackToken string) *TokenSessionProvider {
	return &TokenSessionProvider{validator: validator, fallback: fallbackToken}
}

func (p *TokenSessionProvider) Session(ctx context.Context) (Session, error) {
	token, ok := TokenFromContext(ctx)
	if !ok {
		token = p.fallback
	}
	if token == "" {
		return Session{}, ErrNoSession
	}
	claims, err := p.validator.ValidateToken(token)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrNoSession, err)
	}
	return Session{
		ClubID:      claims.Club,
		GolferID:    claims.Subject,
		GolfLinkNo:  claims.GolfLinkNo,
		AccessToken: token,
	}, nil
}
