package catchpy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
)

// Ensure TokenProvider implements the interface.
var _ driven.TokenProvider = (*TokenProvider)(nil)

// Signer mints catch tokens for a consumer key and secret.
type Signer struct {
	apiKey string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer. A zero ttl means 24 hours.
func NewSigner(apiKey, secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = domain.DefaultTokenTTL
	}
	return &Signer{apiKey: apiKey, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for user with the given override permissions.
func (s *Signer) Sign(user string, override ...string) (string, time.Time, error) {
	if s.apiKey == "" || len(s.secret) == 0 {
		return "", time.Time{}, domain.ErrAuthRequired
	}
	if override == nil {
		override = []string{}
	}
	issued := s.now().UTC()
	claims := jwt.MapClaims{
		"consumerKey": s.apiKey,
		"userId":      user,
		"issuedAt":    issued.Format(time.RFC3339),
		"ttl":         int(s.ttl / time.Second),
		"override":    override,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, issued.Add(s.ttl), nil
}

// tokenSource adapts a Signer to oauth2.TokenSource for one actor.
type tokenSource struct {
	signer *Signer
	actor  string
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	raw, expiry, err := ts.signer.Sign(ts.actor)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: raw, TokenType: "catch", Expiry: expiry}, nil
}

// TokenProvider caches a token for a fixed actor and re-mints it on expiry.
type TokenProvider struct {
	once   sync.Once
	source oauth2.TokenSource
	actor  string
	signer *Signer
}

// NewTokenProvider creates a provider for actor. An empty actor means "admin".
func NewTokenProvider(apiKey, secret, actor string, ttl time.Duration) *TokenProvider {
	if actor == "" {
		actor = domain.DefaultActor
	}
	return &TokenProvider{actor: actor, signer: NewSigner(apiKey, secret, ttl)}
}

// GetToken returns the cached token, minting one when needed.
func (p *TokenProvider) GetToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.once.Do(func() {
		p.source = oauth2.ReuseTokenSource(nil, &tokenSource{signer: p.signer, actor: p.actor})
	})
	tok, err := p.source.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Actor returns the identity the token is bound to.
func (p *TokenProvider) Actor() string {
	return p.actor
}

// Signer returns the signer, for minting tokens for other users.
func (p *TokenProvider) Signer() *Signer {
	return p.signer
}
