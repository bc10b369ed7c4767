// Package auth implements an OAuth 2.1 authorization-code flow with PKCE for
// tools converted from OpenAPI operations.
//
// A Provider moves through the states Unauthenticated → AuthorizationPending
// (BeginAuthorization) → Exchanging (CompleteAuthorization) → Authenticated,
// then Refreshing whenever the cached token approaches expiry or an upstream
// 401 forces a refresh. An irrecoverable refresh failure drops back to
// Unauthenticated.
//
// The cached token is the only mutable shared state. All readers go through
// AuthHeader; concurrent callers that each observe an expiring token attach
// to a single in-flight refresh rather than racing the token endpoint, so a
// single-use refresh token is never consumed twice.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// DefaultPendingTTL bounds how long an issued authorization state stays
	// redeemable.
	DefaultPendingTTL = 10 * time.Minute

	// DefaultExpiryLeeway is the safety margin before token expiry at which
	// AuthHeader refreshes proactively.
	DefaultExpiryLeeway = 30 * time.Second
)

// Config describes the OAuth 2.1 client.
type Config struct {
	ClientID         string
	ClientSecret     string // empty for public clients
	AuthorizationURL string
	TokenURL         string
	RedirectURI      string
	Scopes           []string
	DisablePKCE      bool // PKCE is on by default, per OAuth 2.1
}

// Provider owns the token state for one OAuth client.
type Provider struct {
	oauth      *oauth2.Config
	usePKCE    bool
	httpClient *http.Client
	now        func() time.Time
	pendingTTL time.Duration
	leeway     time.Duration

	mu       sync.Mutex
	token    *oauth2.Token
	pending  map[string]pendingAuth
	inflight *refreshCall
}

// pendingAuth retains the PKCE verifier for one authorization attempt, keyed
// by its state nonce. Consumed exactly once.
type pendingAuth struct {
	verifier string
	created  time.Time
}

// refreshCall is the in-flight refresh that concurrent callers attach to.
type refreshCall struct {
	done chan struct{}
	err  error
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets the HTTP client used for token endpoint calls.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithExpiryLeeway overrides the proactive-refresh margin.
func WithExpiryLeeway(d time.Duration) Option {
	return func(p *Provider) { p.leeway = d }
}

// WithPendingTTL overrides how long authorization states stay redeemable.
func WithPendingTTL(d time.Duration) Option {
	return func(p *Provider) { p.pendingTTL = d }
}

// NewProvider creates an unauthenticated Provider for the given client
// configuration.
func NewProvider(cfg Config, opts ...Option) *Provider {
	p := &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizationURL,
				TokenURL: cfg.TokenURL,
			},
		},
		usePKCE:    !cfg.DisablePKCE,
		now:        time.Now,
		pendingTTL: DefaultPendingTTL,
		leeway:     DefaultExpiryLeeway,
		pending:    make(map[string]pendingAuth),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BeginAuthorization generates a fresh PKCE verifier and CSRF state, retains
// them keyed by state, and returns the authorization URL the user must visit.
func (p *Provider) BeginAuthorization() (authURL, state string) {
	verifier := oauth2.GenerateVerifier()
	state = uuid.NewString()

	p.mu.Lock()
	p.prunePendingLocked()
	p.pending[state] = pendingAuth{verifier: verifier, created: p.now()}
	p.mu.Unlock()

	var opts []oauth2.AuthCodeOption
	if p.usePKCE {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	return p.oauth.AuthCodeURL(state, opts...), state
}

// CompleteAuthorization redeems an authorization code. The state must match a
// retained, unconsumed BeginAuthorization attempt; each attempt is single-use.
// On exchange failure the provider stays unauthenticated.
func (p *Provider) CompleteAuthorization(ctx context.Context, code, state string) error {
	p.mu.Lock()
	entry, ok := p.pending[state]
	delete(p.pending, state)
	p.prunePendingLocked()
	p.mu.Unlock()
	if !ok || p.now().Sub(entry.created) > p.pendingTTL {
		return ErrUnknownState
	}

	var opts []oauth2.AuthCodeOption
	if p.usePKCE {
		opts = append(opts, oauth2.VerifierOption(entry.verifier))
	}
	tok, err := p.oauth.Exchange(p.exchangeContext(ctx), code, opts...)
	if err != nil {
		p.mu.Lock()
		p.token = nil
		p.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	p.mu.Lock()
	p.token = tok
	p.mu.Unlock()
	return nil
}

// AuthHeader returns a ready-to-use Authorization header value. When the
// cached token is within the expiry leeway it refreshes first; concurrent
// callers share one refresh.
func (p *Provider) AuthHeader(ctx context.Context) (string, error) {
	p.mu.Lock()
	tok := p.token
	if tok == nil {
		p.mu.Unlock()
		return "", ErrUnauthenticated
	}
	if p.freshLocked(tok) {
		header := tok.Type() + " " + tok.AccessToken
		p.mu.Unlock()
		return header, nil
	}
	call := p.startOrJoinRefreshLocked()
	p.mu.Unlock()

	if err := p.await(ctx, call); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token == nil {
		return "", ErrUnauthenticated
	}
	return p.token.Type() + " " + p.token.AccessToken, nil
}

// Refresh forces a token refresh regardless of the cached expiry. Used after
// an upstream 401. Concurrent callers share one refresh.
func (p *Provider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.token == nil {
		p.mu.Unlock()
		return ErrUnauthenticated
	}
	call := p.startOrJoinRefreshLocked()
	p.mu.Unlock()
	return p.await(ctx, call)
}

// Authenticated reports whether a token is currently held.
func (p *Provider) Authenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token != nil
}

// freshLocked reports whether tok is usable without a refresh.
func (p *Provider) freshLocked(tok *oauth2.Token) bool {
	if tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return p.now().Add(p.leeway).Before(tok.Expiry)
}

// startOrJoinRefreshLocked returns the in-flight refresh, starting one if
// none is running. Callers hold p.mu.
func (p *Provider) startOrJoinRefreshLocked() *refreshCall {
	if p.inflight != nil {
		return p.inflight
	}
	call := &refreshCall{done: make(chan struct{})}
	p.inflight = call
	go p.runRefresh(call)
	return call
}

// await blocks until the refresh completes or the caller's context ends. The
// refresh itself is never cancelled by one abandoning caller; later waiters
// still receive its result.
func (p *Provider) await(ctx context.Context, call *refreshCall) error {
	select {
	case <-call.done:
		return call.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runRefresh performs the single refresh for all attached waiters. Failure
// clears the token state: the next AuthHeader call reports
// ErrUnauthenticated until a new authorization completes.
func (p *Provider) runRefresh(call *refreshCall) {
	p.mu.Lock()
	snapshot := p.token
	p.mu.Unlock()

	var refreshed *oauth2.Token
	var err error
	switch {
	case snapshot == nil:
		err = ErrUnauthenticated
	case snapshot.RefreshToken == "":
		err = fmt.Errorf("%w: no refresh token", ErrRefreshFailed)
	default:
		// Mark the snapshot stale so TokenSource hits the endpoint even
		// when a forced refresh arrives before the recorded expiry.
		stale := *snapshot
		stale.Expiry = p.now().Add(-time.Minute)
		ctx, cancel := context.WithTimeout(p.exchangeContext(context.Background()), 30*time.Second)
		refreshed, err = p.oauth.TokenSource(ctx, &stale).Token()
		cancel()
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrRefreshFailed, err)
		} else if refreshed.RefreshToken == "" {
			// Some providers omit the refresh token on refresh; keep the
			// one we have.
			refreshed.RefreshToken = snapshot.RefreshToken
		}
	}

	p.mu.Lock()
	if err != nil {
		p.token = nil
	} else {
		p.token = refreshed
	}
	p.inflight = nil
	p.mu.Unlock()

	call.err = err
	close(call.done)
}

// prunePendingLocked drops authorization attempts past their TTL so replayed
// codes are rejected and the map stays bounded. Callers hold p.mu.
func (p *Provider) prunePendingLocked() {
	cutoff := p.now().Add(-p.pendingTTL)
	for state, entry := range p.pending {
		if entry.created.Before(cutoff) {
			delete(p.pending, state)
		}
	}
}

// exchangeContext injects the configured HTTP client for token endpoint
// calls.
func (p *Provider) exchangeContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}
