// Package auth obtains OAuth2 credentials for the YouTube Data API, either
// from the on-disk token cache or through a one-time interactive grant.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ClientOptions describes where the OAuth client comes from.
type ClientOptions struct {
	// SecretsPath is the client secrets JSON from the Google console. It may
	// be empty when ClientID and ClientSecret are set.
	SecretsPath  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
}

// LoadOAuthConfig builds the OAuth client configuration. Explicit fields in
// opts override values read from the secrets file.
func LoadOAuthConfig(opts ClientOptions) (*oauth2.Config, error) {
	var cfg *oauth2.Config
	if opts.SecretsPath != "" {
		data, err := os.ReadFile(opts.SecretsPath)
		if err != nil && (opts.ClientID == "" || opts.ClientSecret == "") {
			return nil, &Error{Op: "load_client", Err: err}
		}
		if err == nil {
			cfg, err = google.ConfigFromJSON(data, opts.Scope)
			if err != nil {
				return nil, &Error{Op: "load_client", Err: fmt.Errorf("parse %s: %w", opts.SecretsPath, err)}
			}
		}
	}
	if cfg == nil {
		cfg = &oauth2.Config{Endpoint: google.Endpoint, Scopes: []string{opts.Scope}}
	}

	if opts.ClientID != "" {
		cfg.ClientID = opts.ClientID
	}
	if opts.ClientSecret != "" {
		cfg.ClientSecret = opts.ClientSecret
	}
	if opts.RedirectURL != "" {
		cfg.RedirectURL = opts.RedirectURL
	}
	if cfg.ClientID == "" {
		return nil, &Error{Op: "load_client", Err: errors.New("client id is empty")}
	}
	return cfg, nil
}

// Authorizer produces credentials for authenticated API calls.
type Authorizer struct {
	config   *oauth2.Config
	store    *TokenStore
	prompter Prompter
	log      zerolog.Logger
}

// New creates an Authorizer.
func New(config *oauth2.Config, store *TokenStore, prompter Prompter, logger zerolog.Logger) *Authorizer {
	return &Authorizer{
		config:   config,
		store:    store,
		prompter: prompter,
		log:      logger.With().Str("component", "auth").Logger(),
	}
}

// Token returns the cached token, or runs the interactive grant when the cache
// is missing, unreadable, or holds an expired token that cannot be refreshed.
func (a *Authorizer) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := a.store.Load()
	switch {
	case err == nil && (tok.Valid() || tok.RefreshToken != ""):
		a.log.Debug().Str("path", a.store.Path()).Msg("using cached token")
		return tok, nil
	case err == nil:
		a.log.Info().Msg("cached token expired without refresh token, requesting a new grant")
	case errors.Is(err, ErrNoToken):
		a.log.Info().Err(err).Msg("no usable cached token, requesting a new grant")
	default:
		return nil, &Error{Op: "load_token", Err: err}
	}
	return a.Grant(ctx)
}

// Grant runs the interactive flow: show the consent URL, read the code,
// exchange it, and persist the resulting token before returning it.
func (a *Authorizer) Grant(ctx context.Context) (*oauth2.Token, error) {
	if a.prompter == nil {
		return nil, &Error{Op: "prompt", Err: errors.New("interactive authorization unavailable")}
	}

	authURL := a.config.AuthCodeURL(uuid.NewString(), oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	code, err := a.prompter.Prompt(ctx, authURL)
	if err != nil {
		return nil, &Error{Op: "prompt", Err: err}
	}

	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		a.log.Error().Err(err).Msg("error while trying to retrieve access token")
		return nil, &Error{Op: "exchange", Err: err}
	}

	if err := a.store.Save(tok); err != nil {
		return nil, &Error{Op: "save_token", Err: err}
	}
	a.log.Info().Str("path", a.store.Path()).Msg("token stored")
	return tok, nil
}

// HTTPClient returns an HTTP client that authorizes requests with the cached
// or newly granted token. Tokens refreshed during the run are written back to
// the cache.
func (a *Authorizer) HTTPClient(ctx context.Context) (*http.Client, error) {
	tok, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}
	src := &persistingSource{
		base:  a.config.TokenSource(ctx, tok),
		store: a.store,
		last:  tok.AccessToken,
		log:   a.log,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// persistingSource saves every token whose access token differs from the last
// one seen.
type persistingSource struct {
	base  oauth2.TokenSource
	store *TokenStore
	log   zerolog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, &Error{Op: "refresh", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := s.store.Save(tok); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist refreshed token")
		} else {
			s.log.Debug().Msg("refreshed token stored")
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
