// Package google adapts Google Calendar and Gmail to the calendar and
// messaging interfaces, sharing one OAuth token.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fmuoria/jadehire-agent/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
)

// Scopes requested for calendar management and sending mail
var Scopes = []string{calendar.CalendarScope, gmail.GmailSendScope}

// ErrNoAuthCode is returned when a token is needed but no way to obtain an authorization code was given
var ErrNoAuthCode = errors.New("no cached token and no authorization code source")

// AuthCodeFunc shows authURL to the user and returns the code they paste back
type AuthCodeFunc func(ctx context.Context, authURL string) (string, error)

// ClientProvider hands out authorized HTTP clients
type ClientProvider interface {
	Client(ctx context.Context) (*http.Client, error)
}

// Authorizer acquires the OAuth token once, caches it in a token file and
// refreshes it transparently
type Authorizer struct {
	config    *oauth2.Config
	tokenPath string
	authCode  AuthCodeFunc
	log       logger.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewAuthorizer reads an OAuth client secret file downloaded from the Google Cloud console
func NewAuthorizer(clientSecretPath, tokenPath string, authCode AuthCodeFunc) (*Authorizer, error) {
	b, err := os.ReadFile(clientSecretPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	return NewAuthorizerFromConfig(config, tokenPath, authCode), nil
}

// NewAuthorizerFromConfig creates an authorizer for an existing OAuth config
func NewAuthorizerFromConfig(config *oauth2.Config, tokenPath string, authCode AuthCodeFunc) *Authorizer {
	return &Authorizer{
		config:    config,
		tokenPath: tokenPath,
		authCode:  authCode,
		log:       logger.Named("google-auth"),
	}
}

// Acquire returns the cached token, reading the token file or running the
// authorization code flow the first time
func (a *Authorizer) Acquire(ctx context.Context) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != nil {
		return a.token, nil
	}

	tok, err := tokenFromFile(a.tokenPath)
	if err == nil {
		a.token = tok
		return tok, nil
	}
	a.log.Debug(ctx, "no usable cached token", logger.String("path", a.tokenPath), logger.Error(err))

	tok, err = a.tokenFromWeb(ctx)
	if err != nil {
		return nil, err
	}
	if err := saveToken(a.tokenPath, tok); err != nil {
		a.log.Warn(ctx, "unable to cache oauth token", logger.String("path", a.tokenPath), logger.Error(err))
	}

	a.token = tok
	return tok, nil
}

// Client returns an HTTP client whose token refreshes are written back to the token file.
// The client outlives ctx; only its values are kept for refresh requests.
func (a *Authorizer) Client(ctx context.Context) (*http.Client, error) {
	tok, err := a.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	refreshCtx := context.WithoutCancel(ctx)
	ts := &persistingTokenSource{
		base:  a.config.TokenSource(refreshCtx, tok),
		owner: a,
		last:  tok.AccessToken,
	}
	return oauth2.NewClient(refreshCtx, oauth2.ReuseTokenSource(tok, ts)), nil
}

// AuthCodeURL is the consent page URL for the configured client
func (a *Authorizer) AuthCodeURL() string {
	return a.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

func (a *Authorizer) tokenFromWeb(ctx context.Context) (*oauth2.Token, error) {
	if a.authCode == nil {
		return nil, ErrNoAuthCode
	}

	code, err := a.authCode(ctx, a.AuthCodeURL())
	if err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := a.config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// persistingTokenSource saves every refreshed token
type persistingTokenSource struct {
	base  oauth2.TokenSource
	owner *Authorizer
	mu    sync.Mutex
	last  string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		s.owner.mu.Lock()
		s.owner.token = tok
		s.owner.mu.Unlock()
		if err := saveToken(s.owner.tokenPath, tok); err != nil {
			s.owner.log.Warn(context.Background(), "unable to cache refreshed token", logger.Error(err))
		}
	}
	return tok, nil
}

// PromptAuthCode prints the consent URL to out and reads the code from in
func PromptAuthCode(in io.Reader, out io.Writer) AuthCodeFunc {
	return func(ctx context.Context, authURL string) (string, error) {
		fmt.Fprintf(out, "Go to the following link in your browser then type the authorization code: \n%v\n", authURL)

		var code string
		if _, err := fmt.Fscan(in, &code); err != nil {
			return "", err
		}
		return code, nil
	}
}

// tokenFromFile retrieves a token from a local file
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return tok, nil
}

// saveToken saves a token to a file path
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open token file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
