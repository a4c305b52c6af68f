// Package gmail is a thin client for the Gmail REST API, covering the two
// calls the import pipeline needs: message search and message retrieval.
// Token refresh is handled by golang.org/x/oauth2; refreshed credentials are
// handed back to the caller for persistence.
package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/oauth2"

	"github.com/acady/wayfarer/backend/internal/domain"
)

const apiBase = "https://gmail.googleapis.com/gmail/v1/users/me"

// Message is a retrieved mail message reduced to what the pipeline consumes.
type Message struct {
	ID   string
	Text string
}

// Session is an authorized view of one user's mailbox.
type Session interface {
	// Search returns up to max message ids matching the Gmail query.
	Search(ctx context.Context, query string, max int) ([]string, error)

	// Message retrieves one message and extracts its plain-text body.
	Message(ctx context.Context, id string) (Message, error)
}

// Connector opens sessions from stored connection credentials.
type Connector interface {
	// Connect validates the credentials, refreshing the access token if it
	// has expired, and returns the session plus the (possibly updated)
	// connection for the caller to persist. A refresh failure is fatal for
	// the whole scan and is reported as domain.ErrUpstream.
	Connect(ctx context.Context, conn domain.GmailConnection) (Session, domain.GmailConnection, error)
}

// Client implements Connector against the live Gmail API.
type Client struct {
	conf *oauth2.Config
	http *http.Client
}

// NewClient constructs a Client with the given OAuth application credentials.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{"https://www.googleapis.com/auth/gmail.readonly"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Connect(ctx context.Context, conn domain.GmailConnection) (Session, domain.GmailConnection, error) {
	tok := &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		Expiry:       conn.TokenExpiry,
	}

	fresh, err := c.conf.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, domain.GmailConnection{}, fmt.Errorf("gmail.Client.Connect: %w: token refresh: %v", domain.ErrUpstream, err)
	}

	conn.AccessToken = fresh.AccessToken
	if fresh.RefreshToken != "" {
		conn.RefreshToken = fresh.RefreshToken
	}
	conn.TokenExpiry = fresh.Expiry

	return &session{http: c.http, token: fresh.AccessToken}, conn, nil
}

// session issues authorized Gmail API requests for one user.
type session struct {
	http  *http.Client
	token string
}

func (s *session) Search(ctx context.Context, query string, max int) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(max))

	var body struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := s.get(ctx, apiBase+"/messages?"+params.Encode(), &body); err != nil {
		return nil, fmt.Errorf("gmail.Session.Search: %w", err)
	}

	ids := make([]string, len(body.Messages))
	for i, m := range body.Messages {
		ids[i] = m.ID
	}
	return ids, nil
}

func (s *session) Message(ctx context.Context, id string) (Message, error) {
	var body payload
	if err := s.get(ctx, apiBase+"/messages/"+url.PathEscape(id)+"?format=full", &body); err != nil {
		return Message{}, fmt.Errorf("gmail.Session.Message: %w", err)
	}
	return Message{ID: id, Text: body.text()}, nil
}

// get performs an authorized GET with bounded retries on transient failures.
func (s *session) get(ctx context.Context, rawURL string, out any) error {
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(300*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+s.token)

		resp, err := s.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("gmail api status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gmail api status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

// payload mirrors the relevant slice of the Gmail message resource.
type payload struct {
	Payload part `json:"payload"`
}

type part struct {
	MimeType string   `json:"mimeType"`
	Body     partBody `json:"body"`
	Parts    []part   `json:"parts"`
}

type partBody struct {
	Data string `json:"data"`
}

// text extracts the plain-text body: the first text/plain part anywhere in
// the MIME tree, falling back to the top-level body when no such part exists.
func (p payload) text() string {
	if t := findPlainText(p.Payload); t != "" {
		return t
	}
	return decodeBody(p.Payload.Body.Data)
}

func findPlainText(p part) string {
	if p.MimeType == "text/plain" && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	for _, child := range p.Parts {
		if t := findPlainText(child); t != "" {
			return t
		}
	}
	return ""
}

// decodeBody decodes Gmail's URL-safe base64 body data. Padding is
// inconsistent across messages, so it is stripped before decoding.
func decodeBody(data string) string {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(raw)
}
