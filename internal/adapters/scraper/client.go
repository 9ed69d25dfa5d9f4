// Package scraper talks to the external scraping service that logs in to
// financial institutions. The service answers a scrape request with a stream
// of `event:`/`data:` frames that this package turns into source events.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/SscSPs/finsync/internal/core/ports/sources"
	"github.com/SscSPs/finsync/internal/progress"
)

// Wire event names sent by the scraping service.
const (
	eventStep    = "step"
	eventAccount = "account"
	eventError   = "error"
	eventDone    = "done"
)

const (
	defaultTimeout   = 10 * time.Minute
	maxErrorBodySize = 4 << 10
	authHint         = "Check the saved credentials for this account and try again."
)

// DefaultVendors are the institutions the scraping service supports.
var DefaultVendors = []string{
	"hapoalim", "leumi", "discount", "mercantile", "mizrahi", "otsarHahayal",
	"visaCal", "max", "isracard", "amex", "union", "beinleumi", "massad",
	"yahav", "behatsdaa", "beyahadBishvilha", "oneZero", "pagi",
}

// Client is a sources.RawTransactionSource backed by the scraping service.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	vendors      map[string]struct{}
	maxFrameSize int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds a whole scrape, including the streamed response.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxFrameSize raises the limit on a single stream frame. Large account
// histories arrive as one frame.
func WithMaxFrameSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxFrameSize = n
		}
	}
}

// WithVendors restricts the vendors the client accepts.
func WithVendors(vendors ...string) Option {
	return func(c *Client) {
		c.vendors = make(map[string]struct{}, len(vendors))
		for _, v := range vendors {
			c.vendors[v] = struct{}{}
		}
	}
}

// NewClient creates a client for the scraping service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	WithVendors(DefaultVendors...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ sources.RawTransactionSource = (*Client)(nil)

// SupportsVendor reports whether the vendor is in the configured list.
func (c *Client) SupportsVendor(vendor string) bool {
	_, ok := c.vendors[vendor]
	return ok
}

type scrapeRequest struct {
	SessionID   string            `json:"sessionId"`
	Vendor      string            `json:"companyId"`
	Credentials map[string]string `json:"credentials"`
	StartDate   string            `json:"startDate"`
	Options     scrapeOptions     `json:"options"`
}

type scrapeOptions struct {
	TimeoutSeconds int               `json:"timeoutSeconds,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

type scrapeError struct {
	Message   string `json:"message"`
	Hint      string `json:"hint"`
	ErrorType string `json:"errorType"`
}

// Open posts the scrape request and returns a session reading the response
// stream. The request lives as long as ctx.
func (c *Client) Open(ctx context.Context, req sources.OpenRequest) (sources.Session, error) {
	if !c.SupportsVendor(req.Vendor) {
		return nil, fmt.Errorf("%w: %s", sources.ErrUnsupportedVendor, req.Vendor)
	}

	body, err := json.Marshal(scrapeRequest{
		SessionID:   req.SessionID,
		Vendor:      req.Vendor,
		Credentials: req.Fields,
		StartDate:   req.StartDate.Format(domain.DateLayout),
		Options: scrapeOptions{
			TimeoutSeconds: req.Options.TimeoutSeconds,
			Extra:          req.Options.Extra,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode scrape request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build scrape request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &sources.SourceError{
			ErrorType: "network",
			Message:   "Could not reach the scraping service",
			Hint:      "Make sure the scraping service is running and try again.",
			Err:       err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	var decOpts []progress.DecoderOption
	if c.maxFrameSize > 0 {
		decOpts = append(decOpts, progress.WithMaxFrameSize(c.maxFrameSize))
	}
	return &session{body: resp.Body, dec: progress.NewDecoder(resp.Body, decOpts...)}, nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	var se scrapeError
	if json.Unmarshal(raw, &se) != nil || se.Message == "" {
		se.Message = strings.TrimSpace(string(raw))
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return sourceError(scrapeError{Message: se.Message, Hint: se.Hint, ErrorType: "authentication"})
	}
	if se.Message == "" {
		se.Message = http.StatusText(resp.StatusCode)
	}
	return &sources.SourceError{
		ErrorType: "network",
		Message:   fmt.Sprintf("Scraping service returned %d: %s", resp.StatusCode, se.Message),
		Hint:      se.Hint,
	}
}

// sourceError maps an error frame to a source error. Login rejections wrap
// sources.ErrAuthentication.
func sourceError(se scrapeError) error {
	if se.Message == "" {
		se.Message = "Scraping failed"
	}
	switch strings.ToLower(se.ErrorType) {
	case "authentication", "invalid_password", "change_password", "account_blocked":
		hint := se.Hint
		if hint == "" {
			hint = authHint
		}
		return sources.NewAuthError(se.Message, hint)
	}
	errorType := se.ErrorType
	if errorType == "" {
		errorType = "source"
	}
	return &sources.SourceError{ErrorType: errorType, Message: se.Message, Hint: se.Hint}
}

// session reads one scrape response.
type session struct {
	body io.ReadCloser
	dec  *progress.Decoder
	done bool
}

// Next returns the next step or account, or io.EOF after the done frame.
func (s *session) Next(ctx context.Context) (sources.Event, error) {
	for {
		if s.done {
			return sources.Event{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return sources.Event{}, err
		}

		frame, err := s.dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return sources.Event{}, &sources.SourceError{
					ErrorType: "network",
					Message:   "Scraping service closed the stream before finishing",
				}
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return sources.Event{}, ctxErr
			}
			return sources.Event{}, err
		}

		switch frame.Event {
		case eventStep:
			var step sources.Step
			if err := frame.Decode(&step); err != nil {
				return sources.Event{}, fmt.Errorf("decode step frame: %w", err)
			}
			return sources.Event{Step: &step}, nil
		case eventAccount:
			var batch sources.AccountBatch
			if err := frame.Decode(&batch); err != nil {
				return sources.Event{}, fmt.Errorf("decode account frame: %w", err)
			}
			return sources.Event{Account: &batch}, nil
		case eventError:
			var se scrapeError
			if err := frame.Decode(&se); err != nil {
				return sources.Event{}, fmt.Errorf("decode error frame: %w", err)
			}
			s.done = true
			return sources.Event{}, sourceError(se)
		case eventDone:
			s.done = true
		}
		// Unknown frames (keep-alives, future event types) are skipped.
	}
}

// Close releases the response body.
func (s *session) Close() error {
	return s.body.Close()
}
