package scraper_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/finsync/internal/adapters/scraper"
	"github.com/SscSPs/finsync/internal/core/ports/sources"
	"github.com/SscSPs/finsync/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	name    string
	payload any
}

func newScraper(t *testing.T, status int, frames []frame, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"bad login"}`))
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		enc := progress.NewEncoder(w)
		for _, f := range frames {
			assert.NoError(t, enc.EncodeRaw(f.name, f.payload))
		}
	}))
}

func openRequest(vendor string) sources.OpenRequest {
	return sources.OpenRequest{
		SessionID: "session-1",
		Vendor:    vendor,
		Fields:    map[string]string{"id": "123", "card6Digits": "456789", "password": "secret"},
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func collect(t *testing.T, sess sources.Session) ([]sources.Event, error) {
	t.Helper()
	var events []sources.Event
	for {
		ev, err := sess.Next(context.Background())
		if err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, err
		}
		events = append(events, ev)
	}
}

func TestClient_StreamsStepsAndAccounts(t *testing.T) {
	success := true
	var body map[string]any
	srv := newScraper(t, http.StatusOK, []frame{
		{"step", map[string]any{"step": "login", "message": "Logging in", "success": success}},
		{"account", map[string]any{
			"accountNumber": "1234",
			"txns": []map[string]any{
				{"vendor": "isracard", "accountNumber": "1234", "date": "2024-01-05T00:00:00Z", "amount": -42.5, "description": "Netflix"},
			},
		}},
		{"keepalive", map[string]any{}},
		{"done", map[string]any{}},
	}, &body)
	defer srv.Close()

	client := scraper.NewClient(srv.URL + "/")
	sess, err := client.Open(context.Background(), openRequest("isracard"))
	require.NoError(t, err)
	defer sess.Close()

	events, err := collect(t, sess)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.NotNil(t, events[0].Step)
	assert.Equal(t, "login", events[0].Step.Name)
	require.NotNil(t, events[0].Step.Success)
	assert.True(t, *events[0].Step.Success)

	require.NotNil(t, events[1].Account)
	assert.Equal(t, "1234", events[1].Account.AccountNumber)
	require.Len(t, events[1].Account.Transactions, 1)
	assert.Equal(t, "-42.5", events[1].Account.Transactions[0].Amount.String())

	assert.Equal(t, "isracard", body["companyId"])
	assert.Equal(t, "2024-01-01", body["startDate"])
}

func TestClient_ErrorFrameIsAuthError(t *testing.T) {
	srv := newScraper(t, http.StatusOK, []frame{
		{"step", map[string]any{"step": "login", "message": "Logging in"}},
		{"error", map[string]any{"message": "Invalid password", "errorType": "INVALID_PASSWORD"}},
	}, nil)
	defer srv.Close()

	sess, err := scraper.NewClient(srv.URL).Open(context.Background(), openRequest("isracard"))
	require.NoError(t, err)
	defer sess.Close()

	events, err := collect(t, sess)
	require.Error(t, err)
	assert.Len(t, events, 1)
	assert.ErrorIs(t, err, sources.ErrAuthentication)

	var se *sources.SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Invalid password", se.Message)
	assert.NotEmpty(t, se.Hint)
}

func TestClient_TruncatedStream(t *testing.T) {
	srv := newScraper(t, http.StatusOK, []frame{
		{"step", map[string]any{"step": "login", "message": "Logging in"}},
	}, nil)
	defer srv.Close()

	sess, err := scraper.NewClient(srv.URL).Open(context.Background(), openRequest("isracard"))
	require.NoError(t, err)
	defer sess.Close()

	_, err = collect(t, sess)
	var se *sources.SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "network", se.ErrorType)
}

func TestClient_MaxFrameSize(t *testing.T) {
	memo := strings.Repeat("x", 2<<20)
	// The client hangs up mid-frame when the limit trips, so write errors are ignored.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		enc := progress.NewEncoder(w)
		_ = enc.EncodeRaw("account", map[string]any{
			"accountNumber": "1234",
			"txns": []map[string]any{
				{"vendor": "isracard", "accountNumber": "1234", "date": "2024-01-05T00:00:00Z", "amount": -10, "description": "Bulk", "memo": memo},
			},
		})
		_ = enc.EncodeRaw("done", map[string]any{})
	}))
	defer srv.Close()

	sess, err := scraper.NewClient(srv.URL).Open(context.Background(), openRequest("isracard"))
	require.NoError(t, err)
	_, err = collect(t, sess)
	assert.ErrorIs(t, err, progress.ErrFrameTooLarge)
	sess.Close()

	sess, err = scraper.NewClient(srv.URL, scraper.WithMaxFrameSize(8<<20)).Open(context.Background(), openRequest("isracard"))
	require.NoError(t, err)
	defer sess.Close()

	events, err := collect(t, sess)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Account)
	assert.Len(t, events[0].Account.Transactions, 1)
}

func TestClient_UnauthorizedStatus(t *testing.T) {
	srv := newScraper(t, http.StatusUnauthorized, nil, nil)
	defer srv.Close()

	_, err := scraper.NewClient(srv.URL).Open(context.Background(), openRequest("isracard"))
	assert.ErrorIs(t, err, sources.ErrAuthentication)
}

func TestClient_UnsupportedVendor(t *testing.T) {
	client := scraper.NewClient("http://127.0.0.1:0", scraper.WithVendors("max"))
	assert.True(t, client.SupportsVendor("max"))
	assert.False(t, client.SupportsVendor("isracard"))

	_, err := client.Open(context.Background(), openRequest("isracard"))
	assert.ErrorIs(t, err, sources.ErrUnsupportedVendor)
}
