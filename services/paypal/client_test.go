package paypal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTokenServer serves the OAuth2 token endpoint, handing out sequential
// tokens and counting requests.
func newTokenServer(t *testing.T, expiresIn int64, requests *int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/oauth2/token" {
			http.NotFound(w, r)
			return
		}
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		n := atomic.AddInt64(requests, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":%d}`, n, expiresIn)
	}))
}

func TestAccessTokenCachedUntilSafetyMargin(t *testing.T) {
	var requests int64
	server := newTokenServer(t, 3600, &requests)
	defer server.Close()

	client := NewClient(server.URL, "client-id", "client-secret", "wh-id", 60*time.Second)

	base := time.Now()
	current := base
	client.now = func() time.Time { return current }

	token, err := client.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	// Well inside the expiry window: no new request
	current = base.Add(30 * time.Minute)
	token, err = client.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.EqualValues(t, 1, atomic.LoadInt64(&requests))

	// Inside the safety margin: refreshed even though not yet expired
	current = base.Add(3600*time.Second - 30*time.Second)
	token, err = client.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.EqualValues(t, 2, atomic.LoadInt64(&requests))
}

func TestAccessTokenConcurrentCallersShareResult(t *testing.T) {
	var requests int64
	server := newTokenServer(t, 3600, &requests)
	defer server.Close()

	client := NewClient(server.URL, "client-id", "client-secret", "wh-id", 60*time.Second)

	const callers = 16
	tokens := make([]string, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			token, err := client.AccessToken()
			if err == nil {
				tokens[slot] = token
			}
		}(i)
	}
	wg.Wait()

	// Racing callers may each fetch, but all must converge on one
	// installed token.
	final, err := client.AccessToken()
	require.NoError(t, err)
	for _, token := range tokens {
		assert.Equal(t, final, token)
	}
}

func TestAccessTokenAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-id", "bad-secret", "wh-id", 60*time.Second)

	_, err := client.AccessToken()
	assert.ErrorIs(t, err, ErrProviderAuth)
}

func TestVerifyWebhookSignature(t *testing.T) {
	var capturedBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/oauth2/token":
			fmt.Fprint(w, `{"access_token":"verify-token","expires_in":3600}`)
		case "/v1/notifications/verify-webhook-signature":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedBody))
			fmt.Fprint(w, `{"verification_status":"SUCCESS"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "client-id", "client-secret", "wh-123", 60*time.Second)

	headers := WebhookHeaders{
		TransmissionID:   "tid",
		TransmissionSig:  "sig",
		TransmissionTime: "2026-01-01T00:00:00Z",
		CertURL:          "https://api.paypal.com/cert",
		AuthAlgo:         "SHA256withRSA",
	}

	valid, err := client.VerifyWebhookSignature(headers, []byte(`{"id":"WH-1","event_type":"TEST"}`))
	require.NoError(t, err)
	assert.True(t, valid)

	// The registered webhook id and the raw event must be forwarded intact
	assert.Equal(t, "wh-123", capturedBody["webhook_id"])
	event, ok := capturedBody["webhook_event"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "WH-1", event["id"])
}

func TestVerifyWebhookSignatureFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/oauth2/token":
			fmt.Fprint(w, `{"access_token":"verify-token","expires_in":3600}`)
		case "/v1/notifications/verify-webhook-signature":
			fmt.Fprint(w, `{"verification_status":"FAILURE"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "client-id", "client-secret", "wh-123", 60*time.Second)

	valid, err := client.VerifyWebhookSignature(WebhookHeaders{
		TransmissionID:   "tid",
		TransmissionSig:  "tampered",
		TransmissionTime: "2026-01-01T00:00:00Z",
		CertURL:          "https://api.paypal.com/cert",
		AuthAlgo:         "SHA256withRSA",
	}, []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, valid)
}
