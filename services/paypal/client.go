package paypal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrProviderAuth marks a failed token acquisition. It is transient:
// callers may retry with backoff, but must never treat it as fatal for the
// serving process.
var ErrProviderAuth = errors.New("payment provider authentication failed")

// WebhookHeaders carries the signature header set PayPal attaches to every
// webhook delivery. All five are required for verification.
type WebhookHeaders struct {
	TransmissionID   string
	TransmissionSig  string
	TransmissionTime string
	CertURL          string
	AuthAlgo         string
}

// Client is the PayPal REST client shared by the whole process. It owns the
// cached OAuth2 access token: many concurrent readers, at most one writer,
// and the lock is never held across network I/O.
type Client struct {
	clientID     string
	secret       string
	baseURL      string
	webhookID    string
	safetyMargin time.Duration

	rest *resty.Client
	now  func() time.Time

	mu          sync.RWMutex
	accessToken string
	tokenExpiry time.Time
}

// Default is the process-wide client, wired in main
var Default *Client

// NewClient builds a PayPal client. The token cache starts empty and is
// refreshed on demand; it is never torn down mid-process.
func NewClient(baseURL, clientID, secret, webhookID string, safetyMargin time.Duration) *Client {
	return &Client{
		clientID:     clientID,
		secret:       secret,
		baseURL:      baseURL,
		webhookID:    webhookID,
		safetyMargin: safetyMargin,
		rest:         resty.New().SetTimeout(15 * time.Second),
		now:          time.Now,
	}
}

// AccessToken returns a bearer token valid for at least the safety margin.
//
//  1. Optimistic read under RLock: a cached token outside the margin is
//     returned immediately.
//  2. On miss, the token request runs with no lock held.
//  3. Before installing the fetched token, re-check under the write lock
//     whether another caller won the race with a still-valid token; if so
//     the redundant fetch result is discarded. The wasted network call is
//     accepted; serving a stale token is not.
func (c *Client) AccessToken() (string, error) {
	c.mu.RLock()
	if c.accessToken != "" && c.now().Before(c.tokenExpiry.Add(-c.safetyMargin)) {
		token := c.accessToken
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	token, expiry, err := c.fetchToken()
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry.Add(-c.safetyMargin)) {
		return c.accessToken, nil
	}

	c.accessToken = token
	c.tokenExpiry = expiry
	return token, nil
}

// fetchToken performs the OAuth2 client-credentials request
func (c *Client) fetchToken() (string, time.Time, error) {
	resp, err := c.rest.R().
		SetBasicAuth(c.clientID, c.secret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		Post(c.baseURL + "/v1/oauth2/token")
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrProviderAuth, err)
	}
	if resp.StatusCode() != 200 {
		return "", time.Time{}, fmt.Errorf("%w: token endpoint returned %d", ErrProviderAuth, resp.StatusCode())
	}

	var tokenRes struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(resp.Body(), &tokenRes); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: malformed token response: %v", ErrProviderAuth, err)
	}
	if tokenRes.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty access token in response", ErrProviderAuth)
	}

	return tokenRes.AccessToken, c.now().Add(time.Duration(tokenRes.ExpiresIn) * time.Second), nil
}

// CreateProduct creates a catalog product for a course and returns its id
func (c *Client) CreateProduct(name, description string) (string, error) {
	token, err := c.AccessToken()
	if err != nil {
		return "", err
	}

	body := map[string]interface{}{
		"name":        name,
		"description": description,
		"type":        "SERVICE",
		"category":    "EDUCATIONAL_AND_TEXTBOOKS",
	}

	resp, err := c.rest.R().
		SetAuthToken(token).
		SetBody(body).
		Post(c.baseURL + "/v1/catalogs/products")
	if err != nil {
		return "", fmt.Errorf("failed to create product: %v", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return "", fmt.Errorf("create product failed: %s", resp.String())
	}

	var productRes struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body(), &productRes); err != nil {
		return "", fmt.Errorf("failed to parse product response: %v", err)
	}

	return productRes.ID, nil
}

// CreateOrder creates a capture-intent order and returns its id plus the
// buyer approval link.
func (c *Client) CreateOrder(amount float64, description, returnURL, cancelURL string) (string, string, error) {
	token, err := c.AccessToken()
	if err != nil {
		return "", "", err
	}

	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"amount": map[string]string{
					"currency_code": "USD",
					"value":         fmt.Sprintf("%.2f", amount),
				},
				"description": description,
			},
		},
		"application_context": map[string]string{
			"user_action": "PAY_NOW",
			"return_url":  returnURL,
			"cancel_url":  cancelURL,
		},
	}

	resp, err := c.rest.R().
		SetAuthToken(token).
		SetBody(body).
		Post(c.baseURL + "/v2/checkout/orders")
	if err != nil {
		return "", "", fmt.Errorf("failed to create order: %v", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return "", "", fmt.Errorf("create order failed: %s", resp.String())
	}

	var orderRes struct {
		ID    string `json:"id"`
		Links []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := json.Unmarshal(resp.Body(), &orderRes); err != nil {
		return "", "", fmt.Errorf("failed to parse order response: %v", err)
	}

	approveURL := ""
	for _, link := range orderRes.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
		}
	}

	return orderRes.ID, approveURL, nil
}

// CaptureOrder captures an approved order and returns its final status
func (c *Client) CaptureOrder(orderID string) (string, error) {
	token, err := c.AccessToken()
	if err != nil {
		return "", err
	}

	resp, err := c.rest.R().
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		Post(fmt.Sprintf("%s/v2/checkout/orders/%s/capture", c.baseURL, orderID))
	if err != nil {
		return "", fmt.Errorf("failed to capture order: %v", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return "", fmt.Errorf("capture order failed: %s", resp.String())
	}

	var captureRes struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body(), &captureRes); err != nil {
		return "", fmt.Errorf("failed to parse capture response: %v", err)
	}

	return captureRes.Status, nil
}

// CreatePlan creates a monthly billing plan under a product and returns the
// plan id.
func (c *Client) CreatePlan(productID, name, description string, price float64, durationMonths int) (string, error) {
	token, err := c.AccessToken()
	if err != nil {
		return "", err
	}

	body := map[string]interface{}{
		"product_id":  productID,
		"name":        name,
		"description": description,
		"billing_cycles": []map[string]interface{}{
			{
				"frequency": map[string]interface{}{
					"interval_unit":  "MONTH",
					"interval_count": 1,
				},
				"tenure_type":  "REGULAR",
				"sequence":     1,
				"total_cycles": durationMonths,
				"pricing_scheme": map[string]interface{}{
					"fixed_price": map[string]string{
						"value":         fmt.Sprintf("%.2f", price),
						"currency_code": "USD",
					},
				},
			},
		},
		"payment_preferences": map[string]interface{}{
			"auto_bill_outstanding":     true,
			"payment_failure_threshold": 3,
		},
	}

	resp, err := c.rest.R().
		SetAuthToken(token).
		SetBody(body).
		Post(c.baseURL + "/v1/billing/plans")
	if err != nil {
		return "", fmt.Errorf("failed to create plan: %v", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return "", fmt.Errorf("create plan failed: %s", resp.String())
	}

	var planRes struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body(), &planRes); err != nil {
		return "", fmt.Errorf("failed to parse plan response: %v", err)
	}

	return planRes.ID, nil
}

// DeactivatePlan deactivates a billing plan at the provider
func (c *Client) DeactivatePlan(planID string) error {
	token, err := c.AccessToken()
	if err != nil {
		return err
	}

	resp, err := c.rest.R().
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		Post(fmt.Sprintf("%s/v1/billing/plans/%s/deactivate", c.baseURL, planID))
	if err != nil {
		return fmt.Errorf("failed to deactivate plan: %v", err)
	}
	if resp.StatusCode() != 204 {
		return fmt.Errorf("deactivate plan failed: %s", resp.String())
	}

	return nil
}

// CreateSubscription creates a subscription on a plan and returns its id
// plus the buyer approval link.
func (c *Client) CreateSubscription(planID string) (string, string, error) {
	token, err := c.AccessToken()
	if err != nil {
		return "", "", err
	}

	resp, err := c.rest.R().
		SetAuthToken(token).
		SetBody(map[string]string{"plan_id": planID}).
		Post(c.baseURL + "/v1/billing/subscriptions")
	if err != nil {
		return "", "", fmt.Errorf("failed to create subscription: %v", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return "", "", fmt.Errorf("create subscription failed: %s", resp.String())
	}

	var subRes struct {
		ID    string `json:"id"`
		Links []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := json.Unmarshal(resp.Body(), &subRes); err != nil {
		return "", "", fmt.Errorf("failed to parse subscription response: %v", err)
	}

	approveURL := ""
	for _, link := range subRes.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
		}
	}

	return subRes.ID, approveURL, nil
}

// CancelSubscription cancels a subscription at the provider
func (c *Client) CancelSubscription(subscriptionID, reason string) error {
	token, err := c.AccessToken()
	if err != nil {
		return err
	}

	resp, err := c.rest.R().
		SetAuthToken(token).
		SetBody(map[string]string{"reason": reason}).
		Post(fmt.Sprintf("%s/v1/billing/subscriptions/%s/cancel", c.baseURL, subscriptionID))
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %v", err)
	}
	if resp.StatusCode() != 204 {
		return fmt.Errorf("cancel subscription failed: %s", resp.String())
	}

	return nil
}

// VerifyWebhookSignature asks PayPal to verify an inbound webhook delivery
// against the registered webhook id. Only a SUCCESS verification status
// returns true; any transport or parse failure is an error, never a silent
// pass.
func (c *Client) VerifyWebhookSignature(headers WebhookHeaders, rawBody []byte) (bool, error) {
	token, err := c.AccessToken()
	if err != nil {
		return false, err
	}

	body := map[string]interface{}{
		"auth_algo":         headers.AuthAlgo,
		"cert_url":          headers.CertURL,
		"transmission_id":   headers.TransmissionID,
		"transmission_sig":  headers.TransmissionSig,
		"transmission_time": headers.TransmissionTime,
		"webhook_id":        c.webhookID,
		"webhook_event":     json.RawMessage(rawBody),
	}

	resp, err := c.rest.R().
		SetAuthToken(token).
		SetBody(body).
		Post(c.baseURL + "/v1/notifications/verify-webhook-signature")
	if err != nil {
		return false, fmt.Errorf("failed to verify webhook signature: %v", err)
	}
	if resp.StatusCode() != 200 {
		return false, fmt.Errorf("signature verification returned %d: %s", resp.StatusCode(), resp.String())
	}

	var verifyRes struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.Unmarshal(resp.Body(), &verifyRes); err != nil {
		return false, fmt.Errorf("failed to parse verification response: %v", err)
	}

	return verifyRes.VerificationStatus == "SUCCESS", nil
}
