package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultDarajaBaseURL is the Safaricom sandbox.
const DefaultDarajaBaseURL = "https://sandbox.safaricom.co.ke"

const darajaTimestampLayout = "20060102150405"

// DarajaConfig holds the Safaricom Daraja credentials for STK push.
type DarajaConfig struct {
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	ShortCode      string `yaml:"shortcode"`
	Passkey        string `yaml:"passkey"`
	CallbackURL    string `yaml:"callback_url"`
	// BaseURL overrides the sandbox endpoint.
	BaseURL string `yaml:"base_url"`
}

// ProviderError is a rejection reported by the payment provider itself, as
// opposed to transport failure.
type ProviderError struct {
	Description string
}

func (e *ProviderError) Error() string {
	return "provider rejected request: " + e.Description
}

// DarajaClient drives the STK push flow: fetch a bearer token with the
// consumer credentials, then post the push request. Tokens are fetched per
// call; Daraja tokens are short-lived and the call volume here is tiny.
type DarajaClient struct {
	cfg  DarajaConfig
	http *http.Client
	now  func() time.Time
}

// NewDarajaClient builds a client; a nil httpClient gets a 30s-timeout
// default.
func NewDarajaClient(cfg DarajaConfig, httpClient *http.Client) *DarajaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultDarajaBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &DarajaClient{cfg: cfg, http: httpClient, now: time.Now}
}

// Configured reports whether STK push credentials are present.
func (c *DarajaClient) Configured() bool {
	return c.cfg.ConsumerKey != "" && c.cfg.ConsumerSecret != "" &&
		c.cfg.ShortCode != "" && c.cfg.Passkey != ""
}

// Token fetches an OAuth bearer token with the consumer key and secret.
func (c *DarajaClient) Token(ctx context.Context) (string, error) {
	if c.cfg.ConsumerKey == "" || c.cfg.ConsumerSecret == "" {
		return "", fmt.Errorf("%w: missing daraja consumer key/secret", ErrValidation)
	}
	url := c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("daraja token request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("daraja token request failed: %d %s", resp.StatusCode, string(body))
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode daraja token: %w", err)
	}
	return out.AccessToken, nil
}

type stkPushRequest struct {
	BusinessShortCode string  `json:"BusinessShortCode"`
	Password          string  `json:"Password"`
	Timestamp         string  `json:"Timestamp"`
	TransactionType   string  `json:"TransactionType"`
	Amount            float64 `json:"Amount"`
	PartyA            string  `json:"PartyA"`
	PartyB            string  `json:"PartyB"`
	PhoneNumber       string  `json:"PhoneNumber"`
	CallBackURL       string  `json:"CallBackURL"`
	AccountReference  string  `json:"AccountReference"`
	TransactionDesc   string  `json:"TransactionDesc"`
}

type stkPushResponse struct {
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
}

// STKPush asks Daraja to push a payment prompt to the phone. It returns the
// CheckoutRequestID, the reference every later callback and status lookup
// keys on. A non-zero response code becomes a ProviderError.
func (c *DarajaClient) STKPush(ctx context.Context, amount float64, phone string) (string, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}
	timestamp := c.now().Format(darajaTimestampLayout)
	password := base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))
	payload := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  "PocketMoney",
		TransactionDesc:   "PocketMoney Deposit",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode stk push: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build stk push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("stk push request: %w", err)
	}
	defer resp.Body.Close()
	var out stkPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode stk push response: %w", err)
	}
	if out.ResponseCode != "0" {
		desc := out.ResponseDescription
		if desc == "" {
			desc = "STK push failed"
		}
		return "", &ProviderError{Description: desc}
	}
	return out.CheckoutRequestID, nil
}
