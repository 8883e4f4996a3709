package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
)

const (
	DefaultBaseURL        = "https://api.paystack.co"
	defaultHTTPTimeout    = 15 * time.Second
	pathInitialize        = "/transaction/initialize"
	pathVerify            = "/transaction/verify/"
	pathBanks             = "/bank"
	statusSuccess         = "success"
	statusUnknownCharge   = "not_found"
	headerAuthorization   = "Authorization"
	headerContentType     = "Content-Type"
	contentTypeJSON       = "application/json"
	maxResponseBodyBytes  = 1 << 20
	bankCurrency          = "NGN"
	errorBodyPreviewBytes = 256
)

var (
	ErrMissingSecretKey = errors.New("paystack: secret key is required")
	ErrInvalidBaseURL   = errors.New("paystack: invalid base url")
	ErrUnexpectedStatus = errors.New("paystack: unexpected response status")
	ErrRejected         = errors.New("paystack: request rejected")
)

// Config configures the Paystack client.
type Config struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	HTTPClient  *http.Client
}

// Client implements ledger.Gateway against the Paystack REST API.
type Client struct {
	secretKey   string
	baseURL     string
	callbackURL string
	httpClient  *http.Client
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, ErrMissingSecretKey
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if parsed, err := url.Parse(baseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		secretKey:   secretKey,
		baseURL:     baseURL,
		callbackURL: strings.TrimSpace(cfg.CallbackURL),
		httpClient:  httpClient,
	}, nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type bankData struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Active bool   `json:"active"`
}

// Initialize opens a checkout for request and returns the authorization URL.
func (client *Client) Initialize(ctx context.Context, request ledger.ChargeRequest) (ledger.Charge, error) {
	payload, err := json.Marshal(initializeRequest{
		Email:       request.Email,
		Amount:      request.AmountMinor,
		Reference:   request.Reference.String(),
		CallbackURL: client.callbackURL,
	})
	if err != nil {
		return ledger.Charge{}, err
	}
	statusCode, body, err := client.do(ctx, http.MethodPost, pathInitialize, payload)
	if err != nil {
		return ledger.Charge{}, err
	}
	if statusCode != http.StatusOK {
		return ledger.Charge{}, unexpectedStatus("initialize", statusCode, body)
	}
	response, err := decodeEnvelope(body)
	if err != nil {
		return ledger.Charge{}, err
	}
	if !response.Status {
		return ledger.Charge{}, fmt.Errorf("%w: initialize: %s", ErrRejected, response.Message)
	}
	var data initializeData
	if err := json.Unmarshal(response.Data, &data); err != nil {
		return ledger.Charge{}, fmt.Errorf("paystack: decode initialize data: %w", err)
	}
	if data.AuthorizationURL == "" {
		return ledger.Charge{}, fmt.Errorf("%w: initialize returned no authorization url", ErrRejected)
	}
	return ledger.Charge{AuthorizationURL: data.AuthorizationURL, AccessCode: data.AccessCode, Reference: data.Reference}, nil
}

// Verify reports the charge state. References unknown to Paystack verify as unsuccessful, not as errors.
func (client *Client) Verify(ctx context.Context, reference ledger.Reference) (ledger.Verification, error) {
	statusCode, body, err := client.do(ctx, http.MethodGet, pathVerify+url.PathEscape(reference.String()), nil)
	if err != nil {
		return ledger.Verification{}, err
	}
	switch statusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusNotFound:
		return ledger.Verification{Successful: false, Status: statusUnknownCharge}, nil
	default:
		return ledger.Verification{}, unexpectedStatus("verify", statusCode, body)
	}
	response, err := decodeEnvelope(body)
	if err != nil {
		return ledger.Verification{}, err
	}
	var data verifyData
	if err := json.Unmarshal(response.Data, &data); err != nil {
		return ledger.Verification{}, fmt.Errorf("paystack: decode verify data: %w", err)
	}
	raw, err := ledger.NewMetadataJSON(string(response.Data))
	if err != nil {
		return ledger.Verification{}, fmt.Errorf("paystack: verify payload: %w", err)
	}
	return ledger.Verification{
		Successful:  response.Status && data.Status == statusSuccess,
		Status:      data.Status,
		AmountMinor: data.Amount,
		Raw:         raw,
	}, nil
}

// ListBanks returns the settlement banks Paystack supports.
func (client *Client) ListBanks(ctx context.Context) ([]ledger.Bank, error) {
	statusCode, body, err := client.do(ctx, http.MethodGet, pathBanks+"?currency="+bankCurrency, nil)
	if err != nil {
		return nil, err
	}
	if statusCode != http.StatusOK {
		return nil, unexpectedStatus("banks", statusCode, body)
	}
	response, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	var data []bankData
	if err := json.Unmarshal(response.Data, &data); err != nil {
		return nil, fmt.Errorf("paystack: decode banks: %w", err)
	}
	banks := make([]ledger.Bank, 0, len(data))
	for _, bank := range data {
		banks = append(banks, ledger.Bank{Name: bank.Name, Code: bank.Code, Active: bank.Active})
	}
	return banks, nil
}

func (client *Client) do(ctx context.Context, method string, path string, payload []byte) (int, []byte, error) {
	var requestBody io.Reader
	if payload != nil {
		requestBody = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, requestBody)
	if err != nil {
		return 0, nil, err
	}
	request.Header.Set(headerAuthorization, "Bearer "+client.secretKey)
	if payload != nil {
		request.Header.Set(headerContentType, contentTypeJSON)
	}
	response, err := client.httpClient.Do(request)
	if err != nil {
		return 0, nil, err
	}
	defer response.Body.Close()
	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("paystack: read response: %w", err)
	}
	return response.StatusCode, body, nil
}

func decodeEnvelope(body []byte) (envelope, error) {
	var response envelope
	if err := json.Unmarshal(body, &response); err != nil {
		return envelope{}, fmt.Errorf("paystack: decode response: %w", err)
	}
	return response, nil
}

func unexpectedStatus(operation string, statusCode int, body []byte) error {
	preview := body
	if len(preview) > errorBodyPreviewBytes {
		preview = preview[:errorBodyPreviewBytes]
	}
	return fmt.Errorf("%w: %s: %d: %s", ErrUnexpectedStatus, operation, statusCode, strings.TrimSpace(string(preview)))
}
