package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "sk_test_secret"

func newTestClient(test *testing.T, handler http.HandlerFunc) *Client {
	test.Helper()
	server := httptest.NewServer(handler)
	test.Cleanup(server.Close)
	client, err := NewClient(Config{SecretKey: testSecretKey, BaseURL: server.URL, CallbackURL: "https://app.example.com/callback"})
	require.NoError(test, err)
	return client
}

func mustReference(test *testing.T, raw string) ledger.Reference {
	test.Helper()
	reference, err := ledger.NewReference(raw)
	require.NoError(test, err)
	return reference
}

func TestNewClientValidatesConfig(test *testing.T) {
	test.Parallel()
	_, err := NewClient(Config{})
	require.ErrorIs(test, err, ErrMissingSecretKey)
	_, err = NewClient(Config{SecretKey: "sk", BaseURL: "::not a url"})
	require.ErrorIs(test, err, ErrInvalidBaseURL)
	client, err := NewClient(Config{SecretKey: " sk "})
	require.NoError(test, err)
	require.Equal(test, DefaultBaseURL, client.baseURL)
}

func TestInitializeSendsChargeAndReturnsCheckout(test *testing.T) {
	test.Parallel()
	client := newTestClient(test, func(writer http.ResponseWriter, request *http.Request) {
		require.Equal(test, http.MethodPost, request.Method)
		require.Equal(test, pathInitialize, request.URL.Path)
		require.Equal(test, "Bearer "+testSecretKey, request.Header.Get(headerAuthorization))
		var payload initializeRequest
		require.NoError(test, json.NewDecoder(request.Body).Decode(&payload))
		require.Equal(test, initializeRequest{Email: "ada@example.com", Amount: 250000, Reference: "STK-1", CallbackURL: "https://app.example.com/callback"}, payload)
		_, _ = writer.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"STK-1"}}`))
	})

	charge, err := client.Initialize(context.Background(), ledger.ChargeRequest{Email: "ada@example.com", AmountMinor: 250000, Reference: mustReference(test, "STK-1")})
	require.NoError(test, err)
	require.Equal(test, "https://checkout.paystack.com/abc", charge.AuthorizationURL)
	require.Equal(test, "abc", charge.AccessCode)
}

func TestInitializeFailures(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: ErrUnexpectedStatus},
		{name: "rejected", status: http.StatusOK, body: `{"status":false,"message":"Invalid key"}`, wantErr: ErrRejected},
		{name: "missing url", status: http.StatusOK, body: `{"status":true,"data":{}}`, wantErr: ErrRejected},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			client := newTestClient(test, func(writer http.ResponseWriter, _ *http.Request) {
				writer.WriteHeader(testCase.status)
				_, _ = writer.Write([]byte(testCase.body))
			})
			_, err := client.Initialize(context.Background(), ledger.ChargeRequest{Email: "a@b.c", AmountMinor: 1, Reference: mustReference(test, "STK-2")})
			require.ErrorIs(test, err, testCase.wantErr)
		})
	}
}

func TestVerifyOutcomes(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name           string
		status         int
		body           string
		wantSuccessful bool
		wantStatus     string
		wantAmount     int64
		wantErr        error
	}{
		{name: "success", status: http.StatusOK, body: `{"status":true,"data":{"status":"success","amount":500000,"reference":"STK-9"}}`, wantSuccessful: true, wantStatus: "success", wantAmount: 500000},
		{name: "abandoned", status: http.StatusOK, body: `{"status":true,"data":{"status":"abandoned","amount":500000,"reference":"STK-9"}}`, wantStatus: "abandoned", wantAmount: 500000},
		{name: "unknown reference", status: http.StatusBadRequest, body: `{"status":false,"message":"Transaction reference not found"}`, wantStatus: statusUnknownCharge},
		{name: "not found", status: http.StatusNotFound, body: ``, wantStatus: statusUnknownCharge},
		{name: "gateway down", status: http.StatusBadGateway, body: `bad gateway`, wantErr: ErrUnexpectedStatus},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			client := newTestClient(test, func(writer http.ResponseWriter, request *http.Request) {
				require.Equal(test, pathVerify+"STK-9", request.URL.Path)
				writer.WriteHeader(testCase.status)
				_, _ = writer.Write([]byte(testCase.body))
			})
			verification, err := client.Verify(context.Background(), mustReference(test, "STK-9"))
			if testCase.wantErr != nil {
				require.ErrorIs(test, err, testCase.wantErr)
				return
			}
			require.NoError(test, err)
			require.Equal(test, testCase.wantSuccessful, verification.Successful)
			require.Equal(test, testCase.wantStatus, verification.Status)
			require.Equal(test, testCase.wantAmount, verification.AmountMinor)
		})
	}
}

func TestVerifyKeepsRawPayload(test *testing.T) {
	test.Parallel()
	client := newTestClient(test, func(writer http.ResponseWriter, _ *http.Request) {
		_, _ = writer.Write([]byte(`{"status":true,"data":{"status":"success","amount":100,"gateway_response":"Approved"}}`))
	})
	verification, err := client.Verify(context.Background(), mustReference(test, "STK-RAW"))
	require.NoError(test, err)
	require.JSONEq(test, `{"status":"success","amount":100,"gateway_response":"Approved"}`, verification.Raw.String())
}

func TestVerifyHonoursContextDeadline(test *testing.T) {
	test.Parallel()
	release := make(chan struct{})
	client := newTestClient(test, func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-release:
		case <-request.Context().Done():
		}
	})
	defer close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Verify(ctx, mustReference(test, "STK-SLOW"))
	require.Error(test, err)
	require.True(test, errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "deadline"))
}

func TestListBanks(test *testing.T) {
	test.Parallel()
	client := newTestClient(test, func(writer http.ResponseWriter, request *http.Request) {
		require.Equal(test, pathBanks, request.URL.Path)
		require.Equal(test, bankCurrency, request.URL.Query().Get("currency"))
		_, _ = writer.Write([]byte(`{"status":true,"data":[{"name":"Access Bank","code":"044","active":true},{"name":"Old Bank","code":"999","active":false}]}`))
	})
	banks, err := client.ListBanks(context.Background())
	require.NoError(test, err)
	require.Equal(test, []ledger.Bank{{Name: "Access Bank", Code: "044", Active: true}, {Name: "Old Bank", Code: "999", Active: false}}, banks)
}

func TestVerifySignature(test *testing.T) {
	test.Parallel()
	body := []byte(`{"event":"charge.success","data":{"reference":"STK-1"}}`)
	signature := Sign(testSecretKey, body)
	require.NoError(test, VerifySignature(testSecretKey, body, signature))
	require.ErrorIs(test, VerifySignature("other", body, signature), ErrInvalidSignature)
	require.ErrorIs(test, VerifySignature(testSecretKey, append(body, ' '), signature), ErrInvalidSignature)
	require.ErrorIs(test, VerifySignature(testSecretKey, body, "not-hex"), ErrInvalidSignature)
	require.ErrorIs(test, VerifySignature(testSecretKey, body, ""), ErrInvalidSignature)
}

func TestParseEvent(test *testing.T) {
	test.Parallel()
	event, err := ParseEvent([]byte(`{"event":"charge.success","data":{"reference":" STK-1 ","status":"success","amount":100}}`))
	require.NoError(test, err)
	require.Equal(test, EventChargeSuccess, event.Event)
	require.Equal(test, "STK-1", event.Data.Reference)

	for _, body := range []string{`not json`, `{"data":{"reference":"STK-1"}}`, `{"event":"charge.success","data":{}}`} {
		_, err := ParseEvent([]byte(body))
		require.ErrorIs(test, err, ErrMalformedEvent, body)
	}
}
