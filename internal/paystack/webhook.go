package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// EventChargeSuccess is the only event that triggers settlement.
const EventChargeSuccess = "charge.success"

var (
	ErrInvalidSignature = errors.New("paystack: invalid webhook signature")
	ErrMalformedEvent   = errors.New("paystack: malformed webhook event")
)

// Event is the subset of a webhook notification the receiver needs.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

// EventData identifies the charge an event refers to.
type EventData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

// Sign returns the hex signature Paystack would send for body.
func Sign(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches body under secretKey.
func VerifySignature(secretKey string, body []byte, signature string) error {
	expected, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(expected) == 0 {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseEvent decodes a webhook body and requires an event name and a charge reference.
func ParseEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	event.Event = strings.TrimSpace(event.Event)
	event.Data.Reference = strings.TrimSpace(event.Data.Reference)
	if event.Event == "" {
		return Event{}, fmt.Errorf("%w: missing event", ErrMalformedEvent)
	}
	if event.Data.Reference == "" {
		return Event{}, fmt.Errorf("%w: missing reference", ErrMalformedEvent)
	}
	return event, nil
}
