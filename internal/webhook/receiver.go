package webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/MarkoPoloResearchLab/savings/internal/paystack"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxBodyBytes caps the webhook payload read from the request.
const MaxBodyBytes = 1 << 20

// Result labels recorded per webhook delivery.
const (
	ResultUnreadable       = "unreadable"
	ResultInvalidSignature = "invalid_signature"
	ResultMalformed        = "malformed"
	ResultIgnored          = "ignored"
	ResultQueued           = "queued"
	ResultDropped          = "dropped"
	ResultSettleError      = "settle_error"
)

// Enqueuer accepts references for asynchronous settlement.
type Enqueuer interface {
	Enqueue(reference string) bool
}

// Receiver authenticates Paystack notifications and queues charge.success references.
// It always answers 200 so the gateway does not retry; the verify path recovers anything dropped.
type Receiver struct {
	secretKey string
	enqueuer  Enqueuer
	logger    *zap.Logger
	observer  Observer
}

// NewReceiver wires a Receiver that checks signatures with secretKey.
func NewReceiver(secretKey string, enqueuer Enqueuer, logger *zap.Logger, observer Observer) *Receiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Receiver{secretKey: secretKey, enqueuer: enqueuer, logger: logger, observer: observer}
}

// Handle is the gin handler for the webhook route.
func (receiver *Receiver) Handle(ctx *gin.Context) {
	result := receiver.receive(ctx.Request)
	receiver.observer.ObserveWebhook(result)
	ctx.JSON(http.StatusOK, gin.H{"received": true})
}

func (receiver *Receiver) receive(request *http.Request) string {
	body, err := io.ReadAll(io.LimitReader(request.Body, MaxBodyBytes+1))
	if err != nil {
		receiver.logger.Warn("webhook body unreadable", zap.Error(err))
		return ResultUnreadable
	}
	if len(body) > MaxBodyBytes {
		receiver.logger.Warn("webhook body too large", zap.Int("max_bytes", MaxBodyBytes))
		return ResultUnreadable
	}
	if err := paystack.VerifySignature(receiver.secretKey, body, request.Header.Get(paystack.SignatureHeader)); err != nil {
		receiver.logger.Warn("webhook signature rejected", zap.String("remote_addr", request.RemoteAddr), zap.Error(err))
		return ResultInvalidSignature
	}
	event, err := paystack.ParseEvent(body)
	if err != nil {
		receiver.logger.Warn("webhook event malformed", zap.Error(err))
		return ResultMalformed
	}
	if event.Event != paystack.EventChargeSuccess {
		receiver.logger.Info("webhook event ignored", zap.String("event", event.Event), zap.String("reference", event.Data.Reference))
		return ResultIgnored
	}
	if receiver.enqueuer == nil || !receiver.enqueuer.Enqueue(event.Data.Reference) {
		receiver.logger.Error("webhook settlement dropped", zap.String("reference", event.Data.Reference), zap.Error(errQueueUnavailable))
		return ResultDropped
	}
	receiver.logger.Info("webhook settlement queued", zap.String("reference", event.Data.Reference))
	return ResultQueued
}

var errQueueUnavailable = errors.New("settlement queue full or stopped")
