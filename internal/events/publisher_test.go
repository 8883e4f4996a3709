package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	published  []publishedMessage
	declareErr error
	publishErr error
	closed     bool
}

func (channel *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if channel.declareErr != nil {
		return channel.declareErr
	}
	if kind != exchangeKind || !durable {
		return errors.New("unexpected exchange shape")
	}
	channel.declared = append(channel.declared, name)
	return nil
}

func (channel *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if channel.publishErr != nil {
		return channel.publishErr
	}
	channel.published = append(channel.published, publishedMessage{exchange: exchange, key: key, msg: msg})
	return nil
}

func (channel *fakeChannel) Close() error {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	channel.closed = true
	return nil
}

func mustReference(test *testing.T, raw string) ledger.Reference {
	test.Helper()
	reference, err := ledger.NewReference(raw)
	require.NoError(test, err)
	return reference
}

func TestNewPublisherDeclaresExchange(test *testing.T) {
	test.Parallel()
	channel := &fakeChannel{}
	publisher, err := NewPublisher(channel, "", nil, 0)
	require.NoError(test, err)
	require.NoError(test, publisher.Close())
	require.Equal(test, []string{DefaultExchange}, channel.declared)
	require.True(test, channel.closed)
}

func TestNewPublisherFailsWhenDeclareFails(test *testing.T) {
	test.Parallel()
	_, err := NewPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "x", nil, 1)
	require.ErrorContains(test, err, "access refused")
	_, err = NewPublisher(nil, "x", nil, 1)
	require.Error(test, err)
}

func TestLogOperationPublishesOnlyCommittedMovements(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name        string
		entry       ledger.OperationLog
		wantPublish bool
	}{
		{
			name:        "settled deposit",
			entry:       ledger.OperationLog{Operation: ledger.OperationSettleByReference, UserID: 7, TransactionID: 11, Reference: mustReference(test, "STK-1"), BalanceDelta: 5000, Outcome: "settled"},
			wantPublish: true,
		},
		{
			name:        "booking debit",
			entry:       ledger.OperationLog{Operation: ledger.OperationBookSlots, UserID: 7, BalanceDelta: -3000},
			wantPublish: true,
		},
		{
			name:  "pending deposit",
			entry: ledger.OperationLog{Operation: ledger.OperationRecordDeposit, UserID: 7, Reference: mustReference(test, "STK-2")},
		},
		{
			name:  "failed operation",
			entry: ledger.OperationLog{Operation: ledger.OperationSetStatus, UserID: 7, BalanceDelta: 100, Error: ledger.ErrForbidden},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			channel := &fakeChannel{}
			publisher, err := NewPublisher(channel, "savings.test", zap.NewNop(), 4)
			require.NoError(test, err)
			publisher.nowFn = func() time.Time { return time.Unix(1700000000, 0) }

			publisher.LogOperation(context.Background(), testCase.entry)
			require.NoError(test, publisher.Close())

			if !testCase.wantPublish {
				require.Empty(test, channel.published)
				return
			}
			require.Len(test, channel.published, 1)
			message := channel.published[0]
			require.Equal(test, "savings.test", message.exchange)
			require.Equal(test, routingKeyPrefix+testCase.entry.Operation, message.key)
			require.Equal(test, contentTypeJSON, message.msg.ContentType)
			require.Equal(test, amqp.Persistent, message.msg.DeliveryMode)

			var event BalanceEvent
			require.NoError(test, json.Unmarshal(message.msg.Body, &event))
			require.Equal(test, testCase.entry.BalanceDelta.Int64(), event.BalanceDeltaCents)
			require.Equal(test, testCase.entry.UserID.Int64(), event.UserID)
			require.Equal(test, testCase.entry.Reference.String(), event.Reference)
			require.EqualValues(test, 1700000000, event.OccurredUnixUTC)
		})
	}
}

func TestPublishFailureIsLogged(test *testing.T) {
	test.Parallel()
	core, logs := observer.New(zapcore.DebugLevel)
	channel := &fakeChannel{publishErr: errors.New("channel closed")}
	publisher, err := NewPublisher(channel, "", zap.New(core), 1)
	require.NoError(test, err)
	publisher.LogOperation(context.Background(), ledger.OperationLog{Operation: ledger.OperationSettleByReference, UserID: 1, BalanceDelta: 10})
	require.NoError(test, publisher.Close())
	require.Equal(test, 1, logs.FilterMessage("balance event publish failed").Len())
}

func TestLogOperationAfterCloseIsDropped(test *testing.T) {
	test.Parallel()
	core, logs := observer.New(zapcore.DebugLevel)
	channel := &fakeChannel{}
	publisher, err := NewPublisher(channel, "", zap.New(core), 1)
	require.NoError(test, err)
	require.NoError(test, publisher.Close())
	require.NoError(test, publisher.Close())
	publisher.LogOperation(context.Background(), ledger.OperationLog{Operation: ledger.OperationBookSlots, UserID: 1, BalanceDelta: -10})
	require.Empty(test, channel.published)
	require.Equal(test, 1, logs.FilterMessage("balance event dropped").Len())
}
