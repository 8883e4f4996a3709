package pgstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const testDatabaseURLEnv = "SAVINGS_TEST_DATABASE_URL"

func TestMigrationsAreEmbedded(test *testing.T) {
	test.Parallel()
	content, err := migrationFiles.ReadFile("migrations/00001_init.sql")
	require.NoError(test, err)
	text := string(content)
	require.Contains(test, text, "-- +goose Up")
	require.Contains(test, text, "-- +goose Down")
	require.Contains(test, text, "constraint "+constraintTransactionReference)
	require.Contains(test, text, "constraint "+constraintUserEmail)
	require.Contains(test, text, "chk_users_balance_non_negative")
}

func TestIsUniqueViolationMatchesConstraint(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "matching constraint", err: &pgconn.PgError{Code: pgUniqueViolationCode, ConstraintName: constraintTransactionReference}, constraint: constraintTransactionReference, want: true},
		{name: "wrapped", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolationCode, ConstraintName: constraintUserEmail}), constraint: constraintUserEmail, want: true},
		{name: "other constraint", err: &pgconn.PgError{Code: pgUniqueViolationCode, ConstraintName: "uniq_bookings_transaction"}, constraint: constraintTransactionReference, want: false},
		{name: "check violation", err: &pgconn.PgError{Code: "23514", ConstraintName: constraintTransactionReference}, constraint: constraintTransactionReference, want: false},
		{name: "plain error", err: errors.New("boom"), constraint: constraintTransactionReference, want: false},
		{name: "nil", err: nil, constraint: constraintTransactionReference, want: false},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			require.Equal(test, testCase.want, isUniqueViolation(testCase.err, testCase.constraint))
		})
	}
}

type verifiedGateway struct{}

func (verifiedGateway) Initialize(_ context.Context, request ledger.ChargeRequest) (ledger.Charge, error) {
	return ledger.Charge{AuthorizationURL: "https://checkout.test/" + request.Reference.String()}, nil
}

func (verifiedGateway) Verify(context.Context, ledger.Reference) (ledger.Verification, error) {
	return ledger.Verification{Status: "abandoned"}, nil
}

func (verifiedGateway) ListBanks(context.Context) ([]ledger.Bank, error) {
	return nil, nil
}

func openPostgresStore(test *testing.T) *Store {
	test.Helper()
	databaseURL := os.Getenv(testDatabaseURLEnv)
	if databaseURL == "" {
		test.Skipf("%s not set", testDatabaseURLEnv)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(test, Migrate(ctx, databaseURL))
	pool, err := pgxpool.New(ctx, databaseURL)
	require.NoError(test, err)
	test.Cleanup(pool.Close)
	return New(pool)
}

func TestWithTxReleasesConnectionWhenCallbackPanics(test *testing.T) {
	store := openPostgresStore(test)
	ctx := context.Background()
	for attempt := 0; attempt < 3; attempt++ {
		func() {
			defer func() {
				require.NotNil(test, recover())
			}()
			_ = store.WithTx(ctx, func(ctx context.Context, txStore ledger.Store) error {
				_, err := txStore.SumCompletedAmounts(ctx, ledger.UserID(1))
				require.NoError(test, err)
				panic("callback failed")
			})
		}()
	}
	require.Eventually(test, func() bool {
		return store.pool.Stat().AcquiredConns() == 0
	}, 5*time.Second, 20*time.Millisecond)

	err := store.WithTx(ctx, func(ctx context.Context, txStore ledger.Store) error {
		_, err := txStore.SumCompletedAmounts(ctx, ledger.UserID(1))
		return err
	})
	require.NoError(test, err)
	require.EqualValues(test, 0, store.pool.Stat().AcquiredConns())
}

func TestPostgresBookingRaceOnLastSlot(test *testing.T) {
	store := openPostgresStore(test)
	ctx := context.Background()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	service, err := ledger.NewService(store, verifiedGateway{}, func() int64 { return time.Now().Unix() })
	require.NoError(test, err)

	ownerInput, err := ledger.NewUserInput("Owner", "owner-"+suffix+"@example.com", "", ledger.RoleOwner, time.Now().Unix())
	require.NoError(test, err)
	ownerUser, err := store.CreateUser(ctx, ownerInput)
	require.NoError(test, err)
	owner := ledger.Principal{UserID: ownerUser.ID, Role: ledger.RoleOwner}

	variant, err := service.AddProductVariant(ctx, owner, ledger.AddProductVariantRequest{CategoryName: "Race " + suffix, ProductName: "Rice", VariantName: "Bag", UnitPriceCents: 1000})
	require.NoError(test, err)
	item, err := service.AddInventory(ctx, owner, variant.ID.Int64(), 1)
	require.NoError(test, err)

	const contenders = 6
	customers := make([]ledger.Principal, contenders)
	for index := range customers {
		input, err := ledger.NewUserInput("Buyer", fmt.Sprintf("buyer-%d-%s@example.com", index, suffix), "", ledger.RoleCustomer, time.Now().Unix())
		require.NoError(test, err)
		user, err := store.CreateUser(ctx, input)
		require.NoError(test, err)
		customers[index] = ledger.Principal{UserID: user.ID, Role: ledger.RoleCustomer}
		_, err = service.RecordDeposit(ctx, owner, ledger.DepositRequest{UserID: user.ID.Int64(), AmountCents: 1000, Method: "Cash", Reference: fmt.Sprintf("CASH-%d-%s", index, suffix)})
		require.NoError(test, err)
	}

	var waitGroup sync.WaitGroup
	errs := make([]error, contenders)
	for index := range customers {
		waitGroup.Add(1)
		go func(index int) {
			defer waitGroup.Done()
			_, errs[index] = service.BookSlots(ctx, customers[index], ledger.BookingRequest{InventoryItemID: item.ID.Int64(), Slots: 1})
		}(index)
	}
	waitGroup.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(test, err, ledger.ErrInsufficientSlots)
	}
	require.Equal(test, 1, successes)

	stored, err := store.GetInventoryItem(ctx, item.ID)
	require.NoError(test, err)
	require.EqualValues(test, 1, stored.SlotsBooked)
	for _, customer := range customers {
		user, err := store.GetUser(ctx, customer.UserID)
		require.NoError(test, err)
		sum, err := store.SumCompletedAmounts(ctx, customer.UserID)
		require.NoError(test, err)
		require.Equal(test, user.Balance.Int64(), sum.Int64())
	}

	categories, err := service.GetCategories(ctx, owner)
	require.NoError(test, err)
	found := false
	for _, category := range categories {
		if strings.HasSuffix(category.Name, suffix) {
			found = len(category.Products) == 1 && len(category.Products[0].Variants) == 1
		}
	}
	require.True(test, found)
}
