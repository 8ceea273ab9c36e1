package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecart/order-ledger/internal/domain"
)

func TestApplyPaymentStatus_PaidAdvancesPendingOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()
	orders := env.checkoutTwoSellers(t, "")
	xID := orders["seller-x"].OrderID

	order, err := env.payments.ApplyPaymentStatus(context.Background(), xID, domain.PaymentStatusPaid, "txn-123", "gateway capture")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)

	require.Len(t, order.PaymentHistory, 1)
	assert.Equal(t, "txn-123", order.PaymentHistory[0].TransactionID)

	// The auto-advance is recorded as its own history entry.
	last := order.StatusHistory[len(order.StatusHistory)-1]
	assert.Equal(t, domain.OrderStatusProcessing, last.Status)
	assert.Equal(t, "payment received", last.Note)
	assert.Equal(t, "system", last.Actor)
}

func TestApplyPaymentStatus_PaidOnProcessingOrderOnlyRecords(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()
	orders := env.checkoutTwoSellers(t, "")
	xID := orders["seller-x"].OrderID
	env.advance(t, xID, domain.OrderStatusProcessing)

	order, err := env.payments.ApplyPaymentStatus(context.Background(), xID, domain.PaymentStatusPaid, "txn-9", "")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	assert.Len(t, order.StatusHistory, 2, "no extra status transition")
}

func TestApplyPaymentStatus_FailedPaymentLeavesStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()
	orders := env.checkoutTwoSellers(t, "ref-20")
	xID := orders["seller-x"].OrderID
	stockBefore := env.productStock(t, "prod-a")

	order, err := env.payments.ApplyPaymentStatus(context.Background(), xID, domain.PaymentStatusFailed, "txn-1", "card declined")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusFailed, order.PaymentStatus)

	// Reconciliation never touches stock or commissions.
	assert.Equal(t, stockBefore, env.productStock(t, "prod-a"))
	affiliate := env.affiliate(t, "ref-20")
	assert.Equal(t, domain.ReferralStatusPending, affiliate.Referrals[xID].Status)
}

func TestApplyPaymentStatus_HistoryIsAppendOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()
	orders := env.checkoutTwoSellers(t, "")
	xID := orders["seller-x"].OrderID

	_, err := env.payments.ApplyPaymentStatus(context.Background(), xID, domain.PaymentStatusFailed, "txn-1", "card declined")
	require.NoError(t, err)
	order, err := env.payments.ApplyPaymentStatus(context.Background(), xID, domain.PaymentStatusPaid, "txn-2", "retry succeeded")
	require.NoError(t, err)

	require.Len(t, order.PaymentHistory, 2)
	assert.Equal(t, domain.PaymentStatusFailed, order.PaymentHistory[0].Status)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentHistory[1].Status)
}

func TestApplyPaymentStatus_InvalidStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()
	orders := env.checkoutTwoSellers(t, "")

	_, err := env.payments.ApplyPaymentStatus(context.Background(), orders["seller-x"].OrderID, "charged-back", "", "")
	require.Error(t, err)
	assert.Equal(t, domain.CodeInvalidPaymentStatus, domain.CodeOf(err))
}

func TestApplyPaymentStatus_OrderNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := env.payments.ApplyPaymentStatus(context.Background(), "missing", domain.PaymentStatusPaid, "", "")
	require.Error(t, err)
	assert.Equal(t, domain.CodeOrderNotFound, domain.CodeOf(err))
}
