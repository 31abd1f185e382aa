package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"gymdesk/internal/core/domain"
	"gymdesk/internal/core/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func pay(amount int64) services.RecordPaymentInput {
	return services.RecordPaymentInput{Amount: decimal.NewFromInt(amount), Mode: "cash"}
}

func TestRecordPaymentScenario(t *testing.T) {
	f := newFixture(t, "2025-02-20")
	ctx := context.Background()
	id := f.newMembership(t, "2025-02-01", 0)

	result, err := f.ledger.RecordPayment(ctx, caller(companyA), id, pay(500))
	require.NoError(t, err)
	assert.Equal(t, "partial", result.PaymentStatus)
	assert.True(t, result.PaidAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, "additional_payment", result.Transaction.Type)
	assert.Regexp(t, regexp.MustCompile(`^RCT-20250220-[0-9A-F]{12}$`), result.Transaction.ReceiptNumber)

	summary := f.summary(t, id)
	assert.Equal(t, "partial", summary.PaymentStatus)
	assert.True(t, summary.PaidAmount.Equal(decimal.NewFromInt(500)))

	entries, err := f.ledger.Timeline(ctx, caller(companyA), id)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "additional_payment", entries[0].Type)
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, f.member, entries[0].MemberID)

	assert.Contains(t, f.audit.Actions(), domain.AuditPaymentRecorded)
}

func TestRecordPaymentReachesFull(t *testing.T) {
	f := newFixture(t, "2025-02-20")
	ctx := context.Background()
	id := f.newMembership(t, "2025-02-01", 1000)

	result, err := f.ledger.RecordPayment(ctx, caller(companyA), id, pay(500))
	require.NoError(t, err)
	assert.Equal(t, "full", result.PaymentStatus)

	// overpayment stays full
	result, err = f.ledger.RecordPayment(ctx, caller(companyA), id, pay(100))
	require.NoError(t, err)
	assert.Equal(t, "full", result.PaymentStatus)
	assert.True(t, result.PaidAmount.Equal(decimal.NewFromInt(1600)))
}

func TestRecordPaymentValidation(t *testing.T) {
	f := newFixture(t, "2025-02-20")
	ctx := context.Background()
	id := f.newMembership(t, "2025-02-01", 200)

	cases := map[string]services.RecordPaymentInput{
		"zero amount":       pay(0),
		"negative amount":   pay(-50),
		"unknown mode":      {Amount: decimal.NewFromInt(10), Mode: "barter"},
		"initial payment":   {Amount: decimal.NewFromInt(10), Mode: "cash", Type: domain.TxInitialPayment},
		"renewal payment":   {Amount: decimal.NewFromInt(10), Mode: "cash", Type: domain.TxRenewalPayment},
		"unknown type":      {Amount: decimal.NewFromInt(10), Mode: "cash", Type: "chargeback"},
		"refund above paid": {Amount: decimal.NewFromInt(201), Mode: "cash", Type: domain.TxRefund},
	}
	for name, input := range cases {
		_, err := f.ledger.RecordPayment(ctx, caller(companyA), id, input)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument), name)
	}

	_, err := f.ledger.RecordPayment(ctx, caller(companyA), 777, pay(10))
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// nothing was written by the rejected calls
	entries, err := f.ledger.Timeline(ctx, caller(companyA), id)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.True(t, f.summary(t, id).PaidAmount.Equal(decimal.NewFromInt(200)))
}

func TestRefundLowersPaidAmount(t *testing.T) {
	f := newFixture(t, "2025-02-20")
	ctx := context.Background()
	id := f.newMembership(t, "2025-02-01", 1500)

	result, err := f.ledger.RecordPayment(ctx, caller(companyA), id, services.RecordPaymentInput{
		Amount: decimal.NewFromInt(1500),
		Mode:   "bank_transfer",
		Type:   domain.TxRefund,
		Note:   "medical",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", result.PaymentStatus)
	assert.True(t, result.PaidAmount.IsZero())
	assert.True(t, result.Transaction.Amount.Equal(decimal.NewFromInt(1500)), "refunds are stored positive")
}

func TestTimelineOrdering(t *testing.T) {
	f := newFixture(t, "2025-02-20")
	ctx := context.Background()
	id := f.newMembership(t, "2025-02-01", 100)

	f.clock.Advance(2)
	_, err := f.ledger.RecordPayment(ctx, caller(companyA), id, pay(200))
	require.NoError(t, err)
	_, err = f.ledger.RecordPayment(ctx, caller(companyA), id, pay(300))
	require.NoError(t, err)

	entries, err := f.ledger.Timeline(ctx, caller(companyA), id)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	amounts := []int64{entries[0].Amount.IntPart(), entries[1].Amount.IntPart(), entries[2].Amount.IntPart()}
	assert.Equal(t, []int64{100, 200, 300}, amounts)
	assert.Less(t, entries[1].ID, entries[2].ID)
}

// Any sequence of payments and refunds leaves the summary consistent with
// the ledger and with the derived status.
func TestLedgerSummaryMatchesEntries(t *testing.T) {
	f := newFixture(t, "2025-02-20")
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		id := f.newMembership(rt, "2025-02-01", 0)

		n := rapid.IntRange(1, 10).Draw(rt, "payments")
		for i := 0; i < n; i++ {
			input := services.RecordPaymentInput{
				Amount: decimal.New(rapid.Int64Range(1, 100_000).Draw(rt, "cents"), -2),
				Mode:   rapid.SampledFrom([]string{"cash", "card", "upi"}).Draw(rt, "mode"),
				Type:   rapid.SampledFrom([]domain.TransactionType{domain.TxAdditionalPayment, domain.TxRefund}).Draw(rt, "type"),
			}
			_, err := f.ledger.RecordPayment(ctx, caller(companyA), id, input)
			if err != nil && !errors.Is(err, domain.ErrInvalidArgument) {
				rt.Fatalf("record payment: %v", err)
			}
		}

		entries, err := f.ledger.Timeline(ctx, caller(companyA), id)
		require.NoError(rt, err)
		paid := decimal.Zero
		for _, e := range entries {
			paid = paid.Add(domain.TransactionType(e.Type).Signed(e.Amount))
		}

		summary := f.summary(rt, id)
		if !summary.PaidAmount.Equal(paid) {
			rt.Fatalf("summary paid %s, ledger sums to %s", summary.PaidAmount, paid)
		}
		if paid.IsNegative() {
			rt.Fatalf("paid went negative: %s", paid)
		}
		want := domain.DerivePaymentStatus(summary.TotalAmount, summary.PaidAmount)
		if summary.PaymentStatus != string(want) {
			rt.Fatalf("status %s, want %s", summary.PaymentStatus, want)
		}
	})
}

func TestRevenue(t *testing.T) {
	f := newFixture(t, "2025-02-20")
	ctx := context.Background()
	id := f.newMembership(t, "2025-02-01", 1000)

	_, err := f.ledger.RecordPayment(ctx, caller(companyA), id, pay(500))
	require.NoError(t, err)
	_, err = f.ledger.RecordPayment(ctx, caller(companyA), id, services.RecordPaymentInput{
		Amount: decimal.NewFromInt(200), Mode: "cash", Type: domain.TxRefund,
	})
	require.NoError(t, err)

	// another tenant's ledger is never included
	other := f.addMember(t, companyB, "Elsewhere")
	otherPlan := f.addPlan(t, companyB, "B Monthly", 1, 900)
	_, err = f.memberships.Create(ctx, caller(companyB), services.CreateMembershipInput{
		MemberID: other, PlanID: otherPlan, InitialPayment: decimal.NewFromInt(900), PaymentMode: "cash",
	})
	require.NoError(t, err)

	// outside the range
	f.clock.Advance(10)
	_, err = f.ledger.RecordPayment(ctx, caller(companyA), id, pay(50))
	require.NoError(t, err)

	summary, err := f.ledger.Revenue(ctx, caller(companyA), date("2025-02-20"), date("2025-02-21"))
	require.NoError(t, err)
	assert.True(t, summary.Gross.Equal(decimal.NewFromInt(1500)), summary.Gross.String())
	assert.True(t, summary.Refunds.Equal(decimal.NewFromInt(200)), summary.Refunds.String())
	assert.True(t, summary.Net.Equal(decimal.NewFromInt(1300)), summary.Net.String())
	assert.EqualValues(t, 3, summary.Entries)
	assert.True(t, summary.ByType["initial_payment"].Equal(decimal.NewFromInt(1000)))

	_, err = f.ledger.Revenue(ctx, caller(companyA), date("2025-02-21"), date("2025-02-20"))
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}
