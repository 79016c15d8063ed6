package pos

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tavolo-pos/internal/database/models"
)

func TestSummarizePayments_SingleCashWithChange(t *testing.T) {
	summary, err := summarizePayments(dec(t, "12.70"), []PaymentSplit{
		{Method: "cash", Amount: dec(t, "20.00")},
	})
	require.NoError(t, err)

	assert.Equal(t, "cash", summary.Method)
	assert.Equal(t, models.PaymentStatusPaid, summary.Status)
	assert.True(t, summary.Paid.Equal(dec(t, "12.70")), "paid is capped at the total")
	assert.True(t, summary.Due.Equal(decimal.Zero))
	assert.True(t, summary.Change.Equal(dec(t, "7.30")))
}

func TestSummarizePayments_SplitExact(t *testing.T) {
	summary, err := summarizePayments(dec(t, "30.00"), []PaymentSplit{
		{Method: "cash", Amount: dec(t, "10.00")},
		{Method: "card", Amount: dec(t, "20.00")},
	})
	require.NoError(t, err)

	assert.Equal(t, "cash,card", summary.Method)
	assert.Equal(t, models.PaymentStatusPaid, summary.Status)
	assert.True(t, summary.Change.Equal(decimal.Zero))
}

func TestSummarizePayments_DueSplitIsPartial(t *testing.T) {
	summary, err := summarizePayments(dec(t, "30.00"), []PaymentSplit{
		{Method: "cash", Amount: dec(t, "10.00")},
		{Method: DueMethod, Amount: dec(t, "20.00")},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPartial, summary.Status)
	assert.True(t, summary.Paid.Equal(dec(t, "10.00")))
	assert.True(t, summary.Due.Equal(dec(t, "20.00")))
	assert.True(t, summary.Change.Equal(decimal.Zero))
}

func TestSummarizePayments_AllDue(t *testing.T) {
	summary, err := summarizePayments(dec(t, "15.00"), []PaymentSplit{
		{Method: DueMethod, Amount: dec(t, "15.00")},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusDue, summary.Status)
	assert.True(t, summary.Paid.Equal(decimal.Zero))
	assert.True(t, summary.Due.Equal(dec(t, "15.00")))
}

func TestSummarizePayments_NoSplits(t *testing.T) {
	_, err := summarizePayments(dec(t, "10.00"), nil)
	assert.ErrorIs(t, err, ErrNoPayments)
}

func TestSummarizePayments_NegativeAmountRejected(t *testing.T) {
	_, err := summarizePayments(dec(t, "10.00"), []PaymentSplit{
		{Method: "cash", Amount: dec(t, "-1.00")},
	})
	assert.ErrorIs(t, err, ErrNegativePayment)
}
