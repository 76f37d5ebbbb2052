package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	name   string
	status string
}

func statusOf(i item) string { return i.status }

func TestGroupByStatus(t *testing.T) {
	items := []item{
		{"a", "paid"},
		{"b", "overdue"},
		{"c", "paid"},
		{"d", ""},
		{"e", "disputed"},
	}

	got := GroupByStatus(items, statusOf, InvoiceVariants, "draft")
	assert.Equal(t, []Bucket{
		{Status: "paid", Count: 2, Variant: VariantSuccess},
		{Status: "overdue", Count: 1, Variant: VariantError},
		{Status: "draft", Count: 1, Variant: VariantNeutral},
		{Status: "disputed", Count: 1, Variant: VariantNeutral},
	}, got)
}

func TestGroupByStatus_Empty(t *testing.T) {
	assert.Empty(t, GroupByStatus(nil, statusOf, nil, "draft"))
	assert.Equal(t, 0, Total(nil))
}

func TestGroupByStatus_IdempotentAndComplete(t *testing.T) {
	statuses := []string{"unbooked", "booked", "ignored", "", "pending"}
	var items []item
	for i := 0; i < 97; i++ {
		items = append(items, item{status: statuses[(i*7)%len(statuses)]})
	}
	snapshot := append([]item(nil), items...)

	first := GroupByStatus(items, statusOf, TransactionVariants, "unbooked")
	second := GroupByStatus(items, statusOf, TransactionVariants, "unbooked")

	require.Equal(t, first, second)
	assert.Equal(t, len(items), Total(first))
	assert.Equal(t, snapshot, items)
}
