// Package status groups entities by a status field into counted buckets.
package status

// Variant is a display hint for a status bucket.
type Variant string

const (
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantError   Variant = "error"
	VariantNeutral Variant = "neutral"
	VariantInfo    Variant = "info"
)

// Bucket counts the items sharing one status.
type Bucket struct {
	Status  string  `json:"status"`
	Count   int     `json:"count"`
	Variant Variant `json:"variant"`
}

// GroupByStatus counts items per status as returned by field. An empty
// status counts as defaultStatus. Buckets come out in first-seen order and
// carry the variant from variants, or VariantNeutral when unmapped.
func GroupByStatus[T any](items []T, field func(T) string, variants map[string]Variant, defaultStatus string) []Bucket {
	var buckets []Bucket
	index := make(map[string]int)
	for _, item := range items {
		s := field(item)
		if s == "" {
			s = defaultStatus
		}
		i, ok := index[s]
		if !ok {
			v, mapped := variants[s]
			if !mapped {
				v = VariantNeutral
			}
			i = len(buckets)
			index[s] = i
			buckets = append(buckets, Bucket{Status: s, Variant: v})
		}
		buckets[i].Count++
	}
	return buckets
}

// Total sums the counts of buckets.
func Total(buckets []Bucket) int {
	n := 0
	for _, b := range buckets {
		n += b.Count
	}
	return n
}

// InvoiceVariants maps invoice statuses to display variants.
var InvoiceVariants = map[string]Variant{
	"draft":    VariantNeutral,
	"sent":     VariantInfo,
	"paid":     VariantSuccess,
	"overdue":  VariantError,
	"archived": VariantNeutral,
}

// TransactionVariants maps bank transaction statuses to display variants.
var TransactionVariants = map[string]Variant{
	"unbooked": VariantWarning,
	"booked":   VariantSuccess,
	"ignored":  VariantNeutral,
}
