package model

// Employee-count validity range shared by the fact-extraction stage and the
// curator's enrichment accounting. Both sides must agree or a fact written
// by one stage would be dropped by the other.
const (
	MinEmployeeCount = 1
	MaxEmployeeCount = 10_000_000
)

// ValidEmployeeCount reports whether n is a storable employee-count fact.
func ValidEmployeeCount(n int) bool {
	return n >= MinEmployeeCount && n <= MaxEmployeeCount
}
