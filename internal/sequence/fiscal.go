package sequence

import (
	"fmt"
	"time"
)

// ComputeFinancialYear labels the April to March year containing t, e.g. "25-26".
// t is read in its own location; convert it first when the business zone differs.
func ComputeFinancialYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%02d-%02d", start%100, (start+1)%100)
}

// FormatDocumentNumber pads the sequence to at least three digits.
func FormatDocumentNumber(prefix, financialYear string, seq int) string {
	return fmt.Sprintf("%s/%s/%03d", prefix, financialYear, seq)
}
