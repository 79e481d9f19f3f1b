package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeFinancialYear(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2026-03-31", "25-26"},
		{"2026-04-01", "26-27"},
		{"2025-04-01", "25-26"},
		{"2026-01-15", "25-26"},
		{"2025-12-31", "25-26"},
		{"1999-06-01", "99-00"},
		{"2100-02-01", "99-00"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := time.Parse("2006-01-02", tt.date)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ComputeFinancialYear(d))
		})
	}
}

func TestComputeFinancialYearUsesLocation(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on 31 March is already 1 April in India.
	utc := time.Date(2026, time.March, 31, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "25-26", ComputeFinancialYear(utc))
	assert.Equal(t, "26-27", ComputeFinancialYear(utc.In(kolkata)))
}

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "GST/25-26/001", FormatDocumentNumber("GST", "25-26", 1))
	assert.Equal(t, "NGST/25-26/042", FormatDocumentNumber("NGST", "25-26", 42))
	assert.Equal(t, "GST/25-26/1234", FormatDocumentNumber("GST", "25-26", 1234))
}
