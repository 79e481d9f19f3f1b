package totals

import (
	"testing"

	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestComputeWorkedExample(t *testing.T) {
	got := Compute(
		[]Line{{Rate: d("100"), AssemblyCharge: d("10"), Quantity: 5}},
		Options{PackagingChargesOverall: d("50"), DiscountPct: d("10"), TaxType: model.TaxTypeGST},
	)

	assertDecimal(t, "500", got.ItemsSubtotal, "items")
	assertDecimal(t, "50", got.AssemblyTotal, "assembly")
	assertDecimal(t, "600", got.PreDiscountSubtotal, "pre discount")
	assertDecimal(t, "60", got.DiscountAmount, "discount")
	assertDecimal(t, "540", got.TaxableSubtotal, "taxable")
	assertDecimal(t, "0.05", got.GSTRate, "gst rate")
	assertDecimal(t, "27", got.GSTAmount, "gst")
	assertDecimal(t, "567", got.TotalBeforeRound, "before round")
	assertDecimal(t, "567", got.GrandTotal, "grand")
	assertDecimal(t, "0", got.RoundOff, "round off")
}

func TestComputeRoundOff(t *testing.T) {
	tests := []struct {
		name     string
		rate     string
		grand    string
		roundOff string
	}{
		{"rounds up", "566.60", "567", "0.40"},
		{"rounds down", "566.40", "566", "-0.40"},
		{"half rounds up", "566.50", "567", "0.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute([]Line{{Rate: d(tt.rate), Quantity: 1}}, Options{TaxType: model.TaxTypeNonGST})
			assertDecimal(t, tt.rate, got.TotalBeforeRound, "before round")
			assertDecimal(t, tt.grand, got.GrandTotal, "grand")
			assertDecimal(t, tt.roundOff, got.RoundOff, "round off")
			assertDecimal(t, "0", got.GSTAmount, "gst")
		})
	}
}

func TestComputeClampsDiscount(t *testing.T) {
	lines := []Line{{Rate: d("10"), Quantity: 3}}

	over := Compute(lines, Options{DiscountPct: d("150"), TaxType: model.TaxTypeGST})
	assertDecimal(t, "100", over.DiscountPct, "pct")
	assertDecimal(t, "0", over.GrandTotal, "grand")

	under := Compute(lines, Options{DiscountPct: d("-5"), TaxType: model.TaxTypeGST})
	assertDecimal(t, "0", under.DiscountPct, "pct")
	assertDecimal(t, "31.5", under.TotalBeforeRound, "before round")
	assertDecimal(t, "32", under.GrandTotal, "grand")
}

func TestComputeAvoidsFloatDrift(t *testing.T) {
	lines := make([]Line, 10)
	for i := range lines {
		lines[i] = Line{Rate: d("0.1"), Quantity: 1}
	}
	got := Compute(lines, Options{TaxType: model.TaxTypeNonGST})
	assertDecimal(t, "1", got.ItemsSubtotal, "items")
}

func TestComputeCustomGSTRate(t *testing.T) {
	got := Compute([]Line{{Rate: d("200"), Quantity: 1}}, Options{TaxType: model.TaxTypeGST, GSTRate: rate("0.12")})
	assertDecimal(t, "24", got.GSTAmount, "gst")
	assertDecimal(t, "224", got.GrandTotal, "grand")
}

func TestComputeZeroGSTRate(t *testing.T) {
	got := Compute([]Line{{Rate: d("200"), Quantity: 1}}, Options{TaxType: model.TaxTypeGST, GSTRate: rate("0")})
	assertDecimal(t, "0", got.GSTRate, "gst rate")
	assertDecimal(t, "0", got.GSTAmount, "gst")
	assertDecimal(t, "200", got.GrandTotal, "grand")
}

func rate(s string) *decimal.Decimal {
	r := decimal.RequireFromString(s)
	return &r
}

func TestComputeEmpty(t *testing.T) {
	got := Compute(nil, Options{TaxType: model.TaxTypeGST})
	assertDecimal(t, "0", got.GrandTotal, "grand")
	assertDecimal(t, "0", got.RoundOff, "round off")
}
