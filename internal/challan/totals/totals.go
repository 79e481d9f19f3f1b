// Package totals turns priced lines into a rounded, taxable challan total.
// All arithmetic is decimal; intermediates round half-up to 2 places.
package totals

import (
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/shopspring/decimal"
)

var (
	DefaultGSTRate = decimal.RequireFromString("0.05")

	hundred = decimal.NewFromInt(100)
)

type Line struct {
	Rate           decimal.Decimal
	AssemblyCharge decimal.Decimal
	Quantity       int
}

type Options struct {
	PackagingChargesOverall decimal.Decimal
	DiscountPct             decimal.Decimal
	TaxType                 model.TaxType
	// GSTRate overrides DefaultGSTRate for GST challans when set. Zero is a valid rate.
	GSTRate *decimal.Decimal
}

func Compute(lines []Line, opts Options) model.Totals {
	items := decimal.Zero
	assembly := decimal.Zero
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		items = items.Add(l.Rate.Mul(qty))
		assembly = assembly.Add(l.AssemblyCharge.Mul(qty))
	}
	items = round2(items)
	assembly = round2(assembly)

	packaging := round2(opts.PackagingChargesOverall)
	pre := round2(items.Add(assembly).Add(packaging))

	pct := ClampDiscount(opts.DiscountPct)
	discount := round2(pre.Mul(pct).Div(hundred))
	taxable := round2(pre.Sub(discount))

	rate := decimal.Zero
	if opts.TaxType != model.TaxTypeNonGST {
		rate = DefaultGSTRate
		if opts.GSTRate != nil {
			rate = *opts.GSTRate
		}
	}
	gst := round2(taxable.Mul(rate))

	beforeRound := round2(taxable.Add(gst))
	grand := beforeRound.Round(0)

	return model.Totals{
		ItemsSubtotal:           items,
		AssemblyTotal:           assembly,
		PackagingChargesOverall: packaging,
		PreDiscountSubtotal:     pre,
		DiscountPct:             pct,
		DiscountAmount:          discount,
		TaxableSubtotal:         taxable,
		GSTRate:                 rate,
		GSTAmount:               gst,
		TotalBeforeRound:        beforeRound,
		GrandTotal:              grand,
		RoundOff:                round2(grand.Sub(beforeRound)),
	}
}

// ClampDiscount bounds a percentage to [0, 100].
func ClampDiscount(pct decimal.Decimal) decimal.Decimal {
	if pct.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
