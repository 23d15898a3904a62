package helper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LongDeadline is how far out a deadline must be before the flat
// long-deadline subtotal replaces the per-page computation.
const LongDeadline = 7 * 24 * time.Hour

type PriceInput struct {
	ServiceType      string
	DocumentType     string
	AcademicLevel    string
	Pages            int
	Deadline         *time.Time
	WriterCategory   string
	Spacing          string
	Sources          int
	Slides           int
	Charts           int
	Tip              decimal.Decimal
	PlagiarismReport bool
	PaymentOption    string
}

type PriceQuote struct {
	RatePerPage    decimal.Decimal `json:"ratePerPage"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	LongDeadline   bool            `json:"longDeadline"`
	AddOns         decimal.Decimal `json:"addOns"`
	Total          decimal.Decimal `json:"total"`
	AmountDue      decimal.Decimal `json:"amountDue"`
	ProcessingFee  decimal.Decimal `json:"processingFee"`
	CheckoutAmount decimal.Decimal `json:"checkoutAmount"`
}

// PriceTable holds every rate the engine reads. Keys are normalized with
// normalizeOption.
type PriceTable struct {
	ServiceRates       map[string]decimal.Decimal
	DocumentSurcharges map[string]decimal.Decimal
	LevelAdjustments   map[string]decimal.Decimal
	CategorySurcharges map[string]decimal.Decimal
	LongDeadlineRate   decimal.Decimal
	PlagiarismFee      decimal.Decimal
	SourceFee          decimal.Decimal
	SlideFee           decimal.Decimal
	ChartFee           decimal.Decimal
	ProcessingFeeRate  decimal.Decimal
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func DefaultPriceTable(processingFeeRate float64) PriceTable {
	return PriceTable{
		ServiceRates: map[string]decimal.Decimal{
			"writing":      dec("20.00"),
			"editing":      dec("10.00"),
			"calculations": dec("15.00"),
		},
		DocumentSurcharges: map[string]decimal.Decimal{
			"dissertation":  dec("8.00"),
			"thesis":        dec("6.00"),
			"math-problems": dec("5.00"),
		},
		LevelAdjustments: map[string]decimal.Decimal{
			"college": dec("-2.00"),
			"masters": dec("4.00"),
			"phd":     dec("7.00"),
		},
		CategorySurcharges: map[string]decimal.Decimal{
			"standard": decimal.Zero,
			"advanced": dec("5.00"),
			"premium":  dec("10.00"),
		},
		LongDeadlineRate:  dec("19.08"),
		PlagiarismFee:     dec("9.99"),
		SourceFee:         dec("1.00"),
		SlideFee:          dec("5.00"),
		ChartFee:          dec("3.00"),
		ProcessingFeeRate: decimal.NewFromFloat(processingFeeRate),
	}
}

// Quote never fails: unknown options contribute no adjustment and negative
// counts or tips are treated as zero. Values are not rounded; call Rounded
// before display or persistence.
func (t PriceTable) Quote(in PriceInput, now time.Time) PriceQuote {
	var q PriceQuote

	rate := t.ServiceRates[normalizeOption(in.ServiceType)]
	rate = rate.Add(t.DocumentSurcharges[normalizeOption(in.DocumentType)])
	rate = rate.Add(t.LevelAdjustments[normalizeOption(in.AcademicLevel)])
	if rate.IsNegative() {
		rate = decimal.Zero
	}
	q.RatePerPage = rate

	q.Subtotal = rate.Mul(decimal.NewFromInt(int64(nonNegative(in.Pages))))
	if in.Deadline != nil && in.Deadline.Sub(now) > LongDeadline {
		q.Subtotal = t.LongDeadlineRate
		q.LongDeadline = true
	}

	addOns := decimal.Zero
	if in.Tip.IsPositive() {
		addOns = addOns.Add(in.Tip)
	}
	if in.PlagiarismReport {
		addOns = addOns.Add(t.PlagiarismFee)
	}
	addOns = addOns.Add(t.SourceFee.Mul(decimal.NewFromInt(int64(nonNegative(in.Sources)))))
	addOns = addOns.Add(t.SlideFee.Mul(decimal.NewFromInt(int64(nonNegative(in.Slides)))))
	addOns = addOns.Add(t.ChartFee.Mul(decimal.NewFromInt(int64(nonNegative(in.Charts)))))
	addOns = addOns.Add(t.CategorySurcharges[normalizeOption(in.WriterCategory)])
	q.AddOns = addOns

	total := q.Subtotal.Add(addOns)
	if normalizeOption(in.Spacing) == "single" {
		total = total.Mul(decimal.NewFromInt(2))
	}
	q.Total = total

	q.AmountDue = total
	if normalizeOption(in.PaymentOption) == "half" {
		q.AmountDue = total.Div(decimal.NewFromInt(2))
	}

	q.ProcessingFee = q.AmountDue.Mul(t.ProcessingFeeRate)
	q.CheckoutAmount = q.AmountDue.Add(q.ProcessingFee)
	return q
}

func (q PriceQuote) Rounded() PriceQuote {
	return PriceQuote{
		RatePerPage:    q.RatePerPage.Round(2),
		Subtotal:       q.Subtotal.Round(2),
		LongDeadline:   q.LongDeadline,
		AddOns:         q.AddOns.Round(2),
		Total:          q.Total.Round(2),
		AmountDue:      q.AmountDue.Round(2),
		ProcessingFee:  q.ProcessingFee.Round(2),
		CheckoutAmount: q.CheckoutAmount.Round(2),
	}
}

// normalizeOption folds case and separators so "Math Problems",
// "math_problems" and "math-problems" hit the same key.
func normalizeOption(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.NewReplacer("_", "-", " ", "-", "'", "", ".", "").Replace(v)
	switch v {
	case "master", "masters-degree":
		return "masters"
	case "doctorate", "doctoral":
		return "phd"
	}
	return v
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
