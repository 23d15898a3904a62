package helper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var quoteNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func in(days int) *time.Time {
	t := quoteNow.Add(time.Duration(days) * 24 * time.Hour)
	return &t
}

func money(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

func TestQuoteEssayScenario(t *testing.T) {
	table := DefaultPriceTable(0.06)
	q := table.Quote(PriceInput{
		ServiceType:   "writing",
		DocumentType:  "essay",
		AcademicLevel: "university",
		Pages:         3,
		Deadline:      in(2),
		PaymentOption: "full",
	}, quoteNow).Rounded()

	money(t, "60.00", q.Subtotal)
	assert.False(t, q.LongDeadline)
	money(t, "60.00", q.Total)
	money(t, "60.00", q.AmountDue)
	money(t, "63.60", q.CheckoutAmount)
}

func TestQuoteHalfPayment(t *testing.T) {
	table := DefaultPriceTable(0.06)
	q := table.Quote(PriceInput{
		ServiceType:   "writing",
		DocumentType:  "essay",
		AcademicLevel: "university",
		Pages:         3,
		Deadline:      in(2),
		PaymentOption: "half",
	}, quoteNow).Rounded()

	money(t, "60.00", q.Total)
	money(t, "30.00", q.AmountDue)
	money(t, "31.80", q.CheckoutAmount)
}

func TestQuoteSubtotalIsRateTimesPages(t *testing.T) {
	table := DefaultPriceTable(0.06)
	services := []string{"writing", "editing", "calculations"}
	docs := []string{"essay", "dissertation", "thesis", "math-problems", "report"}
	levels := []string{"college", "university", "masters", "phd"}

	for _, s := range services {
		for _, doc := range docs {
			for _, lvl := range levels {
				rate := table.ServiceRates[s].
					Add(table.DocumentSurcharges[doc]).
					Add(table.LevelAdjustments[lvl])
				for _, pages := range []int{1, 2, 7, 40} {
					q := table.Quote(PriceInput{
						ServiceType:   s,
						DocumentType:  doc,
						AcademicLevel: lvl,
						Pages:         pages,
						Deadline:      in(3),
					}, quoteNow)
					assert.True(t, rate.Mul(decimal.NewFromInt(int64(pages))).Equal(q.Subtotal),
						"%s/%s/%s/%d", s, doc, lvl, pages)
				}
			}
		}
	}
}

func TestQuoteDiscountsAndSurcharges(t *testing.T) {
	table := DefaultPriceTable(0.06)
	base := func(p PriceInput) decimal.Decimal {
		p.Pages = 1
		p.Deadline = in(1)
		return table.Quote(p, quoteNow).RatePerPage
	}
	writing := base(PriceInput{ServiceType: "writing", DocumentType: "essay"})

	assert.True(t, base(PriceInput{ServiceType: "editing"}).LessThan(writing))
	assert.True(t, base(PriceInput{ServiceType: "calculations"}).LessThan(writing))
	assert.True(t, base(PriceInput{ServiceType: "writing", DocumentType: "Dissertation"}).GreaterThan(writing))
	assert.True(t, base(PriceInput{ServiceType: "writing", DocumentType: "math_problems"}).GreaterThan(writing))
	assert.True(t, base(PriceInput{ServiceType: "writing", AcademicLevel: "College"}).LessThan(writing))
	assert.True(t, base(PriceInput{ServiceType: "writing", AcademicLevel: "PhD"}).GreaterThan(writing))
	assert.True(t, base(PriceInput{ServiceType: "writing", AcademicLevel: "Master's"}).GreaterThan(writing))
}

func TestQuoteLongDeadlineIgnoresPages(t *testing.T) {
	table := DefaultPriceTable(0.06)
	for _, pages := range []int{1, 5, 120} {
		q := table.Quote(PriceInput{
			ServiceType:   "writing",
			DocumentType:  "essay",
			AcademicLevel: "university",
			Pages:         pages,
			Deadline:      in(8),
		}, quoteNow)
		assert.True(t, q.LongDeadline)
		money(t, "19.08", q.Subtotal)
		money(t, "19.08", q.Total)
	}

	edge := quoteNow.Add(LongDeadline)
	q := table.Quote(PriceInput{ServiceType: "writing", Pages: 2, Deadline: &edge}, quoteNow)
	assert.False(t, q.LongDeadline, "exactly seven days is not more than seven days")
}

func TestQuoteAddOnsAndSpacing(t *testing.T) {
	table := DefaultPriceTable(0.06)
	q := table.Quote(PriceInput{
		ServiceType:      "writing",
		DocumentType:     "essay",
		AcademicLevel:    "university",
		Pages:            1,
		Deadline:         in(2),
		WriterCategory:   "premium",
		Sources:          2,
		Slides:           1,
		Charts:           1,
		Tip:              decimal.NewFromInt(5),
		PlagiarismReport: true,
		Spacing:          "single",
	}, quoteNow).Rounded()

	// 20 + 5 tip + 9.99 report + 2 sources + 5 slide + 3 chart + 10 premium
	money(t, "34.99", q.AddOns)
	money(t, "109.98", q.Total)
	money(t, "116.58", q.CheckoutAmount)
}

func TestQuoteNeverFailsOnMissingInput(t *testing.T) {
	table := DefaultPriceTable(0.06)
	q := table.Quote(PriceInput{
		ServiceType: "unknown",
		Pages:       -4,
		Sources:     -1,
		Tip:         decimal.NewFromInt(-10),
	}, quoteNow)

	assert.True(t, q.Total.IsZero())
	assert.True(t, q.CheckoutAmount.IsZero())
}

func TestQuoteRoundsOnlyAtTheEnd(t *testing.T) {
	table := DefaultPriceTable(0.06)
	q := table.Quote(PriceInput{
		ServiceType:   "writing",
		Pages:         1,
		Deadline:      in(1),
		Tip:           decimal.RequireFromString("0.015"),
		PaymentOption: "half",
	}, quoteNow)

	// (20.015 / 2) * 1.06 = 10.60795
	assert.Equal(t, "10.60795", q.CheckoutAmount.String())
	money(t, "10.61", q.Rounded().CheckoutAmount)
}
