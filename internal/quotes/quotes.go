// Package quotes defines the contract of the quote totals calculator.
// The pipeline engine only consumes this interface; quote arithmetic lives in
// a separate context.
package quotes

// LineItem is one priced row of a quote.
type LineItem struct {
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Totals is the computed money summary of a quote.
type Totals struct {
	// CategorySubtotals maps category name to the sum of its line amounts.
	CategorySubtotals map[string]float64 `json:"categorySubtotals"`
	// Subtotal is the sum of all line amounts before tax.
	Subtotal float64 `json:"subtotal"`
	// Tax is Subtotal multiplied by the tax percentage.
	Tax float64 `json:"tax"`
	// GrandTotal is Subtotal plus Tax.
	GrandTotal float64 `json:"grandTotal"`
}

// Calculator computes quote totals. Implementations are provided by the
// quoting context.
type Calculator interface {
	CalculateTotals(items []LineItem, taxPercent float64) Totals
}
