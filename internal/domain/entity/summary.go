package entity

import "github.com/shopspring/decimal"

type SummaryLine struct {
	Product  Product         `json:"product"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Summary struct {
	Lines    []SummaryLine   `json:"lines"`
	Total    decimal.Decimal `json:"total"`
	Products int             `json:"products"`
}

// Summarize prices every line as price x amount. Sums are exact to the cent.
func Summarize(c Cart) Summary {
	s := Summary{
		Lines:    make([]SummaryLine, 0, len(c)),
		Total:    decimal.Zero,
		Products: len(c),
	}
	for _, p := range c {
		subtotal := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(p.Amount))).Round(2)
		s.Lines = append(s.Lines, SummaryLine{Product: p, Subtotal: subtotal})
		s.Total = s.Total.Add(subtotal)
	}
	return s
}
