// Package pricing supplies unit prices for catalog items per market and
// currency.
package pricing

import "context"

// PriceService returns the unit price for an item code in major currency
// units. A missing price is not an error: ok is false and the line item is
// added unpriced.
type PriceService interface {
	GetPrice(ctx context.Context, code, marketID, currency string) (price float64, ok bool, err error)
}

// Price is one static price book entry.
type Price struct {
	Code     string
	MarketID string
	Currency string
	Amount   float64
}

// StaticPriceService serves prices from a fixed in-memory price book.
type StaticPriceService struct {
	prices map[string]float64
}

// NewStaticPriceService builds a price service from the given entries.
func NewStaticPriceService(entries []Price) *StaticPriceService {
	m := make(map[string]float64, len(entries))
	for _, e := range entries {
		m[priceKey(e.Code, e.MarketID, e.Currency)] = e.Amount
	}
	return &StaticPriceService{prices: m}
}

// GetPrice looks up the price for a code in the given market and currency.
func (s *StaticPriceService) GetPrice(_ context.Context, code, marketID, currency string) (float64, bool, error) {
	price, ok := s.prices[priceKey(code, marketID, currency)]
	return price, ok, nil
}

func priceKey(code, marketID, currency string) string {
	return code + "|" + marketID + "|" + currency
}
