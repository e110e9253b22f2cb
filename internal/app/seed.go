package app

import (
	"github.com/google/uuid"

	"github.com/karolberezicki/ActualFoundation/internal/catalog"
	"github.com/karolberezicki/ActualFoundation/internal/pricing"
	"github.com/karolberezicki/ActualFoundation/internal/shipping"
)

// Demo storefront data backing the static catalog, price book and shipping
// methods. A real deployment would replace these with live commerce
// integrations behind the same interfaces.

var (
	standardShippingID = uuid.MustParse("7b1e9a40-3c52-4f8e-9d16-45a0c2b8e101")
	expressShippingID  = uuid.MustParse("c4d8f2a1-6e97-4b3d-8a25-91f7d3c5e202")
)

func demoCatalog() []catalog.Content {
	return []catalog.Content{
		{Code: "SKU-TSHIRT-M", DisplayName: "Classic T-Shirt (M)"},
		{Code: "SKU-TSHIRT-L", DisplayName: "Classic T-Shirt (L)"},
		{Code: "SKU-HOODIE-M", DisplayName: "Zip Hoodie (M)"},
		{Code: "SKU-CAP", DisplayName: "Logo Cap"},
		{Code: "SKU-MUG", DisplayName: "Ceramic Mug"},
		{Code: "SKU-TOTE", DisplayName: "Canvas Tote Bag"},
	}
}

func demoPrices(marketID, currency string) []pricing.Price {
	return []pricing.Price{
		{Code: "SKU-TSHIRT-M", MarketID: marketID, Currency: currency, Amount: 24.99},
		{Code: "SKU-TSHIRT-L", MarketID: marketID, Currency: currency, Amount: 24.99},
		{Code: "SKU-HOODIE-M", MarketID: marketID, Currency: currency, Amount: 59.00},
		{Code: "SKU-CAP", MarketID: marketID, Currency: currency, Amount: 19.50},
		{Code: "SKU-MUG", MarketID: marketID, Currency: currency, Amount: 12.00},
		{Code: "SKU-TOTE", MarketID: marketID, Currency: currency, Amount: 14.75},
	}
}

func demoShippingMethods(marketID string) []shipping.Method {
	return []shipping.Method{
		{ID: standardShippingID, Name: "Standard Shipping", MarketID: marketID, BaseRate: 4.99},
		{ID: expressShippingID, Name: "Express Shipping", MarketID: marketID, BaseRate: 14.99},
	}
}
