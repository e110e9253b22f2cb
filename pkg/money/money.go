package money

import (
	"math"
	"strings"
)

// decimalDigits maps ISO 4217 currency codes to the number of decimal digits
// in their standard representation. Currencies not listed use two digits.
var decimalDigits = map[string]int{
	"BIF": 0,
	"CLP": 0,
	"DJF": 0,
	"GNF": 0,
	"ISK": 0,
	"JPY": 0,
	"KMF": 0,
	"KRW": 0,
	"PYG": 0,
	"RWF": 0,
	"UGX": 0,
	"VND": 0,
	"VUV": 0,
	"XAF": 0,
	"XOF": 0,
	"XPF": 0,
	"BHD": 3,
	"IQD": 3,
	"JOD": 3,
	"KWD": 3,
	"LYD": 3,
	"OMR": 3,
	"TND": 3,
}

// DecimalDigits returns the number of decimal digits for the given ISO 4217
// currency code. Unknown currencies default to 2.
func DecimalDigits(currency string) int {
	if d, ok := decimalDigits[strings.ToUpper(currency)]; ok {
		return d
	}
	return 2
}

// ToMinorUnits converts a decimal currency amount to integer minor units
// (e.g. 10.00 USD -> 1000) using half-away-from-zero rounding.
func ToMinorUnits(amount float64, currency string) int64 {
	return int64(math.Round(amount * math.Pow10(DecimalDigits(currency))))
}

// FromMinorUnits converts integer minor units back to a decimal currency
// amount (e.g. 1000 USD minor units -> 10.00).
func FromMinorUnits(units int64, currency string) float64 {
	return float64(units) / math.Pow10(DecimalDigits(currency))
}
