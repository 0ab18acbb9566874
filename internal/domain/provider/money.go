package provider

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies without a minor unit, as listed by the provider
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

func exponent(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return 0
	}
	return 2
}

// ToMajorUnits converts a provider amount (cents) to a decimal in major units
func ToMajorUnits(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -exponent(currency))
}

// ToMinorUnits converts a major-unit amount to the provider's integer amount
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(exponent(currency)).Round(0).IntPart()
}
