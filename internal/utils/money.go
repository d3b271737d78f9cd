package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Money represents a monetary value in the smallest currency unit (cents).
// Premiums, claim amounts and instalments are all stored this way so that
// arithmetic stays exact.
type Money int64

// Currency represents a currency with its formatting rules
type Currency struct {
	Code          string // ISO 4217 code (e.g., "KES")
	Symbol        string // Display symbol (e.g., "KSh")
	SymbolFirst   bool   // True if symbol comes before amount
	DecimalPlaces int    // Usually 2, but 0 for UGX, RWF, etc.
	ThousandsSep  string // Thousands separator
	DecimalSep    string // Decimal separator
}

// Currencies the assistant quotes amounts in
var currencies = map[string]Currency{
	"KES": {Code: "KES", Symbol: "KES ", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"UGX": {Code: "UGX", Symbol: "UGX ", SymbolFirst: true, DecimalPlaces: 0, ThousandsSep: ",", DecimalSep: "."},
	"TZS": {Code: "TZS", Symbol: "TSh ", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"RWF": {Code: "RWF", Symbol: "RF ", SymbolFirst: true, DecimalPlaces: 0, ThousandsSep: ",", DecimalSep: "."},
	"USD": {Code: "USD", Symbol: "$", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"EUR": {Code: "EUR", Symbol: "€", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ".", DecimalSep: ","},
	"GBP": {Code: "GBP", Symbol: "£", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"ZAR": {Code: "ZAR", Symbol: "R", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: " ", DecimalSep: ","},
	"NGN": {Code: "NGN", Symbol: "₦", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"GHS": {Code: "GHS", Symbol: "₵", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
}

// defaultCurrency is used when a currency code is not found
var defaultCurrency = currencies["KES"]

// String returns a simple string representation (e.g., "123.45")
func (m Money) String() string {
	negative := m < 0
	if negative {
		m = -m
	}
	result := fmt.Sprintf("%d.%02d", int64(m)/100, int64(m)%100)
	if negative {
		result = "-" + result
	}
	return result
}

// Format formats the money value with the given currency.
// Values are always held in hundredths; zero-decimal currencies drop the fraction.
func (m Money) Format(currencyCode string) string {
	currency := lookupCurrency(currencyCode)

	negative := m < 0
	if negative {
		m = -m
	}

	whole := int64(m) / 100
	frac := int64(m) % 100

	result := formatWithSeparator(whole, currency.ThousandsSep)
	if currency.DecimalPlaces > 0 {
		result += currency.DecimalSep + fmt.Sprintf("%02d", frac)
	}

	if currency.SymbolFirst {
		result = currency.Symbol + result
	} else {
		result = result + " " + currency.Symbol
	}

	if negative {
		result = "-" + result
	}
	return result
}

// formatWithSeparator adds thousands separators to a number
func formatWithSeparator(n int64, sep string) string {
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 || sep == "" {
		return str
	}

	var result strings.Builder
	startOffset := len(str) % 3
	if startOffset == 0 {
		startOffset = 3
	}

	result.WriteString(str[:startOffset])
	for i := startOffset; i < len(str); i += 3 {
		result.WriteString(sep)
		result.WriteString(str[i : i+3])
	}

	return result.String()
}

// lookupCurrency returns the currency configuration for a code, or the default if not found
func lookupCurrency(code string) Currency {
	if c, ok := currencies[strings.ToUpper(code)]; ok {
		return c
	}
	return defaultCurrency
}
