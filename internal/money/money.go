// Package money tags decimal amounts with an ISO 4217 currency and formats
// them for display.
package money

import (
	"encoding/json"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is an exact amount in a single currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// New returns amount tagged with currency (upper-cased).
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}
}

// Zero returns a zero amount in currency.
func Zero(currency string) Money {
	return New(decimal.Zero, currency)
}

// KnownCurrency reports whether code is an ISO currency go-money knows about.
func KnownCurrency(code string) bool {
	return gomoney.GetCurrency(strings.ToUpper(code)) != nil
}

// Fraction returns the number of minor-unit digits for code, 2 when unknown.
func Fraction(code string) int {
	if c := gomoney.GetCurrency(strings.ToUpper(code)); c != nil {
		return c.Fraction
	}
	return 2
}

// MinorUnits converts the amount to an integer count of minor units,
// truncating anything below the currency's precision.
func (m Money) MinorUnits() int64 {
	return m.Amount.Shift(int32(Fraction(m.Currency))).Truncate(0).IntPart()
}

// Format renders the amount with the currency's symbol and separators.
func (m Money) Format() string {
	return FormatMinor(m.MinorUnits(), m.Currency)
}

func (m Money) String() string {
	return m.Format()
}

// FormatMinor renders minor units of code, e.g. (-35000, "PLN") -> "-350,00 zł".
func FormatMinor(minor int64, code string) string {
	code = strings.ToUpper(code)
	if gomoney.GetCurrency(code) == nil {
		return decimal.New(minor, -2).StringFixed(2) + " " + code
	}
	return gomoney.New(minor, code).Display()
}

type jsonMoney struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

// MarshalJSON writes the amount as a fixed-point string so no precision is lost.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMoney{
		Amount:    m.Amount.StringFixed(int32(Fraction(m.Currency))),
		Currency:  m.Currency,
		Formatted: m.Format(),
	})
}
