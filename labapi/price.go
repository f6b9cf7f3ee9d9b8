package labapi

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"environovalab/oops"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Price is an amount in cents. The API sends decimals as strings ("12.50") and sometimes as numbers.
type Price int64

var ErrInvalidPrice = oops.New("invalid price")

// ParsePrice accepts "12", "12.5", "12.50" and the comma form "12,50". Extra decimals are rounded
// half up.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidPrice
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidPrice
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return 0, ErrInvalidPrice
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	fracPart += "000"
	cents, _ := strconv.ParseInt(fracPart[:2], 10, 64)
	if fracPart[2] >= '5' {
		cents++
	}

	result := whole*100 + cents
	if negative {
		result = -result
	}
	return Price(result), nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (p Price) String() string {
	sign := ""
	value := int64(p)
	if value < 0 {
		sign = "-"
		value = -value
	}
	return fmt.Sprintf("%s%d.%02d", sign, value/100, value%100)
}

func (p Price) IsPositive() bool {
	return p > 0
}

func (p Price) Times(quantity int) Price {
	return p * Price(quantity)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return oops.Wrapf(err, "price %s", text)
		}
		text = unquoted
	}
	parsed, err := ParsePrice(text)
	if err != nil {
		return oops.Wrapf(err, "price %s", text)
	}
	*p = parsed
	return nil
}

var pricePrinter = message.NewPrinter(language.Spanish)

// Display formats for the pages, with the locale's separators
func (p Price) Display() string {
	return pricePrinter.Sprintf("$%.2f", float64(p)/100)
}
