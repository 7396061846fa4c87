package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type Currency string

const (
	KRW Currency = "KRW"
	USD Currency = "USD"
	PHP Currency = "PHP"
)

var Currencies = []Currency{KRW, USD, PHP}

// ParseCurrency accepts any casing of a supported ISO code.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case KRW, USD, PHP:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, s)
}

// Amount is a money value in hundredths of the currency unit, matching the
// DECIMAL(19,2) columns it is stored in.
type Amount int64

// ParseAmount reads an optionally negative decimal with at most two
// fraction digits. Only the leading minus may carry a sign.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	whole, frac, _ := strings.Cut(strings.TrimPrefix(s, "-"), ".")
	if whole == "" || len(frac) > 2 || !digits(whole) || !digits(frac) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	a := Amount(w*100 + f)
	if neg {
		a = -a
	}
	return a, nil
}

func digits(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (a Amount) MarshalJSON() ([]byte, error) { return []byte(a.String()), nil }

func (a *Amount) UnmarshalJSON(b []byte) error {
	v, err := ParseAmount(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MulRate returns a*bp/10000 rounded half away from zero; bp is in
// hundredths of a percent.
func (a Amount) MulRate(bp int64) Amount {
	n := int64(a) * bp
	if n >= 0 {
		return Amount((n + 5000) / 10000)
	}
	return Amount((n - 5000) / 10000)
}
