package models

import "fmt"

// Money is a fixed-point amount in cents (scale 2)
type Money int64

// Cents builds a Money value from whole dollars and cents
func Cents(dollars, cents int64) Money {
	return Money(dollars*100 + cents)
}

// Times multiplies a unit price by a quantity
func (m Money) Times(qty int) Money {
	return m * Money(qty)
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}
