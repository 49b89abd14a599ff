package payment

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Amount is a THB payment amount held in satang to keep two-decimal
// precision exact.
type Amount int64

// Randomized amounts sit on a 5 THB base price. The satang fraction is
// drawn fresh per payment attempt so every expected amount is unique
// enough to defeat slip replay.
const (
	amountMin Amount = 501
	amountMax Amount = 599
)

// RandomAmount returns 5 THB plus a uniformly random 1..99 satang fraction.
func RandomAmount() Amount {
	n, err := rand.Int(rand.Reader, big.NewInt(99))
	if err != nil {
		// crypto/rand only fails when the platform source is broken;
		// the range invariant still must hold.
		return amountMin
	}
	return Amount(500 + 1 + n.Int64())
}

// Valid reports whether the amount is inside the randomized range.
func (a Amount) Valid() bool {
	return a >= amountMin && a <= amountMax
}

// Baht returns the amount in THB.
func (a Amount) Baht() float64 {
	return float64(a) / 100
}

// String formats the amount with two decimals, e.g. "5.37".
func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", a/100, a%100)
}
