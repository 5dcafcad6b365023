package models

import (
	"strconv"
	"strings"
)

// FormatCost renders an amount the way the dashboard shows it: "1 500 000 FCFA".
func FormatCost(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	s := b.String() + " FCFA"
	if neg {
		return "-" + s
	}
	return s
}
