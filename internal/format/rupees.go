package format

import (
	"strconv"
	"strings"
)

// Indian numbering groups. The first group holds three digits, every later one two.
var rupeeUnits = []string{"", "Thousand", "Lakh", "Crore", "Arab", "Kharab", "Neel", "Padma", "Shankh"}

// Rupees spells an amount using Indian digit grouping, e.g.
// 12345678 -> "1 Crore 23 Lakh 45 Thousand 678 Rupees".
func Rupees(amount int64) string {
	if amount == 0 {
		return "zero"
	}
	if amount < 0 {
		return Unknown
	}

	var groups []string
	for i := 0; amount > 0; i++ {
		var part int64
		switch {
		case i == 0:
			part = amount % 1000
			amount /= 1000
		case i == len(rupeeUnits)-1:
			// Everything left lands in the largest unit.
			part = amount
			amount = 0
		default:
			part = amount % 100
			amount /= 100
		}

		if part > 0 {
			groups = append(groups, strings.TrimSpace(strconv.FormatInt(part, 10)+" "+rupeeUnits[i]))
		}
	}

	for l, r := 0, len(groups)-1; l < r; l, r = l+1, r-1 {
		groups[l], groups[r] = groups[r], groups[l]
	}

	return strings.Join(groups, " ") + " Rupees"
}
