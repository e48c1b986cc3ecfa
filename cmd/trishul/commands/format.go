package commands

import (
	"fmt"
	"strconv"
	"strings"
)

// formatNumber renders a rupee amount with thousands separators.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	parts := strings.SplitN(s, ".", 2)

	intPart := parts[0]
	negative := strings.HasPrefix(intPart, "-")
	if negative {
		intPart = intPart[1:]
	}

	var sb strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}

	out := sb.String() + "." + parts[1]
	if negative {
		out = "-" + out
	}
	return out
}

// printSeparator prints a horizontal rule of the given width.
func printSeparator(width int) {
	fmt.Println(strings.Repeat("─", width))
}
