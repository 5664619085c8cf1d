package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vbonduro/nutriscan/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatAmount renders a nutrient amount, or "n/a" when it is unknown.
func formatAmount(n domain.Nutrient) string {
	if n.Amount == nil {
		return "n/a"
	}
	return strings.TrimSpace(fmt.Sprintf("%g %s", *n.Amount, n.Unit))
}

func printNutrients(w io.Writer, nutrients []domain.Nutrient) {
	if len(nutrients) == 0 {
		fmt.Fprintln(w, "  (no essential nutrients reported)")
		return
	}
	for _, n := range nutrients {
		fmt.Fprintf(w, "  %-32s %s\n", n.Name, formatAmount(n))
	}
}
