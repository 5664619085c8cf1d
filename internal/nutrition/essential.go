package nutrition

import "github.com/vbonduro/nutriscan/internal/domain"

// EssentialNames is the fixed set of nutrients shown to users.
var EssentialNames = []string{
	"Protein",
	"Total lipid (fat)",
	"Carbohydrate, by difference",
	"Total Sugars",
	"Vitamin B-6",
	"Fiber, total dietary",
	"Sodium, Na",
	"Calcium, Ca",
	"Iron, Fe",
	"Vitamin C, total ascorbic acid",
}

var essential = func() map[string]bool {
	m := make(map[string]bool, len(EssentialNames))
	for _, name := range EssentialNames {
		m[name] = true
	}
	return m
}()

// Essential returns the nutrients whose name is in EssentialNames and whose
// amount is known, in their original order. The input is not modified.
func Essential(nutrients []domain.Nutrient) []domain.Nutrient {
	out := make([]domain.Nutrient, 0, len(EssentialNames))
	for _, n := range nutrients {
		if n.Amount != nil && essential[n.Name] {
			out = append(out, n)
		}
	}
	return out
}
