package services

import (
	"strings"

	"github.com/charlesng35/caseintake/internal/models"
)

// normaliseVisas trims, drops empty and unknown categories and removes
// duplicates while keeping order.
func normaliseVisas(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if !models.IsVisaCategory(value) {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// likeEscape marks literal % and _ in search terms.
const likeEscape = "!"

func escapeLike(value string) string {
	replacer := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return replacer.Replace(value)
}
