package clix

import (
	"fmt"

	"github.com/spf13/pflag"

	"clipseek/internal/models"
)

// ParseLimit reads the --limit flag, falling back to def when unset or
// non-positive.
func ParseLimit(flags *pflag.FlagSet, def int) int {
	limit, _ := flags.GetInt("limit")
	if limit <= 0 {
		return def
	}
	return limit
}

// ParseThreshold reads the --threshold flag and validates it against the
// known confidence tiers. Empty means "use the configured default".
func ParseThreshold(flags *pflag.FlagSet) (models.ConfidenceTier, error) {
	raw, _ := flags.GetString("threshold")
	if raw == "" {
		return "", nil
	}
	tier := models.NormalizeConfidence(raw)
	if tier == models.ConfidenceNone {
		return "", fmt.Errorf("invalid threshold %q: expected high, medium, or low", raw)
	}
	return tier, nil
}
