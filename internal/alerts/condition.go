package alerts

import (
	"math"
	"strconv"
	"strings"

	"stable_dashboard/internal/models"
)

// parseNumber accepts a finite decimal or exponent float after trimming
// surrounding whitespace. Empty strings, NaN and infinities are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// IsNumeric reports whether s would be compared numerically.
func IsNumeric(s string) bool {
	_, ok := parseNumber(s)
	return ok
}

// EvaluateCondition compares an entity state against a threshold. When both
// sides are numbers the comparison is numeric. Otherwise only equals and
// not_equals apply, as exact string comparisons; above and below are false.
// Parsing is strict: a numeric prefix such as "80abc" and "Infinity" are not
// numbers here, so they only match equals/not_equals by string.
func EvaluateCondition(cond models.AlertCondition, state, threshold string) bool {
	sv, sok := parseNumber(state)
	tv, tok := parseNumber(threshold)
	if sok && tok {
		switch cond {
		case models.ConditionAbove:
			return sv > tv
		case models.ConditionBelow:
			return sv < tv
		case models.ConditionEquals:
			return sv == tv
		case models.ConditionNotEquals:
			return sv != tv
		}
		return false
	}

	switch cond {
	case models.ConditionEquals:
		return state == threshold
	case models.ConditionNotEquals:
		return state != threshold
	}
	return false
}
