package research

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/model"
)

var nonDigits = regexp.MustCompile(`[^\d]`)

// fallbackEmployeeCount is the only fallback value; every parse failure and
// out-of-range result maps to it.
const fallbackEmployeeCount = 1

// ParseEmployeeCount turns a free-form LLM answer into a validated employee
// count. Expected shapes are "182502 (2023)" or "1200"; anything before a
// parenthetical is kept, non-digit characters are stripped, and the result
// must land in [1, 10_000_000]. Always returns an in-range integer.
func ParseEmployeeCount(raw, company string) int {
	head := raw
	if idx := strings.Index(raw, "("); idx >= 0 {
		head = raw[:idx]
	}
	digits := nonDigits.ReplaceAllString(strings.TrimSpace(head), "")

	if digits == "" {
		zap.L().Warn("research: no digits in employee count answer",
			zap.String("company", company),
			zap.String("raw", raw),
		)
		return fallbackEmployeeCount
	}

	count, err := strconv.Atoi(digits)
	if err != nil {
		zap.L().Warn("research: employee count parse failed",
			zap.String("company", company),
			zap.String("raw", raw),
			zap.Error(err),
		)
		return fallbackEmployeeCount
	}

	if !model.ValidEmployeeCount(count) {
		zap.L().Warn("research: employee count outside valid range",
			zap.String("company", company),
			zap.Int("count", count),
		)
		return fallbackEmployeeCount
	}

	return count
}
