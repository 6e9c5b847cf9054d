package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"adhypo/domain/plan"
)

var (
	lastDaysRe  = regexp.MustCompile(`(?:last|past)\s+(\d+)\s+days?`)
	lastWeeksRe = regexp.MustCompile(`(?:last|past)\s+(\d+)\s+weeks?`)
)

// ParsePeriod extracts a trailing analysis window from free text. Text
// without a recognizable window yields the zero period (whole dataset).
func ParsePeriod(text string) plan.Period {
	s := strings.ToLower(text)
	if m := lastDaysRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return days(n)
		}
	}
	if m := lastWeeksRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return days(7 * n)
		}
	}
	switch {
	case strings.Contains(s, "2 weeks") || strings.Contains(s, "two weeks") || strings.Contains(s, "fortnight"):
		return days(14)
	case strings.Contains(s, "week"):
		return days(7)
	case strings.Contains(s, "month"):
		return days(30)
	}
	return plan.Period{}
}

func days(n int) plan.Period {
	return plan.Period{Days: n, Label: fmt.Sprintf("last %d days", n)}
}
