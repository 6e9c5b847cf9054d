package evaluator

import (
	"strings"

	"adhypo/domain/hypothesis"
)

type rule int

const (
	ruleNone rule = iota
	ruleCreative
	ruleAudience
	ruleROASTrend
	ruleCTR
)

func (r rule) String() string {
	switch r {
	case ruleCreative:
		return "creative"
	case ruleAudience:
		return "audience"
	case ruleROASTrend:
		return "roas_trend"
	case ruleCTR:
		return "ctr"
	}
	return "none"
}

var rules = []struct {
	keyword  string
	category hypothesis.Category
	rule     rule
}{
	{"creative", hypothesis.CategoryCreative, ruleCreative},
	{"audience", hypothesis.CategoryAudience, ruleAudience},
	{"roas", hypothesis.CategoryTrend, ruleROASTrend},
	{"ctr", hypothesis.CategoryMetric, ruleCTR},
}

// selectRule matches the hypothesis id against rule keywords first, in rule
// order, and only then falls back to the declared category.
func selectRule(h hypothesis.Hypothesis) rule {
	id := strings.ToLower(h.ID.String())
	for _, r := range rules {
		if strings.Contains(id, r.keyword) {
			return r.rule
		}
	}
	for _, r := range rules {
		if h.Category == r.category {
			return r.rule
		}
	}
	return ruleNone
}
