package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"adhypo/domain/core"
	"adhypo/domain/dataset"
	"adhypo/domain/plan"
)

var errNoJSON = errors.New("reply contains no JSON object")

const plannerSystemPrompt = "You are a performance marketing analyst planning a diagnostic analysis. Reply with JSON only."

func plannerPrompt(query string, info dataset.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", query)
	fmt.Fprintf(&b, "Dataset columns: %s\n", strings.Join(info.Columns, ", "))
	fmt.Fprintf(&b, "Date range: %s to %s (%d rows, %d campaigns)\n", info.DateRange.Start, info.DateRange.End, info.Rows, info.Campaigns)
	b.WriteString(`Return {"query_understanding": {"main_objective", "key_metrics", "time_period"}, ` +
		`"execution_plan": [{"task_id", "task_name", "agent", "description", "inputs", "outputs", "dependencies", "priority"}]}. ` +
		`Agents: data_agent, insight_agent, evaluator, creative_generator.`)
	return b.String()
}

// ExtractJSON returns the first JSON object in text, looking inside
// markdown code fences first.
func ExtractJSON(text string) (string, error) {
	candidates := []string{}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			candidates = append(candidates, strings.TrimSpace(rest[:j]))
		}
	}
	if i, j := strings.Index(text, "{"), strings.LastIndex(text, "}"); i >= 0 && j > i {
		candidates = append(candidates, text[i:j+1])
	}
	for _, c := range candidates {
		if gjson.Valid(c) && gjson.Parse(c).IsObject() {
			return c, nil
		}
	}
	return "", errNoJSON
}

// ParsePlan reads a model-generated plan. Agent names map onto roles; an
// unknown agent is an error so the caller can fall back.
func ParsePlan(query, reply string) (plan.Plan, error) {
	raw, err := ExtractJSON(reply)
	if err != nil {
		return plan.Plan{}, err
	}
	doc := gjson.Parse(raw)
	tasksJSON := doc.Get("execution_plan")
	if !tasksJSON.IsArray() || len(tasksJSON.Array()) == 0 {
		return plan.Plan{}, fmt.Errorf("reply has no execution_plan")
	}

	pl := plan.Plan{
		Query:      query,
		Objective:  doc.Get("query_understanding.main_objective").String(),
		KeyMetrics: stringArray(doc.Get("query_understanding.key_metrics")),
		TimePeriod: ParsePeriod(doc.Get("query_understanding.time_period").String()),
		Source:     SourceLLM,
	}
	if pl.Objective == "" {
		pl.Objective = query
	}
	if len(pl.KeyMetrics) == 0 {
		pl.KeyMetrics = KeyMetrics(query)
	}

	var parseErr error
	tasksJSON.ForEach(func(_, t gjson.Result) bool {
		agent := t.Get("agent").String()
		if agent == "" {
			agent = t.Get("role").String()
		}
		role, err := plan.ParseRole(agent)
		if err != nil {
			parseErr = err
			return false
		}
		task := plan.Task{
			ID:          core.TaskID(t.Get("task_id").String()),
			Name:        t.Get("task_name").String(),
			Role:        role,
			Description: t.Get("description").String(),
			Inputs:      stringArray(t.Get("inputs")),
			Outputs:     stringArray(t.Get("outputs")),
			Priority:    plan.Priority(strings.ToLower(t.Get("priority").String())),
		}
		for _, dep := range stringArray(t.Get("dependencies")) {
			task.Dependencies = append(task.Dependencies, core.TaskID(dep))
		}
		pl.Tasks = append(pl.Tasks, task)
		return true
	})
	if parseErr != nil {
		return plan.Plan{}, parseErr
	}
	return pl, nil
}

func stringArray(r gjson.Result) []string {
	if !r.IsArray() {
		return nil
	}
	var out []string
	for _, v := range r.Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
