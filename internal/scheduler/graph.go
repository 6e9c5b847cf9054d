package scheduler

import (
	"fmt"

	"adhypo/domain/core"
	"adhypo/domain/plan"
)

// ValidateGraph rejects graphs that can never run to completion: empty
// plans, duplicate ids, unknown roles, dangling dependencies and cycles.
func ValidateGraph(tasks []plan.Task) error {
	if len(tasks) == 0 {
		return core.ErrEmptyPlan
	}

	ids := make(map[core.TaskID]bool, len(tasks))
	for _, t := range tasks {
		if ids[t.ID] {
			return fmt.Errorf("%w: %s", core.ErrDuplicateTask, t.ID)
		}
		ids[t.ID] = true
		if !t.Role.Valid() {
			return fmt.Errorf("%w: task %s has role %q", core.ErrUnknownRole, t.ID, t.Role)
		}
	}

	adj := make(map[core.TaskID][]core.TaskID, len(tasks))
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if !ids[dep] {
				return fmt.Errorf("%w: task %s depends on %s", core.ErrUnknownDependency, t.ID, dep)
			}
			adj[t.ID] = append(adj[t.ID], dep)
		}
	}
	return detectCycles(tasks, adj)
}

// detectCycles runs a DFS over dependency edges in declaration order so the
// reported cycle is stable.
func detectCycles(tasks []plan.Task, adj map[core.TaskID][]core.TaskID) error {
	visited := make(map[core.TaskID]bool)
	onStack := make(map[core.TaskID]bool)
	path := make([]core.TaskID, 0, len(tasks))

	var dfs func(id core.TaskID) error
	dfs = func(id core.TaskID) error {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, dep := range adj[id] {
			if !visited[dep] {
				if err := dfs(dep); err != nil {
					return err
				}
			} else if onStack[dep] {
				start := 0
				for i, n := range path {
					if n == dep {
						start = i
						break
					}
				}
				cycle := append(append([]core.TaskID{}, path[start:]...), dep)
				return core.NewCycleError(cycle)
			}
		}

		path = path[:len(path)-1]
		onStack[id] = false
		return nil
	}

	for _, t := range tasks {
		if !visited[t.ID] {
			if err := dfs(t.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
