package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValidateTasks checks the loaded task list for invariant violations:
// negative priority or volume, dependency indices out of range, and
// dependency cycles. It must pass before a scheduler is constructed.
func ValidateTasks(tasks []Task) error {
	for i, t := range tasks {
		if t.Priority < 0 {
			return fmt.Errorf("task %d (%s): priority must be >= 0, got %v", i, t.Description, t.Priority)
		}
		if t.Volume < 0 {
			return fmt.Errorf("task %d (%s): volume must be >= 0, got %v", i, t.Description, t.Volume)
		}
		for _, dep := range t.DependsOn {
			if dep < 0 || dep >= len(tasks) {
				return fmt.Errorf("task %d (%s): dependency index %d out of range [0, %d)", i, t.Description, dep, len(tasks))
			}
			if dep == i {
				return fmt.Errorf("task %d (%s): depends on itself", i, t.Description)
			}
		}
	}
	return detectCycles(tasks)
}

// detectCycles runs Kahn's algorithm over the dependency edges. If the
// topological sort cannot cover every task, the leftover tasks form at least
// one cycle and are reported by index.
func detectCycles(tasks []Task) error {
	// forward[a] = tasks that depend on a; inDegree[b] = number of deps of b.
	forward := make(map[TaskID][]TaskID, len(tasks))
	inDegree := make([]int, len(tasks))

	for id, t := range tasks {
		seen := make(map[TaskID]bool, len(t.DependsOn))
		for _, dep := range t.DependsOn {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			forward[dep] = append(forward[dep], id)
			inDegree[id]++
		}
	}

	var queue []TaskID
	for id := range tasks {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	resolved := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		resolved++

		for _, succ := range forward[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if resolved != len(tasks) {
		var cycleNodes []string
		for id := range tasks {
			if inDegree[id] > 0 {
				cycleNodes = append(cycleNodes, strconv.Itoa(id))
			}
		}
		sort.Strings(cycleNodes)
		return fmt.Errorf("task list contains a dependency cycle involving tasks: %s",
			strings.Join(cycleNodes, ", "))
	}

	return nil
}
