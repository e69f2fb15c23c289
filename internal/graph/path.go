package graph

// LookupFunc returns the direct dependencies of a node. The in-memory graph
// and the template dependency repository both provide one, so a cycle check
// only touches the subgraph reachable from its start.
type LookupFunc func(id string) ([]string, error)

// FindPath walks dependsOn edges depth-first from `from` and returns a path
// ending at `to`, or nil if `to` is unreachable. Each node is expanded at
// most once.
func FindPath(lookup LookupFunc, from, to string) ([]string, error) {
	type frame struct {
		id   string
		path []string
	}

	visited := make(map[string]bool)
	stack := []frame{{id: from, path: []string{from}}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.id == to {
			return cur.path, nil
		}
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true

		next, err := lookup(cur.id)
		if err != nil {
			return nil, err
		}
		for i := len(next) - 1; i >= 0; i-- {
			if visited[next[i]] {
				continue
			}
			p := make([]string, len(cur.path), len(cur.path)+1)
			copy(p, cur.path)
			stack = append(stack, frame{id: next[i], path: append(p, next[i])})
		}
	}
	return nil, nil
}
