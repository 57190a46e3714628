package main

// DependencyGraph is the directed graph of tables connected by foreign-key
// references: an edge from a table to its referenced table means the
// referenced table must be created first. The graph is an immutable value once built.
type DependencyGraph struct {
	nodes []string
	edges map[string][]string
}

// buildDependencyGraph derives the graph from introspected foreign keys.
// Edges pointing outside the migrated table set are dropped.
func buildDependencyGraph(tables []Table) DependencyGraph {
	inSet := make(map[string]bool, len(tables))
	for _, t := range tables {
		inSet[t.Name] = true
	}

	g := DependencyGraph{edges: make(map[string][]string, len(tables))}
	for _, t := range tables {
		g.nodes = append(g.nodes, t.Name)
		seen := make(map[string]bool)
		for _, fk := range t.ForeignKeys {
			if !inSet[fk.RefTable] || seen[fk.RefTable] {
				continue
			}
			seen[fk.RefTable] = true
			g.edges[t.Name] = append(g.edges[t.Name], fk.RefTable)
		}
	}
	return g
}

// Three-color DFS marking.
const (
	colorUnvisited = iota
	colorInProgress
	colorDone
)

// CreationOrder linearizes the graph so that every table appears after the
// tables it references. The traversal is an explicit stack-based depth-first
// walk with three-state marking; an edge into an in-progress node indicates a
// cycle and is treated as already satisfied, which guarantees termination.
// The deferred constraint of a broken cycle is attached later, once all
// tables exist. The order is deterministic for a fixed input order, contains
// each table exactly once, and a cycle is a warning, never an abort.
func (g DependencyGraph) CreationOrder(em Emitter) []string {
	color := make(map[string]int, len(g.nodes))
	order := make([]string, 0, len(g.nodes))

	type frame struct {
		node string
		next int // index of the next dependency to visit
	}

	for _, root := range g.nodes {
		if color[root] != colorUnvisited {
			continue
		}
		color[root] = colorInProgress
		stack := []frame{{node: root}}

		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			deps := g.edges[f.node]

			if f.next < len(deps) {
				dep := deps[f.next]
				f.next++
				switch color[dep] {
				case colorUnvisited:
					color[dep] = colorInProgress
					stack = append(stack, frame{node: dep})
				case colorInProgress:
					// cycle: break it here, the constraint stage resolves
					// the deferred edge after all tables exist
					emitWarn(em, f.node, "dependency cycle via %s, deferring constraint ordering", dep)
				}
			} else {
				color[f.node] = colorDone
				order = append(order, f.node)
				stack = stack[:len(stack)-1]
			}
		}
	}
	return order
}
