package resolve

import (
	"fmt"
	"strings"

	"github.com/roach88/reportql/internal/schema"
)

// CycleWarning describes a requires cycle found by static analysis.
type CycleWarning struct {
	Path    []string `json:"path"` // ["a", "b", "a"]
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeCycles reports every requires cycle in reg.
//
// Resolve only fails when a query reaches a cycle; this finds all of them
// up front for the validate command. Strongly connected components are
// found with Tarjan's algorithm; components of size > 1 and self-loops are
// cycles. Output order follows column declaration order.
func AnalyzeCycles(reg *schema.Registry) []CycleWarning {
	g := buildRequiresGraph(reg)

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(g) {
		if len(scc) > 1 || hasSelfLoop(scc[0], g) {
			warnings = append(warnings, cycleWarning(scc, g))
		}
	}
	return warnings
}

// requiresGraph maps column id to the registered columns it requires.
type requiresGraph struct {
	nodes []string
	rank  map[string]int
	edges map[string][]string
}

func buildRequiresGraph(reg *schema.Registry) *requiresGraph {
	g := &requiresGraph{rank: make(map[string]int), edges: make(map[string][]string)}
	for i, c := range reg.Columns() {
		g.nodes = append(g.nodes, c.ID)
		g.rank[c.ID] = i
	}
	for _, c := range reg.Columns() {
		for _, req := range c.Requires {
			if _, ok := g.rank[req]; ok {
				g.edges[c.ID] = append(g.edges[c.ID], req)
			}
		}
	}
	return g
}

func hasSelfLoop(node string, g *requiresGraph) bool {
	for _, n := range g.edges[node] {
		if n == node {
			return true
		}
	}
	return false
}

// tarjanSCC returns the strongly connected components of g.
func tarjanSCC(g *requiresGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleWarning(scc []string, g *requiresGraph) CycleWarning {
	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("column requires itself: %s -> %s", id, id),
			Level:   "warning",
		}
	}
	path := cyclePath(scc, g)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("circular requires: %s", strings.Join(path, " -> ")),
		Level:   "warning",
	}
}

// cyclePath walks the component from its earliest declared member along
// requires edges until it returns to the start.
func cyclePath(scc []string, g *requiresGraph) []string {
	members := make(map[string]bool, len(scc))
	start := scc[0]
	for _, n := range scc {
		members[n] = true
		if g.rank[n] < g.rank[start] {
			start = n
		}
	}

	path := []string{start}
	visited := map[string]bool{}
	for cur := start; ; {
		visited[cur] = true
		next := ""
		for _, n := range g.edges[cur] {
			if members[n] && (!visited[n] || n == start) {
				next = n
				break
			}
		}
		if next == "" {
			return path
		}
		path = append(path, next)
		if next == start {
			return path
		}
		cur = next
	}
}
