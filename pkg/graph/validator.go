// Package graph provides static structural analysis of workflow graphs.
package graph

import (
	"fmt"

	"github.com/stepflow-io/stepflow/pkg/models"
)

// Result is the outcome of validating a graph.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate runs all structural checks over the node/connection set. It is
// pure: no side effects, callable standalone.
//
// Checks: exactly one start node, at least one end node, no dangling
// connection endpoints, no orphaned non-start nodes, no cycles.
func Validate(nodes []*models.WorkflowNode, connections []*models.WorkflowConnection) Result {
	var errs []string

	nodeByID := make(map[string]*models.WorkflowNode, len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
	}

	starts := 0
	ends := 0

	for _, n := range nodes {
		switch n.Kind {
		case models.NodeKindStart:
			starts++
		case models.NodeKindEnd:
			ends++
		}
	}

	if starts != 1 {
		errs = append(errs, fmt.Sprintf("workflow must have exactly one start node, found %d", starts))
	}

	if ends == 0 {
		errs = append(errs, "workflow must have at least one end node")
	}

	incoming := make(map[string]int, len(nodes))
	adjacency := make(map[string][]string, len(nodes))

	for _, c := range connections {
		if _, ok := nodeByID[c.SourceID]; !ok {
			errs = append(errs, fmt.Sprintf("connection %s references unknown source node %q", c.ID, c.SourceID))

			continue
		}

		if _, ok := nodeByID[c.TargetID]; !ok {
			errs = append(errs, fmt.Sprintf("connection %s references unknown target node %q", c.ID, c.TargetID))

			continue
		}

		incoming[c.TargetID]++
		adjacency[c.SourceID] = append(adjacency[c.SourceID], c.TargetID)
	}

	// Orphan check only applies once the graph has more than one node.
	if len(nodes) > 1 {
		for _, n := range nodes {
			if n.Kind == models.NodeKindStart {
				continue
			}

			if incoming[n.ID] == 0 {
				errs = append(errs, fmt.Sprintf("node %q (%s) has no incoming connection", n.ID, n.Name))
			}
		}
	}

	if cycle := findCycle(nodes, adjacency); cycle != "" {
		errs = append(errs, fmt.Sprintf("workflow graph contains a cycle through node %q", cycle))
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// findCycle runs a depth-first search with an explicit recursion stack and
// returns the id of a node with a back-edge, or "" when the graph is acyclic.
func findCycle(nodes []*models.WorkflowNode, adjacency map[string][]string) string {
	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)

	state := make(map[string]int, len(nodes))

	var visit func(id string) string

	visit = func(id string) string {
		state[id] = onStack

		for _, next := range adjacency[id] {
			switch state[next] {
			case onStack:
				return next
			case unvisited:
				if hit := visit(next); hit != "" {
					return hit
				}
			}
		}

		state[id] = done

		return ""
	}

	for _, n := range nodes {
		if state[n.ID] == unvisited {
			if hit := visit(n.ID); hit != "" {
				return hit
			}
		}
	}

	return ""
}
