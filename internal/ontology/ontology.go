// Package ontology holds the read-only concept graph that matching and risk
// scoring consult: concept hierarchy, required evidence metadata, and
// embeddings per standard.
package ontology

import (
	id "veritrail/pkg/domain"
	dErrors "veritrail/pkg/domain-errors"
)

// Ontology is an immutable concept graph. Construct once at load time; all
// read methods are safe for concurrent use.
type Ontology struct {
	nodes map[id.StandardID]*Node
}

// New validates the node list and builds the graph. Duplicate IDs and
// dangling parent references fail fast; scoring must never observe a
// half-formed graph.
func New(nodes []Node) (*Ontology, error) {
	byID := make(map[id.StandardID]*Node, len(nodes))
	for i := range nodes {
		n := nodes[i]
		if n.ID.IsEmpty() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "ontology node requires an id")
		}
		if !n.Domain.IsValid() {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "node %s: unknown domain %q", n.ID, n.Domain)
		}
		if _, dup := byID[n.ID]; dup {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "duplicate ontology node id %s", n.ID)
		}
		byID[n.ID] = &n
	}

	for _, n := range byID {
		if !n.Parent.IsEmpty() {
			if _, ok := byID[n.Parent]; !ok {
				return nil, dErrors.Newf(dErrors.CodeInvalidInput, "node %s: parent %s not in ontology", n.ID, n.Parent)
			}
		}
		for _, c := range n.Children {
			if _, ok := byID[c]; !ok {
				return nil, dErrors.Newf(dErrors.CodeInvalidInput, "node %s: child %s not in ontology", n.ID, c)
			}
		}
	}

	return &Ontology{nodes: byID}, nil
}

// Get returns the node for standardID, or nil when absent. Absence is not an
// error: the matcher silently skips unknown standards.
func (o *Ontology) Get(standardID id.StandardID) *Node {
	return o.nodes[standardID]
}

// Ancestors returns the parent chain of standardID, nearest first. Cycles in
// malformed data are cut off by the visited set.
func (o *Ontology) Ancestors(standardID id.StandardID) []id.StandardID {
	var out []id.StandardID
	visited := map[id.StandardID]bool{standardID: true}

	n := o.nodes[standardID]
	for n != nil && !n.Parent.IsEmpty() && !visited[n.Parent] {
		visited[n.Parent] = true
		out = append(out, n.Parent)
		n = o.nodes[n.Parent]
	}
	return out
}

// Related returns the related-concept ids recorded on the node.
func (o *Ontology) Related(standardID id.StandardID) []id.StandardID {
	n := o.nodes[standardID]
	if n == nil {
		return nil
	}
	return n.RelatedConcepts
}

// Len returns the number of nodes in the graph.
func (o *Ontology) Len() int { return len(o.nodes) }
