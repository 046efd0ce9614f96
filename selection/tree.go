package selection

import (
	"fmt"
	"sort"

	"github.com/decibelcooper/hepflat/ntuple"
)

// Node is one selection of the hierarchy.
type Node struct {
	Name     string
	Path     string
	Parent   *Node
	Children []*Node
	Base     *Base
	Cut      Cut
}

// Match evaluates the node's cut and those of all its ancestors.
func (n *Node) Match(r *ntuple.Row) bool {
	for m := n; m != nil; m = m.Parent {
		if !m.Cut.Pass(r) {
			return false
		}
	}
	return true
}

func (n *Node) child(c Cut) *Node {
	ch := &Node{
		Name:   c.Name,
		Path:   n.Path + "/" + c.Name,
		Parent: n,
		Base:   n.Base,
		Cut:    c,
	}
	n.Children = append(n.Children, ch)
	return ch
}

// Tree is the full selection hierarchy of an analysis.
type Tree struct {
	roots []*Node
	bases []*Base
	nodes map[string]*Node
	order []*Node
}

// Build creates one root per base. The cuts of each dimension are attached
// below the root and below every node produced by the preceding dimensions,
// so with dimensions (etaBins, jetPt) a base "loose" yields "loose",
// "loose/etaBin0", "loose/jetPt20" and "loose/etaBin0/jetPt20".
func Build(bases []Base, dims ...Dimension) (*Tree, error) {
	t := &Tree{nodes: make(map[string]*Node)}

	for i := range bases {
		b := &bases[i]
		if b.Name == "" {
			return nil, fmt.Errorf("base selection %d has no name", i)
		}
		root := &Node{Name: b.Name, Path: b.Name, Base: b, Cut: b.Cut}
		if err := t.add(root); err != nil {
			return nil, err
		}
		t.roots = append(t.roots, root)
		t.bases = append(t.bases, b)

		frontier := []*Node{root}
		for _, d := range dims {
			var added []*Node
			for _, n := range frontier {
				for _, c := range d.Cuts {
					ch := n.child(c)
					if err := t.add(ch); err != nil {
						return nil, err
					}
					added = append(added, ch)
				}
			}
			frontier = append(frontier, added...)
		}
	}
	return t, nil
}

func (t *Tree) add(n *Node) error {
	if _, dup := t.nodes[n.Path]; dup {
		return fmt.Errorf("duplicate selection %q", n.Path)
	}
	t.nodes[n.Path] = n
	t.order = append(t.order, n)
	return nil
}

// Bases returns the base selections in build order.
func (t *Tree) Bases() []*Base {
	return t.bases
}

// Lookup returns the node at path, or nil.
func (t *Tree) Lookup(path string) *Node {
	return t.nodes[path]
}

// Paths returns every selection path in build order.
func (t *Tree) Paths() []string {
	paths := make([]string, len(t.order))
	for i, n := range t.order {
		paths[i] = n.Path
	}
	return paths
}

// Len returns the number of selections.
func (t *Tree) Len() int {
	return len(t.order)
}

// Walk calls fn for every node selecting r. The subtree of a failing node
// is not evaluated.
func (t *Tree) Walk(r *ntuple.Row, fn func(n *Node)) {
	for _, root := range t.roots {
		walk(root, r, fn)
	}
}

func walk(n *Node, r *ntuple.Row, fn func(n *Node)) {
	if !n.Cut.Pass(r) {
		return
	}
	fn(n)
	for _, ch := range n.Children {
		walk(ch, r, fn)
	}
}

// Requires returns the union of columns read by all selections, sorted.
func (t *Tree) Requires() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, n := range t.order {
		for _, c := range n.Cut.Requires {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// Validate checks that every column read by the selections is present.
func (t *Tree) Validate(columns []string) error {
	if err := ntuple.Check(columns, t.Requires()); err != nil {
		return fmt.Errorf("selections do not match row schema: %w", err)
	}
	return nil
}
