package grid

import (
	"errors"
	"fmt"
)

// ErrUnknownResource is returned when a grouping refers to a resource level
// that has not been defined.
var ErrUnknownResource = errors.New("grid: unknown resource level")

// Resource is one entry of a resource level (a room, an owner, ...).
type Resource struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Color    string `json:"color,omitempty"`
	CSSClass string `json:"css_class,omitempty"`

	// GroupID links the resource to a parent of the previous grouping level.
	// Empty means the resource belongs under every parent.
	GroupID string `json:"group_id,omitempty"`

	// WorkDays overrides the inherited work days when non-nil.
	WorkDays *WeekdaySet `json:"-"`
}

// ResourceLevel is a named, ordered list of resources.
type ResourceLevel struct {
	Name          string     `json:"name"`
	Title         string     `json:"title"`
	Field         string     `json:"field"`
	AllowMultiple bool       `json:"allow_multiple"`
	Resources     []Resource `json:"resources"`
}

// GroupConfig selects which levels, in which order, expand the grid.
type GroupConfig struct {
	Resources []string `json:"resources"`
	ByDate    bool     `json:"by_date"`
}

// ResourceNode is a resource placed in the grouping tree.
type ResourceNode struct {
	Level     int
	LevelName string
	Resource  Resource
	Parent    *ResourceNode
	Children  []*ResourceNode

	// LeafCount is the number of leaves below (or 1 for a leaf).
	LeafCount int

	// GroupIndex is the leaf's position among all leaves; -1 for inner nodes.
	GroupIndex int

	// WorkDays is the effective work-day set of this node.
	WorkDays WeekdaySet
}

// Path returns the resources from the root down to n.
func (n *ResourceNode) Path() []Resource {
	var out []Resource
	for cur := n; cur != nil; cur = cur.Parent {
		out = append([]Resource{cur.Resource}, out...)
	}
	return out
}

// ResourceTree is the result of expanding grouped resource levels.
type ResourceTree struct {
	ByDate bool

	// Levels holds the nodes of each depth in render order.
	Levels [][]*ResourceNode

	// Leaves are the innermost nodes; each one becomes a group of cells.
	Leaves []*ResourceNode
}

// GroupCount returns the number of cell groups the tree produces. A nil or
// empty tree still yields one implicit group.
func (t *ResourceTree) GroupCount() int {
	if t == nil || len(t.Leaves) == 0 {
		return 1
	}
	return len(t.Leaves)
}

// Leaf returns the leaf of group index i, or nil.
func (t *ResourceTree) Leaf(i int) *ResourceNode {
	if t == nil || i < 0 || i >= len(t.Leaves) {
		return nil
	}
	return t.Leaves[i]
}

// ExpandResources nests the levels named by group into a tree. Children of
// level n+1 attach to a parent of level n when their GroupID matches the
// parent's ID. Parents left without children are dropped, so every leaf sits
// at the deepest level. Each node's work days come from its nearest override,
// falling back to work.
func ExpandResources(levels []ResourceLevel, group GroupConfig, work WeekdaySet) (*ResourceTree, error) {
	tree := &ResourceTree{ByDate: group.ByDate}
	if len(group.Resources) == 0 {
		return tree, nil
	}

	byName := make(map[string]ResourceLevel, len(levels))
	for _, l := range levels {
		byName[l.Name] = l
	}
	ordered := make([]ResourceLevel, 0, len(group.Resources))
	for _, name := range group.Resources {
		l, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownResource, name)
		}
		ordered = append(ordered, l)
	}

	var roots []*ResourceNode
	for _, r := range ordered[0].Resources {
		n := newNode(0, ordered[0].Name, r, nil, work)
		if expandChildren(n, ordered) {
			roots = append(roots, n)
		}
	}

	tree.Levels = make([][]*ResourceNode, len(ordered))
	var walk func(n *ResourceNode)
	walk = func(n *ResourceNode) {
		tree.Levels[n.Level] = append(tree.Levels[n.Level], n)
		if len(n.Children) == 0 {
			n.GroupIndex = len(tree.Leaves)
			tree.Leaves = append(tree.Leaves, n)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return tree, nil
}

func newNode(level int, name string, r Resource, parent *ResourceNode, inherited WeekdaySet) *ResourceNode {
	wd := inherited
	if r.WorkDays != nil {
		wd = *r.WorkDays
	}
	return &ResourceNode{
		Level:      level,
		LevelName:  name,
		Resource:   r,
		Parent:     parent,
		GroupIndex: -1,
		WorkDays:   wd,
	}
}

// expandChildren fills n's subtree and reports whether n reaches the deepest
// level.
func expandChildren(n *ResourceNode, levels []ResourceLevel) bool {
	next := n.Level + 1
	if next >= len(levels) {
		n.LeafCount = 1
		return true
	}
	for _, r := range levels[next].Resources {
		if r.GroupID != "" && r.GroupID != n.Resource.ID {
			continue
		}
		c := newNode(next, levels[next].Name, r, n, n.WorkDays)
		if expandChildren(c, levels) {
			n.Children = append(n.Children, c)
			n.LeafCount += c.LeafCount
		}
	}
	return len(n.Children) > 0
}
