package metadata

import (
	"sort"

	"fieldforge-backend/internal/schema"
)

// CanHaveChildren reports whether the field's type is a container
// (registered with sub-field support).
func CanHaveChildren(types *schema.Registry, f Field) bool {
	return types.HasSubFields(f.Type)
}

// RootFields returns the fields at root level, in menu order.
func RootFields(fields []Field) []Field {
	return ChildFields(fields, "")
}

// ChildFields returns the fields whose parent is parentID, in menu order.
// With parentID "" it returns the root level. The helpers carry no depth
// assumption: container fields can nest arbitrarily.
func ChildFields(fields []Field, parentID string) []Field {
	var out []Field
	for _, f := range fields {
		if f.ParentID == parentID {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MenuOrder < out[j].MenuOrder
	})
	return out
}

// TreeNode is one field with its resolved children, for nested rendering.
type TreeNode struct {
	Field    Field      `json:"field"`
	Children []TreeNode `json:"children,omitempty"`
}

// BuildTree assembles the full forest for a field list, recursing through
// container fields of any depth. Each field is placed at most once, so a
// parent chain that loops in stored data cannot recurse unbounded.
func BuildTree(fields []Field) []TreeNode {
	return buildSubtree(fields, "", make(map[string]bool, len(fields)))
}

func buildSubtree(fields []Field, parentID string, seen map[string]bool) []TreeNode {
	children := ChildFields(fields, parentID)
	if len(children) == 0 {
		return nil
	}
	nodes := make([]TreeNode, 0, len(children))
	for _, f := range children {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		node := TreeNode{Field: f}
		if f.ID != "" {
			node.Children = buildSubtree(fields, f.ID, seen)
		}
		nodes = append(nodes, node)
	}
	if len(nodes) == 0 {
		return nil
	}
	return nodes
}
