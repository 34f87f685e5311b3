package taxonomy

import (
	"fmt"
	"sort"
	"strings"
)

// PathCount pairs a category path with its active memory count.
type PathCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

type node struct {
	count    int
	children map[string]*node
}

// TreeOptions collapse deep or wide branches so the rendered tree stays
// compact enough for the primer.
type TreeOptions struct {
	MaxDepth       int // 0 = unlimited
	MaxBranchNodes int // 0 = unlimited
}

// RenderTree builds an indented tree string from flat path counts.
// Collapsed branches carry a "[+N more]" hint pointing at explore_taxonomy.
func RenderTree(counts []PathCount, opts TreeOptions) string {
	root := &node{children: map[string]*node{}}
	for _, pc := range counts {
		n := root
		for _, label := range strings.Split(pc.Path, ".") {
			child, ok := n.children[label]
			if !ok {
				child = &node{children: map[string]*node{}}
				n.children[label] = child
			}
			child.count += pc.Count
			n = child
		}
	}

	var lines []string
	var render func(n *node, depth int, prefix string)
	render = func(n *node, depth int, prefix string) {
		keys := make([]string, 0, len(n.children))
		for k := range n.children {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			child := n.children[key]
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			indent := ""
			if depth > 0 {
				indent = strings.Repeat("│   ", depth) + "├── "
			}

			sub := subtreeNodes(child)
			collapse := len(child.children) > 0 &&
				((opts.MaxDepth > 0 && depth >= opts.MaxDepth) ||
					(opts.MaxBranchNodes > 0 && sub > opts.MaxBranchNodes))

			switch {
			case collapse:
				lines = append(lines, fmt.Sprintf("%s%s/ (%d) [+%d more → explore_taxonomy(%q)]", indent, key, child.count, sub, path))
			case len(child.children) > 0:
				leaves, branches := partition(child)
				if len(leaves) > 0 && len(branches) == 0 {
					lines = append(lines, fmt.Sprintf("%s%s/ (%d) — %s", indent, key, child.count, strings.Join(leaves, ", ")))
				} else {
					lines = append(lines, fmt.Sprintf("%s%s/ (%d)", indent, key, child.count))
					render(child, depth+1, path)
				}
			default:
				lines = append(lines, fmt.Sprintf("%s%s [%d]", indent, key, child.count))
			}
		}
	}
	render(root, 0, "")
	return strings.Join(lines, "\n")
}

func subtreeNodes(n *node) int {
	total := len(n.children)
	for _, c := range n.children {
		total += subtreeNodes(c)
	}
	return total
}

func partition(n *node) (leaves, branches []string) {
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(n.children[k].children) == 0 {
			leaves = append(leaves, k)
		} else {
			branches = append(branches, k)
		}
	}
	return leaves, branches
}
