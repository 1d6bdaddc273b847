package transform

// CategoryNode is one category in a single language, positioned in the tree
// by the source entity ids encoded in its code.
type CategoryNode struct {
	CategoryID     int64
	EntityID       int64
	ParentEntityID int64
	Slug           string
}

// ComputeParentSlugs derives the hierarchical slug path per category: the
// ancestors' slugs root-first, joined with "/", followed by the category's
// own slug. Categories with no ancestors get no entry; a missing parent is
// treated as a root. The result is keyed by target category id.
func ComputeParentSlugs(nodes []CategoryNode) map[int64]string {
	byEntity := make(map[int64]CategoryNode, len(nodes))
	for _, node := range nodes {
		byEntity[node.EntityID] = node
	}

	result := make(map[int64]string)
	for _, node := range nodes {
		chain := ancestorChain(node, byEntity)
		if len(chain) == 0 {
			continue
		}

		path := ""
		for i := len(chain) - 1; i >= 0; i-- {
			path += chain[i] + "/"
		}
		result[node.CategoryID] = path + node.Slug
	}
	return result
}

// ancestorChain collects ancestor slugs nearest-first, breaking on missing
// parents and on cycles.
func ancestorChain(node CategoryNode, byEntity map[int64]CategoryNode) []string {
	var chain []string
	seen := map[int64]bool{node.EntityID: true}

	current := node
	for {
		parent, ok := byEntity[current.ParentEntityID]
		if !ok || seen[parent.EntityID] {
			return chain
		}
		seen[parent.EntityID] = true
		chain = append(chain, parent.Slug)
		current = parent
	}
}
