package menu

// BuildTree links a flat list into a forest and returns its roots.
//
// Items whose parent is unknown to the batch (or that are part of a parent
// cycle) are promoted to roots. With duplicate ids the last item wins the
// lookup, but every item is still placed exactly once.
// Roots and each children list are sorted independently.
func BuildTree(items []*Item) []*Item {
	lookup := make(map[string]*Item, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		it.Children = []*Item{}
		lookup[it.ID] = it
	}

	parents := make(map[*Item]*Item, len(items))
	for _, it := range items {
		if it == nil || it.ParentID == nil {
			continue
		}
		if p, ok := lookup[*it.ParentID]; ok && p != it {
			parents[it] = p
		}
	}

	roots := []*Item{}
	for _, it := range items {
		if it == nil {
			continue
		}
		p, ok := parents[it]
		if !ok || inCycle(it, parents, len(items)) {
			roots = append(roots, it)
			continue
		}
		p.Children = append(p.Children, it)
	}

	Sort(roots)
	for _, it := range items {
		if it != nil {
			Sort(it.Children)
		}
	}
	return roots
}

// inCycle reports whether following parents from `it` leads back to it.
func inCycle(it *Item, parents map[*Item]*Item, limit int) bool {
	steps := 0
	for p := parents[it]; p != nil; p = parents[p] {
		if p == it {
			return true
		}
		if steps++; steps > limit {
			return false
		}
	}
	return false
}

// Walk visits the forest depth-first, parents before children.
// Returning false from fn skips the item's children.
func Walk(roots []*Item, fn func(it *Item, depth int) bool) {
	walk(roots, 0, fn)
}

func walk(items []*Item, depth int, fn func(it *Item, depth int) bool) {
	for _, it := range items {
		if fn(it, depth) {
			walk(it.Children, depth+1, fn)
		}
	}
}

// Flatten returns every item of the forest in depth-first order.
func Flatten(roots []*Item) []*Item {
	var all []*Item
	Walk(roots, func(it *Item, _ int) bool {
		all = append(all, it)
		return true
	})
	return all
}

// Find returns the item with the given id, or nil.
func Find(roots []*Item, id string) *Item {
	var found *Item
	Walk(roots, func(it *Item, _ int) bool {
		if found == nil && it.ID == id {
			found = it
		}
		return found == nil
	})
	return found
}
