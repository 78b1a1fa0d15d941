package bom

import "sort"

// LineSource yields the current planning component IDs for a parent item.
// The cycle checker walks it to compute the transitive closure.
type LineSource interface {
	ComponentIDs(parentItemID string) ([]string, error)
}

// CheckCycle verifies that attaching the proposed lines to parent would not
// make the parent a member of its own component closure. The walk carries a
// path so the offending loop can be reported.
func CheckCycle(parent string, proposedComponents []string, source LineSource) error {
	seen := map[string]bool{parent: true}
	path := []string{parent}
	components := append([]string(nil), proposedComponents...)
	sort.Strings(components)
	for _, c := range components {
		if err := walkClosure(c, parent, seen, path, source); err != nil {
			return err
		}
	}
	return nil
}

func walkClosure(current, root string, seen map[string]bool, path []string, source LineSource) error {
	if current == root {
		return NewBOMCycleError(append(append([]string(nil), path...), current))
	}
	if seen[current] {
		return nil
	}
	seen[current] = true
	children, err := source.ComponentIDs(current)
	if err != nil {
		return err
	}
	sort.Strings(children)
	next := append(append([]string(nil), path...), current)
	for _, child := range children {
		if err := walkClosure(child, root, seen, next, source); err != nil {
			return err
		}
	}
	return nil
}
