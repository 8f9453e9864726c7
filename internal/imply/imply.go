// Package imply is the implication manager of spec.md §4.6 (C6): closure
// expansion for query lookups and cycle detection before adding a new
// implication. Grounded on original_source/src/api/imply.rs, whose
// transitive_implications_for/check_for_implication_cycles is translated
// here almost statement-for-statement, since the algorithm is the entire
// specification.
package imply

import (
	"github.com/lefth/tmsu/internal/errs"
	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/store"
)

// ClosureForLookup implements implications_for(initial_pairs): starting from
// a set of pairs, repeatedly fetch implications whose implying side matches
// a frontier pair (the storage layer already applies the implying-value
// wildcard) and collect the implied pairs, until no new one is discovered.
// The result is deduplicated and order-independent.
func ClosureForLookup(tx *store.Tx, initial []model.TagValuePair) ([]model.TagValuePair, error) {
	seen := map[model.TagValuePair]bool{}
	var result []model.TagValuePair

	frontier := append([]model.TagValuePair(nil), initial...)
	for len(frontier) > 0 {
		implications, err := tx.ImplicationsForPairs(frontier)
		if err != nil {
			return nil, err
		}

		frontier = nil
		for _, imp := range implications {
			if seen[imp.Implied] {
				continue
			}
			seen[imp.Implied] = true
			result = append(result, imp.Implied)
			frontier = append(frontier, imp.Implied)
		}
	}

	return result, nil
}

// CheckCycle rejects adding implying -> implied when it would create a
// cycle: compute the closure from implied, and reject if any node in that
// closure has the same tag as implying and the two values match under the
// same wildcard rule ImplicationsForPairs applies in storage: an absent
// value, on either side, matches any value of the same tag. This rejects
// direct self-implications, mutual implications, deeper cycles, a wildcard
// implying side cycling through any specific value, and a specific
// implying value cycling through a tag-wide (wildcard) node.
func CheckCycle(tx *store.Tx, implying, implied model.TagValuePair) error {
	closure, err := ClosureForLookup(tx, []model.TagValuePair{implied})
	if err != nil {
		return err
	}

	for _, node := range closure {
		if node.TagID != implying.TagID {
			continue
		}
		if !implying.Value.Valid || !node.Value.Valid || implying.Value.Equal(node.Value) {
			return errs.ImplicationCycle(pairString(implying), pairString(node))
		}
	}
	return nil
}

func pairString(p model.TagValuePair) string {
	if !p.Value.Valid {
		return p.TagID.String()
	}
	return p.TagID.String() + "=" + p.Value.ID.String()
}
