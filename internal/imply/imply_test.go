package imply

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/store"
)

func openTx(t *testing.T) (*store.Store, *store.Tx) {
	t.Helper()
	s, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	tx, err := s.Begin()
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })
	return s, tx
}

func TestClosureForLookupTransitive(t *testing.T) {
	_, tx := openTx(t)

	raw, err := tx.InsertTag("raw")
	require.NoError(t, err)
	photo, err := tx.InsertTag("photo")
	require.NoError(t, err)
	media, err := tx.InsertTag("media")
	require.NoError(t, err)

	require.NoError(t, tx.AddImplication(
		model.TagValuePair{TagID: raw.ID},
		model.TagValuePair{TagID: photo.ID},
	))
	require.NoError(t, tx.AddImplication(
		model.TagValuePair{TagID: photo.ID},
		model.TagValuePair{TagID: media.ID},
	))

	closure, err := ClosureForLookup(tx, []model.TagValuePair{{TagID: raw.ID}})
	require.NoError(t, err)

	ids := map[model.TagID]bool{}
	for _, p := range closure {
		ids[p.TagID] = true
	}
	require.True(t, ids[photo.ID])
	require.True(t, ids[media.ID])
}

func TestCheckCycleRejectsDirectCycle(t *testing.T) {
	_, tx := openTx(t)

	a, err := tx.InsertTag("a")
	require.NoError(t, err)
	b, err := tx.InsertTag("b")
	require.NoError(t, err)

	require.NoError(t, tx.AddImplication(
		model.TagValuePair{TagID: a.ID},
		model.TagValuePair{TagID: b.ID},
	))

	err = CheckCycle(tx, model.TagValuePair{TagID: b.ID}, model.TagValuePair{TagID: a.ID})
	require.Error(t, err)
}

func TestCheckCycleAllowsUnrelated(t *testing.T) {
	_, tx := openTx(t)

	a, err := tx.InsertTag("a")
	require.NoError(t, err)
	c, err := tx.InsertTag("c")
	require.NoError(t, err)

	err = CheckCycle(tx, model.TagValuePair{TagID: a.ID}, model.TagValuePair{TagID: c.ID})
	require.NoError(t, err)
}

func TestCheckCycleWildcardImplyingCyclesThroughAnyValue(t *testing.T) {
	_, tx := openTx(t)

	a, err := tx.InsertTag("a")
	require.NoError(t, err)
	b, err := tx.InsertTag("b")
	require.NoError(t, err)
	v, err := tx.InsertValue("x")
	require.NoError(t, err)

	require.NoError(t, tx.AddImplication(
		model.TagValuePair{TagID: a.ID, Value: model.Some(v.ID)},
		model.TagValuePair{TagID: b.ID},
	))

	// b (wildcard, no value) -> a=x: the closure from a=x is {b} via the
	// stored a=x -> b edge, and the value-less implying b matches that node.
	err = CheckCycle(tx, model.TagValuePair{TagID: b.ID}, model.TagValuePair{TagID: a.ID, Value: model.Some(v.ID)})
	require.Error(t, err)
}

// TestCheckCycleThroughAbsentValueIntermediateNode pins spec.md §8's
// {a->b, b=x->c} scenario: the closure from a (absent value) must still
// cross b's value-gated edge to reach c, so c->a is rejected regardless of
// whether the candidate implying side itself carries a value.
func TestCheckCycleThroughAbsentValueIntermediateNode(t *testing.T) {
	_, tx := openTx(t)

	a, err := tx.InsertTag("a")
	require.NoError(t, err)
	b, err := tx.InsertTag("b")
	require.NoError(t, err)
	c, err := tx.InsertTag("c")
	require.NoError(t, err)
	x, err := tx.InsertValue("x")
	require.NoError(t, err)
	y, err := tx.InsertValue("y")
	require.NoError(t, err)

	require.NoError(t, tx.AddImplication(
		model.TagValuePair{TagID: a.ID},
		model.TagValuePair{TagID: b.ID},
	))
	require.NoError(t, tx.AddImplication(
		model.TagValuePair{TagID: b.ID, Value: model.Some(x.ID)},
		model.TagValuePair{TagID: c.ID},
	))

	closure, err := ClosureForLookup(tx, []model.TagValuePair{{TagID: a.ID}})
	require.NoError(t, err)
	ids := map[model.TagID]bool{}
	for _, p := range closure {
		ids[p.TagID] = true
	}
	require.True(t, ids[b.ID])
	require.True(t, ids[c.ID], "closure from a must reach c through b's value-gated edge")

	err = CheckCycle(tx, model.TagValuePair{TagID: c.ID}, model.TagValuePair{TagID: a.ID})
	require.Error(t, err, "c->a must be rejected: a already implies c")

	err = CheckCycle(tx, model.TagValuePair{TagID: c.ID, Value: model.Some(y.ID)}, model.TagValuePair{TagID: a.ID})
	require.Error(t, err, "c=y->a must also be rejected")
}
