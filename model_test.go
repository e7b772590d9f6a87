package clockcache

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/clockcache/testutil"
)

type modelOp struct {
	Set   bool
	Key   int8
	Value int
}

type modelCache interface {
	Get(ctx context.Context, key int8) (int, error)
	Set(ctx context.Context, key int8, value int) error
	Flush(ctx context.Context) error
}

// Every cache level must behave like a map in front of its backend: reads
// return the last write, and after Flush the backend holds every write.
func TestCaches_MatchMapModel(t *testing.T) {
	levels := map[string]func(Backend[int8, int]) (modelCache, error){
		"direct": func(b Backend[int8, int]) (modelCache, error) {
			return NewDirectMapped(8, b)
		},
		"concurrent-direct": func(b Backend[int8, int]) (modelCache, error) {
			return NewConcurrentDirectMapped(4, b)
		},
		"clock": func(b Backend[int8, int]) (modelCache, error) {
			return NewClock(5, b)
		},
		"set-associative": func(b Backend[int8, int]) (modelCache, error) {
			return NewSetAssociative(4, 2, b)
		},
		"multi-level": func(b Backend[int8, int]) (modelCache, error) {
			return NewMultiLevel(b, WithL1Size(4), WithL2Sets(2), WithL2TagsPerSet(3))
		},
	}

	for name, newCache := range levels {
		t.Run(name, func(t *testing.T) {
			for seed := int64(1); seed <= 5; seed++ {
				var ops []modelOp
				f := fuzz.New().NilChance(0).NumElements(200, 400)
				f.RandSource(rand.NewSource(seed))
				f.Fuzz(&ops)

				runModel(t, newCache, ops)
			}
		})
	}
}

func runModel(t *testing.T, newCache func(Backend[int8, int]) (modelCache, error), ops []modelOp) {
	t.Helper()
	ctx := context.Background()

	store := testutil.NewRecorder[int8, int]()
	c, err := newCache(store)
	require.NoError(t, err)

	model := make(map[int8]int)
	for i, op := range ops {
		// Narrow the key space so that tags collide often.
		key := op.Key % 16
		if op.Set {
			require.NoError(t, c.Set(ctx, key, op.Value))
			model[key] = op.Value
			continue
		}
		got, err := c.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, model[key], got, "op %d: get %d", i, key)
	}

	require.NoError(t, c.Flush(ctx))
	if diff := cmp.Diff(model, store.Snapshot()); diff != "" {
		assert.Fail(t, "backend differs from model after flush (-want +got)", diff)
	}
}
