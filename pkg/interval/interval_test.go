package interval

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/henderiw/itree/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioItems = []Item[int]{
	NewItem("i1", 17, 19),
	NewItem("i2", 5, 8),
	NewItem("i3", 21, 24),
	NewItem("i4", 4, 8),
	NewItem("i5", 15, 18),
	NewItem("i6", 7, 10),
	NewItem("i7", 16, 22),
}

func build[N Number](t *testing.T, items ...Item[N]) Tree[N] {
	t.Helper()
	tr := Empty[N]()
	for _, item := range items {
		var err error
		tr, err = tr.Insert(item)
		require.NoError(t, err)
	}
	return tr
}

func itemMap[N Number](items ...Item[N]) map[string]Item[N] {
	m := make(map[string]Item[N], len(items))
	for _, item := range items {
		m[item.ID] = item
	}
	return m
}

func TestEmpty(t *testing.T) {
	assert.True(t, Empty[int]().IsEmpty())
	assert.True(t, Tree[float64]{}.IsEmpty())
	assert.Empty(t, Empty[int]().ToMap())
	assert.Equal(t, 0, Empty[int]().Len())
}

func TestInsert(t *testing.T) {
	cases := map[string]struct {
		items []Item[int]
	}{
		"Single": {
			items: []Item[int]{NewItem("interval1", 0, 10)},
		},
		"Multiple": {
			items: []Item[int]{
				NewItem("interval1", 0, 2),
				NewItem("interval2", -5, 1),
				NewItem("interval3", 5, 10),
			},
		},
		"Scenario": {
			items: scenarioItems,
		},
		"EqualLowEndpoints": {
			items: []Item[int]{
				NewItem("a", 3, 4),
				NewItem("b", 3, 9),
				NewItem("c", 3, 3),
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tr := build(t, tc.items...)
			assert.False(t, tr.IsEmpty())
			if diff := cmp.Diff(itemMap(tc.items...), tr.ToMap()); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}
			assert.Equal(t, len(tc.items), tr.Len())
			_, err := tr.Validate()
			assert.NoError(t, err)
		})
	}
}

func TestInsertInvalidRange(t *testing.T) {
	tr := build(t, NewItem("ok", 1, 2))
	bad := NewItem("interval1", 10, 5)

	got, err := tr.Insert(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRange))
	var ire *InvalidRangeError[int]
	require.True(t, errors.As(err, &ire))
	require.NotNil(t, ire.Item)
	assert.Equal(t, "interval1", ire.Item.ID)
	assert.Contains(t, err.Error(), "((10, 5), interval1)")
	// no structural change happened
	assert.Equal(t, tr, got)
}

func TestInsertNaNRange(t *testing.T) {
	tr := build(t, NewItem("ok", 1.0, 2.0))
	cases := map[string]Item[float64]{
		"NaNLow":  NewItem("n", math.NaN(), 1),
		"NaNHigh": NewItem("n", 1, math.NaN()),
		"NaNBoth": NewItem("n", math.NaN(), math.NaN()),
	}
	for name, item := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := tr.Insert(item)
			assert.True(t, errors.Is(err, ErrInvalidRange))
			assert.Equal(t, tr, got)
			_, err = got.Validate()
			assert.NoError(t, err)
		})
	}
}

func TestNode(t *testing.T) {
	_, err := Node(NewItem("x", 10, 5), Empty[int](), Empty[int]())
	assert.True(t, errors.Is(err, ErrInvalidRange))

	n, err := Node(NewItem("x", 5, 10), Empty[int](), Empty[int]())
	require.NoError(t, err)
	assert.Equal(t, 5, n.Root().Payload().LowestEndpointInSubtree)
	assert.Equal(t, 10, n.Root().Payload().HighestEndpointInSubtree)
}

func TestQueryIntersection(t *testing.T) {
	scenario := build(t, scenarioItems...)
	small := build(t,
		NewItem("interval1", 0, 2),
		NewItem("interval2", -5, 1),
		NewItem("interval3", 5, 10),
	)
	cases := map[string]struct {
		tree     Tree[int]
		query    Range[int]
		expected []string
	}{
		"Small": {
			tree:     small,
			query:    RangeFrom(1, 2),
			expected: []string{"interval1", "interval2"},
		},
		"SmallNone": {
			tree:     small,
			query:    RangeFrom(3, 4),
			expected: []string{},
		},
		"ScenarioHigh": {
			tree:     scenario,
			query:    RangeFrom(23, 25),
			expected: []string{"i3"},
		},
		"ScenarioGap": {
			tree:     scenario,
			query:    RangeFrom(12, 14),
			expected: []string{},
		},
		"ScenarioOverlap": {
			tree:     scenario,
			query:    RangeFrom(21, 23),
			expected: []string{"i3", "i7"},
		},
		"TouchingEndpoint": {
			tree:     build(t, NewItem("a", 5, 8)),
			query:    RangeFrom(8, 10),
			expected: []string{"a"},
		},
		"Point": {
			tree:     scenario,
			query:    RangeFrom(8, 8),
			expected: []string{"i2", "i4", "i6"},
		},
		"Everything": {
			tree:     scenario,
			query:    RangeFrom(-100, 100),
			expected: []string{"i1", "i2", "i3", "i4", "i5", "i6", "i7"},
		},
		"Empty": {
			tree:     Empty[int](),
			query:    RangeFrom(0, 100),
			expected: []string{},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := tc.tree.QueryIntersection(tc.query)
			require.NoError(t, err)
			all := tc.tree.ToMap()
			expected := map[string]Item[int]{}
			for _, id := range tc.expected {
				expected[id] = all[id]
			}
			if diff := cmp.Diff(expected, got); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}
		})
	}
}

func TestQueryIntersectionInvalidRange(t *testing.T) {
	tr := build(t, scenarioItems...)
	_, err := tr.QueryIntersection(RangeFrom(14, 12))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRange))
	var ire *InvalidRangeError[int]
	require.True(t, errors.As(err, &ire))
	assert.Nil(t, ire.Item)
	assert.Equal(t, RangeFrom(14, 12), ire.Range)
}

func TestVisit(t *testing.T) {
	tr := build(t, scenarioItems...)

	calls := 0
	require.NoError(t, tr.Visit(RangeFrom(0, 100), func(Item[int]) bool {
		calls++
		return calls < 2
	}))
	assert.Equal(t, 2, calls)

	found, err := tr.Intersects(RangeFrom(12, 14))
	require.NoError(t, err)
	assert.False(t, found)
	found, err = tr.Intersects(RangeFrom(19, 20))
	require.NoError(t, err)
	assert.True(t, found)

	assert.Equal(t, itemMap(scenarioItems[4], scenarioItems[6]), tr.Stab(16))
}

func TestRemove(t *testing.T) {
	tr := build(t, scenarioItems...)
	for _, item := range scenarioItems {
		t.Run(item.ID, func(t *testing.T) {
			got := tr.Remove(item.ID)
			expected := tr.ToMap()
			delete(expected, item.ID)
			if diff := cmp.Diff(expected, got.ToMap()); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", item.ID, diff)
			}
			_, err := got.Validate()
			assert.NoError(t, err)
			// removing again changes nothing
			assert.Equal(t, got, got.Remove(item.ID))
		})
	}
	// the original snapshot is unaffected by all of the above
	assert.Equal(t, itemMap(scenarioItems...), tr.ToMap())
}

func TestRemoveNotPresent(t *testing.T) {
	tr := build(t, scenarioItems...)
	assert.Equal(t, tr, tr.Remove("not-present"))
	assert.Same(t, tr.Root(), tr.Remove("not-present").Root())
	assert.Equal(t, Empty[int](), Empty[int]().Remove("not-present"))
}

func TestRemoveSingleton(t *testing.T) {
	tr := build(t, NewItem("interval1", 17, 19))
	assert.Equal(t, Empty[int](), tr.Remove("interval1"))
}

func TestRemoveUpdatesEndpoints(t *testing.T) {
	tr := build(t, scenarioItems...)
	assert.Equal(t, 24, tr.Root().Payload().HighestEndpointInSubtree)

	tr = tr.Remove("i3")
	assert.Equal(t, 22, tr.Root().Payload().HighestEndpointInSubtree)
	tr = tr.Remove("i7")
	assert.Equal(t, 19, tr.Root().Payload().HighestEndpointInSubtree)
	tr = tr.Remove("i4")
	assert.Equal(t, 5, tr.Root().Payload().LowestEndpointInSubtree)
}

func TestValidate(t *testing.T) {
	leaf := func(id string, low, high int) Tree[int] {
		n, err := NodeWithEndpoints(NewItem(id, low, high), Empty[int](), Empty[int](), low, high)
		require.NoError(t, err)
		return n
	}
	node := func(id string, low, high int, left, right Tree[int], lowest, highest int) Tree[int] {
		n, err := NodeWithEndpoints(NewItem(id, low, high), left, right, lowest, highest)
		require.NoError(t, err)
		return n
	}

	cases := map[string]struct {
		tree        Tree[int]
		expectedErr error
		side        tree.Side
		subtree     string
		expected    int
		actual      int
	}{
		"Empty": {
			tree: Empty[int](),
		},
		"Valid": {
			tree: build(t, scenarioItems...),
		},
		"OutOfOrderLeftNode": {
			tree: node("item1", 5, 10, Empty[int](),
				node("item2", 8, 20, leaf("item3", 9, 10), Empty[int](), 8, 20),
				5, 20),
			expectedErr: ErrOrderingViolation,
			side:        tree.LeftSide,
			subtree:     "item2",
		},
		"OutOfOrderRightNode": {
			tree: node("item1", 5, 10,
				node("item2", 2, 10, Empty[int](), leaf("item3", 1, 20), 1, 20),
				Empty[int](),
				1, 20),
			expectedErr: ErrOrderingViolation,
			side:        tree.RightSide,
			subtree:     "item2",
		},
		"WrongLowest": {
			tree:        node("item1", 5, 10, leaf("item2", 2, 4), Empty[int](), 3, 10),
			expectedErr: ErrWrongLowestEndpointStored,
			subtree:     "item1",
			expected:    2,
			actual:      3,
		},
		"WrongHighest": {
			tree: node("item1", 5, 10, Empty[int](),
				node("item2", 6, 7, Empty[int](), leaf("item3", 8, 30), 6, 20),
				5, 20),
			expectedErr: ErrWrongHighestEndpointStored,
			subtree:     "item2",
			expected:    30,
			actual:      20,
		},
		"NodeWithoutChildEndpoints": {
			tree: func() Tree[int] {
				n, err := Node(NewItem("item1", 5, 10), leaf("item2", 2, 4), Empty[int]())
				require.NoError(t, err)
				return n
			}(),
			expectedErr: ErrWrongLowestEndpointStored,
			subtree:     "item1",
			expected:    2,
			actual:      5,
		},
		"InvalidRange": {
			tree: Tree[int]{root: tree.NewNode(Payload[int]{
				Item:                     NewItem("item1", 10, 5),
				LowestEndpointInSubtree:  5,
				HighestEndpointInSubtree: 10,
			}, nil, nil)},
			expectedErr: ErrInvalidRange,
			subtree:     "item1",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := tc.tree.Validate()
			assert.Equal(t, tc.tree, got)
			if tc.expectedErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.expectedErr), "got %v", err)
			switch tc.expectedErr {
			case ErrOrderingViolation:
				var ov *tree.OrderingViolationError[Payload[int]]
				require.True(t, errors.As(err, &ov))
				assert.Equal(t, tc.side, ov.Side)
				assert.Equal(t, tc.subtree, ov.Subtree.Payload().Item.ID)
			case ErrInvalidRange:
				var ire *InvalidRangeError[int]
				require.True(t, errors.As(err, &ire))
				assert.Equal(t, tc.subtree, ire.Item.ID)
			default:
				var we *WrongEndpointError[int]
				require.True(t, errors.As(err, &we))
				assert.Equal(t, tc.subtree, we.Node.Root().Payload().Item.ID)
				assert.Equal(t, tc.expected, we.Expected)
				assert.Equal(t, tc.actual, we.Actual)
			}
		})
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	before := build(t, scenarioItems[:4]...)
	after, err := before.Insert(scenarioItems[4])
	require.NoError(t, err)

	assert.Equal(t, itemMap(scenarioItems[:4]...), before.ToMap())
	assert.Equal(t, itemMap(scenarioItems[:5]...), after.ToMap())
	// i3 is right of the root and off the insertion path
	assert.Same(t, before.Root().Right(), after.Root().Right())

	_, err = before.Validate()
	assert.NoError(t, err)
}

func TestFloatEndpoints(t *testing.T) {
	tr := build(t,
		NewItem("a", 0.5, 1.5),
		NewItem("b", -2.25, -1.0),
		NewItem("c", 1.5, 1.5),
	)
	got, err := tr.QueryIntersection(RangeFrom(1.5, 3.0))
	require.NoError(t, err)
	assert.Equal(t, itemMap(NewItem("a", 0.5, 1.5), NewItem("c", 1.5, 1.5)), got)

	_, err = tr.QueryIntersection(RangeFrom(math.NaN(), 3.0))
	assert.True(t, errors.Is(err, ErrInvalidRange))
	_, err = tr.Validate()
	assert.NoError(t, err)
}

// bruteForce is the reference intersection used by the randomized test.
func bruteForce(items map[string]Item[int], q Range[int]) map[string]Item[int] {
	out := map[string]Item[int]{}
	for id, item := range items {
		if item.Range.High >= q.Low && item.Range.Low <= q.High {
			out[id] = item
		}
	}
	return out
}

func TestRandomized(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	randomRange := func() Range[int] {
		low := rng.IntN(200) - 100
		return RangeFrom(low, low+rng.IntN(30))
	}

	for round := 0; round < 20; round++ {
		tr := Empty[int]()
		live := map[string]Item[int]{}
		for op := 0; op < 200; op++ {
			if len(live) > 0 && rng.IntN(3) == 0 {
				// remove a random live item
				var id string
				n := rng.IntN(len(live))
				for k := range live {
					if n == 0 {
						id = k
						break
					}
					n--
				}
				tr = tr.Remove(id)
				delete(live, id)
			} else {
				r := randomRange()
				item := Item[int]{ID: fmt.Sprintf("r%d-%d", round, op), Range: r}
				var err error
				tr, err = tr.Insert(item)
				require.NoError(t, err)
				live[item.ID] = item
			}

			_, err := tr.Validate()
			require.NoError(t, err, "round %d op %d", round, op)
		}

		require.Equal(t, live, tr.ToMap())
		for q := 0; q < 50; q++ {
			query := randomRange()
			got, err := tr.QueryIntersection(query)
			require.NoError(t, err)
			if diff := cmp.Diff(bruteForce(live, query), got); diff != "" {
				t.Fatalf("round %d query %s: -want, +got:\n%s", round, query, diff)
			}
		}
	}
}
