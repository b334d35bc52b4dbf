package resolver_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/kbequiv/internal/memgraph"
	"github.com/persistorai/kbequiv/internal/models"
	"github.com/persistorai/kbequiv/internal/resolver"
)

func aliasRequest(seeds []string, depth int) resolver.ExpandRequest {
	return resolver.ExpandRequest{
		Seeds:          seeds,
		Category:       resolver.Equivalency,
		Classification: resolver.DefaultClassification(),
		Direction:      resolver.Bidirectional,
		MaxDepth:       depth,
	}
}

func TestExpand_EmptySeeds(t *testing.T) {
	x := resolver.NewExpander(memgraph.New(), testLogger(), 0, 0)

	_, err := x.Expand(context.Background(), aliasRequest(nil, 3))
	require.ErrorIs(t, err, models.ErrEmptySeedSet)
}

func TestExpand_ZeroDepthMakesNoCalls(t *testing.T) {
	g := breastGraph(t)
	x := resolver.NewExpander(g, testLogger(), 0, 0)

	found, err := x.Expand(context.Background(), aliasRequest([]string{"A"}, 0))
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Zero(t, g.Calls().FindEdges)
}

func TestExpand_CycleTerminates(t *testing.T) {
	g := buildGraph(t, graphSpec{
		vertices: map[string]string{"a": "a", "b": "b", "c": "c"},
		order:    []string{"a", "b", "c"},
		edges: [][3]string{
			{"a", "b", "AliasOf"},
			{"b", "c", "AliasOf"},
			{"c", "a", "AliasOf"},
		},
	})
	x := resolver.NewExpander(g, testLogger(), 0, 0)

	found, err := x.Expand(context.Background(), aliasRequest([]string{"a"}, resolver.DefaultConfig().AliasDepth))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids(found))
	assert.LessOrEqual(t, g.Calls().FindEdges, int64(2), "frontier empties once the cycle is closed")
}

func TestExpand_DepthBound(t *testing.T) {
	g := buildGraph(t, graphSpec{
		vertices: map[string]string{"a": "a", "b": "b", "c": "c", "d": "d", "e": "e"},
		order:    []string{"a", "b", "c", "d", "e"},
		edges: [][3]string{
			{"a", "b", "AliasOf"},
			{"c", "b", "Infers"},
			{"c", "d", "DeprecatedBy"},
			{"d", "e", "AliasOf"},
		},
	})

	tests := []struct {
		depth int
		want  []string
	}{
		{depth: 1, want: []string{"b"}},
		{depth: 2, want: []string{"b", "c"}},
		{depth: 3, want: []string{"b", "c", "d"}},
		{depth: 10, want: []string{"b", "c", "d", "e"}},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("depth %d", tc.depth), func(t *testing.T) {
			x := resolver.NewExpander(g, testLogger(), 0, 0)

			found, err := x.Expand(context.Background(), aliasRequest([]string{"a"}, tc.depth))
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(found))
		})
	}
}

func TestExpand_Directions(t *testing.T) {
	g := buildGraph(t, graphSpec{
		vertices: map[string]string{"child": "child", "mid": "mid", "parent": "parent", "alias": "alias"},
		order:    []string{"child", "mid", "parent", "alias"},
		edges: [][3]string{
			{"child", "mid", "SubClassOf"},
			{"mid", "parent", "SubClassOf"},
			{"mid", "alias", "AliasOf"},
		},
	})

	tests := []struct {
		name      string
		direction resolver.Direction
		want      []string
	}{
		{name: "forward follows source to target", direction: resolver.Forward, want: []string{"parent"}},
		{name: "reverse follows target to source", direction: resolver.Reverse, want: []string{"child"}},
		{name: "bidirectional", direction: resolver.Bidirectional, want: []string{"parent", "child"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x := resolver.NewExpander(g, testLogger(), 0, 0)

			found, err := x.Expand(context.Background(), resolver.ExpandRequest{
				Seeds:          []string{"mid"},
				Category:       resolver.Directional,
				Classification: resolver.DefaultClassification(),
				Direction:      tc.direction,
				MaxDepth:       3,
			})
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, ids(found))
		})
	}
}

func TestExpand_IgnoresOtherCategories(t *testing.T) {
	// The oracle returns every edge regardless of the requested classes.
	oracle := &mockOracle{
		findEdges: func(_ context.Context, _, _ []string, _ models.Orientation) ([]models.Edge, error) {
			return []models.Edge{
				{Source: "a", Target: "b", Class: "AliasOf"},
				{Source: "a", Target: "c", Class: "SubClassOf"},
				{Source: "a", Target: "d", Class: "OppositeOf"},
			}, nil
		},
	}
	x := resolver.NewExpander(oracle, testLogger(), 0, 0)

	found, err := x.Expand(context.Background(), aliasRequest([]string{"a"}, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(found))
}

func TestExpand_KnownVerticesSkipped(t *testing.T) {
	g := breastGraph(t)
	require.NoError(t, g.AddEdge("B", "D", "AliasOf"))

	x := resolver.NewExpander(g, testLogger(), 0, 0)

	req := aliasRequest([]string{"A"}, 5)
	req.Known = func(id string) bool { return id == "B" }

	found, err := x.Expand(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, found, "a known vertex is neither returned nor expanded")
}

func TestExpand_Batching(t *testing.T) {
	g := memgraph.New()

	seeds := make([]string, 250)
	for i := range seeds {
		seeds[i] = fmt.Sprintf("v%03d", i)
		require.NoError(t, g.AddVertex(models.Vertex{ID: seeds[i], Class: "Disease", Name: seeds[i]}))
	}

	x := resolver.NewExpander(g, testLogger(), 100, 2)

	found, err := x.Expand(context.Background(), aliasRequest(seeds, 1))
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, int64(3), g.Calls().FindEdges)
}

func TestExpand_BatchesRunConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32

	oracle := &mockOracle{
		findEdges: func(ctx context.Context, _, _ []string, _ models.Orientation) ([]models.Edge, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)

			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}

			select {
			case <-time.After(20 * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			return nil, nil
		},
	}

	x := resolver.NewExpander(oracle, testLogger(), 1, 3)

	_, err := x.Expand(context.Background(), aliasRequest([]string{"a", "b", "c", "d", "e", "f"}, 1))
	require.NoError(t, err)
	assert.Equal(t, 6, oracle.callCount("FindEdges"))
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(1))
}

func TestExpand_ErrorMapping(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("oracle failure", func(t *testing.T) {
		oracle := &mockOracle{
			findEdges: func(context.Context, []string, []string, models.Orientation) ([]models.Edge, error) {
				return nil, boom
			},
		}
		x := resolver.NewExpander(oracle, testLogger(), 0, 0)

		found, err := x.Expand(context.Background(), aliasRequest([]string{"a"}, 2))
		require.ErrorIs(t, err, models.ErrQueryFailure)
		require.ErrorIs(t, err, boom)
		assert.Nil(t, found)
	})

	t.Run("caller cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		x := resolver.NewExpander(breastGraph(t), testLogger(), 0, 0)

		_, err := x.Expand(ctx, aliasRequest([]string{"A"}, 2))
		require.ErrorIs(t, err, models.ErrCancelled)
		assert.NotErrorIs(t, err, models.ErrQueryFailure)
	})

	t.Run("cancelled mid expansion", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		oracle := &mockOracle{
			findEdges: func(ctx context.Context, ids, _ []string, _ models.Orientation) ([]models.Edge, error) {
				if ids[0] == "b" {
					cancel()
					return nil, ctx.Err()
				}

				return []models.Edge{{Source: "a", Target: "b", Class: "AliasOf"}}, nil
			},
		}
		x := resolver.NewExpander(oracle, testLogger(), 0, 0)

		found, err := x.Expand(ctx, aliasRequest([]string{"a"}, 5))
		require.ErrorIs(t, err, models.ErrCancelled)
		assert.Nil(t, found, "no partial results")
	})

	t.Run("deadline is a query failure", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		x := resolver.NewExpander(breastGraph(t), testLogger(), 0, 0)

		_, err := x.Expand(ctx, aliasRequest([]string{"A"}, 2))
		require.ErrorIs(t, err, models.ErrQueryFailure)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
