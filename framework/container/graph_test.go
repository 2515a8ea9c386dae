package container_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/km-arc/go-beans/framework/container"
)

func pass(deps []any) (any, error) { return fmt.Sprint(len(deps)), nil }

func TestValidate_Clean(t *testing.T) {
	t.Parallel()
	assert.NoError(t, zoo(t).Validate())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	t.Parallel()
	c := container.New()
	require.NoError(t, c.Register("human", pass, "dog"))
	require.NoError(t, c.Register("cat", pass, "mouse"))
	require.NoError(t, c.Register("mouse", pass, "cheese"))
	require.NoError(t, c.Register("cheese", pass, "cat"))

	err := c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, container.ErrUnknownDependency)
	assert.ErrorIs(t, err, container.ErrCyclicDependency)

	var unknown *container.UnknownDependencyError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "dog", unknown.ID)

	var cycle *container.CyclicDependencyError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"cat", "mouse", "cheese", "cat"}, cycle.Path)
}

func TestValidate_CycleReportedOnce(t *testing.T) {
	t.Parallel()
	c := container.New()
	require.NoError(t, c.Register("a", pass, "b"))
	require.NoError(t, c.Register("b", pass, "a"))
	require.NoError(t, c.Register("c", pass, "a"))

	joined, ok := c.Validate().(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), 1)
}

func TestOrder_DependenciesFirst(t *testing.T) {
	t.Parallel()
	c := container.New()
	require.NoError(t, c.Register("human", pass, "dog", "leash"))
	require.NoError(t, c.Register("leash", pass))
	require.NoError(t, c.Register("dog", pass))

	order, err := c.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"container", "dog", "leash", "human"}, order)
}

func TestOrder_FailsOnCycle(t *testing.T) {
	t.Parallel()
	c := container.New()
	require.NoError(t, c.Register("a", pass, "a"))

	_, err := c.Order()
	assert.ErrorIs(t, err, container.ErrCyclicDependency)
}

func TestPreinstantiate_BuildsSingletonsOnly(t *testing.T) {
	t.Parallel()
	c := zoo(t)
	require.NoError(t, c.RegisterDefinition("puppy", container.LifetimeTransient, newDog))

	require.NoError(t, c.Preinstantiate(context.Background()))

	assert.True(t, c.Resolved("dog"))
	assert.True(t, c.Resolved("human"))
	assert.False(t, c.Resolved("puppy"))
}

func TestPreinstantiate_StopsOnCancel(t *testing.T) {
	t.Parallel()
	c := zoo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Preinstantiate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.Resolved("human"))
}

// ── properties ────────────────────────────────────────────────────────────────

func beanID(i int) string { return fmt.Sprintf("bean-%02d", i) }

// TestProperty_AcyclicGraphsResolve builds random DAGs (edges only point to
// lower indices) and checks every bean resolves exactly once and Order puts
// dependencies first.
func TestProperty_AcyclicGraphsResolve(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "beans")
		c := container.New()
		builds := map[string]int{}
		deps := map[string][]string{}

		for i := 0; i < n; i++ {
			id := beanID(i)
			var ds []string
			for j := 0; j < i; j++ {
				if rapid.Bool().Draw(rt, fmt.Sprintf("edge-%d-%d", i, j)) {
					ds = append(ds, beanID(j))
				}
			}
			deps[id] = ds
			require.NoError(rt, c.Register(id, func([]any) (any, error) {
				builds[id]++
				return &struct{ ID string }{id}, nil
			}, ds...))
		}

		require.NoError(rt, c.Validate())
		for i := n - 1; i >= 0; i-- {
			_, err := c.Resolve(beanID(i))
			require.NoError(rt, err)
		}
		for id, count := range builds {
			require.Equal(rt, 1, count, "bean %s built %d times", id, count)
		}

		order, err := c.Order()
		require.NoError(rt, err)
		for id, ds := range deps {
			pos := slices.Index(order, id)
			for _, d := range ds {
				require.Less(rt, slices.Index(order, d), pos, "%s must come before %s", d, id)
			}
		}
	})
}

// TestProperty_ChainWithBackEdgeIsCyclic closes a random chain into a loop
// and checks both Resolve and Validate report the cycle.
func TestProperty_ChainWithBackEdgeIsCyclic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 15).Draw(rt, "length")
		back := rapid.IntRange(0, n-1).Draw(rt, "back")
		c := container.New()

		for i := 0; i < n; i++ {
			next := beanID(i + 1)
			if i == n-1 {
				next = beanID(back)
			}
			require.NoError(rt, c.Register(beanID(i), pass, next))
		}

		_, err := c.Resolve(beanID(0))
		require.ErrorIs(rt, err, container.ErrCyclicDependency)

		var cycle *container.CyclicDependencyError
		require.True(rt, errors.As(err, &cycle))
		loop := cycle.Cycle()
		require.Equal(rt, beanID(back), loop[0])
		require.Len(rt, loop, n-back+1)

		require.ErrorIs(rt, c.Validate(), container.ErrCyclicDependency)
	})
}
