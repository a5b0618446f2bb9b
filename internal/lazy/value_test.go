package lazy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueMemoizesValue(t *testing.T) {
	var cell Value[string]
	calls := 0
	resolve := func(context.Context) (*string, error) {
		calls++
		s := "x"
		return &s, nil
	}

	first, err := cell.GetOrResolve(context.Background(), resolve)
	require.NoError(t, err)
	second, err := cell.GetOrResolve(context.Background(), resolve)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Same(t, first, second)
	assert.Equal(t, ResolvedValue, cell.State())
}

func TestValueMemoizesAbsence(t *testing.T) {
	var cell Value[int]
	calls := 0
	resolve := func(context.Context) (*int, error) {
		calls++
		return nil, nil
	}

	for i := 0; i < 3; i++ {
		v, err := cell.GetOrResolve(context.Background(), resolve)
		require.NoError(t, err)
		assert.Nil(t, v)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, ResolvedNone, cell.State())
	assert.True(t, cell.Resolved())
}

func TestValueErrorLeavesCellUnresolved(t *testing.T) {
	var cell Value[int]
	boom := errors.New("boom")

	_, err := cell.GetOrResolve(context.Background(), func(context.Context) (*int, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Unresolved, cell.State())

	n := 7
	v, err := cell.GetOrResolve(context.Background(), func(context.Context) (*int, error) {
		return &n, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, *v)
}

func TestOfAndReset(t *testing.T) {
	n := 1
	cell := Of(&n)
	assert.Equal(t, ResolvedValue, cell.State())
	assert.Equal(t, "resolved-value", cell.State().String())

	cell.Reset()
	assert.Equal(t, Unresolved, cell.State())
	assert.Nil(t, cell.Peek())

	empty := Of[int](nil)
	assert.Equal(t, ResolvedNone, empty.State())
}
