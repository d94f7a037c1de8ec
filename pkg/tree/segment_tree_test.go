package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSegmentTree_InvalidSize(t *testing.T) {
	_, err := NewSegmentTree(0)
	assert.Error(t, err)
	_, err = NewSegmentTree(-1)
	assert.Error(t, err)
}

func TestSegmentTree_UpdateAndQuery(t *testing.T) {
	st, err := NewSegmentTree(4)
	require.NoError(t, err)

	require.NoError(t, st.Rebuild([]float64{1, 2, 3, 4}))
	assert.InDelta(t, 10.0, st.TotalSum(), 1e-9)

	require.NoError(t, st.Update(2, 5))
	assert.InDelta(t, 12.0, st.TotalSum(), 1e-9)

	w, err := st.Query(2)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, w, 1e-9)
}

func TestSegmentTree_Find(t *testing.T) {
	st, err := NewSegmentTree(4)
	require.NoError(t, err)
	require.NoError(t, st.Rebuild([]float64{1, 2, 3, 4}))

	// 前缀和为 [1,3,6,10]：落在区间内的值应命中对应下标
	cases := []struct {
		value float64
		index int
	}{
		{0.5, 0},
		{1.5, 1},
		{4.0, 2},
		{9.9, 3},
	}
	for _, c := range cases {
		i, err := st.Find(c.value)
		require.NoError(t, err)
		assert.Equal(t, c.index, i, "value=%v", c.value)
	}
}

func TestSegmentTree_FindSkipsZeroWeight(t *testing.T) {
	st, err := NewSegmentTree(3)
	require.NoError(t, err)
	require.NoError(t, st.Rebuild([]float64{0, 2, 0}))

	i, err := st.Find(1.0)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}
