package histogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofit/domain/core"
)

func TestBuild_CountsAndInvariants(t *testing.T) {
	values := []float64{0.1, 0.2, 1.5, 2.9, 3.0, -0.5, 2.0, 0.0}
	h, err := Build(values, 0, 3, 3)
	require.NoError(t, err)

	require.NoError(t, h.Validate())
	assert.Equal(t, []float64{0, 1, 2, 3}, h.Edges)
	assert.Equal(t, []int{3, 1, 2}, h.Counts)
	assert.Equal(t, 1, h.Underflow)
	assert.Equal(t, 1, h.Overflow)
	assert.Equal(t, 6, h.Total())
	assert.Len(t, h.Edges, len(h.Counts)+1)
}

func TestBuild_Unsorted(t *testing.T) {
	h, err := Build([]float64{2.5, 0.5, 1.5, 0.7}, 0, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 1}, h.Counts)
}

func TestBuild_EdgeCases(t *testing.T) {
	_, err := Build([]float64{1}, 0, 1, 0)
	assert.ErrorIs(t, err, core.ErrInvalidHistogram)

	_, err = Build([]float64{1}, 1, 1, 5)
	assert.ErrorIs(t, err, core.ErrInvalidHistogram)

	_, err = BuildWithEdges([]float64{1}, []float64{0, 2, 1})
	assert.ErrorIs(t, err, core.ErrInvalidHistogram)

	empty, err := Build(nil, 0, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total())
	assert.Len(t, empty.Counts, 4)
}

func TestBuild_LastEdgePinned(t *testing.T) {
	h, err := Build(nil, 0.1, 0.7, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.7, h.Edges[3])
	assert.Equal(t, 0.1, h.Edges[0])
}
