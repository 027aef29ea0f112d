package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorString(t *testing.T) {
	assert.Equal(t, "[1.5,-2,0.25]", Vector{1.5, -2, 0.25}.String())
	assert.Equal(t, "[]", Vector{}.String())
}

func TestVectorScan(t *testing.T) {
	var v Vector
	require.NoError(t, v.Scan([]byte("[1.5,-2,0.25]")))
	assert.Equal(t, Vector{1.5, -2, 0.25}, v)

	require.NoError(t, v.Scan("[0.125, 3]"))
	assert.Equal(t, Vector{0.125, 3}, v)

	require.NoError(t, v.Scan(nil))
	assert.Nil(t, v)

	assert.Error(t, v.Scan(42))
	assert.Error(t, v.Scan("[not,a,number]"))
}

func TestVectorRoundTrip(t *testing.T) {
	in := Vector{0.0012207031, -0.5, 1}

	val, err := in.Value()
	require.NoError(t, err)

	var out Vector
	require.NoError(t, out.Scan(val.(string)))
	assert.Equal(t, in, out)
}
