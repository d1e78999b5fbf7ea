package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New("a", "b", "b")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("c"))

	s.Add("c")
	assert.True(t, s.Has("c"))
	assert.Equal(t, 3, s.Len())
}

func TestNilSetLookup(t *testing.T) {
	var s Set[string]
	assert.False(t, s.Has("anything"))
	assert.Equal(t, 0, s.Len())
}
