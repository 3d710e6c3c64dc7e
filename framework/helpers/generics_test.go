package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIfElse(t *testing.T) {
	assert.Equal(t, 3, IfElse(true, 3, 4))
	assert.Equal(t, "b", IfElse(false, "a", "b"))
}

func TestCopyOf(t *testing.T) {
	s := []string{"a", "b"}
	s1 := CopyOf(s)
	assert.Equal(t, s, s1)
	s[0] = "x"
	assert.Equal(t, "a", s1[0])
	assert.Nil(t, CopyOf([]int(nil)))
}

func TestSorted(t *testing.T) {
	s := []string{"d", "a", "c", "b"}
	assert.Equal(t, []string{"a", "b", "c", "d"}, Sorted(s))
	assert.Equal(t, []string{"d", "a", "c", "b"}, s)
}
