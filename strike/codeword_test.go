package strike

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodewordsAppendToOpen(t *testing.T) {
	cw := NewCodewords()
	cw.Append(NewIncoming())
	require.NoError(t, cw.Begin("bomb", 2))
	assert.Equal(t, "bomb", cw.Open())
	cw.Append(NewDeliver())
	cw.Append(NewMark())
	require.NoError(t, cw.End(5))
	cw.Append(NewCodewordExecution("bomb", 2))
	require.NoError(t, cw.Finish())

	main, ok := cw.Lookup(MainCodeword)
	require.True(t, ok)
	assert.Equal(t, []Command{NewIncoming(), NewCodewordExecution("bomb", 2)}, main)

	bomb, ok := cw.Lookup("bomb")
	require.True(t, ok)
	assert.Equal(t, []Command{NewDeliver(), NewMark()}, bomb)

	assert.Equal(t, []string{MainCodeword, "bomb"}, cw.Names())
}

func TestCodewordsNoNesting(t *testing.T) {
	cw := NewCodewords()
	require.NoError(t, cw.Begin("outer", 1))
	err := cw.Begin("inner", 2)
	require.Error(t, err)
	assert.Equal(t, Structural, KindOf(err))
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, "outer", cw.Open())
}

func TestCodewordsSetWithoutCodeword(t *testing.T) {
	err := NewCodewords().End(3)
	assert.Equal(t, Structural, KindOf(err))
}

func TestCodewordsReservedNames(t *testing.T) {
	cw := NewCodewords()
	assert.Equal(t, Structural, KindOf(cw.Begin(MainCodeword, 1)))
	assert.Equal(t, Structural, KindOf(cw.Begin("", 1)))
	assert.Equal(t, MainCodeword, cw.Open())
}

func TestCodewordsNeverSet(t *testing.T) {
	cw := NewCodewords()
	require.NoError(t, cw.Begin("dangling", 7))
	err := cw.Finish()
	assert.Equal(t, Structural, KindOf(err))
	assert.Contains(t, err.Error(), "line 7")
}

func TestCodewordsReopenAppends(t *testing.T) {
	cw := NewCodewords()
	require.NoError(t, cw.Begin("strafe", 1))
	cw.Append(NewRoll(1, 0, 0))
	require.NoError(t, cw.End(2))
	require.NoError(t, cw.Begin("strafe", 3))
	cw.Append(NewRoll(0, 1, 0))
	require.NoError(t, cw.End(4))

	strafe, _ := cw.Lookup("strafe")
	assert.Len(t, strafe, 2)
	assert.Equal(t, []string{MainCodeword, "strafe"}, cw.Names())
}
