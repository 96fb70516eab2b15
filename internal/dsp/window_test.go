package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindowBufferRejectsInvalidCapacity(t *testing.T) {
	_, err := NewWindowBuffer(0)
	assert.Error(t, err)

	_, err = NewWindowBuffer(-5)
	assert.Error(t, err)
}

func TestWindowBufferEmitsOnExactFill(t *testing.T) {
	wb, err := NewWindowBuffer(4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		window, full := wb.Push(float64(i))
		assert.Nil(t, window)
		assert.False(t, full)
	}

	window, full := wb.Push(3.0)
	require.True(t, full)
	require.NotNil(t, window)
	assert.Equal(t, []float64{0, 1, 2, 3}, window.Samples())
	assert.Equal(t, 4, window.Len())
}

func TestWindowBufferWindowsDoNotOverlap(t *testing.T) {
	wb, err := NewWindowBuffer(3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		wb.Push(float64(i))
	}
	// Cursor voltou ao início: a próxima janela recomeça do zero
	assert.Equal(t, 0, wb.Count())

	wb.Push(10)
	wb.Push(11)
	window, full := wb.Push(12)
	require.True(t, full)
	assert.Equal(t, []float64{10, 11, 12}, window.Samples())
}

func TestWindowBufferSnapshotIsIndependent(t *testing.T) {
	wb, err := NewWindowBuffer(2)
	require.NoError(t, err)

	wb.Push(1)
	window, _ := wb.Push(2)

	// Encher de novo não pode alterar o snapshot anterior
	wb.Push(99)
	wb.Push(98)

	assert.Equal(t, []float64{1, 2}, window.Samples())
}

func TestWindowBufferPeekPartial(t *testing.T) {
	wb, err := NewWindowBuffer(5)
	require.NoError(t, err)

	assert.Empty(t, wb.PeekPartial())

	wb.Push(1)
	wb.Push(2)
	partial := wb.PeekPartial()
	assert.Equal(t, []float64{1, 2}, partial)
	assert.Equal(t, 2, wb.Count())

	// A cópia não expõe o buffer interno
	partial[0] = 77
	assert.Equal(t, []float64{1, 2}, wb.PeekPartial())
}

func TestWindowBufferReset(t *testing.T) {
	wb, err := NewWindowBuffer(3)
	require.NoError(t, err)

	wb.Push(1)
	wb.Push(2)
	wb.Reset()

	assert.Equal(t, 0, wb.Count())
	assert.Equal(t, 3, wb.Capacity())
	assert.Empty(t, wb.PeekPartial())
}
