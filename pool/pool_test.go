package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetReturnsEmptyBufferWithCapacity(t *testing.T) {
	p := New(2, 512)

	buf := p.Get()
	require.Equal(t, 0, len(buf))
	require.Equal(t, 512, cap(buf))
}

func TestPutGetReusesBuffer(t *testing.T) {
	p := New(2, 512)

	buf := p.Get()
	buf = append(buf, 'x')
	p.Put(buf)
	require.Equal(t, 1, p.Idle())

	again := p.Get()
	require.Equal(t, 0, len(again), "reused buffer must come back empty")
	require.Equal(t, 512, cap(again))
	require.Equal(t, 0, p.Idle())
}

func TestGetNeverBlocksWhenEmpty(t *testing.T) {
	p := New(1, 128)

	a := p.Get()
	b := p.Get()
	require.Equal(t, 128, cap(a))
	require.Equal(t, 128, cap(b))
}

func TestPutDropsWhenFull(t *testing.T) {
	p := New(1, 128)

	p.Put(make([]byte, 0, 128))
	p.Put(make([]byte, 0, 128))
	require.Equal(t, 1, p.Idle())
}

func TestPutRejectsForeignBuffers(t *testing.T) {
	p := New(4, 128)

	p.Put(make([]byte, 0, 64))
	require.Equal(t, 0, p.Idle())
}

func TestDefaultsForBadArguments(t *testing.T) {
	p := New(0, 0)
	buf := p.Get()
	require.Equal(t, 16*1024, cap(buf))
}
