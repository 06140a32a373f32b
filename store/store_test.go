package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistAndReclaim(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	inst := s.NewInstance()
	path, err := inst.Persist([]byte("%PDF-1.4"), "pdf")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.True(t, strings.HasSuffix(path, ".pdf"))
	assert.Contains(t, path, inst.ID())

	inst.Reclaim()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestReclaimIsIdempotentAndIsolated(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	inst := s.NewInstance()
	first, err := inst.Persist([]byte("a"), "png")
	require.NoError(t, err)

	// A tracked path that no longer exists must not block deleting the rest.
	inst.Track(filepath.Join(s.Dir(), "never_created.png"))

	second := inst.PageBase() + "-001.png"
	require.NoError(t, os.WriteFile(second, []byte("b"), 0644))
	inst.Track(second)

	inst.Reclaim()
	inst.Reclaim() // second call is a no-op

	for _, p := range []string{first, second} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "expected %s to be removed", p)
	}
}

func TestInstancesDoNotCollide(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	a := s.NewInstance()
	b := s.NewInstance()
	assert.NotEqual(t, a.ID(), b.ID())

	pa, err := a.Persist([]byte("a"), "png")
	require.NoError(t, err)
	pb, err := b.Persist([]byte("b"), "png")
	require.NoError(t, err)
	assert.NotEqual(t, pa, pb)

	// Reclaiming one instance leaves the other's artifacts alone.
	a.Reclaim()
	_, err = os.Stat(pb)
	assert.NoError(t, err)
	b.Reclaim()
}
