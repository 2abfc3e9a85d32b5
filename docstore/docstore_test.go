package docstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mortgagemesh/core"
)

var _ Store = (*InMemoryStore)(nil)

func TestPutGetIsolation(t *testing.T) {
	s := NewInMemoryStore()

	data := []byte("paystub bytes")
	meta, err := s.Put("APP-1", "doc-1", "application/pdf", data)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), meta.Size)
	assert.Len(t, meta.SHA256, 64)
	assert.False(t, meta.UploadedAt.IsZero())

	// Mutating the caller's slice must not reach the stored copy.
	data[0] = 'X'
	_, got, err := s.Get("APP-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "paystub bytes", string(got))

	// Nor must mutating the returned slice.
	got[0] = 'Y'
	_, again, err := s.Get("APP-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "paystub bytes", string(again))
}

func TestPutValidatesKeys(t *testing.T) {
	s := NewInMemoryStore()
	var vErr *core.ValidationError

	_, err := s.Put("", "doc-1", "", nil)
	assert.ErrorAs(t, err, &vErr)

	_, err = s.Put("APP-1", "", "", nil)
	assert.ErrorAs(t, err, &vErr)
}

func TestGetUnknownDocument(t *testing.T) {
	s := NewInMemoryStore()

	_, _, err := s.Get("APP-1", "missing")
	var nfErr *core.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "document", nfErr.Kind)
}

func TestListAndDelete(t *testing.T) {
	s := NewInMemoryStore()

	_, err := s.Put("APP-1", "doc-2", "", []byte("b"))
	require.NoError(t, err)
	_, err = s.Put("APP-1", "doc-1", "", []byte("a"))
	require.NoError(t, err)

	metas, err := s.List("APP-1")
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "doc-1", metas[0].DocumentID)
	assert.Equal(t, "doc-2", metas[1].DocumentID)

	require.NoError(t, s.Delete("APP-1", "doc-1"))
	assert.Error(t, s.Delete("APP-1", "doc-1"))

	metas, err = s.List("APP-1")
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}

func TestConcurrentPuts(t *testing.T) {
	s := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Put("APP-1", fmt.Sprintf("doc-%d", i%10), "", []byte("data"))
			assert.NoError(t, err)
			_, _ = s.List("APP-1")
		}(i)
	}
	wg.Wait()

	metas, err := s.List("APP-1")
	require.NoError(t, err)
	assert.Len(t, metas, 10)
}
