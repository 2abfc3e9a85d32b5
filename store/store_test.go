package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mortgagemesh/core"
)

var _ ExecutionStore = (*InMemoryStore)(nil)

func newRecord(id string, startedAt time.Time) *core.ExecutionRecord {
	return &core.ExecutionRecord{
		ID:            id,
		ApplicationID: "app-1",
		Mode:          core.ModeSequential,
		Status:        core.ExecutionPending,
		Steps:         map[string]core.StepStatus{"underwriting": core.StepPending},
		StartedAt:     startedAt,
	}
}

func TestCreateAndGetReturnsClones(t *testing.T) {
	s := NewInMemoryStore()
	rec := newRecord("exec-1", time.Now())
	require.NoError(t, s.Create(rec))

	// Mutating the original must not affect the stored copy.
	rec.Status = core.ExecutionFailed

	got, err := s.Get("exec-1")
	require.NoError(t, err)
	assert.Equal(t, core.ExecutionPending, got.Status)

	// Mutating the snapshot must not affect subsequent reads.
	got.Steps["underwriting"] = core.StepCompleted
	again, err := s.Get("exec-1")
	require.NoError(t, err)
	assert.Equal(t, core.StepPending, again.Steps["underwriting"])
}

func TestCreateDuplicate(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Create(newRecord("exec-1", time.Now())))

	err := s.Create(newRecord("exec-1", time.Now()))
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestGetUnknown(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Get("missing")
	var nfErr *core.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "execution", nfErr.Kind)
}

func TestListNewestFirst(t *testing.T) {
	s := NewInMemoryStore()
	base := time.Now()
	require.NoError(t, s.Create(newRecord("exec-old", base.Add(-time.Hour))))
	require.NoError(t, s.Create(newRecord("exec-new", base)))

	recs, err := s.List()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "exec-new", recs[0].ID)
	assert.Equal(t, "exec-old", recs[1].ID)
}

func TestUpdateAtomicity(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Create(newRecord("exec-1", time.Now())))

	boom := errors.New("mutation rejected")
	_, err := s.Update("exec-1", func(rec *core.ExecutionRecord) error {
		rec.Status = core.ExecutionRunning
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The failed mutation left no partial write.
	got, err := s.Get("exec-1")
	require.NoError(t, err)
	assert.Equal(t, core.ExecutionPending, got.Status)

	updated, err := s.Update("exec-1", func(rec *core.ExecutionRecord) error {
		rec.Status = core.ExecutionRunning
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, core.ExecutionRunning, updated.Status)
}

func TestDeleteOlderThan(t *testing.T) {
	s := NewInMemoryStore()

	old := newRecord("exec-old", time.Now().Add(-48*time.Hour))
	old.Status = core.ExecutionCompleted
	old.CompletedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.Create(old))

	recent := newRecord("exec-recent", time.Now())
	recent.Status = core.ExecutionCompleted
	recent.CompletedAt = time.Now()
	require.NoError(t, s.Create(recent))

	// Still running, regardless of age.
	running := newRecord("exec-running", time.Now().Add(-72*time.Hour))
	running.Status = core.ExecutionRunning
	require.NoError(t, s.Create(running))

	removed, err := s.DeleteOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.Get("exec-old")
	assert.Error(t, err)
	_, err = s.Get("exec-recent")
	assert.NoError(t, err)
	_, err = s.Get("exec-running")
	assert.NoError(t, err)
}
