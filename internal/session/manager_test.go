package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/entity"
	"github.com/joseph-ayodele/invoice-collator/internal/selector"
	"github.com/joseph-ayodele/invoice-collator/internal/workflow"
)

func TestGetOrCreate(t *testing.T) {
	m := NewManager(Deps{Pipeline: &stubRunner{}, Logger: quietLogger()})

	ctrl, created := m.GetOrCreate("")
	require.True(t, created)
	_, err := uuid.Parse(ctrl.ID())
	require.NoError(t, err)

	again, created := m.GetOrCreate(ctrl.ID())
	assert.False(t, created)
	assert.Same(t, ctrl, again)

	forged, created := m.GetOrCreate("not-a-uuid")
	assert.True(t, created)
	assert.NotEqual(t, "not-a-uuid", forged.ID())

	assert.Equal(t, 2, m.Len())

	_, ok := m.Get(uuid.NewString())
	assert.False(t, ok)
}

func TestSessionsAreIndependent(t *testing.T) {
	m := NewManager(Deps{
		Pipeline: &stubRunner{result: workflow.Result{Outcome: workflow.OutcomeComplete, Dataset: completeDataset()}},
		Logger:   quietLogger(),
	})
	a, _ := m.GetOrCreate("")
	b, _ := m.GetOrCreate("")

	_, err := a.Select(context.Background(), []selector.Candidate{pdfCandidate("a.pdf")})
	require.NoError(t, err)

	assert.Equal(t, constants.RunStateComplete, a.State())
	assert.Equal(t, constants.RunStateIdle, b.State())
}

func TestCleanupOldSessions(t *testing.T) {
	journal := newJournal(t)
	runner := &stubRunner{
		result:  workflow.Result{Outcome: workflow.OutcomeComplete, Dataset: completeDataset()},
		release: make(chan struct{}),
	}
	m := NewManager(Deps{Pipeline: runner, Journal: journal, Logger: quietLogger()})

	idle, _ := m.GetOrCreate("")
	busy, _ := m.GetOrCreate("")
	_, err := journal.Record(context.Background(), entity.RunEvent{SessionID: idle.ID(), RunID: "r1", State: "IDLE"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = busy.Select(context.Background(), []selector.Candidate{pdfCandidate("a.pdf")})
	}()
	require.Eventually(t, func() bool {
		return busy.State() == constants.RunStateLoading
	}, time.Second, 5*time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	removed := m.CleanupOldSessions(context.Background(), time.Millisecond)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Len())

	_, ok := m.Get(idle.ID())
	assert.False(t, ok)
	_, ok = m.Get(busy.ID())
	assert.True(t, ok)

	events, err := journal.ListBySession(context.Background(), idle.ID(), 0)
	require.NoError(t, err)
	assert.Empty(t, events)

	close(runner.release)
	<-done
}

func TestRunCleanupStopsWithContext(t *testing.T) {
	m := NewManager(Deps{Pipeline: &stubRunner{}, Logger: quietLogger()})
	m.GetOrCreate("")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunCleanup(ctx, 5*time.Millisecond, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCleanup did not stop")
	}
}
