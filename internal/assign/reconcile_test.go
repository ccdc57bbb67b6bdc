package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assigntrack/internal/model"
)

func record(title string) model.AssignmentRecord {
	return model.AssignmentRecord{
		Title:    title,
		Course:   "Biology 101",
		Status:   model.DefaultStatus,
		Priority: model.PriorityStandard,
	}
}

func TestReconcileRefreshAndAppend(t *testing.T) {
	existing := []string{"Essay 1"}
	batch := []model.AssignmentRecord{record("Essay 1"), record("NewThing")}

	plan := Reconcile(batch, existing)

	require.Len(t, plan.Refreshes, 1)
	assert.Equal(t, 1, plan.Refreshes[0].Position)
	assert.Equal(t, "Essay 1", plan.Refreshes[0].Record.Title)

	require.Len(t, plan.Appends, 1)
	assert.Equal(t, 2, plan.Appends[0].Position)
	assert.Equal(t, "NewThing", plan.Appends[0].Record.Title)
}

func TestReconcileIdempotent(t *testing.T) {
	batch := []model.AssignmentRecord{record("Essay 1"), record("Quiz 2")}

	first := Reconcile(batch, []string{"Assignment"})
	require.Len(t, first.Appends, 2)

	// Snapshot after the first run now contains both titles; the same
	// batch must produce zero appends the second time.
	snapshot := []string{"Assignment", "Essay 1", "Quiz 2"}
	second := Reconcile(batch, snapshot)

	assert.Empty(t, second.Appends)
	require.Len(t, second.Refreshes, 2)
	assert.Equal(t, 2, second.Refreshes[0].Position)
	assert.Equal(t, 3, second.Refreshes[1].Position)
}

func TestReconcileFirstOccurrenceWinsOnDuplicateTitles(t *testing.T) {
	existing := []string{"Header", "Essay 1", "Essay 1"}
	plan := Reconcile([]model.AssignmentRecord{record("Essay 1")}, existing)

	require.Len(t, plan.Refreshes, 1)
	assert.Equal(t, 2, plan.Refreshes[0].Position)
}

func TestReconcileAppendPositionsAreSequential(t *testing.T) {
	existing := []string{"a", "b", "c"}
	batch := []model.AssignmentRecord{record("x"), record("y"), record("z")}

	plan := Reconcile(batch, existing)

	require.Len(t, plan.Appends, 3)
	assert.Equal(t, 4, plan.Appends[0].Position)
	assert.Equal(t, 5, plan.Appends[1].Position)
	assert.Equal(t, 6, plan.Appends[2].Position)
}

func TestReconcileEmptyInputs(t *testing.T) {
	assert.True(t, Reconcile(nil, nil).Empty())
	assert.True(t, Reconcile(nil, []string{"Essay 1"}).Empty())
}

func TestReconcileKeepsEncounterOrder(t *testing.T) {
	existing := []string{"b"}
	batch := []model.AssignmentRecord{record("a"), record("b"), record("c")}

	plan := Reconcile(batch, existing)

	require.Len(t, plan.Appends, 2)
	assert.Equal(t, "a", plan.Appends[0].Record.Title)
	assert.Equal(t, "c", plan.Appends[1].Record.Title)
	require.Len(t, plan.Refreshes, 1)
	assert.Equal(t, "b", plan.Refreshes[0].Record.Title)
}
