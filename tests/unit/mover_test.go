package unit

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyfs/tidyfs/internal/infrastructure/logging"
	"github.com/tidyfs/tidyfs/internal/infrastructure/monitoring"
	"github.com/tidyfs/tidyfs/internal/organizer"
	"github.com/tidyfs/tidyfs/tests/helpers/testutil"
)

func newMover(provider *testutil.MemProvider, workers int) *organizer.Mover {
	return organizer.NewMover(provider, organizer.NewDefaultClassifier(),
		logging.NewNop(), monitoring.NewMetricsWith(prometheus.NewRegistry()),
		workers, 0)
}

func seedInbox(provider *testutil.MemProvider) {
	provider.AddFile("/data/inbox/report.pdf", []byte("r"))
	provider.AddFile("/data/inbox/photo.jpg", []byte("p"))
	provider.AddFile("/data/inbox/misc/song.mp3", []byte("s"))
}

// TestMoverEnsureCategoryDirs tests idempotent directory creation
func TestMoverEnsureCategoryDirs(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddDir("/data/inbox")
	mover := newMover(provider, 1)

	created := mover.EnsureCategoryDirs(context.Background(), "/data/inbox")
	assert.Equal(t, []string{
		"Documents", "Images", "Videos", "Audio",
		"Archives", "Code", "Applications", "Others",
	}, created)
	assert.True(t, provider.Exists("/data/inbox/Documents"))
	assert.True(t, provider.Exists("/data/inbox/Others"))

	// Creating them again is not an error.
	created = mover.EnsureCategoryDirs(context.Background(), "/data/inbox")
	assert.Len(t, created, 8)
}

// TestMoverExecute tests a clean batch
func TestMoverExecute(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	seedInbox(provider)
	mover := newMover(provider, 4)

	plan, err := newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{RespectProjects: true})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 3)

	report := mover.Execute(context.Background(), plan)

	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, "/data/inbox", report.Root)
	assert.Equal(t, 3, report.TotalMoved)
	assert.False(t, report.Aborted)
	assert.Empty(t, report.Errors)

	require.Len(t, report.Categories, 3)
	assert.Equal(t, "Documents", report.Categories[0].Category)
	assert.Equal(t, []string{"report.pdf"}, report.Categories[0].Moved)
	assert.Equal(t, "Images", report.Categories[1].Category)
	assert.Equal(t, "Audio", report.Categories[2].Category)
	assert.Equal(t, []string{"misc/song.mp3"}, report.Categories[2].Moved)

	assert.True(t, provider.Exists("/data/inbox/Documents/report.pdf"))
	assert.True(t, provider.Exists("/data/inbox/Images/photo.jpg"))
	assert.True(t, provider.Exists("/data/inbox/Audio/song.mp3"))
	assert.False(t, provider.Exists("/data/inbox/report.pdf"))
	assert.False(t, provider.Exists("/data/inbox/misc/song.mp3"))
}

// TestMoverExecuteIdempotent tests that a second batch finds nothing
func TestMoverExecuteIdempotent(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	seedInbox(provider)
	mover := newMover(provider, 2)
	ctx := context.Background()

	plan, err := newPlanner(provider).Plan(ctx, "/data/inbox",
		organizer.PlanOptions{RespectProjects: true})
	require.NoError(t, err)
	report := mover.Execute(ctx, plan)
	require.Equal(t, 3, report.TotalMoved)
	moved := provider.MoveCalls

	plan, err = newPlanner(provider).Plan(ctx, "/data/inbox",
		organizer.PlanOptions{RespectProjects: true})
	require.NoError(t, err)
	report = mover.Execute(ctx, plan)

	assert.Equal(t, 0, report.TotalMoved)
	assert.Empty(t, report.Errors)
	assert.Equal(t, moved, provider.MoveCalls)
}

// TestMoverToleratesFailures tests that one bad move never aborts a batch
func TestMoverToleratesFailures(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	seedInbox(provider)
	provider.FailMove["/data/inbox/photo.jpg"] = errors.New("device busy")

	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())
	mover := organizer.NewMover(provider, organizer.NewDefaultClassifier(),
		logging.NewNop(), metrics, 1, 0)

	plan, err := newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{RespectProjects: true})
	require.NoError(t, err)

	report := mover.Execute(context.Background(), plan)

	assert.Equal(t, 2, report.TotalMoved)
	assert.False(t, report.Aborted)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "photo.jpg", report.Errors[0].Name)
	assert.Equal(t, "device busy", report.Errors[0].Reason)
	assert.True(t, provider.Exists("/data/inbox/photo.jpg"))
	assert.True(t, provider.Exists("/data/inbox/Documents/report.pdf"))

	snap := metrics.GetSnapshot()
	assert.Equal(t, int64(2), snap.FilesMoved)
	assert.Equal(t, int64(1), snap.MoveFailures)
}

// TestMoverPlanErrorsCarryOver tests that dropped candidates reach the report
func TestMoverPlanErrorsCarryOver(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/report.pdf", []byte("root"))
	provider.AddFile("/data/inbox/misc/report.pdf", []byte("sub"))

	plan, err := newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{RespectProjects: true})
	require.NoError(t, err)
	require.Len(t, plan.Errors, 1)

	report := newMover(provider, 2).Execute(context.Background(), plan)

	assert.Equal(t, 1, report.TotalMoved)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "misc/report.pdf", report.Errors[0].Name)
	assert.True(t, provider.Exists("/data/inbox/misc/report.pdf"))
}

// TestMoverCancelledContext tests abort accounting
func TestMoverCancelledContext(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	seedInbox(provider)
	mover := newMover(provider, 1)

	plan, err := newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{RespectProjects: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := mover.Execute(ctx, plan)

	assert.True(t, report.Aborted)
	assert.Equal(t, 0, report.TotalMoved)
	assert.True(t, provider.Exists("/data/inbox/report.pdf"))
}

// TestMoverSkippedProjects tests that protected directories reach the report
func TestMoverSkippedProjects(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/loose.pdf", []byte("l"))
	provider.AddFile("/data/inbox/webapp/package.json", []byte("{}"))

	plan, err := newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{RespectProjects: true})
	require.NoError(t, err)

	report := newMover(provider, 2).Execute(context.Background(), plan)

	assert.Equal(t, []string{"webapp"}, report.Skipped)
	assert.Equal(t, 1, report.TotalMoved)
	assert.True(t, provider.Exists("/data/inbox/webapp/package.json"))
}
