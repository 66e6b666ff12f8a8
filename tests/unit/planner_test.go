package unit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyfs/tidyfs/internal/infrastructure/logging"
	"github.com/tidyfs/tidyfs/internal/organizer"
	"github.com/tidyfs/tidyfs/tests/helpers/testutil"
)

func newPlanner(provider *testutil.MemProvider) *organizer.Planner {
	classifier := organizer.NewDefaultClassifier()
	detector := organizer.NewDetector(provider,
		organizer.NewIndicatorSet(organizer.DefaultIndicators()), logging.NewNop())
	return organizer.NewPlanner(provider, classifier, detector,
		organizer.DefaultExcludedDirs(), logging.NewNop())
}

func planSources(plan *organizer.MovePlan) []string {
	out := make([]string, 0, len(plan.Entries))
	for _, e := range plan.Entries {
		out = append(out, e.Source)
	}
	return out
}

// TestPlanRootAndSubdirFiles tests candidate collection one level deep
func TestPlanRootAndSubdirFiles(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/report.pdf", []byte("r"))
	provider.AddFile("/data/inbox/photo.jpg", []byte("p"))
	provider.AddFile("/data/inbox/misc/song.mp3", []byte("s"))
	provider.AddFile("/data/inbox/misc/nested/deep.txt", []byte("d"))

	plan, err := newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{RespectProjects: true})
	require.NoError(t, err)

	// One level only: deep.txt sits two levels down and stays put.
	require.Len(t, plan.Entries, 3)
	assert.Empty(t, plan.Errors)
	assert.Empty(t, plan.Projects)

	// Entries are grouped by category in rule order.
	assert.Equal(t, []string{
		"/data/inbox/report.pdf",
		"/data/inbox/photo.jpg",
		"/data/inbox/misc/song.mp3",
	}, planSources(plan))

	assert.Equal(t, "/data/inbox/Documents/report.pdf", plan.Entries[0].Destination)
	assert.Equal(t, "Documents", plan.Entries[0].Category)
	assert.Equal(t, "report.pdf", plan.Entries[0].Display)
	assert.Equal(t, "misc/song.mp3", plan.Entries[2].Display)
}

// TestPlanRespectsProjects tests project directory protection
func TestPlanRespectsProjects(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/loose.pdf", []byte("l"))
	provider.AddFile("/data/inbox/webapp/package.json", []byte("{}"))
	provider.AddFile("/data/inbox/webapp/app.js", []byte("a"))
	provider.AddFile("/data/inbox/misc/note.txt", []byte("n"))

	plan, err := newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{RespectProjects: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"webapp"}, plan.Projects)
	assert.Equal(t, []string{
		"/data/inbox/loose.pdf",
		"/data/inbox/misc/note.txt",
	}, planSources(plan))

	// With protection off the project's files become candidates too.
	plan, err = newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{RespectProjects: false})
	require.NoError(t, err)

	assert.Empty(t, plan.Projects)
	assert.Contains(t, planSources(plan), "/data/inbox/webapp/app.js")
	assert.Contains(t, planSources(plan), "/data/inbox/webapp/package.json")
}

// TestPlanFilters tests the category and extension filters
func TestPlanFilters(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/a.pdf", []byte("a"))
	provider.AddFile("/data/inbox/b.jpg", []byte("b"))
	provider.AddFile("/data/inbox/c.PDF", []byte("c"))
	provider.AddFile("/data/inbox/d.txt", []byte("d"))

	plan, err := newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{Category: "Images", RespectProjects: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/inbox/b.jpg"}, planSources(plan))

	// Extension matching is case-insensitive, leading dot optional.
	plan, err = newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{Extension: "pdf", RespectProjects: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/data/inbox/a.pdf",
		"/data/inbox/c.PDF",
	}, planSources(plan))

	plan, err = newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{Extension: ".PDF", RespectProjects: true})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)

	// An unknown category simply matches nothing.
	plan, err = newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{Category: "Nonexistent", RespectProjects: true})
	require.NoError(t, err)
	assert.Empty(t, plan.Entries)
}

// TestPlanSkipsMarkersAndExcluded tests source filtering
func TestPlanSkipsMarkersAndExcluded(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/Documents", []byte("marker"))
	provider.AddFile("/data/inbox/real.pdf", []byte("r"))
	provider.AddFile("/data/inbox/node_modules/lib.js", []byte("x"))
	provider.AddFile("/data/inbox/Images/old.png", []byte("o"))

	plan, err := newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{RespectProjects: true})
	require.NoError(t, err)

	// The category-named file, the excluded directory and the existing
	// category directory are all left alone.
	assert.Equal(t, []string{"/data/inbox/real.pdf"}, planSources(plan))
}

// TestPlanDestinationCollision tests duplicate destination handling
func TestPlanDestinationCollision(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/report.pdf", []byte("root"))
	provider.AddFile("/data/inbox/misc/report.pdf", []byte("sub"))

	plan, err := newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{RespectProjects: true})
	require.NoError(t, err)

	// The root file claims the destination first; the subdirectory
	// duplicate is dropped into the error list, never renamed over.
	require.Len(t, plan.Entries, 1)
	assert.Equal(t, "/data/inbox/report.pdf", plan.Entries[0].Source)

	require.Len(t, plan.Errors, 1)
	assert.Equal(t, "misc/report.pdf", plan.Errors[0].Name)
	assert.Contains(t, plan.Errors[0].Reason, "destination already targeted by report.pdf")
}

// TestPlanUnlistableSubdir tests tolerated listing failures
func TestPlanUnlistableSubdir(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/a.pdf", []byte("a"))
	provider.AddFile("/data/inbox/bad/b.txt", []byte("b"))
	provider.FailList["/data/inbox/bad"] = errors.New("device offline")

	plan, err := newPlanner(provider).Plan(context.Background(), "/data/inbox",
		organizer.PlanOptions{RespectProjects: false})
	require.NoError(t, err)

	assert.Equal(t, []string{"/data/inbox/a.pdf"}, planSources(plan))
	require.Len(t, plan.Errors, 1)
	assert.Equal(t, "bad", plan.Errors[0].Name)
	assert.Contains(t, plan.Errors[0].Reason, "listing failed")
	assert.Contains(t, plan.Errors[0].Reason, "device offline")
}

// TestPlanRootFailure tests that an unlistable root is fatal
func TestPlanRootFailure(t *testing.T) {
	provider := testutil.NewMemProvider("/data")

	_, err := newPlanner(provider).Plan(context.Background(), "/data/missing",
		organizer.PlanOptions{})
	require.Error(t, err)
}
