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

func newWalker(provider *testutil.MemProvider) *organizer.Walker {
	return organizer.NewWalker(provider, organizer.NewDefaultClassifier(),
		organizer.DefaultExcludedDirs(), logging.NewNop())
}

// TestWalkerSingleLevel tests the non-recursive walk
func TestWalkerSingleLevel(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/a.pdf", []byte("a"))
	provider.AddFile("/data/inbox/b.jpg", []byte("b"))
	provider.AddFile("/data/inbox/sub/c.txt", []byte("c"))

	result, err := newWalker(provider).Walk(context.Background(), "/data/inbox",
		organizer.WalkOptions{Recursive: false})
	require.NoError(t, err)

	assert.Equal(t, 1, result.DirsVisited)
	require.Len(t, result.Files, 2)
	assert.Equal(t, "a.pdf", result.Files[0].Name)
	assert.Equal(t, "a.pdf", result.Files[0].Display)
	assert.Equal(t, "/data/inbox/a.pdf", result.Files[0].Path)
	assert.Equal(t, 1, result.Files[0].Depth)
	assert.Equal(t, "b.jpg", result.Files[1].Name)
	assert.Empty(t, result.Errors)
}

// TestWalkerRecursive tests depth-bounded recursion
func TestWalkerRecursive(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/a.pdf", []byte("a"))
	provider.AddFile("/data/inbox/sub/b.jpg", []byte("b"))
	provider.AddFile("/data/inbox/sub/deep/c.txt", []byte("c"))

	result, err := newWalker(provider).Walk(context.Background(), "/data/inbox",
		organizer.WalkOptions{Recursive: true, MaxDepth: 2})
	require.NoError(t, err)

	// Root plus one descended subdirectory; "deep" lies past the bound.
	assert.Equal(t, 2, result.DirsVisited)
	require.Len(t, result.Files, 2)
	assert.Equal(t, "a.pdf", result.Files[0].Display)
	assert.Equal(t, "sub/b.jpg", result.Files[1].Display)
	assert.Equal(t, "/data/inbox/sub/b.jpg", result.Files[1].Path)
	assert.Equal(t, 2, result.Files[1].Depth)

	result, err = newWalker(provider).Walk(context.Background(), "/data/inbox",
		organizer.WalkOptions{Recursive: true, MaxDepth: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, result.DirsVisited)
	require.Len(t, result.Files, 3)
	assert.Equal(t, "sub/deep/c.txt", result.Files[2].Display)
}

// TestWalkerSkipsExcludedAndCategoryDirs tests traversal pruning
func TestWalkerSkipsExcludedAndCategoryDirs(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/a.pdf", []byte("a"))
	provider.AddFile("/data/inbox/node_modules/lib.js", []byte("x"))
	provider.AddFile("/data/inbox/.git/config", []byte("x"))
	provider.AddFile("/data/inbox/Documents/old.pdf", []byte("x"))
	provider.AddFile("/data/inbox/keep/b.txt", []byte("b"))

	result, err := newWalker(provider).Walk(context.Background(), "/data/inbox",
		organizer.WalkOptions{Recursive: true, MaxDepth: 5})
	require.NoError(t, err)

	assert.Equal(t, 2, result.DirsVisited)
	displays := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		displays = append(displays, f.Display)
	}
	assert.Equal(t, []string{"a.pdf", "keep/b.txt"}, displays)
}

// TestWalkerToleratesSubdirFailure tests degraded listings
func TestWalkerToleratesSubdirFailure(t *testing.T) {
	provider := testutil.NewMemProvider("/data")
	provider.AddFile("/data/inbox/a.pdf", []byte("a"))
	provider.AddFile("/data/inbox/bad/b.txt", []byte("b"))
	provider.AddFile("/data/inbox/good/c.txt", []byte("c"))
	provider.FailList["/data/inbox/bad"] = errors.New("transient listing failure")

	result, err := newWalker(provider).Walk(context.Background(), "/data/inbox",
		organizer.WalkOptions{Recursive: true, MaxDepth: 2})
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "/data/inbox/bad", result.Errors[0].Path)
	assert.Equal(t, "transient listing failure", result.Errors[0].Reason)

	displays := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		displays = append(displays, f.Display)
	}
	assert.Equal(t, []string{"a.pdf", "good/c.txt"}, displays)
}

// TestWalkerRootFailure tests that an unlistable root is fatal
func TestWalkerRootFailure(t *testing.T) {
	provider := testutil.NewMemProvider("/data")

	_, err := newWalker(provider).Walk(context.Background(), "/data/missing",
		organizer.WalkOptions{})
	require.Error(t, err)
}
