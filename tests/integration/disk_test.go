//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyfs/tidyfs/internal/access"
	"github.com/tidyfs/tidyfs/internal/organizer"
	"github.com/tidyfs/tidyfs/tests/helpers/testutil"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// TestOrganizeOnDisk runs the organizer against a real temporary tree,
// exercising genuine rename and mkdir semantics.
func TestOrganizeOnDisk(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping disk-backed test in short mode")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "report.pdf"), "quarterly report")
	writeFile(t, filepath.Join(root, "photo.jpg"), "pixels")
	writeFile(t, filepath.Join(root, "misc", "song.mp3"), "audio")
	writeFile(t, filepath.Join(root, "webapp", "package.json"), "{}")
	writeFile(t, filepath.Join(root, "webapp", "app.js"), "console.log(1)")
	writeFile(t, filepath.Join(root, "node_modules", "lib.js"), "skip me")

	provider := testutil.NewDiskProvider(root)
	org, err := organizer.New(provider, organizer.Options{})
	require.NoError(t, err)
	guard := access.Wrap(org, provider, nil)
	ctx := context.Background()

	result, err := guard.Execute(ctx, "organizer.organize", map[string]interface{}{
		"path":    root,
		"confirm": true,
	}, nil)
	require.NoError(t, err)
	testutil.AssertSuccess(t, result)
	assert.Equal(t, "complete", result.Data["status"])
	assert.Equal(t, 3, result.Data["total_moved"])

	for _, rel := range []string{
		filepath.Join("Documents", "report.pdf"),
		filepath.Join("Images", "photo.jpg"),
		filepath.Join("Audio", "song.mp3"),
		filepath.Join("webapp", "package.json"),
		filepath.Join("webapp", "app.js"),
		filepath.Join("node_modules", "lib.js"),
	} {
		_, statErr := os.Stat(filepath.Join(root, rel))
		assert.NoError(t, statErr, "expected %s", rel)
	}
	_, statErr := os.Stat(filepath.Join(root, "report.pdf"))
	assert.True(t, os.IsNotExist(statErr))

	content, err := os.ReadFile(filepath.Join(root, "Documents", "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "quarterly report", string(content))
}

// TestSearchOnDisk tests glob search over a real tree
func TestSearchOnDisk(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping disk-backed test in short mode")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "a")
	writeFile(t, filepath.Join(root, "sub", "b.pdf"), "b")
	writeFile(t, filepath.Join(root, "sub", "c.txt"), "c")
	writeFile(t, filepath.Join(root, "node_modules", "d.pdf"), "d")

	provider := testutil.NewDiskProvider(root)
	org, err := organizer.New(provider, organizer.Options{})
	require.NoError(t, err)

	result, err := org.Execute(context.Background(), "organizer.search",
		map[string]interface{}{"path": root, "pattern": "**/*.pdf"}, nil)
	require.NoError(t, err)
	testutil.AssertSuccess(t, result)

	// The excluded directory is pruned from the walk.
	assert.Equal(t, []string{
		filepath.Join(root, "a.pdf"),
		filepath.Join(root, "sub", "b.pdf"),
	}, result.Data["matches"])
}

// TestReadAndMetadataOnDisk tests the inspection tools against real files
func TestReadAndMetadataOnDisk(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping disk-backed test in short mode")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"), "hello from disk")

	provider := testutil.NewDiskProvider(root)
	org, err := organizer.New(provider, organizer.Options{})
	require.NoError(t, err)
	ctx := context.Background()

	result, err := org.Execute(ctx, "organizer.read", map[string]interface{}{
		"path": filepath.Join(root, "notes.txt"),
	}, nil)
	require.NoError(t, err)
	testutil.AssertSuccess(t, result)
	assert.Equal(t, "hello from disk", result.Data["content"])

	result, err = org.Execute(ctx, "organizer.metadata", map[string]interface{}{
		"path": filepath.Join(root, "notes.txt"),
	}, nil)
	require.NoError(t, err)
	testutil.AssertSuccess(t, result)

	summary := result.Data["summary"].(string)
	assert.Contains(t, summary, "Category: Documents")
	assert.Contains(t, summary, "Type: text/plain")

	result, err = org.Execute(ctx, "organizer.roots", nil, nil)
	require.NoError(t, err)
	testutil.AssertSuccess(t, result)
	assert.Equal(t, []string{root}, result.Data["roots"])
}
