//go:build load
// +build load

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/tidyfs/tidyfs/internal/organizer"
	"github.com/tidyfs/tidyfs/tests/helpers/testutil"
)

var (
	fileCount = flag.Int("files", 5000, "Files to generate")
	dirCount  = flag.Int("dirs", 50, "Subdirectories to spread files across")
	workers   = flag.Int("workers", 8, "Move worker pool size")
	moveRate  = flag.Int("rate", 0, "Moves per second (0 = unpaced)")
	keepTree  = flag.Bool("keep", false, "Keep the generated tree afterwards")
)

var extensions = []string{".pdf", ".jpg", ".mp3", ".mp4", ".zip", ".go", ".exe", ".xyz"}

func main() {
	flag.Parse()

	root, err := os.MkdirTemp("", "organize-load-")
	if err != nil {
		log.Fatalf("Failed to create tree root: %v", err)
	}
	if !*keepTree {
		defer os.RemoveAll(root)
	}

	log.Printf("Starting organize load test")
	log.Printf("Root: %s", root)
	log.Printf("Files: %d across %d directories", *fileCount, *dirCount)
	log.Printf("Workers: %d, rate: %d/s", *workers, *moveRate)

	genStart := time.Now()
	for i := 0; i < *fileCount; i++ {
		dir := root
		if *dirCount > 0 && i%2 == 1 {
			dir = filepath.Join(root, fmt.Sprintf("batch-%03d", i%*dirCount))
		}
		name := fmt.Sprintf("file-%06d%s", i, extensions[i%len(extensions)])
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte("payload"), 0o644); err != nil {
			log.Fatalf("Failed to write file: %v", err)
		}
	}
	log.Printf("Generated tree in %v", time.Since(genStart))

	provider := testutil.NewDiskProvider(root)
	org, err := organizer.New(provider, organizer.Options{
		Workers:  *workers,
		MoveRate: *moveRate,
	})
	if err != nil {
		log.Fatalf("Failed to build organizer: %v", err)
	}

	runStart := time.Now()
	result, err := org.Execute(context.Background(), "organizer.bulk_move",
		map[string]interface{}{"path": root}, nil)
	elapsed := time.Since(runStart)
	if err != nil {
		log.Fatalf("Bulk move failed: %v", err)
	}
	if !result.Success {
		log.Fatalf("Bulk move failed: %s", *result.Error)
	}

	moved := result.Data["total_moved"].(int)
	report := result.Data["report"].(*organizer.Report)

	log.Printf("Moved %d files in %v (%.0f files/sec)",
		moved, elapsed, float64(moved)/elapsed.Seconds())
	log.Printf("Status: %s, errors: %d, batch: %s",
		result.Data["status"], len(report.Errors), report.BatchID)

	stats, err := org.Execute(context.Background(), "organizer.stats", nil, nil)
	if err == nil && stats.Success {
		log.Printf("Engine counters: moved=%v failures=%v",
			stats.Data["files_moved"], stats.Data["move_failures"])
	}
}
