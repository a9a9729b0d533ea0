package importer

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"

	"github.com/franz/music-librarian/internal/report"
	"github.com/franz/music-librarian/internal/store"
	"github.com/franz/music-librarian/internal/tags"
	"github.com/franz/music-librarian/internal/util"
	"github.com/schollz/progressbar/v3"
)

// Scan walks a directory tree (or accepts a single file) and reads the tag
// bundle of every audio file found. Unreadable files are logged and
// skipped; they never abort the scan.
func (im *Importer) Scan(ctx context.Context, root string) ([]*store.Item, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			util.WarnLog("Skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !tags.IsAudioFile(path) {
			im.logger.LogSkip(path, "not an audio file")
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, nil
	}

	concurrency := im.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Reading tags"),
		progressbar.OptionClearOnFinish(),
	)

	var (
		mu    sync.Mutex
		items []*store.Item
		wg    sync.WaitGroup
		work  = make(chan string)
	)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range work {
				item, err := tags.ReadFile(path)
				_ = bar.Add(1)
				if err != nil {
					util.WarnLog("Failed to read %s: %v", path, err)
					im.logger.LogError(report.EventScan, path, err)
					continue
				}
				mu.Lock()
				items = append(items, item)
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			close(work)
			wg.Wait()
			return nil, ctx.Err()
		case work <- path:
		}
	}
	close(work)
	wg.Wait()
	_ = bar.Finish()

	// Deterministic order regardless of worker scheduling
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })

	return items, nil
}
