package image

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ankit-chaubey/aimeta-surgery/core"
)

// Result is the outcome for one file of a batch.
type Result struct {
	Path     string
	Metadata *core.GenMetadata
	// Err is set when the file could not be read or the batch was cancelled
	// before it ran. A nil Metadata with a nil Err means "no metadata".
	Err error
}

// ParseFiles extracts metadata from paths with at most workers files in
// flight (one per CPU when workers <= 0). Results keep the input order.
// A failing file does not stop the batch; cancelling ctx does.
func (e *Extractor) ParseFiles(ctx context.Context, paths []string, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]Result, len(paths))
	for i, p := range paths {
		results[i].Path = p
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		i, p := i, p
		g.Go(func() error {
			results[i].Metadata, results[i].Err = e.ParseFile(gctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}

// CollectImages expands roots into the image files they contain. Files are
// kept as given; directories are walked for known image extensions.
func CollectImages(roots []string) ([]string, error) {
	var out []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && core.IsImageExt(path) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
