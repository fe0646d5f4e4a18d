package commands

import (
	"context"
	"os"

	"github.com/JxBP/pngme/core/errors"
	"github.com/JxBP/pngme/core/filter"
	"github.com/JxBP/pngme/internal/catalog"
	"github.com/JxBP/pngme/internal/logging"
	"github.com/JxBP/pngme/internal/validation"
)

// IndexResult reports what IndexFiles did with one path.
type IndexResult struct {
	Path    string
	ScanID  string
	Chunks  int    // chunks written to the catalog
	Skipped string // reason the file was not indexed, if any
}

// IndexFiles records the chunks of each PNG in paths into cat. Files that
// are not PNGs are skipped and reported; a PNG that fails to parse aborts
// the run.
func IndexFiles(ctx context.Context, cat *catalog.Catalog, paths []string, f *filter.Filter) ([]IndexResult, error) {
	results := make([]IndexResult, 0, len(paths))
	for _, path := range paths {
		isPNG, err := sniffPNG(path)
		if err != nil {
			return results, err
		}
		if !isPNG {
			logging.WarnContext(ctx, "skipping non-PNG file", "path", path)
			results = append(results, IndexResult{Path: path, Skipped: "not a PNG file"})
			continue
		}

		p, err := Load(ctx, path)
		if err != nil {
			return results, err
		}
		scanID, n, err := cat.Record(ctx, path, p, f)
		if err != nil {
			return results, errors.Wrapf(err, "index %s", path)
		}
		logging.InfoContext(ctx, "indexed", "path", path, "scan_id", scanID, "chunks", n)
		results = append(results, IndexResult{Path: path, ScanID: scanID, Chunks: n})
	}
	return results, nil
}

func sniffPNG(path string) (bool, error) {
	if err := validation.ValidatePath(path); err != nil {
		return false, errors.NewValidation("path", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return false, errors.NewIO("open", path, err)
	}
	defer f.Close()

	ft, err := validation.DetectFileType(f)
	if err != nil {
		return false, errors.NewIO("read", path, err)
	}
	return ft == validation.FileTypePNG, nil
}
