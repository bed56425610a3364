package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/wonny/tvbatch/internal/contracts"
)

// File writes the records to a local CSV or JSON file
type File struct {
	dir string
}

// NewFile creates a file exporter. Relative destinations resolve against dir.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

// Export implements Exporter. The file is written to a temp name and renamed
// so a reader never sees a half-written result set.
func (f *File) Export(ctx context.Context, destination string, records []contracts.MetricRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrDeliveryFailed, err)
	}

	path := destination
	if !filepath.IsAbs(path) && f.dir != "" {
		path = filepath.Join(f.dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrDeliveryFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tvbatch-*")
	if err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrDeliveryFailed, err)
	}
	defer os.Remove(tmp.Name())

	if strings.EqualFold(filepath.Ext(path), ".json") {
		enc := json.NewEncoder(tmp)
		enc.SetIndent("", "  ")
		err = enc.Encode(records)
	} else {
		err = gocsv.MarshalFile(&records, tmp)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", contracts.ErrDeliveryFailed, path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrDeliveryFailed, err)
	}
	return nil
}
