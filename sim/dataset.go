package sim

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.viam.com/rdk/rimage"
)

// DatasetWriter lays captured frames out as
// <root>/<label>/<object>_<%04d>.png. Directories are created on demand and
// pre-existing ones are not an error.
type DatasetWriter struct {
	root string
}

// NewDatasetWriter writes under the given output root.
func NewDatasetWriter(root string) *DatasetWriter {
	return &DatasetWriter{root: root}
}

// WriteFrame saves one frame and returns the destination path.
func (w *DatasetWriter) WriteFrame(label, object string, index int, img image.Image) (string, error) {
	dir := filepath.Join(w.root, label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", dir)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%04d.png", object, index))
	if err := rimage.WriteImageToFile(path, img); err != nil {
		return "", errors.Wrapf(err, "failed to save %s", path)
	}
	return path, nil
}
