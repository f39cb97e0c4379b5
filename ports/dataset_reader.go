package ports

import (
	"context"
	"io"

	"gomix/domain/dataset"
)

// DatasetReader loads tabular files into datasets. Implementations decide
// the format from the file name.
type DatasetReader interface {
	ReadFile(ctx context.Context, path string) (dataset.Dataset, error)
	ReadNamed(ctx context.Context, r io.Reader, name string) (dataset.Dataset, error)
}
