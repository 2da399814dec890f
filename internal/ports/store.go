package ports

import (
	"errors"

	"github.com/Mojinnn/PBL3-project/internal/domain"
)

// SampleWriter appends records to a schema-tagged log.
type SampleWriter interface {
	EnsureHeader(path string, schema domain.Schema) error
	Append(path string, record []string) error
}

// RowReader loads normalized rows from the tail of a log.
type RowReader interface {
	ReadLatest(path string, schema domain.Schema) (domain.Row, bool, error)
	ReadTail(path string, schema domain.Schema, n int) ([]domain.Row, error)
}

// ErrPersistent marks write failures that retrying will not fix (disk full,
// read-only filesystem, permissions). Writers wrap it; callers test with errors.Is.
var ErrPersistent = errors.New("persistent i/o failure")
