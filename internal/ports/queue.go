package ports

import "github.com/Mojinnn/PBL3-project/internal/domain"

// RowQueue holds merged rows whose append failed transiently.
type RowQueue interface {
	Enqueue(r domain.MergedRow) bool
	DequeueBatch(max int) []domain.MergedRow
	Len() int
}
