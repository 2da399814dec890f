package ports

import "github.com/Mojinnn/PBL3-project/internal/domain"

// Sink mirrors merged rows to a secondary destination.
type Sink interface {
	WriteBatch(rows []domain.MergedRow) error
	Name() string
}
