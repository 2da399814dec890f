package ports

import (
	"context"

	"github.com/Mojinnn/PBL3-project/internal/domain"
)

// Collector produces one sample row per call for a single store.
// Packet capture and ICMP mechanics live behind this interface.
type Collector interface {
	Schema() domain.Schema
	Collect(ctx context.Context) ([]string, error)
}
