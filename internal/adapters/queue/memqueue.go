package queue

import (
	"sync"

	"github.com/Mojinnn/PBL3-project/internal/domain"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// MemQueue is a bounded in-memory FIFO of merged rows awaiting a retried append.
type MemQueue struct {
	mu   sync.Mutex
	data []domain.MergedRow
	cap  int
}

func NewMemQueue(capacity int) *MemQueue {
	if capacity < 0 {
		capacity = 0
	}
	return &MemQueue{
		data: make([]domain.MergedRow, 0, capacity),
		cap:  capacity,
	}
}

// Enqueue appends r, or reports false when the queue is full.
func (q *MemQueue) Enqueue(r domain.MergedRow) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		return false
	}
	q.data = append(q.data, r)
	return true
}

// DequeueBatch removes up to max rows from the front; max <= 0 drains the queue.
func (q *MemQueue) DequeueBatch(max int) []domain.MergedRow {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(q.data) {
		max = len(q.data)
	}
	out := make([]domain.MergedRow, max)
	copy(out, q.data[:max])
	q.data = append(q.data[:0], q.data[max:]...)
	return out
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

var _ ports.RowQueue = (*MemQueue)(nil)
