package ports

import "time"

type Policy struct {
	Interval   time.Duration // merger cycle length
	MaxPending int           // merged rows held for retry after transient write failures
	TailWindow int           // rows returned by summary queries
}
