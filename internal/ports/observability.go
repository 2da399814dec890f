package ports

// Observability carries logs and metrics. Label values follow the metric's declared label order.
type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64, labels ...string)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64, labels ...string)
}

type Field struct {
	Key   string
	Value any
}
