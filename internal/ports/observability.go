package ports

// Observability emits logs and metrics about acquisition throughput, command
// traffic, and reference-lock state.
type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	SetGauge(name string, v float64)
	ObserveLatency(name string, seconds float64)
}

// Field is a structured log field.
type Field struct {
	Key   string
	Value any
}
