// Package metrics defines the recorder surface used by the orchestrator.
package metrics

import "time"

// Recorder is implemented by NoopRecorder and PrometheusRecorder.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
