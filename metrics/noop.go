package metrics

import "time"

// NoopRecorder discards all measurements. It is the default when metrics
// are not enabled.
type NoopRecorder struct{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}
