// Package metrics decouples the application from any concrete metrics
// vendor. Code emits counters and histograms through package-level helpers;
// a backend is installed once at startup (or not at all, in which case the
// nop backend swallows everything).
package metrics

import "sync"

// Labels are free-form key/value tags attached to a metric sample.
type Labels map[string]string

// Backend receives metric samples. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// Metric names emitted by the HTTP layer and the loader.
const (
	RequestsTotal          = "datascope_requests_total"
	RequestDurationSeconds = "datascope_request_duration_seconds"
	RowsLoadedTotal        = "datascope_rows_loaded_total"
	UploadBytes            = "datascope_upload_bytes"
)

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs the process-wide backend. Call once at startup before
// traffic arrives; later calls replace the backend for subsequent samples.
func SetBackend(b Backend) {
	if b == nil {
		b = nopBackend{}
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to a counter on the installed backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample on the installed backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush pushes buffered samples out through the installed backend.
func Flush() error {
	return current().Flush()
}
