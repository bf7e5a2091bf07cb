package metrics

// Recorder is the narrow interface the stores record through, so they can
// run with or without a Prometheus registry.
type Recorder interface {
	// RecordSave counts one persisted file of the given kind and its size.
	RecordSave(store, kind string, bytes int)

	// RecordProbe counts one existence probe; result is ResultHit or ResultMiss.
	RecordProbe(store, result string)

	// RecordDiscovery records a discovery walk and how many entities it found.
	RecordDiscovery(store, op string, seconds float64, discovered int)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordSave(string, string, int) {}
func (NopRecorder) RecordProbe(string, string) {}
func (NopRecorder) RecordDiscovery(string, string, float64, int) {}

// OrNop returns r, or a NopRecorder when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return NopRecorder{}
	}
	return r
}

// ProbeResult maps a probe outcome to its label value.
func ProbeResult(found bool) string {
	if found {
		return ResultHit
	}
	return ResultMiss
}
