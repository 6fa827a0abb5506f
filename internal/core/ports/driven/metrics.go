package driven

// MetricsRecorder receives run counters. A nil recorder is not allowed;
// use a no-op implementation instead.
type MetricsRecorder interface {
	PageFetched(rows int)
	DuplicatesObserved(n int)
	BatchNormalised(converted, errored, rejected, repaired int)
	Imported(ok, failed int)
	Compared(matched, mismatched, missing int)
}
