package services

import "github.com/custodia-labs/annomigrate/internal/core/ports/driven"

// Ensure NopMetrics implements the interface.
var _ driven.MetricsRecorder = NopMetrics{}

// NopMetrics discards every counter.
type NopMetrics struct{}

func (NopMetrics) PageFetched(int) {}
func (NopMetrics) DuplicatesObserved(int) {}
func (NopMetrics) BatchNormalised(int, int, int, int) {}
func (NopMetrics) Imported(int, int) {}
func (NopMetrics) Compared(int, int, int) {}
