package main

import (
	"encoding/csv"
	"runtime"
	"strconv"
)

// Sample is one row of the output CSV: a single (engine, config, phase)
// measurement of latency and heap footprint.
type Sample struct {
	Engine    string
	Config    string
	Phase     string
	LatencyNs int64
	AllocMB   uint64
	HeapObjs  uint64
}

// footprint forces a GC pass so the reading reflects live data rather
// than not-yet-collected garbage, then reports the allocated-heap size
// in MB and the live object count off runtime.MemStats.
func footprint() (allocMB, heapObjs uint64) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return m.Alloc / 1024 / 1024, m.HeapObjects
}

// writeSample appends s as one row to w.
func writeSample(w *csv.Writer, s Sample) {
	w.Write([]string{
		s.Engine,
		s.Config,
		s.Phase,
		strconv.FormatInt(s.LatencyNs, 10),
		strconv.FormatUint(s.AllocMB, 10),
		strconv.FormatUint(s.HeapObjs, 10),
	})
}

// PageFootprint is implemented by Index engines that track their own
// on-disk page usage. The CSV schema is shared with engines (pebbleIndex)
// that have no notion of a page, so page counts are reported separately
// as a diagnostic log line rather than as extra CSV columns.
type PageFootprint interface {
	PageCounts() (idxPages, heapPages int32)
}
