// Command relstore-bench drives the B+-tree index (and, as a
// comparison point, a pebble-backed LSM index) through an initial
// bulk load plus three op-mixes, recording latency and memory
// footprint to a CSV file and a latency chart.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

func main() {
	scale := flag.Int("scale", 200000, "number of keys to load before running workloads")
	outCSV := flag.String("csv", "relstore_bench_results.csv", "path to write benchmark results CSV")
	outChart := flag.String("chart", "relstore_bench_latency.png", "path to write the latency chart PNG")
	workDir := flag.String("workdir", "", "directory for scratch index/heap files (default: a temp dir)")
	flag.Parse()

	dir := *workDir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "relstore-bench-")
		if err != nil {
			log.Fatalf("relstore-bench: mktemp: %v", err)
		}
		defer os.RemoveAll(dir)
	}

	f, err := os.Create(*outCSV)
	if err != nil {
		log.Fatalf("relstore-bench: create %s: %v", *outCSV, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"Engine", "Config", "Phase", "LatencyNs", "AllocMB", "HeapObjs"})

	var allSamples []Sample
	record := func(s Sample) {
		writeSample(w, s)
		allSamples = append(allSamples, s)
	}

	relDir := dir + "/relstore"
	if err := os.MkdirAll(relDir, 0755); err != nil {
		log.Fatalf("relstore-bench: mkdir: %v", err)
	}
	relIdx, err := openRelstoreIndex(relDir)
	if err != nil {
		log.Fatalf("relstore-bench: open relstore index: %v", err)
	}
	runSuite(record, "BPlusTree", "relstore", relIdx, *scale)
	if pf, ok := Index(relIdx).(PageFootprint); ok {
		idxPages, heapPages := pf.PageCounts()
		fmt.Printf("relstore pages used: index=%d heap=%d\n", idxPages, heapPages)
	}
	relIdx.Close()

	pebbleDir := dir + "/pebble"
	pebbleIdx, err := openPebbleIndex(pebbleDir)
	if err != nil {
		log.Fatalf("relstore-bench: open pebble index: %v", err)
	}
	runSuite(record, "LSM-Tree", "pebble", pebbleIdx, *scale)
	pebbleIdx.Close()

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("relstore-bench: flush csv: %v", err)
	}

	if err := RenderLatencyChart(allSamples, *outChart); err != nil {
		log.Fatalf("relstore-bench: render chart: %v", err)
	}

	fmt.Printf("Benchmark complete. Results: %s, chart: %s\n", *outCSV, *outChart)
}

func runSuite(record func(Sample), name, conf string, idx Index, n int) {
	fmt.Printf("Testing %s (Config: %s, scale: %d)\n", name, conf, n)

	start := time.Now()
	for k := 0; k < n; k++ {
		if err := idx.Insert(int32(k), []byte("v")); err != nil {
			log.Fatalf("relstore-bench: insert %d: %v", k, err)
		}
	}
	insertLatency := time.Since(start).Nanoseconds() / int64(n)

	allocMB, heapObjs := footprint()
	record(Sample{
		Engine:    name,
		Config:    conf,
		Phase:     "SteadyStateLoad",
		LatencyNs: insertLatency,
		AllocMB:   allocMB,
		HeapObjs:  heapObjs,
	})

	start = time.Now()
	ExecuteWorkload(idx, OLTP, n/2)
	allocMB, _ = footprint()
	record(Sample{name, conf, string(OLTP), time.Since(start).Nanoseconds() / int64(n/2), allocMB, 0})

	start = time.Now()
	ExecuteWorkload(idx, OLAP, n/2)
	allocMB, _ = footprint()
	record(Sample{name, conf, string(OLAP), time.Since(start).Nanoseconds() / int64(n/2), allocMB, 0})

	start = time.Now()
	ExecuteWorkload(idx, Reporting, 100)
	allocMB, _ = footprint()
	record(Sample{name, conf, string(Reporting), time.Since(start).Nanoseconds() / 100, allocMB, 0})
}

