package main

import "math/rand"

// WorkloadType selects one of the three op-mixes the harness drives
// against each index.
type WorkloadType string

const (
	OLTP      WorkloadType = "OLTP (90/10 read/write)"
	OLAP      WorkloadType = "OLAP (10/90 read/write)"
	Reporting WorkloadType = "Reporting (range scan)"
)

// ExecuteWorkload runs ops operations of the given mix against idx,
// keys drawn uniformly from [0, ops).
func ExecuteWorkload(idx Index, wType WorkloadType, ops int) {
	for i := 0; i < ops; i++ {
		choice := rand.Intn(100)
		key := int32(rand.Intn(ops))

		switch wType {
		case OLTP:
			if choice < 90 {
				_, _, _ = idx.Get(key)
			} else {
				_ = idx.Insert(key, []byte("x"))
			}
		case OLAP:
			if choice < 10 {
				_, _, _ = idx.Get(key)
			} else {
				_ = idx.Insert(key, []byte("x"))
			}
		case Reporting:
			_ = idx.Range(key, key+100, func(int32, []byte) bool { return true })
		}
	}
}
