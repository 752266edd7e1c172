// Package types holds the wire-level domain structs shared across the
// snapshot engine: the half-events producers emit and the records its
// derived views produce.
package types

// Dimensions are the fixed set of fields a producer may attach to a
// half-event. Unknown keys are rejected at the boundary rather than
// preserved in an open map (see the data model's dynamic-dimension
// note): callers build a Dimensions value directly instead of passing
// a map[string]string.
type Dimensions struct {
	ShardID   string
	IndexName string
	RID       string
	TID       string
	Operation string
	ShardRole string
	DocCount  *int64
}

// HalfEvent is a single raw row: exactly one of St or Et is set.
type HalfEvent struct {
	Dimensions
	St *int64
	Et *int64
}

// CoalescedRecord is one row per (RID, Operation) within a buffer,
// produced by taking the null-tolerant max of St, Et and DocCount
// across every HalfEvent sharing that key.
type CoalescedRecord struct {
	Dimensions
	St *int64
	Et *int64
}

// LatencyRecord is a CoalescedRecord with both St and Et present, plus
// the derived latency in milliseconds.
type LatencyRecord struct {
	Dimensions
	St  int64
	Et  int64
	Lat int64
}

// LatencyByOpRecord aggregates LatencyRecord rows grouped by
// (ShardID, IndexName, Operation, ShardRole).
type LatencyByOpRecord struct {
	ShardID   string
	IndexName string
	Operation string
	ShardRole string
	SumLat    float64
	AvgLat    float64
	MinLat    float64
	MaxLat    float64
	Count     int
	DocCount  int64
}

// TimeSpentRecord is a CoalescedRecord clipped to a window, with the
// clipped latency attached.
type TimeSpentRecord struct {
	Dimensions
	St  int64
	Et  int64
	Lat int64
}

// ThreadUtilizationRecord is a TimeSpentRecord with its share of the
// owning thread's total clipped time for the window.
type ThreadUtilizationRecord struct {
	TimeSpentRecord
	TTime int64
	TUtil float64
}

// InflightRecord is a start-only record carried forward across a
// window boundary, suitable for re-insertion as a fresh start event.
type InflightRecord struct {
	Dimensions
	St int64
}
