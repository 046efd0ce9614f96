// Package bucket accumulates weighted event counts under hierarchical
// "/"-separated keys.
package bucket

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// GenAll is the generator channel meaning "not split by generator channel".
const GenAll = "all"

// Value is the running sum of one bucket.
type Value struct {
	Val   float64 `json:"val"`
	Count int64   `json:"count"`
	Err2  float64 `json:"err2"`
}

func (v *Value) add(w float64) {
	v.Val += w
	v.Count++
	v.Err2 += w * w
}

// Err is the statistical uncertainty sqrt(Err2).
func (v Value) Err() float64 {
	return math.Sqrt(v.Err2)
}

// Map holds all buckets of a run.
type Map map[string]Value

// Keys returns the bucket keys, sorted.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge sums buckets field by field over the union of keys. The result does
// not depend on the order of maps.
func Merge(maps ...Map) Map {
	out := make(Map)
	for _, m := range maps {
		for k, v := range m {
			acc := out[k]
			acc.Val += v.Val
			acc.Count += v.Count
			acc.Err2 += v.Err2
			out[k] = acc
		}
	}
	return out
}

// Accumulator owns the bucket map of one run. It is not safe for concurrent
// use.
type Accumulator struct {
	buckets Map
	log     logrus.FieldLogger
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator(log logrus.FieldLogger) *Accumulator {
	return &Accumulator{buckets: make(Map), log: log}
}

// Increment adds weight to the buckets name and name/channel, and to
// name/channel/gen_<genChannel> unless genChannel is GenAll. A NaN weight is
// logged and still accumulated.
func (a *Accumulator) Increment(name string, weight float64, channel, genChannel string) {
	if math.IsNaN(weight) {
		a.log.WithFields(logrus.Fields{
			"bucket":     name,
			"channel":    channel,
			"genChannel": genChannel,
		}).Warn("NaN weight")
	}

	a.add(name, weight)
	a.add(name+"/"+channel, weight)
	if genChannel != GenAll {
		a.add(name+"/"+channel+"/gen_"+genChannel, weight)
	}
}

func (a *Accumulator) add(key string, w float64) {
	v := a.buckets[key]
	v.add(w)
	a.buckets[key] = v
}

// Get returns the bucket at key.
func (a *Accumulator) Get(key string) (Value, bool) {
	v, ok := a.buckets[key]
	return v, ok
}

// Len returns the number of buckets.
func (a *Accumulator) Len() int {
	return len(a.buckets)
}

// Map returns a copy of the bucket map.
func (a *Accumulator) Map() Map {
	out := make(Map, len(a.buckets))
	for k, v := range a.buckets {
		out[k] = v
	}
	return out
}
