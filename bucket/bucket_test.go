package bucket

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccumulator() (*Accumulator, *logtest.Hook) {
	log, hook := logtest.NewNullLogger()
	return NewAccumulator(log), hook
}

func TestIncrement_ExampleScenario(t *testing.T) {
	// GIVEN a fresh accumulator
	a, _ := newTestAccumulator()

	// WHEN a single weighted event is added without generator channel
	a.Increment("loose", 1.6929, "em", GenAll)

	// THEN the bare and channel buckets are identical and nothing else exists
	want := Value{Val: 1.6929, Count: 1, Err2: 1.6929 * 1.6929}
	assert.Equal(t, 2, a.Len())
	for _, key := range []string{"loose", "loose/em"} {
		got, ok := a.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got)
	}
	assert.InDelta(t, 2.86591, want.Err2, 1e-5)
}

func TestIncrement_TwoEventsAccumulate(t *testing.T) {
	a, _ := newTestAccumulator()
	a.Increment("tight", 2.0, "mmm", GenAll)
	a.Increment("tight", 3.0, "mmm", GenAll)

	got, _ := a.Get("tight")
	assert.Equal(t, Value{Val: 5.0, Count: 2, Err2: 13.0}, got)
	assert.Equal(t, math.Sqrt(13.0), got.Err())
}

func TestIncrement_GenChannelBucket(t *testing.T) {
	a, _ := newTestAccumulator()
	a.Increment("loose/etaBin1", -0.5, "em", "e")
	a.Increment("loose/etaBin1", 1.5, "em", "tau")

	assert.Equal(t, []string{
		"loose/etaBin1",
		"loose/etaBin1/em",
		"loose/etaBin1/em/gen_e",
		"loose/etaBin1/em/gen_tau",
	}, a.Map().Keys())

	bare, _ := a.Get("loose/etaBin1")
	assert.Equal(t, Value{Val: 1.0, Count: 2, Err2: 2.5}, bare)
	gen, _ := a.Get("loose/etaBin1/em/gen_e")
	assert.Equal(t, Value{Val: -0.5, Count: 1, Err2: 0.25}, gen)
}

func TestIncrement_CountAndValueProperty(t *testing.T) {
	a, _ := newTestAccumulator()
	weights := []float64{0.3, -1.2, 4, 0, 2.5}
	channels := []string{"e", "m", "e", "e", "m"}
	gens := []string{GenAll, "m", "e", GenAll, "m"}

	for i, w := range weights {
		before := a.Map()
		a.Increment("sel", w, channels[i], gens[i])
		after := a.Map()

		keys := []string{"sel", "sel/" + channels[i]}
		if gens[i] != GenAll {
			keys = append(keys, "sel/"+channels[i]+"/gen_"+gens[i])
		}
		for _, k := range keys {
			assert.Equal(t, before[k].Count+1, after[k].Count, k)
			assert.InDelta(t, before[k].Val+w, after[k].Val, 1e-12, k)
			assert.GreaterOrEqual(t, after[k].Err2, 0.0, k)
		}
	}
}

func TestIncrement_NaNWeightIsLoggedAndAccumulated(t *testing.T) {
	a, hook := newTestAccumulator()
	a.Increment("loose", 1.0, "e", GenAll)
	a.Increment("loose", math.NaN(), "e", "e")

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "loose", entry.Data["bucket"])
	assert.Equal(t, "e", entry.Data["channel"])
	assert.Equal(t, "e", entry.Data["genChannel"])

	v, _ := a.Get("loose")
	assert.True(t, math.IsNaN(v.Val))
	assert.Equal(t, int64(2), v.Count)
}

func TestMap_ReturnsCopy(t *testing.T) {
	a, _ := newTestAccumulator()
	a.Increment("x", 1, "e", GenAll)
	m := a.Map()
	m["x"] = Value{}

	v, _ := a.Get("x")
	assert.Equal(t, int64(1), v.Count)
}

func TestMerge_CommutativeAndAssociative(t *testing.T) {
	a := Map{"loose": {Val: 1.5, Count: 2, Err2: 1.25}, "loose/e": {Val: 1.5, Count: 2, Err2: 1.25}}
	b := Map{"loose": {Val: 0.5, Count: 1, Err2: 0.25}, "tight": {Val: 2, Count: 1, Err2: 4}}
	c := Map{"tight": {Val: -1, Count: 1, Err2: 1}, "medium/m": {Val: 3, Count: 3, Err2: 3}}

	ab := Merge(a, b)
	assert.Empty(t, cmp.Diff(ab, Merge(b, a)))
	assert.Empty(t, cmp.Diff(Merge(Merge(a, b), c), Merge(a, Merge(b, c))))
	assert.Empty(t, cmp.Diff(Merge(a, b, c), Merge(c, a, b)))

	want := Map{
		"loose":   {Val: 2, Count: 3, Err2: 1.5},
		"loose/e": {Val: 1.5, Count: 2, Err2: 1.25},
		"tight":   {Val: 2, Count: 1, Err2: 4},
	}
	assert.Empty(t, cmp.Diff(want, ab))
	assert.Empty(t, Merge())
}

func TestMerge_ShardedEqualsSingleRun(t *testing.T) {
	weights := []float64{0.5, 1.5, -0.25, 2, 0.75, 1}

	whole, _ := newTestAccumulator()
	left, _ := newTestAccumulator()
	right, _ := newTestAccumulator()
	for i, w := range weights {
		whole.Increment("loose", w, "e", "e")
		if i < 3 {
			left.Increment("loose", w, "e", "e")
		} else {
			right.Increment("loose", w, "e", "e")
		}
	}

	assert.Empty(t, cmp.Diff(whole.Map(), Merge(left.Map(), right.Map())))
}
