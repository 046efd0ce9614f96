package ntuple

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

// writeNtuple creates a ROOT file holding an "ntuple" tree with n single-leg
// events and a "metaInfo" tree with the given generator weight sum.
func writeNtuple(t *testing.T, fname string, n int, sumW float64) {
	t.Helper()

	f, err := groot.Create(fname)
	require.NoError(t, err)

	var (
		channel = "e"
		met     float32
		pt      float32
		pass    bool
	)
	w, err := rtree.NewWriter(f, "ntuple", []rtree.WriteVar{
		{Name: ColChannel, Value: &channel},
		{Name: ColMet, Value: &met},
		{Name: "l1_pt", Value: &pt},
		{Name: "l1_passTight", Value: &pass},
		{Name: "unrelated", Value: new(int32)},
	})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		met = float32(i)
		pt = 10 * float32(i+1)
		pass = i%2 == 0
		_, err = w.Write()
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	meta, err := rtree.NewWriter(f, "metaInfo", []rtree.WriteVar{
		{Name: SumWeightsBranch, Value: &sumW},
	})
	require.NoError(t, err)
	_, err = meta.Write()
	require.NoError(t, err)
	require.NoError(t, meta.Close())

	require.NoError(t, f.Close())
}

func TestTreeSource_ReadsChainedFiles(t *testing.T) {
	// GIVEN two ntuple files with 3 and 2 events
	dir := t.TempDir()
	writeNtuple(t, filepath.Join(dir, "a.root"), 3, 10)
	writeNtuple(t, filepath.Join(dir, "b.root"), 2, 5)
	log, _ := logtest.NewNullLogger()

	// WHEN the files are opened by glob
	src, err := OpenTrees(NewLayout("l1"), "ntuple", []string{filepath.Join(dir, "*.root")}, log)
	require.NoError(t, err)
	defer src.Close()

	// THEN all entries are visible with their typed values
	assert.Len(t, src.Files(), 2)
	assert.Equal(t, int64(5), src.Entries())
	assert.Contains(t, src.Columns(), ColMet)
	assert.Contains(t, src.Columns(), "l1_passTight")

	var pts []float64
	var tight int
	err = src.Scan(func(r *Row) error {
		assert.Equal(t, "e", r.Channel)
		assert.Equal(t, Electron, r.Legs[0].Flavor)
		pts = append(pts, r.Legs[0].Pt)
		if r.Legs[0].Pass[Tight] {
			tight++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30, 10, 20}, pts)
	assert.Equal(t, 3, tight)

	sumW, err := src.SumWeights("metaInfo")
	require.NoError(t, err)
	assert.Equal(t, 15.0, sumW)
}

func TestTreeSource_SetShard_SplitsEntryRange(t *testing.T) {
	dir := t.TempDir()
	writeNtuple(t, filepath.Join(dir, "a.root"), 5, 1)
	log, _ := logtest.NewNullLogger()

	src, err := OpenTrees(NewLayout("l1"), "ntuple", []string{filepath.Join(dir, "a.root")}, log)
	require.NoError(t, err)
	defer src.Close()

	var seen []int64
	for i := 0; i < 2; i++ {
		require.NoError(t, src.SetShard(i, 2))
		require.NoError(t, src.Scan(func(r *Row) error {
			seen = append(seen, r.Entry)
			return nil
		}))
	}
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, seen)
	assert.Error(t, src.SetShard(2, 2))
}

func TestOpenTrees_NoFiles_LogsErrorAndYieldsNothing(t *testing.T) {
	// GIVEN a pattern matching nothing
	log, hook := logtest.NewNullLogger()

	// WHEN opened
	src, err := OpenTrees(NewLayout("l1"), "ntuple", []string{filepath.Join(t.TempDir(), "*.root")}, log)

	// THEN no error is returned, an error is logged and no rows are produced
	require.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Empty(t, src.Columns())
	n := 0
	require.NoError(t, src.Scan(func(*Row) error { n++; return nil }))
	assert.Zero(t, n)
}
