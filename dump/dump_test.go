package dump

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/hepflat/bucket"
)

func TestTarget_Paths(t *testing.T) {
	tg := Target{Dir: "out", Analysis: "zfake", Sample: "DYJets"}
	assert.Equal(t, filepath.Join("out", "zfake", "DYJets.json"), tg.JSONPath())

	tg.Shift = "trigUp"
	assert.Equal(t, filepath.Join("out", "zfake", "DYJets_trigUp.gob"), tg.GobPath())

	tg.Shard, tg.Shards = 2, 4
	assert.Equal(t, filepath.Join("out", "zfake", "DYJets_trigUp_shard2of4.root"), tg.ROOTPath())
}

func TestWrite_BothFormatsHoldIdenticalData(t *testing.T) {
	// GIVEN a bucket map with a NaN-poisoned bucket
	m := bucket.Map{
		"loose":       {Val: 1.6929, Count: 1, Err2: 2.86591041},
		"loose/em":    {Val: 1.6929, Count: 1, Err2: 2.86591041},
		"tight/e/gen": {Val: math.NaN(), Count: 3, Err2: math.NaN()},
		"medium":      {Val: -2.5, Count: 4, Err2: math.Inf(1)},
	}
	tg := Target{Dir: t.TempDir(), Analysis: "dijet", Sample: "QCD"}

	// WHEN written and reloaded
	require.NoError(t, Write(tg, m))
	fromJSON, err := Load(tg.JSONPath())
	require.NoError(t, err)
	fromGob, err := Load(tg.GobPath())
	require.NoError(t, err)

	// THEN both round trips match the input, NaN included
	eq := cmpopts.EquateNaNs()
	assert.Empty(t, cmp.Diff(m, fromJSON, eq))
	assert.Empty(t, cmp.Diff(m, fromGob, eq))
}

func TestWrite_OverwritesPreviousOutput(t *testing.T) {
	tg := Target{Dir: t.TempDir(), Analysis: "dijet", Sample: "QCD"}
	require.NoError(t, Write(tg, bucket.Map{"old": {Val: 1, Count: 1, Err2: 1}}))
	require.NoError(t, Write(tg, bucket.Map{"new": {Val: 2, Count: 1, Err2: 4}}))

	got, err := Load(tg.JSONPath())
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, got.Keys())

	_, err = os.Stat(tg.JSONPath() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "buckets.txt")
	require.NoError(t, os.WriteFile(bad, []byte("{}"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestEncodeJSON_Layout(t *testing.T) {
	data, err := EncodeJSON(bucket.Map{"loose": {Val: 5, Count: 2, Err2: 13}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"loose": {"val": 5, "count": 2, "err2": 13}}`, string(data))
}

func TestSave_UnknownExtension(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "out.yaml"), bucket.Map{})
	assert.Error(t, err)
}
