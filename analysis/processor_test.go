package analysis

import (
	"errors"
	"math"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/hepflat/bucket"
	"github.com/decibelcooper/hepflat/ntuple"
	"github.com/decibelcooper/hepflat/weight"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Luminosity = 100
	cfg.CrossSections = map[string]float64{"QCD": 2}
	cfg.Samples = map[string]Sample{
		"QCD":  {Files: []string{"qcd/*.root"}},
		"Data": {Files: []string{"data/*.root"}, Data: true},
	}
	return cfg
}

// dijetRow is a simulated single-electron row that passes the loose
// dijet selection in eta bin 0 above the 20 GeV jet threshold.
func dijetRow() ntuple.Row {
	r := ntuple.Row{
		Channel:   "e",
		GenWeight: 1.0,
		Met:       10,
		Mt:        10,
		LeadJetPt: 25,
		Legs:      []ntuple.Leg{{Flavor: ntuple.Electron, Pt: 30, Eta: 0.5}},
	}
	r.PileupWeight[ntuple.Nominal] = 0.9
	r.TriggerEfficiency[ntuple.Nominal] = 0.95
	r.Legs[0].Pass[ntuple.Loose] = true
	r.Legs[0].Scale[ntuple.Loose][ntuple.Nominal] = 0.99
	r.Legs[0].Scale[ntuple.Tight][ntuple.Nominal] = 0.5
	return r
}

func newDijet(t *testing.T, sample string, opts Options) (*Processor, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	opts.Log = log

	cfg := testConfig()
	def, err := Lookup("dijet")
	require.NoError(t, err)
	s, err := cfg.Sample(sample)
	require.NoError(t, err)

	p, err := NewProcessor(cfg, def, cfg.Normalization(s, 100), opts)
	require.NoError(t, err)
	return p, hook
}

func source(rows ...ntuple.Row) *ntuple.SliceSource {
	def, _ := Lookup("dijet")
	return &ntuple.SliceSource{Cols: def.Layout().Columns(), Rows: rows}
}

func TestProcessor_FillsEveryPassingSelectionAndChannel(t *testing.T) {
	// GIVEN a QCD sample normalized to intLumi/sampleLumi = 100/50
	p, _ := newDijet(t, "QCD", Options{})

	// WHEN one loose row is ingested
	require.NoError(t, p.Ingest(source(dijetRow())))
	m := p.Finalize()

	// THEN the base, eta-bin and jet-pt selections are filled with the
	// loose weight, each bare and per channel
	want := []string{
		"loose", "loose/e",
		"loose/etaBin0", "loose/etaBin0/e",
		"loose/etaBin0/jetPt20", "loose/etaBin0/jetPt20/e",
		"loose/jetPt20", "loose/jetPt20/e",
	}
	assert.Equal(t, want, m.Keys())
	for _, k := range want {
		assert.InDelta(t, 1.69290, m[k].Val, 1e-9, k)
		assert.Equal(t, int64(1), m[k].Count, k)
		assert.InDelta(t, 1.69290*1.69290, m[k].Err2, 1e-9, k)
	}
	assert.Equal(t, int64(1), p.Rows())
}

func TestProcessor_WeightFollowsSelectionStage(t *testing.T) {
	p, _ := newDijet(t, "QCD", Options{})
	r := dijetRow()
	r.Legs[0].Pass[ntuple.Tight] = true

	p.Process(&r)
	m := p.Finalize()

	assert.InDelta(t, 1.69290, m["loose"].Val, 1e-9)
	assert.InDelta(t, 0.9*0.95*0.5*2, m["tight"].Val, 1e-9)
	_, medium := m["medium"]
	assert.False(t, medium)
}

func TestProcessor_ShiftSubstitutesVariant(t *testing.T) {
	p, hook := newDijet(t, "QCD", Options{Shift: weight.TriggerUp})
	r := dijetRow()
	r.TriggerEfficiency[ntuple.Up] = 1.0

	p.Process(&r)
	assert.InDelta(t, 0.9*0.99*2, p.Finalize()["loose"].Val, 1e-9)
	for _, e := range hook.Entries {
		assert.NotContains(t, e.Message, "shift not recognized")
	}
}

func TestProcessor_UnknownShiftWarns(t *testing.T) {
	_, hook := newDijet(t, "QCD", Options{Shift: "jesUp"})

	found := false
	for _, e := range hook.Entries {
		found = found || e.Message == "shift not recognized, using nominal factors"
	}
	assert.True(t, found)
}

func TestProcessor_DataRowsWeighOne(t *testing.T) {
	p, _ := newDijet(t, "Data", Options{})
	r := dijetRow()
	r.IsData = true
	r.GenChannel = "e"

	p.Process(&r)
	p.Process(&r)
	m := p.Finalize()

	assert.Equal(t, bucket.Value{Val: 2, Count: 2, Err2: 2}, m["loose/etaBin0/e"])
	_, gen := m["loose/e/gen_e"]
	assert.False(t, gen, "data is never split by generator channel")
	assert.NotContains(t, p.Requires(), ntuple.ColGenWeight)
}

func TestProcessor_DataSampleWithoutIsDataColumn(t *testing.T) {
	// GIVEN a data sample whose ntuple has no isData branch
	p, _ := newDijet(t, "Data", Options{})
	src := source(dijetRow())
	var cols []string
	for _, c := range src.Cols {
		if c != ntuple.ColIsData {
			cols = append(cols, c)
		}
	}
	src.Cols = cols
	src.Rows[0].GenWeight = 0

	// WHEN its rows are ingested
	require.NoError(t, p.Ingest(src))

	// THEN they still weigh one
	assert.Equal(t, bucket.Value{Val: 1, Count: 1, Err2: 1}, p.Finalize()["loose"])
}

func TestProcessor_GenChannelBuckets(t *testing.T) {
	p, _ := newDijet(t, "QCD", Options{})
	r := dijetRow()
	r.GenChannel = "t"

	p.Process(&r)
	m := p.Finalize()

	assert.Contains(t, m, "loose/e/gen_t")
	assert.Contains(t, m, "loose/etaBin0/jetPt20/e/gen_t")
	assert.Equal(t, m["loose"], m["loose/e/gen_t"])
}

func TestProcessor_UnknownCrossSectionZeroesWeights(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	cfg := testConfig()
	def, _ := Lookup("dijet")

	p, err := NewProcessor(cfg, def, cfg.Normalization(Sample{Process: "Unknown"}, 100), Options{Log: log})
	require.NoError(t, err)
	require.NotEmpty(t, hook.Entries)

	r := dijetRow()
	p.Process(&r)
	assert.Equal(t, bucket.Value{Val: 0, Count: 1, Err2: 0}, p.Finalize()["loose"])
}

func TestProcessor_NaNScaleFactorDropped(t *testing.T) {
	p, hook := newDijet(t, "QCD", Options{})
	r := dijetRow()
	r.PileupWeight[ntuple.Nominal] = math.NaN()

	p.Process(&r)
	assert.InDelta(t, 0.95*0.99*2, p.Finalize()["loose"].Val, 1e-9)
	assert.NotEmpty(t, hook.Entries)
}

func TestProcessor_MissingColumnIsFatal(t *testing.T) {
	p, _ := newDijet(t, "QCD", Options{})
	src := source(dijetRow())

	var cols []string
	for _, c := range src.Cols {
		if c != "l1_eta" {
			cols = append(cols, c)
		}
	}
	src.Cols = cols

	err := p.Ingest(src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ntuple.ErrMissingColumn))
	assert.Zero(t, p.Rows())
}

func TestProcessor_EmptySourceProducesEmptyMap(t *testing.T) {
	p, hook := newDijet(t, "QCD", Options{})

	require.NoError(t, p.Ingest(&ntuple.SliceSource{}))
	assert.Empty(t, p.Finalize())
	assert.NotEmpty(t, hook.Entries)
}

func TestProcessor_Histograms(t *testing.T) {
	p, _ := newDijet(t, "QCD", Options{Hists: true})
	r := dijetRow()
	p.Process(&r)

	require.NotNil(t, p.Histograms())
	h := p.Histograms().Get("loose/etaBin0/e/pt")
	require.NotNil(t, h)
	assert.InDelta(t, 1.69290, h.SumW(), 1e-9)
	assert.NotNil(t, p.Histograms().Get("loose/e/mt"))

	off, _ := newDijet(t, "QCD", Options{})
	assert.Nil(t, off.Histograms())
}

func TestZFake_SelectionsAndRequires(t *testing.T) {
	cfg := testConfig()
	def, err := Lookup("zfake")
	require.NoError(t, err)

	tree, err := def.Selections(cfg)
	require.NoError(t, err)
	assert.NotNil(t, tree.Lookup("tight/etaBin1/dm10"))
	assert.NotNil(t, tree.Lookup("loose/antiIso_jetDR"))
	assert.NotNil(t, tree.Lookup("medium/etaBin0/dm1/iso_noJets"))
	for _, path := range tree.Paths() {
		assert.NotContains(t, path, "antiIso_iso")
	}

	log, _ := logtest.NewNullLogger()
	p, err := NewProcessor(cfg, def, cfg.Normalization(Sample{Process: "QCD"}, 100), Options{Log: log})
	require.NoError(t, err)
	req := p.Requires()
	for _, c := range []string{"mass", "z1_passTight", "l1_iso", "l1_decayMode", "z2_tightScale", "l1_looseScale", "numJets"} {
		assert.Contains(t, req, c)
	}
}

func TestZFake_ProbeSelection(t *testing.T) {
	cfg := testConfig()
	def, _ := Lookup("zfake")
	log, _ := logtest.NewNullLogger()
	p, err := NewProcessor(cfg, def, weight.Normalization{Data: true}, Options{Log: log})
	require.NoError(t, err)

	r := ntuple.Row{
		IsData:  true,
		Channel: "mmt",
		Mass:    90,
		Met:     5,
		NumJets: 1,
		Legs: []ntuple.Leg{
			{Flavor: ntuple.Muon, Pass: [ntuple.NumStages]bool{true, true, true}},
			{Flavor: ntuple.Muon, Pass: [ntuple.NumStages]bool{true, true, true}},
			{Flavor: ntuple.Tau, Eta: 1.6, DecayMode: 10, Iso: 0.3, JetDR: 0.5, Pass: [ntuple.NumStages]bool{true, false, false}},
		},
	}
	p.Process(&r)
	m := p.Finalize()

	assert.Contains(t, m, "loose/etaBin1/dm10/antiIso_jetDR/mmt")
	assert.NotContains(t, m, "loose/etaBin1/dm10/iso/mmt")
	assert.NotContains(t, m, "loose/noJets")
	assert.NotContains(t, m, "medium")

	r.Mass = 60
	p.Process(&r)
	assert.Equal(t, int64(1), p.Finalize()["loose"].Count)
}
