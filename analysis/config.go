package analysis

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/decibelcooper/hepflat/ntuple"
	"github.com/decibelcooper/hepflat/selection"
	"github.com/decibelcooper/hepflat/weight"
)

// Sample describes one input dataset.
type Sample struct {
	// Process keys the cross section table; it defaults to the sample name.
	Process string   `yaml:"process"`
	Files   []string `yaml:"files"`
	Data    bool     `yaml:"data"`
	// SumWeights overrides the generator weight sum read from the files.
	SumWeights float64 `yaml:"sumWeights"`
}

// Config holds the run parameters shared by all analyses.
type Config struct {
	Analysis        string               `yaml:"analysis"`
	Luminosity      float64              `yaml:"luminosity"`
	TreeName        string               `yaml:"treeName"`
	SumWeightsTree  string               `yaml:"sumWeightsTree"`
	XSecReference   float64              `yaml:"xsecReference"`
	OutputDir       string               `yaml:"outputDir"`
	EtaBins         map[string][]float64 `yaml:"etaBins"`
	JetPtThresholds []float64            `yaml:"jetPtThresholds"`
	DecayModes      []int                `yaml:"decayModes"`
	IsoCut          float64              `yaml:"isoCut"`
	JetDRCut        float64              `yaml:"jetDRCut"`
	Samples         map[string]Sample    `yaml:"samples"`
	CrossSections   map[string]float64   `yaml:"crossSections"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Analysis:       "zfake",
		TreeName:       "ntuple",
		SumWeightsTree: "metaInfo",
		XSecReference:  weight.DefaultXSecReference,
		OutputDir:      "out",
		EtaBins: map[string][]float64{
			"e": {0, 0.8, 1.479, 2.5},
			"m": {0, 1.2, 2.1, 2.4},
			"t": {0, 1.479, 2.3},
		},
		JetPtThresholds: []float64{20, 30, 40},
		DecayModes:      []int{0, 1, 10},
		IsoCut:          0.15,
		JetDRCut:        0.4,
	}
}

// LoadConfig reads a YAML configuration on top of DefaultConfig. Unknown
// keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if !(c.Luminosity > 0) {
		return fmt.Errorf("luminosity must be positive, got %g", c.Luminosity)
	}
	if c.TreeName == "" {
		return fmt.Errorf("treeName is required")
	}
	if c.XSecReference <= 0 {
		return fmt.Errorf("xsecReference must be positive, got %g", c.XSecReference)
	}
	for flavor, edges := range c.EtaBins {
		if len(flavor) != 1 {
			return fmt.Errorf("etaBins: unknown flavor %q", flavor)
		}
		switch ntuple.Flavor(flavor[0]) {
		case ntuple.Electron, ntuple.Muon, ntuple.Tau:
		default:
			return fmt.Errorf("etaBins: unknown flavor %q", flavor)
		}
		if err := selection.CheckEdges(edges); err != nil {
			return fmt.Errorf("etaBins[%s]: %w", flavor, err)
		}
	}
	for name, s := range c.Samples {
		if len(s.Files) == 0 {
			return fmt.Errorf("sample %q has no files", name)
		}
	}
	return nil
}

// EtaEdges returns the eta bin edges keyed by flavor.
func (c *Config) EtaEdges() map[ntuple.Flavor][]float64 {
	out := make(map[ntuple.Flavor][]float64, len(c.EtaBins))
	for f, e := range c.EtaBins {
		out[ntuple.Flavor(f[0])] = e
	}
	return out
}

// MaxEtaBins is the largest number of eta bins over all flavors.
func (c *Config) MaxEtaBins() int {
	n := 0
	for _, e := range c.EtaBins {
		if len(e)-1 > n {
			n = len(e) - 1
		}
	}
	return n
}

// Sample returns the named sample.
func (c *Config) Sample(name string) (Sample, error) {
	s, ok := c.Samples[name]
	if !ok {
		return Sample{}, fmt.Errorf("unknown sample %q", name)
	}
	if s.Process == "" {
		s.Process = name
	}
	return s, nil
}

// SampleNames returns the configured sample names, sorted.
func (c *Config) SampleNames() []string {
	names := make([]string, 0, len(c.Samples))
	for n := range c.Samples {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Normalization returns the luminosity normalization of s given its
// generator weight sum. An unknown process has a zero cross section.
func (c *Config) Normalization(s Sample, sumWeights float64) weight.Normalization {
	if s.SumWeights > 0 {
		sumWeights = s.SumWeights
	}
	return weight.Normalization{
		IntLumi:      c.Luminosity,
		CrossSection: c.CrossSections[s.Process],
		SumWeights:   sumWeights,
		Data:         s.Data,
	}
}
