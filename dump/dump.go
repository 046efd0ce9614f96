// Package dump persists bucket maps as JSON and gob files.
package dump

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/decibelcooper/hepflat/bucket"
)

// Target identifies the output files of one run.
type Target struct {
	Dir      string
	Analysis string
	Sample   string
	Shift    string
	// Shard and Shards name the entry range of a sharded run; Shards <= 1
	// means the run was not sharded.
	Shard  int
	Shards int
}

// Base returns the output path without extension:
// <dir>/<analysis>/<sample>[_<shift>][_shard<i>of<n>].
func (t Target) Base() string {
	name := t.Sample
	if t.Shift != "" {
		name += "_" + t.Shift
	}
	if t.Shards > 1 {
		name += fmt.Sprintf("_shard%dof%d", t.Shard, t.Shards)
	}
	return filepath.Join(t.Dir, t.Analysis, name)
}

func (t Target) JSONPath() string { return t.Base() + ".json" }
func (t Target) GobPath() string  { return t.Base() + ".gob" }
func (t Target) ROOTPath() string { return t.Base() + ".root" }

// Write stores m under both the JSON and gob paths of t, replacing any
// previous output.
func Write(t Target, m bucket.Map) error {
	if err := os.MkdirAll(filepath.Dir(t.Base()), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := Save(t.JSONPath(), m); err != nil {
		return err
	}
	return Save(t.GobPath(), m)
}

// Save writes m to path in the format given by its extension, .json or .gob.
func Save(path string, m bucket.Map) error {
	var data []byte
	switch ext := filepath.Ext(path); ext {
	case ".json":
		js, err := EncodeJSON(m)
		if err != nil {
			return err
		}
		data = js
	case ".gob":
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(m); err != nil {
			return fmt.Errorf("failed to encode gob: %w", err)
		}
		data = buf.Bytes()
	default:
		return fmt.Errorf("unknown dump format %q", ext)
	}
	return writeFile(path, data)
}

// writeFile replaces path atomically.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename %q: %w", tmp, err)
	}
	return nil
}

// Load reads a bucket map written by Write, choosing the format from the
// file extension.
func Load(path string) (bucket.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	switch ext := filepath.Ext(path); ext {
	case ".json":
		return DecodeJSON(data)
	case ".gob":
		m := make(bucket.Map)
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode gob %q: %w", path, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown dump format %q", ext)
	}
}

// number is a float64 that survives JSON when not finite.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

func (n *number) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", s, err)
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type jsonValue struct {
	Val   number `json:"val"`
	Count int64  `json:"count"`
	Err2  number `json:"err2"`
}

// EncodeJSON renders m as an indented JSON object keyed by bucket name.
func EncodeJSON(m bucket.Map) ([]byte, error) {
	out := make(map[string]jsonValue, len(m))
	for k, v := range m {
		out[k] = jsonValue{Val: number(v.Val), Count: v.Count, Err2: number(v.Err2)}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal buckets: %w", err)
	}
	return data, nil
}

// DecodeJSON parses the output of EncodeJSON.
func DecodeJSON(data []byte) (bucket.Map, error) {
	var in map[string]jsonValue
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to unmarshal buckets: %w", err)
	}
	m := make(bucket.Map, len(in))
	for k, v := range in {
		m[k] = bucket.Value{Val: float64(v.Val), Count: v.Count, Err2: float64(v.Err2)}
	}
	return m, nil
}
