// Package config loads the YAML run configuration. Components never
// read the environment; everything they need arrives through Config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/trigpipe/trigpipe/internal/merge"
	"github.com/trigpipe/trigpipe/internal/params"
	"github.com/trigpipe/trigpipe/internal/segments"
)

// Config is one processing run's configuration.
type Config struct {
	Observatory string `yaml:"observatory"`
	Group       string `yaml:"group"`
	RunDir      string `yaml:"run_dir"`
	ArchiveRoot string `yaml:"archive_root"`
	Database    string `yaml:"database"`

	Executables Executables    `yaml:"executables"`
	Scheduler   Scheduler      `yaml:"scheduler"`
	Data        Data           `yaml:"data"`
	Parameters  ParameterBlock `yaml:"parameters"`
}

// Executables names the external binaries the run shells out to.
type Executables struct {
	Omicron   string `yaml:"omicron"`
	RootMerge string `yaml:"root_merge"`
	HDF5Merge string `yaml:"hdf5_merge"`
	LigolwAdd string `yaml:"ligolw_add"`
}

// Scheduler holds the HTCondor submission settings.
type Scheduler struct {
	Universe        string `yaml:"universe"`
	AccountingGroup string `yaml:"accounting_group"`
	Retries         int    `yaml:"retries"`
}

// Data holds the frame-data discovery settings.
type Data struct {
	Frametype    string `yaml:"frametype"`
	CacheFile    string `yaml:"cache_file"`
	ChannelLimit int    `yaml:"channel_limit"`
}

// ParameterBlock is the partitioning configuration as written in YAML.
type ParameterBlock struct {
	Chunk           int64      `yaml:"chunk"`
	Segment         int64      `yaml:"segment"`
	Overlap         int64      `yaml:"overlap"`
	FrequencyRange  [2]float64 `yaml:"frequency_range"`
	QRange          [2]float64 `yaml:"q_range"`
	SampleFrequency float64    `yaml:"sample_frequency"`
	Channels        []string   `yaml:"channels"`
	ChunksPerJob    int        `yaml:"chunks_per_job"`
	EngineVersion   string     `yaml:"engine_version"`
}

// MissingFieldError reports a required configuration field left unset.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("config: required field %q is not set", e.Field)
}

// IsMissingField reports whether err is a MissingFieldError.
func IsMissingField(err error) bool {
	var me *MissingFieldError
	return errors.As(err, &me)
}

// Load reads and validates the configuration at path. Unknown keys are
// rejected so typos fail loudly. Defaults are applied after parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Executables.Omicron == "" {
		c.Executables.Omicron = "omicron"
	}
	if c.Executables.RootMerge == "" {
		c.Executables.RootMerge = merge.DefaultTools.RootMerge
	}
	if c.Executables.HDF5Merge == "" {
		c.Executables.HDF5Merge = merge.DefaultTools.HDF5Merge
	}
	if c.Executables.LigolwAdd == "" {
		c.Executables.LigolwAdd = merge.DefaultTools.LigolwAdd
	}
	if c.Scheduler.Universe == "" {
		c.Scheduler.Universe = "vanilla"
	}
	if c.Scheduler.Retries == 0 {
		c.Scheduler.Retries = 2
	}
	if c.Parameters.ChunksPerJob == 0 {
		c.Parameters.ChunksPerJob = 1
	}
	if c.Parameters.EngineVersion == "" {
		c.Parameters.EngineVersion = "v2r2"
	}
}

func (c *Config) validate() error {
	required := []struct {
		name string
		ok   bool
	}{
		{"observatory", c.Observatory != ""},
		{"group", c.Group != ""},
		{"run_dir", c.RunDir != ""},
		{"parameters.chunk", c.Parameters.Chunk != 0},
		{"parameters.segment", c.Parameters.Segment != 0},
		{"parameters.overlap", c.Parameters.Overlap != 0},
		{"parameters.channels", len(c.Parameters.Channels) > 0},
	}
	for _, r := range required {
		if !r.ok {
			return &MissingFieldError{Field: r.name}
		}
	}
	if _, err := segments.ParseVersion(c.Parameters.EngineVersion); err != nil {
		return fmt.Errorf("config: parameters.engine_version: %w", err)
	}
	return nil
}

// PartitionParameters converts the YAML block into validated engine
// parameters.
func (c *Config) PartitionParameters() (params.Parameters, error) {
	v, err := segments.ParseVersion(c.Parameters.EngineVersion)
	if err != nil {
		return params.Parameters{}, fmt.Errorf("config: parameters.engine_version: %w", err)
	}
	p := params.Parameters{
		Chunk:           c.Parameters.Chunk,
		Segment:         c.Parameters.Segment,
		Overlap:         c.Parameters.Overlap,
		FrequencyRange:  c.Parameters.FrequencyRange,
		QRange:          c.Parameters.QRange,
		SampleFrequency: c.Parameters.SampleFrequency,
		Channels:        c.Parameters.Channels,
		EngineVersion:   v,
	}
	if err := p.Validate(); err != nil {
		return params.Parameters{}, err
	}
	return p, nil
}

// MergeTools returns the configured merge executables.
func (c *Config) MergeTools() merge.Tools {
	return merge.Tools{
		RootMerge: c.Executables.RootMerge,
		HDF5Merge: c.Executables.HDF5Merge,
		LigolwAdd: c.Executables.LigolwAdd,
	}
}
