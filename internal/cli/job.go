package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Job is a query described in a file. Every field mirrors a flag of the
// query command; flags given on the command line win.
type Job struct {
	Dataset           string   `toml:"dataset" yaml:"dataset"`
	Region            string   `toml:"region" yaml:"region"`
	BBox              string   `toml:"bbox" yaml:"bbox"`
	Output            string   `toml:"output" yaml:"output"`
	OutputFormat      string   `toml:"output_format" yaml:"output_format"`
	Compression       string   `toml:"compression" yaml:"compression"`
	Metadata          *bool    `toml:"metadata" yaml:"metadata"`
	InputFormat       string   `toml:"input_format" yaml:"input_format"`
	Tmp               string   `toml:"tmp" yaml:"tmp"`
	KeepTmp           *bool    `toml:"keep_tmp" yaml:"keep_tmp"`
	FastRelationTests *bool    `toml:"fast_relation_tests" yaml:"fast_relation_tests"`
	StrictMerge       *bool    `toml:"strict_merge" yaml:"strict_merge"`
	RelationFilter    []string `toml:"relation_filter" yaml:"relation_filter"`
	MetricsTextfile   string   `toml:"metrics_textfile" yaml:"metrics_textfile"`
	IOLimit           int64    `toml:"io_limit" yaml:"io_limit"`
	MemoryLimit       int64    `toml:"memory_limit" yaml:"memory_limit"`
	BlockCache        int64    `toml:"block_cache" yaml:"block_cache"`
}

// LoadJob reads a job file. The format follows the extension: .toml, or
// .yaml / .yml.
func LoadJob(path string) (*Job, error) {
	var job Job
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &job); err != nil {
			return nil, fmt.Errorf("failed to parse job %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &job); err != nil {
			return nil, fmt.Errorf("failed to parse job %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("job %s: unknown format, want .toml or .yaml", path)
	}
	return &job, nil
}

// apply sets every flag the user did not give from the job.
func (j *Job) apply(fs *pflag.FlagSet) error {
	set := func(name, value string) error {
		if value == "" || fs.Changed(name) {
			return nil
		}
		return fs.Set(name, value)
	}
	setBool := func(name string, v *bool) error {
		if v == nil {
			return nil
		}
		return set(name, strconv.FormatBool(*v))
	}
	setInt := func(name string, v int64) error {
		if v == 0 {
			return nil
		}
		return set(name, strconv.FormatInt(v, 10))
	}

	errs := []error{
		set("dataset", j.Dataset),
		set("region", j.Region),
		set("bbox", j.BBox),
		set("output", j.Output),
		set("output-format", j.OutputFormat),
		set("compression", j.Compression),
		setBool("metadata", j.Metadata),
		set("input-format", j.InputFormat),
		set("tmp", j.Tmp),
		setBool("keep-tmp", j.KeepTmp),
		setBool("fast-relation-tests", j.FastRelationTests),
		setBool("strict-merge", j.StrictMerge),
		set("metrics-textfile", j.MetricsTextfile),
		setInt("io-limit", j.IOLimit),
		setInt("memory-limit", j.MemoryLimit),
		setInt("block-cache", j.BlockCache),
	}
	if !fs.Changed("relation-filter") {
		for _, f := range j.RelationFilter {
			errs = append(errs, fs.Set("relation-filter", f))
		}
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
