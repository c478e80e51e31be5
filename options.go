package osmextract

import (
	"log/slog"

	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/filter"
	"github.com/hupe1980/osmextract/internal/fs"
	"github.com/hupe1980/osmextract/merge"
	"github.com/hupe1980/osmextract/resource"
	"github.com/hupe1980/osmextract/tree"
)

type options struct {
	scratchDir        string
	keepScratch       bool
	paths             Paths
	treeNames         tree.FileNames
	batchNames        BatchFileNames
	inputFormat       entityio.Format
	intermediate      entityio.OutputConfig
	output            entityio.OutputConfig
	fastRelationTests bool
	relationFilter    filter.RelationFilter
	duplicatePolicy   merge.DuplicatePolicy
	resources         resource.Config
	blockCacheBytes   int64
	metricsCollector  MetricsCollector
	logger            *Logger
	fsys              fs.FileSystem
}

// Option configures an Extractor.
type Option func(*options)

// WithScratchDir sets the directory for intermediate files. It is created
// if missing and must be empty. By default a fresh directory is created in
// the OS temp dir.
func WithScratchDir(dir string) Option {
	return func(o *options) {
		o.scratchDir = dir
	}
}

// WithKeepScratch keeps the scratch directory after a successful run.
func WithKeepScratch(keep bool) Option {
	return func(o *options) {
		o.keepScratch = keep
	}
}

// WithPaths overrides the dataset layout.
func WithPaths(p Paths) Option {
	return func(o *options) {
		o.paths = p
	}
}

// WithTreeFileNames overrides the per-leaf file names.
func WithTreeFileNames(names tree.FileNames) Option {
	return func(o *options) {
		o.treeNames = names
	}
}

// WithBatchFileNames overrides the per-batch file names.
func WithBatchFileNames(names BatchFileNames) Option {
	return func(o *options) {
		o.batchNames = names
	}
}

// WithInputFormat sets the format of the dataset files. The default file
// names follow the format's extension unless overridden.
func WithInputFormat(f entityio.Format) Option {
	return func(o *options) {
		o.inputFormat = f
		o.treeNames = tree.DefaultFileNames(f.Extension())
		o.batchNames = DefaultBatchFileNames(f.Extension())
	}
}

// WithIntermediateConfig sets the encoding of scratch files.
func WithIntermediateConfig(cfg entityio.OutputConfig) Option {
	return func(o *options) {
		o.intermediate = cfg
	}
}

// WithOutputConfig sets the encoding of the final output.
func WithOutputConfig(cfg entityio.OutputConfig) Option {
	return func(o *options) {
		o.output = cfg
	}
}

// WithFastRelationTests qualifies batch relations by envelope only. Faster,
// and may include relations near the region boundary that exact tests
// would drop.
func WithFastRelationTests(fast bool) Option {
	return func(o *options) {
		o.fastRelationTests = fast
	}
}

// WithRelationFilter restricts the relations taken from batches to those
// accepted by f and the relations they contain.
func WithRelationFilter(f filter.RelationFilter) Option {
	return func(o *options) {
		o.relationFilter = f
	}
}

// WithStrictMerge fails the run when the same id reaches the merge from
// more than one source instead of collapsing the copies.
func WithStrictMerge(strict bool) Option {
	return func(o *options) {
		if strict {
			o.duplicatePolicy = merge.Fail
		} else {
			o.duplicatePolicy = merge.Collapse
		}
	}
}

// WithResourceLimits caps the memory held by batch evaluations and the read
// throughput from the dataset.
func WithResourceLimits(cfg resource.Config) Option {
	return func(o *options) {
		o.resources = cfg
	}
}

// WithBlockCache caches dataset reads in memory, up to bytes. Useful for
// remote datasets.
func WithBlockCache(bytes int64) Option {
	return func(o *options) {
		o.blockCacheBytes = bytes
	}
}

// WithMetricsCollector configures a metrics collector. Pass nil to disable.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging. Pass nil to disable.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		paths:            DefaultPaths(),
		treeNames:        tree.DefaultFileNames(entityio.FormatBlock.Extension()),
		batchNames:       DefaultBatchFileNames(entityio.FormatBlock.Extension()),
		inputFormat:      entityio.FormatBlock,
		intermediate:     entityio.DefaultOutputConfig(),
		output:           entityio.DefaultOutputConfig(),
		duplicatePolicy:  merge.Collapse,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		fsys:             fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
