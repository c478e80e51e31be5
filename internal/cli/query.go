package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hupe1980/osmextract"
	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/filter"
	"github.com/hupe1980/osmextract/model"
	"github.com/hupe1980/osmextract/predicate"
	"github.com/hupe1980/osmextract/resource"
)

type queryFlags struct {
	job               string
	dataset           string
	region            string
	bbox              string
	output            string
	outputFormat      string
	compression       string
	metadata          bool
	inputFormat       string
	tmp               string
	keepTmp           bool
	fastRelationTests bool
	strictMerge       bool
	relationFilter    []string
	metricsTextfile   string
	ioLimit           int64
	memoryLimit       int64
	blockCache        int64
}

func newQueryCmd(g *globalFlags) *cobra.Command {
	f := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Extract the entities inside a region",
		Example: `  osmextract query --dataset ./planet --bbox 13.0,52.3,13.8,52.7 --output berlin.oxb
  osmextract query --dataset s3://osm/planet --region berlin.geojson --output berlin.osm --output-format xml
  osmextract query --config job.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.job != "" {
				job, err := LoadJob(f.job)
				if err != nil {
					return err
				}
				if err := job.apply(cmd.Flags()); err != nil {
					return err
				}
			}
			return runQuery(cmd, g, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.job, "config", "", "job file (.toml or .yaml) supplying any of these flags")
	fl.StringVar(&f.dataset, "dataset", "", "dataset directory, s3://bucket/prefix or minio://bucket/prefix")
	fl.StringVar(&f.region, "region", "", "region file: GeoJSON or WKT")
	fl.StringVar(&f.bbox, "bbox", "", "region as minlon,minlat,maxlon,maxlat")
	fl.StringVar(&f.output, "output", "", "output file")
	fl.StringVar(&f.outputFormat, "output-format", "block", "output format: block or xml")
	fl.StringVar(&f.compression, "compression", "zstd", "block compression: none, lz4, zstd")
	fl.BoolVar(&f.metadata, "metadata", true, "write version, changeset, user and timestamp")
	fl.StringVar(&f.inputFormat, "input-format", "block", "dataset file format: block, xml, pbf")
	fl.StringVar(&f.tmp, "tmp", "", "scratch directory (created if missing, must be empty)")
	fl.BoolVar(&f.keepTmp, "keep-tmp", false, "keep the scratch directory")
	fl.BoolVar(&f.fastRelationTests, "fast-relation-tests", false, "qualify batch relations by envelope only")
	fl.BoolVar(&f.strictMerge, "strict-merge", false, "fail on duplicate ids across merge sources")
	fl.StringArrayVar(&f.relationFilter, "relation-filter", nil, "relation tag filter, e.g. type=multipolygon (repeatable, all must match)")
	fl.StringVar(&f.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file")
	fl.Int64Var(&f.ioLimit, "io-limit", 0, "dataset read limit in bytes per second (0 = unlimited)")
	fl.Int64Var(&f.memoryLimit, "memory-limit", 0, "memory budget for evaluations in bytes (0 = unlimited)")
	fl.Int64Var(&f.blockCache, "block-cache", 0, "in-memory cache for dataset reads in bytes (0 = off)")
	return cmd
}

func (f *queryFlags) predicate() (predicate.Predicate, error) {
	switch {
	case f.region != "" && f.bbox != "":
		return nil, errors.New("use either --region or --bbox")
	case f.region != "":
		return predicate.Load(f.region)
	case f.bbox != "":
		return predicate.ParseBBox(f.bbox)
	}
	return nil, errors.New("a region is required: --region or --bbox")
}

func (f *queryFlags) outputConfig() (entityio.OutputConfig, error) {
	cfg := entityio.DefaultOutputConfig()
	format, err := entityio.ParseFormat(f.outputFormat)
	if err != nil {
		return cfg, err
	}
	compression, err := entityio.ParseCompression(f.compression)
	if err != nil {
		return cfg, err
	}
	cfg.Format = format
	cfg.Compression = compression
	cfg.WriteMetadata = f.metadata
	return cfg, nil
}

func runQuery(cmd *cobra.Command, g *globalFlags, f *queryFlags) error {
	ctx := cmd.Context()
	logger, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if f.output == "" {
		return errors.New("--output is required")
	}
	region, err := f.predicate()
	if err != nil {
		return err
	}
	outCfg, err := f.outputConfig()
	if err != nil {
		return err
	}
	inFormat, err := entityio.ParseFormat(f.inputFormat)
	if err != nil {
		return err
	}

	store, err := openDataset(ctx, f.dataset)
	if err != nil {
		return err
	}

	opts := []osmextract.Option{
		osmextract.WithLogger(logger),
		osmextract.WithInputFormat(inFormat),
		osmextract.WithOutputConfig(outCfg),
		osmextract.WithScratchDir(f.tmp),
		osmextract.WithKeepScratch(f.keepTmp),
		osmextract.WithFastRelationTests(f.fastRelationTests),
		osmextract.WithStrictMerge(f.strictMerge),
		osmextract.WithResourceLimits(resource.Config{
			MemoryLimitBytes:   f.memoryLimit,
			IOLimitBytesPerSec: f.ioLimit,
		}),
		osmextract.WithBlockCache(f.blockCache),
	}
	if len(f.relationFilter) > 0 {
		set, err := filter.ParseSet(f.relationFilter)
		if err != nil {
			return err
		}
		opts = append(opts, osmextract.WithRelationFilter(set))
	}

	var reg *prometheus.Registry
	if f.metricsTextfile != "" {
		reg = prometheus.NewRegistry()
		pc, err := osmextract.NewPrometheusCollector(reg)
		if err != nil {
			return err
		}
		opts = append(opts, osmextract.WithMetricsCollector(pc))
	}

	ex := osmextract.New(store, opts...)
	res, runErr := ex.Execute(ctx, osmextract.Query{
		Predicate: region,
		Output:    f.output,
	})
	if reg != nil {
		if err := prometheus.WriteToTextfile(f.metricsTextfile, reg); err != nil {
			logger.Warn("write metrics failed", "path", f.metricsTextfile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	printResult(cmd, res)
	if f.blockCache > 0 {
		hits, misses := ex.CacheStats()
		fmt.Fprintf(cmd.OutOrStdout(), "cache:    %d hits, %d misses\n", hits, misses)
	}
	return nil
}

func printResult(cmd *cobra.Command, res *osmextract.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "state:    %s\n", res.State)
	fmt.Fprintf(out, "leaves:   %d contained, %d evaluated\n", res.Counts.LeavesContained, res.Counts.LeavesEvaluated)
	for _, c := range []model.Category{model.SimpleRelations, model.ComplexRelations} {
		fmt.Fprintf(out, "%-17s %d contained, %d evaluated, %d empty, %d skipped\n", c.String()+":",
			res.Counts.BatchesContained[c], res.Counts.BatchesEvaluated[c],
			res.Counts.BatchesEmpty[c], res.Counts.BatchesSkipped[c])
	}
	for _, c := range model.Categories {
		fmt.Fprintf(out, "%-17s %d written, %d duplicates\n", c.String()+":", res.Merge[c].Written, res.Merge[c].Duplicates)
	}
	if res.State == osmextract.StateRetained {
		fmt.Fprintf(out, "scratch:  %s\n", res.ScratchDir)
	}
	fmt.Fprintf(out, "elapsed:  %s\n", res.Elapsed.Round(time.Millisecond))
}
