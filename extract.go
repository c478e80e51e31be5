package osmextract

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/osmextract/blobstore"
	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/idbbox"
	"github.com/hupe1980/osmextract/internal/cache"
	"github.com/hupe1980/osmextract/internal/fs"
	"github.com/hupe1980/osmextract/internal/query"
	"github.com/hupe1980/osmextract/merge"
	"github.com/hupe1980/osmextract/model"
	"github.com/hupe1980/osmextract/predicate"
	"github.com/hupe1980/osmextract/resource"
	"github.com/hupe1980/osmextract/tree"
)

// Query describes one extraction.
type Query struct {
	// Predicate decides which geometry is inside the region. Required.
	Predicate predicate.Predicate
	// Envelope restricts the tree and batch lookups. Defaults to the
	// predicate's envelope.
	Envelope *model.Envelope
	// Output is the local path of the result file. Required. An existing
	// file is replaced.
	Output string
}

// Counts reports how leaves and relation batches were handled.
type Counts struct {
	LeavesContained  int
	LeavesEvaluated  int
	BatchesContained [len(model.Categories)]int
	BatchesEvaluated [len(model.Categories)]int
	BatchesSkipped   [len(model.Categories)]int
	BatchesEmpty     [len(model.Categories)]int
}

// Result summarises a successful Execute.
type Result struct {
	RunID      string
	State      State
	Totals     model.Tally
	Merge      [len(model.Categories)]merge.Stats
	Counts     Counts
	ScratchDir string
	Elapsed    time.Duration
	// Accumulator holds the partial files that were merged. They no longer
	// exist unless State is StateRetained.
	Accumulator *ResultAccumulator
}

// Written is the number of entities in the output file.
func (r *Result) Written() int64 {
	var n int64
	for _, s := range r.Merge {
		n += s.Written
	}
	return n
}

// Extractor runs region queries against one dataset. It is not safe for
// concurrent use of Execute with a shared scratch directory.
type Extractor struct {
	dataset   blobstore.BlobStore
	opts      options
	resources *resource.Controller
	cache     *cache.LRUBlockCache
}

// New creates an Extractor over a dataset store laid out as described by
// Paths.
func New(dataset blobstore.BlobStore, optFns ...Option) *Extractor {
	o := applyOptions(optFns)
	rc := resource.NewController(o.resources)

	e := &Extractor{dataset: dataset, opts: o, resources: rc}
	if o.blockCacheBytes > 0 {
		e.cache = cache.NewLRUBlockCache(o.blockCacheBytes, rc)
		rc.SetReclaimer(e.cache.Reclaim)
		e.dataset = blobstore.NewCachingStore(dataset, e.cache, blobstore.DefaultCacheBlockSize)
	}
	return e
}

// CacheStats returns block cache hits and misses. Both are zero without a
// block cache.
func (e *Extractor) CacheStats() (hits, misses int64) {
	if e.cache == nil {
		return 0, 0
	}
	return e.cache.Stats()
}

// run is the state of one Execute.
type run struct {
	e      *Extractor
	q      Query
	env    model.Envelope
	ws     *workspace
	log    *Logger
	acc    *ResultAccumulator
	res    *Result
	state  State
	output fs.File
}

// Execute extracts the region described by q into q.Output.
//
// The run moves through the states Init, TreeOpened, LeavesProcessed,
// RelationsProcessed and Merged, then removes its scratch directory
// (CleanedUp) or keeps it (Retained). Any error before Merged aborts the
// run and removes a partially written output file.
func (e *Extractor) Execute(ctx context.Context, q Query) (res *Result, err error) {
	start := time.Now()
	if q.Predicate == nil {
		return nil, fmt.Errorf("%w: predicate is required", ErrInvalidQuery)
	}
	if q.Output == "" {
		return nil, fmt.Errorf("%w: output path is required", ErrInvalidQuery)
	}

	id := uuid.NewString()
	r := &run{
		e:   e,
		q:   q,
		env: q.Predicate.Envelope(),
		log: e.opts.logger.WithRun(id),
		acc: &ResultAccumulator{},
	}
	if q.Envelope != nil {
		r.env = *q.Envelope
	}
	r.res = &Result{RunID: id, Accumulator: r.acc}

	defer func() {
		r.res.Elapsed = time.Since(start)
		e.opts.metricsCollector.RecordRun(r.state, r.acc.Totals(), r.res.Elapsed, err)
		if err != nil {
			res = nil
		}
	}()

	ws, err := openWorkspace(e.opts.fsys, e.opts.scratchDir)
	if err != nil {
		return nil, err
	}
	r.ws = ws
	r.res.ScratchDir = ws.path
	r.log.InfoContext(ctx, "extract started", "region", r.env.String(), "scratch", ws.path)

	if err := r.execute(ctx); err != nil {
		r.abort(ctx)
		return nil, translateError(err)
	}

	r.finish(ctx)
	r.res.State = r.state
	r.res.Totals = r.acc.Totals()
	r.log.InfoContext(ctx, "extract finished",
		"state", r.state.String(),
		"written", r.res.Written(),
		"totals", r.res.Totals.String(),
		"elapsed", time.Since(start),
	)
	return r.res, nil
}

func (r *run) advance(ctx context.Context, s State) {
	r.state = s
	r.log.LogState(ctx, s)
}

func (r *run) execute(ctx context.Context) error {
	t, err := tree.Open(ctx, r.e.dataset, r.e.opts.paths.Tree)
	if err != nil {
		return sourceError(r.e.opts.paths.Tree, err)
	}
	r.advance(ctx, StateTreeOpened)

	if err := r.processLeaves(ctx, t); err != nil {
		return err
	}
	r.advance(ctx, StateLeavesProcessed)

	for _, c := range []model.Category{model.SimpleRelations, model.ComplexRelations} {
		if err := r.processBatches(ctx, c); err != nil {
			return err
		}
	}
	r.advance(ctx, StateRelationsProcessed)

	if err := r.merge(ctx); err != nil {
		return err
	}
	r.advance(ctx, StateMerged)
	return nil
}

// datasetInput names a file of the dataset.
func (r *run) datasetInput(name string) entityio.FileInput {
	return entityio.FileInput{
		Store:  r.e.dataset,
		Name:   name,
		Format: r.e.opts.inputFormat,
		IO:     r.e.resources,
	}
}

// scratchInput names a partial result in the workspace.
func (r *run) scratchInput(name string) entityio.FileInput {
	return entityio.FileInput{
		Store:  r.ws.store,
		Name:   name,
		Format: r.e.opts.intermediate.Format,
	}
}

// reserve acquires memory for the encoded size of inputs.
func (r *run) reserve(ctx context.Context, inputs ...entityio.FileInput) (int64, error) {
	var total int64
	for _, in := range inputs {
		n, err := in.Size(ctx)
		if err != nil {
			return 0, sourceError(in.Name, err)
		}
		total += n
	}
	return r.e.resources.AcquireMemory(ctx, total)
}

func (r *run) processLeaves(ctx context.Context, t *tree.Tree) error {
	names := r.e.opts.treeNames
	dir := r.e.opts.paths.Tree
	leaves := t.Query(r.env)
	r.log.InfoContext(ctx, "tree queried", "leaves", len(leaves), "total", len(t.Leaves()))

	eval := &query.LeafEvaluator{Predicate: r.q.Predicate}
	for _, leaf := range leaves {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		log := r.log.WithLeaf(leaf.Name())
		in := query.LeafInputs{
			Points:           r.datasetInput(names.LeafFile(dir, leaf, model.Points)),
			Polylines:        r.datasetInput(names.LeafFile(dir, leaf, model.Polylines)),
			SimpleRelations:  r.datasetInput(names.LeafFile(dir, leaf, model.SimpleRelations)),
			ComplexRelations: r.datasetInput(names.LeafFile(dir, leaf, model.ComplexRelations)),
		}

		if r.q.Predicate.ContainsEnvelope(leaf.Envelope) {
			r.acc.Add(model.Points, in.Points)
			r.acc.Add(model.Polylines, in.Polylines)
			r.acc.Add(model.SimpleRelations, in.SimpleRelations)
			r.acc.Add(model.ComplexRelations, in.ComplexRelations)
			r.res.Counts.LeavesContained++
			log.LogLeaf(ctx, true, model.Tally{}, nil)
			r.e.opts.metricsCollector.RecordLeaf(OutcomeContained, model.Tally{}, time.Since(start), nil)
			continue
		}

		eval.Logger = log.Logger
		tally, err := r.evaluateLeaf(ctx, eval, in)
		log.LogLeaf(ctx, false, tally, err)
		r.e.opts.metricsCollector.RecordLeaf(OutcomeEvaluated, tally, time.Since(start), err)
		if err != nil {
			return fmt.Errorf("leaf %s: %w", leaf.Name(), err)
		}
		r.acc.AddTally(tally)
		r.res.Counts.LeavesEvaluated++
	}
	return nil
}

func (r *run) evaluateLeaf(ctx context.Context, eval *query.LeafEvaluator, in query.LeafInputs) (tally model.Tally, err error) {
	reserved, err := r.reserve(ctx, in.Points, in.Polylines)
	if err != nil {
		return tally, err
	}
	defer r.e.resources.ReleaseMemory(reserved)

	names := r.ws.leafNames(r.e.opts.intermediate.Format.Extension())
	ws, err := r.createAll(ctx, names[:])
	if err != nil {
		return tally, err
	}
	defer func() {
		if cerr := closeAll(ws); cerr != nil && err == nil {
			err = cerr
		}
	}()

	out := query.LeafOutputs{
		Points:              ws[0],
		Polylines:           ws[1],
		SimpleRelations:     ws[2],
		ComplexRelations:    ws[3],
		AdditionalPoints:    ws[4],
		AdditionalPolylines: ws[5],
	}
	tally, err = eval.Evaluate(ctx, in, out)
	if err != nil {
		return tally, err
	}

	r.acc.Add(model.Points, r.scratchInput(names[0]), r.scratchInput(names[4]))
	r.acc.Add(model.Polylines, r.scratchInput(names[1]), r.scratchInput(names[5]))
	r.acc.Add(model.SimpleRelations, r.scratchInput(names[2]))
	r.acc.Add(model.ComplexRelations, r.scratchInput(names[3]))
	return tally, nil
}

func (r *run) processBatches(ctx context.Context, c model.Category) error {
	dir, indexName := r.e.opts.paths.batches(c)
	entries, err := idbbox.Load(ctx, r.e.dataset, indexName)
	if err != nil {
		return sourceError(indexName, err)
	}
	candidates := idbbox.NewIndex(entries).Candidates(r.env)
	r.log.WithCategory(c).InfoContext(ctx, "batch index loaded", "batches", len(entries), "candidates", len(candidates))

	resolver := query.MemberResolver(query.DirectMembers{})
	if c == model.ComplexRelations {
		resolver = query.NestedMembers{}
	}
	eval := &query.BatchEvaluator{
		Predicate:         r.q.Predicate,
		Resolver:          resolver,
		Filter:            r.e.opts.relationFilter,
		FastRelationTests: r.e.opts.fastRelationTests,
	}

	names := r.e.opts.batchNames
	for _, entry := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		log := r.log.WithBatch(c, entry.ID)
		bdir := BatchDir(dir, entry.ID)
		in := query.BatchInputs{
			Points:    r.datasetInput(bdir + "/" + names.Points),
			Polylines: r.datasetInput(bdir + "/" + names.Polylines),
			Relations: r.datasetInput(bdir + "/" + names.Relations),
		}

		if r.q.Predicate.ContainsEnvelope(entry.Envelope) {
			r.acc.Add(model.Points, in.Points)
			r.acc.Add(model.Polylines, in.Polylines)
			r.addRelations(c, in.Relations)
			r.res.Counts.BatchesContained[c]++
			log.LogBatch(ctx, OutcomeContained, model.Tally{}, nil)
			r.e.opts.metricsCollector.RecordBatch(c, OutcomeContained, model.Tally{}, time.Since(start), nil)
			continue
		}
		if !r.q.Predicate.IntersectsEnvelope(entry.Envelope) {
			continue
		}

		eval.Logger = log.Logger
		outcome, tally, err := r.evaluateBatch(ctx, eval, c, in)
		log.LogBatch(ctx, outcome, tally, err)
		r.e.opts.metricsCollector.RecordBatch(c, outcome, tally, time.Since(start), err)
		if err != nil {
			return fmt.Errorf("%s batch %d: %w", c, entry.ID, err)
		}
		switch outcome {
		case OutcomeSkipped:
			r.res.Counts.BatchesSkipped[c]++
		case OutcomeEmpty:
			r.res.Counts.BatchesEmpty[c]++
		default:
			r.res.Counts.BatchesEvaluated[c]++
		}
		r.acc.AddTally(tally)
	}
	return nil
}

func (r *run) evaluateBatch(ctx context.Context, eval *query.BatchEvaluator, c model.Category, in query.BatchInputs) (outcome string, tally model.Tally, err error) {
	reserved, err := r.reserve(ctx, in.Points, in.Polylines, in.Relations)
	if err != nil {
		return OutcomeEvaluated, tally, err
	}
	defer r.e.resources.ReleaseMemory(reserved)

	var names [3]string
	var ws []entityio.Writer
	defer func() {
		if cerr := closeAll(ws); cerr != nil && err == nil {
			err = cerr
		}
	}()

	open := func() (query.BatchOutputs, error) {
		names = r.ws.batchNames(c, r.e.opts.intermediate.Format.Extension())
		var oerr error
		ws, oerr = r.createAll(ctx, names[:])
		if oerr != nil {
			return query.BatchOutputs{}, oerr
		}
		return query.BatchOutputs{Points: ws[0], Polylines: ws[1], Relations: ws[2]}, nil
	}

	res, err := eval.Evaluate(ctx, in, open)
	if err != nil {
		return OutcomeEvaluated, res.Tally, err
	}
	if res.Skipped {
		return OutcomeSkipped, res.Tally, nil
	}

	r.acc.Add(model.Points, r.scratchInput(names[0]))
	r.acc.Add(model.Polylines, r.scratchInput(names[1]))
	r.addRelations(c, r.scratchInput(names[2]))
	if res.Qualified == 0 {
		return OutcomeEmpty, res.Tally, nil
	}
	return OutcomeEvaluated, res.Tally, nil
}

// addRelations registers the relation file of a batch. Complex batches hold
// the simple relations their relations reference, so their file feeds the
// simple block too; the merge collapses these with the simple batch copies.
func (r *run) addRelations(c model.Category, in entityio.FileInput) {
	if c == model.ComplexRelations {
		r.acc.Add(model.SimpleRelations, in)
	}
	r.acc.Add(c, in)
}

// createAll creates one scratch writer per name. On failure the writers
// created so far are closed.
func (r *run) createAll(ctx context.Context, names []string) ([]entityio.Writer, error) {
	ws := make([]entityio.Writer, 0, len(names))
	for _, name := range names {
		w, err := entityio.Create(ctx, r.ws.store, name, r.e.opts.intermediate)
		if err != nil {
			_ = closeAll(ws)
			return nil, &WorkspaceError{Path: r.ws.path, Reason: "cannot create " + name, cause: err}
		}
		ws = append(ws, w)
	}
	return ws, nil
}

func closeAll(ws []entityio.Writer) error {
	var errs []error
	for _, w := range ws {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

func (r *run) merge(ctx context.Context) (err error) {
	f, err := r.e.opts.fsys.OpenFile(r.q.Output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	r.output = f

	out, err := entityio.NewWriter(newBufferedFile(f), r.e.opts.output)
	if err != nil {
		_ = f.Close()
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	opts := merge.Options{Policy: r.e.opts.duplicatePolicy}
	for _, c := range model.Categories {
		start := time.Now()
		stats, err := merge.Merge(ctx, out, r.acc.mergeInputs(c), opts)
		d := time.Since(start)
		r.log.WithCategory(c).LogMerge(ctx, stats, d, err)
		r.e.opts.metricsCollector.RecordMerge(c, stats, d, err)
		if err != nil {
			return fmt.Errorf("merge %s: %w", c, err)
		}
		r.res.Merge[c] = stats
	}
	return nil
}

// abort removes the partial output and, unless retention was requested,
// the scratch directory.
func (r *run) abort(ctx context.Context) {
	if r.output != nil {
		if err := r.e.opts.fsys.Remove(r.q.Output); err != nil && !os.IsNotExist(err) {
			r.log.WarnContext(ctx, "remove partial output failed", "path", r.q.Output, "error", err)
		}
	}
	if !r.e.opts.keepScratch {
		r.cleanup(ctx)
	}
}

func (r *run) finish(ctx context.Context) {
	if r.e.opts.keepScratch {
		r.advance(ctx, StateRetained)
		r.log.InfoContext(ctx, "scratch retained", "path", r.ws.path)
		return
	}
	r.cleanup(ctx)
	r.advance(ctx, StateCleanedUp)
}

// cleanup failures are logged only.
func (r *run) cleanup(ctx context.Context) {
	if err := r.ws.remove(); err != nil {
		r.log.WarnContext(ctx, "remove scratch failed", "path", r.ws.path, "error", err)
	}
}

// bufferedFile flushes on Close before closing the file.
type bufferedFile struct {
	*bufio.Writer
	f io.Closer
}

func newBufferedFile(f fs.File) *bufferedFile {
	return &bufferedFile{Writer: bufio.NewWriterSize(f, 1<<20), f: f}
}

func (b *bufferedFile) Close() error {
	ferr := b.Flush()
	cerr := b.f.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}
