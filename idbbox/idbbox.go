package idbbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/tidwall/rtree"

	"github.com/hupe1980/osmextract/blobstore"
	"github.com/hupe1980/osmextract/internal/manifest"
	"github.com/hupe1980/osmextract/model"
)

const (
	version   = 1
	entrySize = 8 + 4*8
)

var magic = manifest.Magic("OXBB")

// Entry is one batch: its id and the envelope of its geometry.
type Entry struct {
	ID       int64
	Envelope model.Envelope
}

// Write encodes entries in the given order.
func Write(w io.Writer, entries []Entry) error {
	p := manifest.NewPayload(make([]byte, 0, 4+len(entries)*entrySize))
	p.WriteUint32(uint32(len(entries)))
	for _, e := range entries {
		p.WriteUint64(uint64(e.ID))
		p.WriteFloat64(e.Envelope.MinLon())
		p.WriteFloat64(e.Envelope.MinLat())
		p.WriteFloat64(e.Envelope.MaxLon())
		p.WriteFloat64(e.Envelope.MaxLat())
	}
	if err := p.Err(); err != nil {
		return err
	}
	return manifest.Write(w, magic, version, p.Bytes())
}

// Read decodes an index written by Write.
func Read(r io.Reader) ([]Entry, error) {
	payload, err := manifest.Read(r, magic, version)
	if err != nil {
		return nil, fmt.Errorf("idbbox: %w", err)
	}
	p := manifest.NewPayload(payload)
	n := int(p.ReadUint32())
	if p.Err() == nil && n*entrySize != p.Remaining() {
		return nil, fmt.Errorf("idbbox: %d entries do not match payload of %d bytes", n, p.Remaining())
	}
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		id := int64(p.ReadUint64())
		// stored normalized, so no NewEnvelope
		minLon, minLat := p.ReadFloat64(), p.ReadFloat64()
		maxLon, maxLat := p.ReadFloat64(), p.ReadFloat64()
		entries = append(entries, Entry{ID: id, Envelope: envelope(minLon, minLat, maxLon, maxLat)})
	}
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("idbbox: %w", err)
	}
	return entries, nil
}

// Load reads the named index from store.
func Load(ctx context.Context, store blobstore.BlobStore, name string) ([]Entry, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data))
}

// Save writes entries to the named blob.
func Save(ctx context.Context, store blobstore.BlobStore, name string, entries []Entry) error {
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		return err
	}
	return store.Put(ctx, name, buf.Bytes())
}

// Index answers envelope queries over a list of entries.
type Index struct {
	entries []Entry
	tree    rtree.RTreeG[int]
}

// NewIndex indexes entries. Entries with an empty envelope never match.
func NewIndex(entries []Entry) *Index {
	idx := &Index{entries: entries}
	for i, e := range entries {
		if e.Envelope.IsEmpty() {
			continue
		}
		b := e.Envelope.Bound()
		idx.tree.Insert([2]float64(b.Min), [2]float64(b.Max), i)
	}
	return idx
}

// Entries returns all entries in index order.
func (idx *Index) Entries() []Entry { return idx.entries }

// Len returns the number of entries.
func (idx *Index) Len() int { return len(idx.entries) }

// Candidates returns the entries whose envelope intersects env, in index
// order.
func (idx *Index) Candidates(env model.Envelope) []Entry {
	if env.IsEmpty() {
		return nil
	}
	b := env.Bound()
	var hits []int
	idx.tree.Search([2]float64(b.Min), [2]float64(b.Max), func(_, _ [2]float64, i int) bool {
		hits = append(hits, i)
		return true
	})
	slices.Sort(hits)

	out := make([]Entry, len(hits))
	for i, h := range hits {
		out[i] = idx.entries[h]
	}
	return out
}

func envelope(minLon, minLat, maxLon, maxLat float64) model.Envelope {
	if minLon > maxLon || minLat > maxLat {
		return model.EmptyEnvelope()
	}
	return model.NewEnvelope(minLon, minLat, maxLon, maxLat)
}
