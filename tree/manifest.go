package tree

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/hupe1980/osmextract/blobstore"
	"github.com/hupe1980/osmextract/internal/manifest"
	"github.com/hupe1980/osmextract/model"
)

// ManifestName is the manifest file at the top of a tree directory.
const ManifestName = "tree.info"

const manifestVersion = 1

var manifestMagic = manifest.Magic("OXTR")

// MarshalBinary encodes the root envelope and leaf paths.
func (t *Tree) MarshalBinary() ([]byte, error) {
	root := t.root.Envelope
	p := manifest.NewPayload(nil)
	p.WriteFloat64(root.MinLon())
	p.WriteFloat64(root.MinLat())
	p.WriteFloat64(root.MaxLon())
	p.WriteFloat64(root.MaxLat())
	p.WriteUint32(uint32(len(t.leaves)))
	for _, l := range t.leaves {
		p.WriteUint64(l.Path)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := manifest.Write(&buf, manifestMagic, manifestVersion, p.Bytes()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a manifest written by MarshalBinary.
func Unmarshal(data []byte) (*Tree, error) {
	payload, err := manifest.Read(bytes.NewReader(data), manifestMagic, manifestVersion)
	if err != nil {
		return nil, fmt.Errorf("tree manifest: %w", err)
	}
	p := manifest.NewPayload(payload)
	minLon, minLat := p.ReadFloat64(), p.ReadFloat64()
	maxLon, maxLat := p.ReadFloat64(), p.ReadFloat64()
	n := p.ReadUint32()
	if p.Err() == nil && int(n)*8 > p.Remaining() {
		return nil, fmt.Errorf("tree manifest: leaf count %d exceeds payload", n)
	}
	paths := make([]uint64, 0, n)
	for i := uint32(0); i < n; i++ {
		paths = append(paths, p.ReadUint64())
	}
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("tree manifest: %w", err)
	}
	return New(model.NewEnvelope(minLon, minLat, maxLon, maxLat), paths)
}

// Open reads the manifest of the tree stored under dir.
func Open(ctx context.Context, store blobstore.BlobStore, dir string) (*Tree, error) {
	data, err := blobstore.ReadAll(ctx, store, path.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// Save writes the manifest of t under dir.
func Save(ctx context.Context, store blobstore.BlobStore, dir string, t *Tree) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	return store.Put(ctx, path.Join(dir, ManifestName), data)
}
