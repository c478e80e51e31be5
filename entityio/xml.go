package entityio

import (
	"bufio"
	"encoding/xml"
	"errors"
	"io"
	"time"

	"github.com/paulmach/osm"
)

const xmlGenerator = "osmextract"

type xmlWriter struct {
	w    io.WriteCloser
	bw   *bufio.Writer
	enc  *xml.Encoder
	meta bool
	err  error
}

func newXMLWriter(w io.WriteCloser, cfg OutputConfig) (*xmlWriter, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(xml.Header); err != nil {
		return nil, err
	}
	enc := xml.NewEncoder(bw)
	enc.Indent("", " ")
	err := enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: "osm"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "version"}, Value: "0.6"},
			{Name: xml.Name{Local: "generator"}, Value: xmlGenerator},
		},
	})
	if err != nil {
		return nil, err
	}
	return &xmlWriter{w: w, bw: bw, enc: enc, meta: cfg.WriteMetadata}, nil
}

func (x *xmlWriter) Write(o osm.Object) error {
	if x.err != nil {
		return x.err
	}
	if !x.meta {
		o = stripMetadata(o)
	}
	x.err = x.enc.Encode(o)
	return x.err
}

func (x *xmlWriter) Close() error {
	err := x.err
	if err == nil {
		err = x.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "osm"}})
	}
	if err == nil {
		err = x.enc.Flush()
	}
	if err == nil {
		_, err = x.bw.WriteString("\n")
	}
	if err == nil {
		err = x.bw.Flush()
	}
	if cerr := x.w.Close(); err == nil {
		err = cerr
	}
	x.err = errors.New("entityio: writer closed")
	return err
}

// stripMetadata returns a shallow copy without version, changeset, user and
// timestamp.
func stripMetadata(o osm.Object) osm.Object {
	switch v := o.(type) {
	case *osm.Node:
		c := *v
		c.Version, c.ChangesetID, c.UserID, c.User, c.Timestamp = 0, 0, 0, "", time.Time{}
		return &c
	case *osm.Way:
		c := *v
		c.Version, c.ChangesetID, c.UserID, c.User, c.Timestamp = 0, 0, 0, "", time.Time{}
		return &c
	case *osm.Relation:
		c := *v
		c.Version, c.ChangesetID, c.UserID, c.User, c.Timestamp = 0, 0, 0, "", time.Time{}
		return &c
	}
	return o
}
