package entityio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/paulmach/osm"
)

const (
	kindNode     byte = 1
	kindWay      byte = 2
	kindRelation byte = 3
)

var (
	errShortRecord = errors.New("entityio: truncated record")
	zeroUnix       = time.Time{}.Unix()
)

func coordToInt(v float64) int64 { return int64(math.Round(v * 1e7)) }

func intToCoord(v int64) float64 { return float64(v) / 1e7 }

// recordEncoder delta-codes ids per kind and node coordinates across the
// whole stream, so records must be decoded in the order they were written.
type recordEncoder struct {
	meta    bool
	lastID  [4]int64
	lastLat int64
	lastLon int64
}

func appendString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

func (e *recordEncoder) appendID(dst []byte, kind byte, id int64) []byte {
	dst = append(dst, kind)
	dst = binary.AppendVarint(dst, id-e.lastID[kind])
	e.lastID[kind] = id
	return dst
}

func (e *recordEncoder) appendMeta(dst []byte, version int, changeset osm.ChangesetID, uid osm.UserID, user string, ts time.Time, visible bool) []byte {
	if !e.meta {
		return dst
	}
	dst = binary.AppendUvarint(dst, uint64(version))
	dst = binary.AppendVarint(dst, int64(changeset))
	dst = binary.AppendVarint(dst, int64(uid))
	dst = appendString(dst, user)
	dst = binary.AppendVarint(dst, ts.Unix())
	if visible {
		return append(dst, 1)
	}
	return append(dst, 0)
}

func appendTags(dst []byte, tags osm.Tags) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(tags)))
	for _, t := range tags {
		dst = appendString(dst, t.Key)
		dst = appendString(dst, t.Value)
	}
	return dst
}

func memberTypeCode(t osm.Type) (byte, error) {
	switch t {
	case osm.TypeNode:
		return 0, nil
	case osm.TypeWay:
		return 1, nil
	case osm.TypeRelation:
		return 2, nil
	}
	return 0, fmt.Errorf("entityio: unsupported member type %q", t)
}

var memberTypes = [...]osm.Type{osm.TypeNode, osm.TypeWay, osm.TypeRelation}

func (e *recordEncoder) append(dst []byte, o osm.Object) ([]byte, error) {
	switch v := o.(type) {
	case *osm.Node:
		dst = e.appendID(dst, kindNode, int64(v.ID))
		dst = e.appendMeta(dst, v.Version, v.ChangesetID, v.UserID, v.User, v.Timestamp, v.Visible)
		lat, lon := coordToInt(v.Lat), coordToInt(v.Lon)
		dst = binary.AppendVarint(dst, lat-e.lastLat)
		dst = binary.AppendVarint(dst, lon-e.lastLon)
		e.lastLat, e.lastLon = lat, lon
		return appendTags(dst, v.Tags), nil

	case *osm.Way:
		dst = e.appendID(dst, kindWay, int64(v.ID))
		dst = e.appendMeta(dst, v.Version, v.ChangesetID, v.UserID, v.User, v.Timestamp, v.Visible)
		dst = appendTags(dst, v.Tags)
		dst = binary.AppendUvarint(dst, uint64(len(v.Nodes)))
		var prev int64
		for _, wn := range v.Nodes {
			dst = binary.AppendVarint(dst, int64(wn.ID)-prev)
			prev = int64(wn.ID)
		}
		return dst, nil

	case *osm.Relation:
		dst = e.appendID(dst, kindRelation, int64(v.ID))
		dst = e.appendMeta(dst, v.Version, v.ChangesetID, v.UserID, v.User, v.Timestamp, v.Visible)
		dst = appendTags(dst, v.Tags)
		dst = binary.AppendUvarint(dst, uint64(len(v.Members)))
		for _, m := range v.Members {
			code, err := memberTypeCode(m.Type)
			if err != nil {
				return nil, err
			}
			dst = append(dst, code)
			dst = binary.AppendVarint(dst, m.Ref)
			dst = appendString(dst, m.Role)
		}
		return dst, nil
	}
	return nil, fmt.Errorf("entityio: cannot encode %T", o)
}

type recordDecoder struct {
	meta    bool
	lastID  [4]int64
	lastLat int64
	lastLon int64

	buf []byte
	pos int
}

func (d *recordDecoder) reset(buf []byte) {
	d.buf, d.pos = buf, 0
}

func (d *recordDecoder) more() bool {
	return d.pos < len(d.buf)
}

func (d *recordDecoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	if n <= 0 {
		return 0, errShortRecord
	}
	d.pos += n
	return v, nil
}

func (d *recordDecoder) varint() (int64, error) {
	v, n := binary.Varint(d.buf[d.pos:])
	if n <= 0 {
		return 0, errShortRecord
	}
	d.pos += n
	return v, nil
}

func (d *recordDecoder) readByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, errShortRecord
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *recordDecoder) readString() (string, error) {
	n, err := d.uvarint()
	if err != nil {
		return "", err
	}
	if uint64(len(d.buf)-d.pos) < n {
		return "", errShortRecord
	}
	s := string(d.buf[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

// count reads a length prefix and rejects values that cannot fit in the
// remaining bytes.
func (d *recordDecoder) count() (int, error) {
	n, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(len(d.buf)-d.pos) {
		return 0, errShortRecord
	}
	return int(n), nil
}

type metaFields struct {
	version   int
	changeset osm.ChangesetID
	uid       osm.UserID
	user      string
	ts        time.Time
	visible   bool
}

func (d *recordDecoder) readMeta() (metaFields, error) {
	m := metaFields{visible: true}
	if !d.meta {
		return m, nil
	}
	version, err := d.uvarint()
	if err != nil {
		return m, err
	}
	changeset, err := d.varint()
	if err != nil {
		return m, err
	}
	uid, err := d.varint()
	if err != nil {
		return m, err
	}
	user, err := d.readString()
	if err != nil {
		return m, err
	}
	ts, err := d.varint()
	if err != nil {
		return m, err
	}
	visible, err := d.readByte()
	if err != nil {
		return m, err
	}
	m.version, m.changeset, m.uid, m.user = int(version), osm.ChangesetID(changeset), osm.UserID(uid), user
	if ts != zeroUnix {
		m.ts = time.Unix(ts, 0).UTC()
	}
	m.visible = visible == 1
	return m, nil
}

func (d *recordDecoder) readTags() (osm.Tags, error) {
	n, err := d.count()
	if err != nil || n == 0 {
		return nil, err
	}
	tags := make(osm.Tags, n)
	for i := range tags {
		if tags[i].Key, err = d.readString(); err != nil {
			return nil, err
		}
		if tags[i].Value, err = d.readString(); err != nil {
			return nil, err
		}
	}
	return tags, nil
}

func (d *recordDecoder) next() (osm.Object, error) {
	kind, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if kind < kindNode || kind > kindRelation {
		return nil, fmt.Errorf("entityio: unknown record kind %d", kind)
	}
	delta, err := d.varint()
	if err != nil {
		return nil, err
	}
	id := d.lastID[kind] + delta
	d.lastID[kind] = id

	m, err := d.readMeta()
	if err != nil {
		return nil, err
	}

	switch kind {
	case kindNode:
		dlat, err := d.varint()
		if err != nil {
			return nil, err
		}
		dlon, err := d.varint()
		if err != nil {
			return nil, err
		}
		d.lastLat += dlat
		d.lastLon += dlon
		tags, err := d.readTags()
		if err != nil {
			return nil, err
		}
		return &osm.Node{
			ID: osm.NodeID(id), Lat: intToCoord(d.lastLat), Lon: intToCoord(d.lastLon), Tags: tags,
			Version: m.version, ChangesetID: m.changeset, UserID: m.uid, User: m.user,
			Timestamp: m.ts, Visible: m.visible,
		}, nil

	case kindWay:
		tags, err := d.readTags()
		if err != nil {
			return nil, err
		}
		n, err := d.count()
		if err != nil {
			return nil, err
		}
		nodes := make(osm.WayNodes, n)
		var prev int64
		for i := range nodes {
			delta, err := d.varint()
			if err != nil {
				return nil, err
			}
			prev += delta
			nodes[i].ID = osm.NodeID(prev)
		}
		return &osm.Way{
			ID: osm.WayID(id), Nodes: nodes, Tags: tags,
			Version: m.version, ChangesetID: m.changeset, UserID: m.uid, User: m.user,
			Timestamp: m.ts, Visible: m.visible,
		}, nil

	default:
		tags, err := d.readTags()
		if err != nil {
			return nil, err
		}
		n, err := d.count()
		if err != nil {
			return nil, err
		}
		members := make(osm.Members, n)
		for i := range members {
			code, err := d.readByte()
			if err != nil {
				return nil, err
			}
			if int(code) >= len(memberTypes) {
				return nil, fmt.Errorf("entityio: unknown member type code %d", code)
			}
			ref, err := d.varint()
			if err != nil {
				return nil, err
			}
			role, err := d.readString()
			if err != nil {
				return nil, err
			}
			members[i] = osm.Member{Type: memberTypes[code], Ref: ref, Role: role}
		}
		return &osm.Relation{
			ID: osm.RelationID(id), Members: members, Tags: tags,
			Version: m.version, ChangesetID: m.changeset, UserID: m.uid, User: m.user,
			Timestamp: m.ts, Visible: m.visible,
		}, nil
	}
}
