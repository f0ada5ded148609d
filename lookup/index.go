// Package lookup implements an in-memory, segmented document index that
// serves field lookups to map scripts.
//
// Documents are appended in segments. Each segment keeps a roaring bitmap of
// live document ids; deleting a document clears its bit, and iteration only
// visits live documents in ascending id order.
//
//	idx := lookup.NewIndex()
//	seg := idx.AddSegment(docs)
//	seg.Delete(3)
//	leaf, _ := idx.Leaf(seg)
//	_ = leaf.SetDocument(0)
//	v, ok := leaf.Field("price")
package lookup

import (
	"errors"
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/scriptmetric/internal/conv"
	"github.com/hupe1980/scriptmetric/script"
	"github.com/hupe1980/scriptmetric/value"
)

// ErrUnknownSegment is returned when a segment does not belong to the index.
var ErrUnknownSegment = errors.New("unknown segment")

// ErrDocOutOfRange is returned for document ids outside a segment.
var ErrDocOutOfRange = errors.New("document out of range")

// Segment is an immutable block of documents.
type Segment struct {
	ord  int
	docs []*value.Map
	live *roaring.Bitmap
}

// Ord implements script.Segment.
func (s *Segment) Ord() int { return s.ord }

// MaxDoc returns the number of documents ever added to the segment.
func (s *Segment) MaxDoc() int { return len(s.docs) }

// NumDocs returns the number of live documents.
func (s *Segment) NumDocs() int { return int(s.live.GetCardinality()) }

// Delete marks doc as deleted. It reports whether the document was live.
func (s *Segment) Delete(doc int) bool {
	id, err := conv.IntToUint32(doc)
	if err != nil || doc >= len(s.docs) {
		return false
	}
	return s.live.CheckedRemove(id)
}

// IsLive reports whether doc exists and is not deleted.
func (s *Segment) IsLive(doc int) bool {
	id, err := conv.IntToUint32(doc)
	if err != nil || doc >= len(s.docs) {
		return false
	}
	return s.live.Contains(id)
}

// LiveDocs iterates live document ids in ascending order.
func (s *Segment) LiveDocs() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := s.live.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// Document returns the stored document. It must not be mutated.
func (s *Segment) Document(doc int) (*value.Map, error) {
	if doc < 0 || doc >= len(s.docs) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrDocOutOfRange, doc, len(s.docs))
	}
	return s.docs[doc], nil
}

// Index is an append-only list of segments. It implements script.Lookup.
//
// Index is not safe for concurrent mutation; reads of sealed segments are.
type Index struct {
	segments []*Segment
}

var _ script.Lookup = (*Index)(nil)

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{}
}

// AddSegment appends a segment holding docs. Documents are deep-copied.
func (idx *Index) AddSegment(docs []*value.Map) *Segment {
	seg := &Segment{
		ord:  len(idx.segments),
		docs: make([]*value.Map, len(docs)),
		live: roaring.New(),
	}
	for i, d := range docs {
		seg.docs[i] = value.CopyMap(d)
	}
	seg.live.AddRange(0, uint64(len(docs)))
	idx.segments = append(idx.segments, seg)
	return seg
}

// Segments returns the segments in order.
func (idx *Index) Segments() []*Segment {
	out := make([]*Segment, len(idx.segments))
	copy(out, idx.segments)
	return out
}

// NumDocs returns the number of live documents across all segments.
func (idx *Index) NumDocs() int {
	n := 0
	for _, s := range idx.segments {
		n += s.NumDocs()
	}
	return n
}

// Leaf implements script.Lookup.
func (idx *Index) Leaf(seg script.Segment) (script.LeafLookup, error) {
	s, ok := seg.(*Segment)
	if !ok || s.ord >= len(idx.segments) || idx.segments[s.ord] != s {
		return nil, fmt.Errorf("%w: %v", ErrUnknownSegment, seg)
	}
	return &leafLookup{seg: s, doc: -1}, nil
}

type leafLookup struct {
	seg *Segment
	doc int
	cur *value.Map
}

func (l *leafLookup) SetDocument(doc int) error {
	d, err := l.seg.Document(doc)
	if err != nil {
		return err
	}
	l.doc = doc
	l.cur = d
	return nil
}

func (l *leafLookup) Field(name string) (value.Value, bool) {
	if l.cur == nil {
		return value.Null(), false
	}
	return l.cur.Get(name)
}

func (l *leafLookup) Fields() []string {
	if l.cur == nil {
		return nil
	}
	return l.cur.Keys()
}
