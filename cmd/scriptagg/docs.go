package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/scriptmetric/lookup"
	"github.com/hupe1980/scriptmetric/value"
)

const maxLineSize = 16 << 20

// corpus is a JSONL document set split into segments, with every document
// assigned a bucket ordinal.
type corpus struct {
	index *lookup.Index
	// ords[segment][doc] is the bucket ordinal of doc.
	ords [][]int64
	// terms[ord] is the bucket key of ordinal ord.
	terms []string
}

// readCorpus reads one JSON object per line. Documents are grouped into
// segments of segmentSize. With a bucketField, every distinct value of that
// field gets an ordinal in order of first appearance; without one, all
// documents fall into ordinal 0.
func readCorpus(r io.Reader, segmentSize int, bucketField string) (*corpus, error) {
	if segmentSize <= 0 {
		return nil, fmt.Errorf("segment size must be positive, got %d", segmentSize)
	}

	c := &corpus{index: lookup.NewIndex()}
	ordOf := make(map[string]int64)
	if bucketField == "" {
		c.terms = []string{"_all"}
	}

	var (
		docs []*value.Map
		ords []int64
	)
	flush := func() {
		if len(docs) == 0 {
			return
		}
		c.index.AddSegment(docs)
		c.ords = append(c.ords, ords)
		docs, ords = nil, nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var ord int64
		if bucketField != "" {
			term := "_missing"
			if v, ok := doc.Get(bucketField); ok && !v.IsNull() {
				term = termOf(v)
			}
			o, ok := ordOf[term]
			if !ok {
				o = int64(len(c.terms))
				ordOf[term] = o
				c.terms = append(c.terms, term)
			}
			ord = o
		}

		docs = append(docs, doc)
		ords = append(ords, ord)
		if len(docs) == segmentSize {
			flush()
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return c, nil
}

func decodeDocument(raw []byte) (*value.Map, error) {
	dec := gojson.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("document must be a JSON object")
	}
	m, _ := value.FromAny(normalizeNumbers(obj)).AsMap()
	return m, nil
}

// normalizeNumbers turns integral JSON numbers into int64 and the rest into
// float64 so scripts see the same numeric kinds the document was written with.
func normalizeNumbers(x any) any {
	switch t := x.(type) {
	case gojson.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(string(t), 64)
		return f
	case map[string]any:
		for k, v := range t {
			t[k] = normalizeNumbers(v)
		}
		return t
	case []any:
		for i, v := range t {
			t[i] = normalizeNumbers(v)
		}
		return t
	default:
		return x
	}
}

func termOf(v value.Value) string {
	if s, ok := v.AsString(); ok {
		return s
	}
	return v.String()
}
