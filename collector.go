package scriptmetric

import (
	"context"

	"github.com/hupe1980/scriptmetric/script"
)

// LeafCollector feeds the documents of one segment into an Aggregator.
//
// A LeafCollector is valid until the next call to Aggregator.LeafCollector.
// It is NOT thread-safe.
type LeafCollector struct {
	ctx    context.Context
	agg    *Aggregator
	seg    script.Segment
	scorer script.Scorer
}

// Segment returns the segment this collector is bound to.
func (c *LeafCollector) Segment() script.Segment { return c.seg }

// SetScorer sets the score provider bound to map scripts built in this
// segment. Call it before the first Collect.
func (c *LeafCollector) SetScorer(scorer script.Scorer) {
	c.scorer = scorer
}

// Collect runs the map script of bucket ord on doc.
//
// The bucket's state is created and charged on its first document. Errors
// from the breaker wrap ErrBudgetExceeded; errors from the map script are
// returned as is. Either way collection must be abandoned.
func (c *LeafCollector) Collect(doc int, ord int64) error {
	a := c.agg
	if a.closed {
		return ErrClosed
	}

	st, err := a.stateFor(c.ctx, ord)
	if err != nil {
		return err
	}

	if st.leafMap == nil {
		leafMap, err := st.mapFactory.NewInstance(c.seg)
		if err != nil {
			return err
		}
		leafMap.SetScorer(c.scorer)
		st.leafMap = leafMap
	}

	if err := st.leafMap.SetDocument(doc); err != nil {
		return err
	}
	err = st.leafMap.Execute()
	a.opts.metricsCollector.RecordMapExecution(err)
	return err
}
