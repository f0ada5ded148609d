package scriptmetric

import "context"

// Close releases the bucket storage and returns the charged bytes to the
// breaker if it is a Releaser. The aggregator is single-use: every method
// except BuildEmptyAggregation, Stats and Close fails with ErrClosed
// afterwards. Closing twice is a no-op.
func (a *Aggregator) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.states.Release()

	released := a.charged
	if r, ok := a.opts.breaker.(Releaser); ok && released > 0 {
		r.Release(released)
	}
	a.logger.LogClose(context.Background(), a.buckets, released)
	return nil
}
