package cache

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Deduplicator collapses concurrent identical judge calls into one
type Deduplicator struct {
	group        singleflight.Group
	requests     atomic.Int64
	deduplicated atomic.Int64
}

// DedupStats represents deduplication statistics
type DedupStats struct {
	Requests     int64 `json:"requests"`
	Deduplicated int64 `json:"deduplicated"`
}

// NewDeduplicator creates a new deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Do runs fn once per key among concurrent callers. shared reports whether
// the result was produced for another caller.
//
// fn runs on a context detached from ctx's cancellation, so one caller
// giving up never fails the others waiting on the same key. A cancelled
// caller stops waiting and gets ctx.Err().
func (d *Deduplicator) Do(ctx context.Context, key Key, fn func(ctx context.Context) (string, error)) (value string, shared bool, err error) {
	d.requests.Add(1)

	detached := context.WithoutCancel(ctx)
	ch := d.group.DoChan(string(key), func() (interface{}, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res := <-ch:
		if res.Shared {
			d.deduplicated.Add(1)
		}
		if res.Err != nil {
			return "", res.Shared, res.Err
		}
		return res.Val.(string), res.Shared, nil
	}
}

// Stats returns deduplication statistics
func (d *Deduplicator) Stats() DedupStats {
	return DedupStats{
		Requests:     d.requests.Load(),
		Deduplicated: d.deduplicated.Load(),
	}
}

// Rate returns the share of requests served by another caller's call
func (d *Deduplicator) Rate() float64 {
	stats := d.Stats()
	if stats.Requests == 0 {
		return 0.0
	}
	return float64(stats.Deduplicated) / float64(stats.Requests)
}
