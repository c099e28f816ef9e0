package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vulntriage/vulntriage/pkg/assess"
	"github.com/vulntriage/vulntriage/pkg/decide"
	"github.com/vulntriage/vulntriage/pkg/evidence"
	"github.com/vulntriage/vulntriage/pkg/kev"
	"github.com/vulntriage/vulntriage/pkg/reason"
)

// Pipeline processes one vulnerability at a time. Instances share only the
// read-mostly KEV index.
type Pipeline struct {
	Index   *kev.Index
	Adapter *reason.Adapter

	// Retriever is nil when live search is disabled
	Retriever *evidence.Retriever
}

// Process runs the KEV lookup and the evidence retrieval concurrently, then
// the reasoning step, then the deterministic classification.
func (p *Pipeline) Process(ctx context.Context, rec assess.Record) (*assess.Assessment, error) {
	var entry *kev.Entry
	var stale bool
	var items []evidence.Item

	// Both signal sources degrade gracefully, neither fails the instance
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snap := p.Index.Current()
		if snap == nil {
			// no snapshot ever loaded, the KEV signal is unknown
			stale = true
			return nil
		}

		entry = snap.Lookup(rec.CVEID)
		stale = snap.Stale
		return nil
	})

	g.Go(func() error {
		if p.Retriever == nil {
			return nil
		}
		items = p.Retriever.Retrieve(gctx, rec.CVEID, rec.Description)
		return nil
	})

	_ = g.Wait()

	signals, err := p.Adapter.Analyze(ctx, rec.CVEID, rec.Description, items)
	if err != nil {
		return nil, err
	}

	tier, sla, rationale := decide.Classify(entry != nil, *signals)

	return assess.Build(rec, entry, stale, items, signals, tier, sla, rationale)
}

// Result is the outcome of one instance, failed items carry Err.
type Result struct {
	Record     assess.Record
	Assessment *assess.Assessment
	Err        error
}

// Coordinator fans records out to concurrent pipeline instances, bounded by
// Workers to respect external rate limits. One instance's failure never
// cancels its siblings.
type Coordinator struct {
	Pipe    *Pipeline
	Workers int
}

func (c *Coordinator) Run(ctx context.Context, recs []assess.Record) []Result {
	workers := c.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(recs))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	for i, rec := range recs {
		i, rec := i, rec

		wg.Add(1)
		go func() {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			a, err := c.Pipe.Process(ctx, rec)
			results[i] = Result{
				Record:     rec,
				Assessment: a,
				Err:        err,
			}
		}()
	}

	wg.Wait()

	return results
}
