package internal

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/vulntriage/vulntriage/config"
	"github.com/vulntriage/vulntriage/internal/pipeline"
	"github.com/vulntriage/vulntriage/internal/report"
	"github.com/vulntriage/vulntriage/pkg/assess"
	"github.com/vulntriage/vulntriage/pkg/cvesplit"
	"github.com/vulntriage/vulntriage/pkg/evidence"
	"github.com/vulntriage/vulntriage/pkg/kev"
	"github.com/vulntriage/vulntriage/pkg/llm"
	"github.com/vulntriage/vulntriage/pkg/reason"
	"github.com/vulntriage/vulntriage/pkg/search"
)

// DoTriage runs the full pipeline over every CVE found in the raw text
func DoTriage(ctx context.Context, rawText string) {

	conf, err := config.Load()
	if err != nil {
		log.Printf("failed to load configuration, error: %v", err)
	}

	if err := conf.Validate(); err != nil {
		log.Printf("%v", err)
		return
	}

	cves := cvesplit.Split(rawText)
	if len(cves) == 0 {
		log.Printf("No CVE identifier detected in the input")
		return
	}

	records := []assess.Record{}
	for _, id := range cves {
		rec, err := assess.NewRecord(id, cvesplit.Context(rawText, id))
		if err != nil {
			log.Printf("skipping %s: %v", id, err)
			continue
		}
		records = append(records, rec)
	}

	// Load the KEV catalog, a failed refresh degrades to the cached snapshot
	index := kev.NewIndex()
	if ctx.Value("skip").(bool) {
		// skipping the update still serves lookups from the local database
		if err := kev.LoadCached(index); err != nil {
			log.Printf("no usable KEV cache, continuing without the catalog: %v", err)
		}
	} else if err := kev.Refresh(ctx, index); err != nil {
		if errors.Is(err, kev.ErrFeedUnavailable) {
			log.Printf("KEV feed unreachable, continuing degraded: %v", err)
		} else {
			log.Printf("failed to refresh KEV catalog, error: %v", err)
		}
	}

	pipe := &pipeline.Pipeline{
		Index: index,
		Adapter: &reason.Adapter{
			Backend: llm.NewClient(conf.BaseURL, conf.APIKey, conf.Model),
		},
	}

	if !ctx.Value("nosearch").(bool) {
		pipe.Retriever = &evidence.Retriever{
			Backend: &search.DuckDuckGo{
				Cli: &http.Client{},
			},
			MaxResults: conf.MaxResults,
			Throttle:   500 * time.Millisecond,
		}
	}

	log.Printf(config.Green("Begin to triage %d vulnerabilities"), len(records))

	coordinator := &pipeline.Coordinator{
		Pipe:    pipe,
		Workers: conf.Workers,
	}

	results := coordinator.Run(ctx, records)

	err = report.ResolveTriageData(ctx, results)
	if err != nil {
		log.Printf("report error %v", err)
	}

	err = report.TriageToJson(ctx, results)
	if err != nil {
		log.Printf("saving error %v", err)
	}
}

// DoUpgrade refreshes the local KEV catalog cache
func DoUpgrade(ctx context.Context) {

	index := kev.NewIndex()

	err := kev.Refresh(ctx, index)
	if err != nil {
		log.Printf("Updating KEV catalog failed, error: %v", err)
		return
	}

	log.Printf(config.Green("Updating KEV catalog success"))
}
