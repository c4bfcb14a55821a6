package services

import (
	"context"
	"fmt"
	"time"

	"seloger-notifier/classifier"
	"seloger-notifier/metrics"
	"seloger-notifier/models"
	"seloger-notifier/notifier"
	"seloger-notifier/scraper/seloger"
	"seloger-notifier/storage"
	"seloger-notifier/utils"
)

// PipelineConfig wires a Pipeline. Exporter and Metrics are optional.
type PipelineConfig struct {
	Site       *seloger.Scraper
	Classifier classifier.Classifier
	Notifier   notifier.Notifier
	Store      storage.RecordStore
	Exporter   storage.RecordExporter
	Metrics    *metrics.Metrics
	Logger     *utils.Logger

	// FlushEvery persists the processed set after every N newly processed
	// listings. 0 saves it once at the end of the cycle.
	FlushEvery int
}

// Pipeline runs discovery, extraction, classification and notification
// against the persistent store. One cycle runs at a time.
type Pipeline struct {
	cfg     PipelineConfig
	cleaner *Cleaner
	logger  *utils.Logger
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		cleaner: NewCleaner(cfg.Logger),
		logger:  cfg.Logger,
	}
}

// RunCycle performs one full pass for criteria. It returns an error only when
// the store could not be written; every other failure is logged, counted in
// the report and skipped. A cancelled ctx stops the cycle early but what was
// already processed is still saved.
func (p *Pipeline) RunCycle(ctx context.Context, criteria models.SearchCriteria) (*Report, error) {
	report := &Report{StartedAt: time.Now()}
	p.cfg.Metrics.CycleStarted(report.StartedAt)
	defer func() {
		report.Duration = time.Since(report.StartedAt)
		report.Cancelled = ctx.Err() != nil
		p.cfg.Metrics.ObserveCycle(report.Duration)
	}()

	// Store calls outlive cancellation so an interrupted cycle keeps its work.
	storeCtx := context.WithoutCancel(ctx)

	records := p.cfg.Store.LoadRecords(storeCtx)
	p.logger.Info("[pipeline] Loaded %d known listings", len(records))

	report.SearchURL = seloger.BuildSearchURL(criteria)
	p.logger.Info("[pipeline] Search URL: %s", report.SearchURL)

	urls := p.cfg.Site.DiscoverListingURLs(ctx, report.SearchURL)
	report.Discovered = len(urls)
	p.cfg.Metrics.AddDiscovered(len(urls))

	candidates := p.cleaner.Candidates(urls)
	report.Candidates = len(candidates)

	p.extract(ctx, candidates, records, report)

	if err := p.cfg.Store.SaveRecords(storeCtx, records); err != nil {
		return report, fmt.Errorf("pipeline: save records: %w", err)
	}
	if p.cfg.Exporter != nil {
		if err := p.cfg.Exporter.Export(records); err != nil {
			p.logger.Warn("[pipeline] Export failed: %v", err)
		}
	}

	processed := p.cfg.Store.LoadProcessedSet(storeCtx)
	if err := p.evaluate(ctx, criteria, records, processed, report); err != nil {
		return report, err
	}

	if err := p.cfg.Store.SaveProcessedSet(storeCtx, processed); err != nil {
		return report, fmt.Errorf("pipeline: save processed set: %w", err)
	}
	return report, nil
}

// extract fetches details for every candidate not already in records.
func (p *Pipeline) extract(ctx context.Context, candidates []Candidate, records models.RecordMap, report *Report) {
	for _, c := range candidates {
		if ctx.Err() != nil {
			p.logger.Warn("[pipeline] Cancelled during extraction")
			return
		}
		if _, known := records[c.ID]; known {
			report.SkippedKnown++
			p.cfg.Metrics.IncExtraction("skipped_known")
			continue
		}

		p.logger.Info("[pipeline] Getting details for %s", c.URL)
		rec := p.cfg.Site.ExtractDetails(ctx, c.URL)
		if rec == nil {
			report.ExtractFailed++
			p.cfg.Metrics.IncExtraction("failed")
			continue
		}
		records[c.ID] = rec
		report.Extracted++
		p.cfg.Metrics.IncExtraction("ok")
	}
}

// evaluate classifies and notifies every record not yet in processed.
func (p *Pipeline) evaluate(ctx context.Context, criteria models.SearchCriteria, records models.RecordMap, processed models.ProcessedSet, report *Report) error {
	for _, id := range records.IDs() {
		if ctx.Err() != nil {
			p.logger.Warn("[pipeline] Cancelled during evaluation")
			return nil
		}
		if processed.Contains(id) {
			report.AlreadyProcessed++
			p.logger.Debug("[pipeline] Skipping %s", id)
			continue
		}

		if !p.evaluateOne(ctx, criteria, records[id], report) {
			continue
		}
		processed.Add(id)
		report.NewlyProcessed++

		if p.cfg.FlushEvery > 0 && report.NewlyProcessed%p.cfg.FlushEvery == 0 {
			if err := p.cfg.Store.SaveProcessedSet(context.WithoutCancel(ctx), processed); err != nil {
				return fmt.Errorf("pipeline: save processed set: %w", err)
			}
			p.logger.Debug("[pipeline] Flushed %d processed ids", len(processed))
		}
	}
	return nil
}

// evaluateOne reports whether rec may be marked processed. Only a classifier
// failure leaves it for the next cycle; a failed notification does not.
func (p *Pipeline) evaluateOne(ctx context.Context, criteria models.SearchCriteria, rec *models.ListingRecord, report *Report) bool {
	if rec == nil {
		return true
	}
	if !rec.HasDescription() {
		report.ShortCircuited++
		p.cfg.Metrics.IncClassified("short_circuit")
		p.logger.Info("[pipeline] %s has no description, not asking the classifier", rec.ID)
		return true
	}

	p.logger.Info("[pipeline] Asking the classifier about %s", rec.ID)
	verdict, err := p.cfg.Classifier.Classify(ctx, rec.DescriptionText, rec.AdditionalInfo, criteria.InterestingCriteria)
	if err != nil {
		report.ClassifyFailed++
		p.cfg.Metrics.IncClassified("error")
		p.logger.Error("[pipeline] Classifier failed for %s, will retry next cycle: %v", rec.ID, err)
		return false
	}
	report.Classified++

	if !verdict.Interesting {
		p.cfg.Metrics.IncClassified("not_interesting")
		return true
	}
	report.Interesting++
	p.cfg.Metrics.IncClassified("interesting")

	image := ""
	if rec.HasImage() {
		image = rec.ImagePath
	}
	text := notifier.FormatMessage(verdict.Title, rec.URL, verdict.Summary)
	if err := p.cfg.Notifier.Notify(ctx, text, image); err != nil {
		report.NotifyFailed++
		p.cfg.Metrics.IncNotification("failed")
		p.logger.Error("[pipeline] Failed to notify about %s: %v", rec.ID, err)
		return true
	}

	report.Notified++
	report.NotifiedTitles = append(report.NotifiedTitles, verdict.Title)
	p.cfg.Metrics.IncNotification("sent")
	p.logger.Info("[pipeline] Notified about %s: %s", rec.ID, verdict.Title)
	return true
}
