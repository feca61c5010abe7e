package importer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"botstudio/internal/format"
	"botstudio/internal/models"
	"botstudio/internal/repository"
	"botstudio/internal/tracker"
)

// Runner executes the full import pipeline in-process: parse, validate,
// merge, finalize. It owns the status record for the run and never lets
// a failure escape: every error and panic ends in a Fail record.
type Runner struct {
	merger  *Merger
	domain  repository.DomainRepository
	tracker *tracker.ImportTracker
	logger  *zap.Logger
}

func NewRunner(merger *Merger, domain repository.DomainRepository, importTracker *tracker.ImportTracker, logger *zap.Logger) *Runner {
	return &Runner{merger: merger, domain: domain, tracker: importTracker, logger: logger}
}

// Execute runs one import attempt for the bot. importData false means
// validate-only: the summary is recorded but nothing is written.
func (r *Runner) Execute(ctx context.Context, bot, user string, files map[string][]byte, importData, overwrite bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("import pipeline panicked",
				zap.String("bot", bot), zap.Any("panic", rec))
			r.tracker.Fail(ctx, bot, user, fmt.Sprintf("%v", rec))
		}
	}()

	if _, err := r.tracker.SetStatus(ctx, bot, user, models.EventValidating, nil); err != nil {
		r.logger.Error("failed to mark validation start", zap.String("bot", bot), zap.Error(err))
		return
	}

	bundle, err := format.ReadBundle(files)
	if err != nil {
		r.tracker.Fail(ctx, bot, user, err.Error())
		return
	}
	existing, err := r.domain.GetDomain(ctx, bot)
	if err != nil {
		r.tracker.Fail(ctx, bot, user, err.Error())
		return
	}

	summary := Validate(bundle, existing, overwrite)
	record := func(log *models.ImportLog) {
		log.FilesReceived = bundle.FilesReceived
		log.IsDataUploaded = len(files) > 0
		log.Summary = *summary
	}

	if !importData {
		r.finalize(ctx, bot, user, summary, record)
		return
	}

	if _, err := r.tracker.SetStatus(ctx, bot, user, models.EventInProgress, record); err != nil {
		r.logger.Error("failed to mark import start", zap.String("bot", bot), zap.Error(err))
		return
	}
	if err := r.merger.Apply(ctx, bot, user, bundle, summary, overwrite); err != nil {
		r.tracker.Fail(ctx, bot, user, err.Error())
		return
	}
	r.finalize(ctx, bot, user, summary, record)
}

func (r *Runner) finalize(ctx context.Context, bot, user string, summary *models.ImportSummary, record func(*models.ImportLog)) {
	outcome := summary.Status()
	_, err := r.tracker.SetStatus(ctx, bot, user, models.EventCompleted, func(log *models.ImportLog) {
		record(log)
		log.Status = outcome
	})
	if err != nil {
		r.logger.Error("failed to finalize import", zap.String("bot", bot), zap.Error(err))
		return
	}
	r.logger.Info("import finished", zap.String("bot", bot), zap.String("status", outcome))
}
