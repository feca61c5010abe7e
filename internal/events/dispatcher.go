// Package events decides where a triggered pipeline runs. With an event
// worker URL configured the run is delegated and only acknowledged here;
// otherwise the import pipeline executes in-process on a goroutine.
package events

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"botstudio/internal/config"
	"botstudio/internal/event_client"
	"botstudio/internal/importer"
	"botstudio/internal/models"
	"botstudio/internal/notify"
	"botstudio/internal/tracker"
)

// Ack messages returned to the API caller once a run is accepted.
const (
	MsgUploadInProgress = "Upload in progress! Check logs."
	MsgTrainInProgress  = "Model training started."
	MsgTestInProgress   = "Testing in progress! Check logs."
)

const (
	ActivityImport = "import"
)

// ErrWorkerRequired rejects model events when no worker is configured:
// training and testing always run out of process.
var ErrWorkerRequired = models.NewAppError("Event server not configured!")

// inProcessTimeout bounds a detached pipeline run.
const inProcessTimeout = 30 * time.Minute

type Dispatcher struct {
	cfg           *config.Config
	importTracker *tracker.ImportTracker
	trainTracker  *tracker.ModelTracker
	testTracker   *tracker.ModelTracker
	runner        *importer.Runner
	worker        *event_client.Client
	notifier      *notify.Notifier
	logger        *zap.Logger
}

func NewDispatcher(
	cfg *config.Config,
	importTracker *tracker.ImportTracker,
	trainTracker *tracker.ModelTracker,
	testTracker *tracker.ModelTracker,
	runner *importer.Runner,
	worker *event_client.Client,
	notifier *notify.Notifier,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		cfg:           cfg,
		importTracker: importTracker,
		trainTracker:  trainTracker,
		testTracker:   testTracker,
		runner:        runner,
		worker:        worker,
		notifier:      notifier,
		logger:        logger,
	}
}

// TriggerImport accepts one import run for the bot. The returned message
// is the acknowledgement shown to the caller; the run itself proceeds
// asynchronously either on the worker or in-process.
func (d *Dispatcher) TriggerImport(ctx context.Context, bot, user string, files map[string][]byte, importData, overwrite bool) (string, error) {
	if err := d.importTracker.CheckLimits(ctx, bot, d.cfg.Importer.LimitPerDay); err != nil {
		return "", err
	}
	_, err := d.importTracker.SetStatus(ctx, bot, user, models.EventInitiated, func(log *models.ImportLog) {
		log.IsDataUploaded = len(files) > 0
		for name := range files {
			log.FilesReceived = append(log.FilesReceived, name)
		}
		sort.Strings(log.FilesReceived)
	})
	if err != nil {
		return "", err
	}

	if url := d.cfg.Importer.EventURL; url != "" {
		// The run is accepted once the record exists: staging or worker
		// failures finalize the record and the caller polls the log.
		dir := filepath.Join(d.cfg.Importer.DataDir, bot)
		if err := importer.SaveTrainingFiles(dir, files); err != nil {
			d.importTracker.Fail(ctx, bot, user, err.Error())
			return MsgUploadInProgress, nil
		}
		if err := d.worker.TriggerImport(ctx, url, bot, user, importData, overwrite); err != nil {
			d.importTracker.Fail(ctx, bot, user, err.Error())
			return MsgUploadInProgress, nil
		}
		if _, err := d.importTracker.SetStatus(ctx, bot, user, models.EventTaskSpawned, nil); err != nil {
			return "", err
		}
		return MsgUploadInProgress, nil
	}

	go d.runImport(bot, user, files, importData, overwrite)
	return MsgUploadInProgress, nil
}

// runImport executes the pipeline detached from the request context and
// reports the terminal outcome.
func (d *Dispatcher) runImport(bot, user string, files map[string][]byte, importData, overwrite bool) {
	ctx, cancel := context.WithTimeout(context.Background(), inProcessTimeout)
	defer cancel()

	d.runner.Execute(ctx, bot, user, files, importData, overwrite)

	log, err := d.importTracker.FetchLatest(ctx, bot)
	if err != nil || log == nil {
		d.logger.Error("failed to fetch import outcome", zap.String("bot", bot), zap.Error(err))
		return
	}
	d.notifier.PipelineFinished(bot, ActivityImport, log.Status, log.Exception)
}

// TriggerTraining accepts one training run. Training always runs on the
// worker; without one configured the trigger is rejected.
func (d *Dispatcher) TriggerTraining(ctx context.Context, bot, user string) (string, error) {
	return d.triggerModelEvent(ctx, d.trainTracker, d.cfg.Training.EventURL, d.cfg.Training.LimitPerDay,
		bot, user, MsgTrainInProgress)
}

// TriggerTesting accepts one testing run against the bot's latest model.
func (d *Dispatcher) TriggerTesting(ctx context.Context, bot, user string) (string, error) {
	return d.triggerModelEvent(ctx, d.testTracker, d.cfg.Testing.EventURL, d.cfg.Testing.LimitPerDay,
		bot, user, MsgTestInProgress)
}

func (d *Dispatcher) triggerModelEvent(ctx context.Context, t *tracker.ModelTracker, url string, limit int, bot, user, ack string) (string, error) {
	if url == "" {
		return "", ErrWorkerRequired
	}
	if err := t.CheckLimits(ctx, bot, limit); err != nil {
		return "", err
	}
	if _, err := t.SetStatus(ctx, bot, user, models.EventInitiated, ""); err != nil {
		return "", err
	}
	if err := d.worker.TriggerModelEvent(ctx, url, bot, user); err != nil {
		t.Fail(ctx, bot, user, err.Error())
		return ack, nil
	}
	if _, err := t.SetStatus(ctx, bot, user, models.EventTaskSpawned, ""); err != nil {
		return "", err
	}
	return ack, nil
}
