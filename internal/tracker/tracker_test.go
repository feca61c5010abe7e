package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"botstudio/internal/models"
	"botstudio/internal/repository"
)

// fakeImportLogs is an in-memory stand-in for the Postgres-backed store.
type fakeImportLogs struct {
	records []*models.ImportLog
	now     time.Time
}

func (f *fakeImportLogs) Create(_ context.Context, log *models.ImportLog) error {
	log.ID = "log-" + time.Now().String()
	log.StartTimestamp = f.now
	log.LastUpdate = f.now
	clone := *log
	f.records = append(f.records, &clone)
	return nil
}

func (f *fakeImportLogs) Update(_ context.Context, log *models.ImportLog) error {
	for i, record := range f.records {
		if record.ID == log.ID {
			log.LastUpdate = f.now
			clone := *log
			f.records[i] = &clone
			return nil
		}
	}
	return errors.New("record not found")
}

func (f *fakeImportLogs) Latest(_ context.Context, bot string) (*models.ImportLog, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].Bot == bot {
			clone := *f.records[i]
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeImportLogs) List(_ context.Context, bot string, limit, offset int) ([]models.ImportLog, error) {
	var out []models.ImportLog
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].Bot == bot {
			out = append(out, *f.records[i])
		}
	}
	return out, nil
}

func (f *fakeImportLogs) CountSince(_ context.Context, bot string, since time.Time) (int, error) {
	count := 0
	for _, record := range f.records {
		if record.Bot == bot && !record.StartTimestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func newTestTracker() (*ImportTracker, *fakeImportLogs) {
	logs := &fakeImportLogs{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	t := NewImportTracker(logs, zap.NewNop())
	t.Now = func() time.Time { return logs.now }
	return t, logs
}

func TestLifecycle(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	inProgress, err := tr.IsInProgress(ctx, "bot1")
	if err != nil || inProgress {
		t.Fatalf("no record yet, expected not in progress, got %v %v", inProgress, err)
	}

	if _, err := tr.SetStatus(ctx, "bot1", "user1", models.EventInitiated, func(log *models.ImportLog) {
		log.FilesReceived = []string{"nlu", "domain"}
		log.IsDataUploaded = true
	}); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	inProgress, _ = tr.IsInProgress(ctx, "bot1")
	if !inProgress {
		t.Fatal("expected in progress right after dispatch")
	}

	if _, err := tr.SetStatus(ctx, "bot1", "user1", models.EventInProgress, nil); err != nil {
		t.Fatalf("in progress: %v", err)
	}

	record, err := tr.SetStatus(ctx, "bot1", "user1", models.EventCompleted, func(log *models.ImportLog) {
		log.Status = models.StatusSuccess
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if record.EndTimestamp == nil {
		t.Error("terminal transition must stamp end timestamp")
	}

	inProgress, _ = tr.IsInProgress(ctx, "bot1")
	if inProgress {
		t.Error("expected not in progress after terminal transition")
	}
}

func TestSetStatusMutatesSingleInFlightRecord(t *testing.T) {
	tr, logs := newTestTracker()
	ctx := context.Background()

	tr.SetStatus(ctx, "bot1", "user1", models.EventInitiated, nil)
	tr.SetStatus(ctx, "bot1", "user1", models.EventValidating, nil)
	tr.SetStatus(ctx, "bot1", "user1", models.EventInProgress, nil)

	if len(logs.records) != 1 {
		t.Fatalf("non-terminal transitions must mutate, not append: %d records", len(logs.records))
	}

	tr.SetStatus(ctx, "bot1", "user1", models.EventFail, nil)
	tr.SetStatus(ctx, "bot1", "user1", models.EventInitiated, nil)
	if len(logs.records) != 2 {
		t.Fatalf("a new attempt after a terminal record must append: %d records", len(logs.records))
	}
}

func TestCheckLimitsInProgress(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	tr.SetStatus(ctx, "bot1", "user1", models.EventTaskSpawned, nil)
	err := tr.CheckLimits(ctx, "bot1", 10)
	if !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("expected ErrAlreadyInProgress, got %v", err)
	}

	// other bots are unaffected
	if err := tr.CheckLimits(ctx, "bot2", 10); err != nil {
		t.Fatalf("tenant isolation broken: %v", err)
	}
}

func TestCheckLimitsDailyCeiling(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		tr.SetStatus(ctx, "bot1", "user1", models.EventInitiated, nil)
		tr.SetStatus(ctx, "bot1", "user1", models.EventCompleted, nil)
	}

	err := tr.CheckLimits(ctx, "bot1", 2)
	if !errors.Is(err, ErrDailyLimit) {
		t.Fatalf("expected ErrDailyLimit, got %v", err)
	}
	if err := tr.CheckLimits(ctx, "bot1", 3); err != nil {
		t.Fatalf("ceiling not reached: %v", err)
	}
}

func TestFailRecordsException(t *testing.T) {
	tr, logs := newTestTracker()
	ctx := context.Background()

	tr.SetStatus(ctx, "bot1", "user1", models.EventInProgress, nil)
	tr.Fail(ctx, "bot1", "user1", "worker unreachable")

	latest, _ := tr.FetchLatest(ctx, "bot1")
	if latest.EventStatus != models.EventFail {
		t.Fatalf("expected Fail, got %s", latest.EventStatus)
	}
	if latest.Exception != "worker unreachable" {
		t.Errorf("exception not recorded: %q", latest.Exception)
	}
	if latest.Status != models.StatusFailure {
		t.Errorf("overall status should be Failure, got %q", latest.Status)
	}
	if len(logs.records) != 1 {
		t.Errorf("fail must finalize in place, got %d records", len(logs.records))
	}
}

var _ repository.ImportLogRepository = (*fakeImportLogs)(nil)
