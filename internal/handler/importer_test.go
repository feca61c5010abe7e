package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"botstudio/internal/models"
	"botstudio/internal/repository"
	"botstudio/internal/tracker"
)

type fakeGenerationLogs struct {
	records []*models.GenerationLog
}

var _ repository.GenerationLogRepository = (*fakeGenerationLogs)(nil)

func (f *fakeGenerationLogs) Create(_ context.Context, log *models.GenerationLog) error {
	log.ID = fmt.Sprintf("gen-%d", len(f.records))
	log.StartTimestamp = time.Now()
	log.LastUpdate = log.StartTimestamp
	clone := *log
	f.records = append(f.records, &clone)
	return nil
}

func (f *fakeGenerationLogs) Update(_ context.Context, log *models.GenerationLog) error {
	for i, record := range f.records {
		if record.ID == log.ID {
			clone := *log
			f.records[i] = &clone
			return nil
		}
	}
	return fmt.Errorf("record not found")
}

func (f *fakeGenerationLogs) Latest(_ context.Context, bot string) (*models.GenerationLog, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].Bot == bot {
			clone := *f.records[i]
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeGenerationLogs) List(_ context.Context, bot string, _, _ int) ([]models.GenerationLog, error) {
	var out []models.GenerationLog
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].Bot == bot {
			out = append(out, *f.records[i])
		}
	}
	return out, nil
}

func (f *fakeGenerationLogs) CountSince(_ context.Context, bot string, since time.Time) (int, error) {
	count := 0
	for _, record := range f.records {
		if record.Bot == bot && !record.StartTimestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func putJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newGeneratorRouter(logs *fakeGenerationLogs) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	generation := tracker.NewGenerationTracker(logs, zap.NewNop())
	h := NewImporterHandler(nil, nil, generation, nil, nil, zap.NewNop())
	router.Use(func(c *gin.Context) {
		c.Set("bot", "bot1")
		c.Set("username", "worker")
	})
	router.PUT("/update/data/generator/status", h.UpdateGeneratorStatus)
	return router
}

func TestUpdateGeneratorStatusAcceptsEnumValues(t *testing.T) {
	logs := &fakeGenerationLogs{}
	router := newGeneratorRouter(logs)

	rec := putJSON(t, router, "/update/data/generator/status",
		GeneratorStatusRequest{Status: models.GenInProgress})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success || env.Message != "Status updated successfully!" {
		t.Fatalf("envelope = %+v", env)
	}
	latest, _ := logs.Latest(context.Background(), "bot1")
	if latest == nil || latest.Status != models.GenInProgress {
		t.Fatalf("latest = %+v, want status %q", latest, models.GenInProgress)
	}
}

func TestUpdateGeneratorStatusRejectsUnknownValue(t *testing.T) {
	logs := &fakeGenerationLogs{}
	router := newGeneratorRouter(logs)

	rec := putJSON(t, router, "/update/data/generator/status",
		map[string]interface{}{"status": "In Progress"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if len(logs.records) != 0 {
		t.Fatal("nothing should be recorded")
	}
}
