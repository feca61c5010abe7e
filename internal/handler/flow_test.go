package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"botstudio/internal/models"
	"botstudio/internal/repository"
)

type fakeFlowRepo struct {
	flows []models.Flow
}

var _ repository.FlowRepository = (*fakeFlowRepo)(nil)

func (f *fakeFlowRepo) Add(_ context.Context, flow *models.Flow) error {
	flow.Name = models.Normalize(flow.Name)
	f.flows = append(f.flows, *flow)
	return nil
}

func (f *fakeFlowRepo) Get(_ context.Context, bot, name string, flowType models.FlowType) (*models.Flow, error) {
	name = models.Normalize(name)
	for _, fl := range f.flows {
		if fl.Bot == bot && fl.Name == name && fl.Type == flowType {
			out := fl
			return &out, nil
		}
	}
	return nil, models.NewAppError("Flow does not exist")
}

func (f *fakeFlowRepo) Exists(ctx context.Context, bot, name string, flowType models.FlowType) (bool, error) {
	_, err := f.Get(ctx, bot, name, flowType)
	return err == nil, nil
}

func (f *fakeFlowRepo) List(_ context.Context, bot string, flowType models.FlowType) ([]models.Flow, error) {
	var out []models.Flow
	for _, fl := range f.flows {
		if fl.Bot == bot && fl.Type == flowType {
			out = append(out, fl)
		}
	}
	return out, nil
}

func (f *fakeFlowRepo) Delete(_ context.Context, bot, name string, flowType models.FlowType) error {
	name = models.Normalize(name)
	for idx, fl := range f.flows {
		if fl.Bot == bot && fl.Name == name && fl.Type == flowType {
			f.flows = append(f.flows[:idx], f.flows[idx+1:]...)
			return nil
		}
	}
	return models.NewAppError("Flow does not exist")
}

func (f *fakeFlowRepo) DeleteAll(_ context.Context, bot string, flowType models.FlowType) error {
	kept := f.flows[:0]
	for _, fl := range f.flows {
		if fl.Bot == bot && fl.Type == flowType {
			continue
		}
		kept = append(kept, fl)
	}
	f.flows = kept
	return nil
}

func (f *fakeFlowRepo) ReferencesBotStep(_ context.Context, bot, name string) (bool, error) {
	for _, fl := range f.flows {
		if fl.Bot != bot {
			continue
		}
		for _, step := range fl.Steps {
			if step.Type == models.StepBot && step.Name == models.Normalize(name) {
				return true, nil
			}
		}
	}
	return false, nil
}

func newFlowRouter(repo *fakeFlowRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewFlowHandler(repo, zap.NewNop())
	router.Use(func(c *gin.Context) {
		c.Set("bot", "bot1")
		c.Set("username", "alice")
	})
	router.POST("/stories", h.AddStory)
	router.GET("/stories", h.ListStories)
	router.DELETE("/stories/:name", h.DeleteStory)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	return env
}

func TestAddStory(t *testing.T) {
	repo := &fakeFlowRepo{}
	router := newFlowRouter(repo)

	rec := postJSON(t, router, "/stories", FlowRequest{
		Name: "Greet User",
		Steps: []models.Step{
			{Name: "greet", Type: models.StepIntent},
			{Name: "utter_greet", Type: models.StepBot},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success || env.ErrorCode != 0 {
		t.Errorf("envelope = %+v, want success", env)
	}
	if len(repo.flows) != 1 || repo.flows[0].Name != "greet user" {
		t.Errorf("stored flows = %+v", repo.flows)
	}
	if repo.flows[0].TemplateType != models.TemplateQNA {
		t.Errorf("template type = %q, want %q", repo.flows[0].TemplateType, models.TemplateQNA)
	}
}

func TestAddStoryMalformedBodyUses422(t *testing.T) {
	repo := &fakeFlowRepo{}
	router := newFlowRouter(repo)

	rec := postJSON(t, router, "/stories", map[string]interface{}{})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.ErrorCode != 422 {
		t.Fatalf("envelope = %+v, want error_code 422", env)
	}
	if len(repo.flows) != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestAddStoryRejectsGrammarViolation(t *testing.T) {
	repo := &fakeFlowRepo{}
	router := newFlowRouter(repo)

	rec := postJSON(t, router, "/stories", FlowRequest{
		Name: "broken",
		Steps: []models.Step{
			{Name: "utter_greet", Type: models.StepBot},
			{Name: "greet", Type: models.StepIntent},
		},
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.ErrorCode != 422 {
		t.Errorf("envelope = %+v, want failure with code 422", env)
	}
	if env.Message == "" {
		t.Error("error envelope missing message")
	}
	if len(repo.flows) != 0 {
		t.Error("invalid flow was stored")
	}
}

func TestAddStoryRejectsDuplicate(t *testing.T) {
	repo := &fakeFlowRepo{}
	router := newFlowRouter(repo)

	body := FlowRequest{
		Name: "greet user",
		Steps: []models.Step{
			{Name: "greet", Type: models.StepIntent},
			{Name: "utter_greet", Type: models.StepBot},
		},
	}
	if rec := postJSON(t, router, "/stories", body); rec.Code != http.StatusOK {
		t.Fatalf("first add failed: %d", rec.Code)
	}
	rec := postJSON(t, router, "/stories", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Message != "Flow already exists!" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestDeleteStory(t *testing.T) {
	repo := &fakeFlowRepo{flows: []models.Flow{{
		Bot: "bot1", Name: "greet_user", Type: models.FlowStory,
	}}}
	router := newFlowRouter(repo)

	req := httptest.NewRequest(http.MethodDelete, "/stories/greet_user", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(repo.flows) != 0 {
		t.Error("flow not removed")
	}

	// Deleting again reports the missing flow as a domain error.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}
