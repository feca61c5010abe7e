package importer

import (
	"context"
	"fmt"
	"time"

	"botstudio/internal/models"
	"botstudio/internal/repository"
)

// In-memory stand-ins for the repository interfaces so the pipeline can
// be exercised without a database.

type fakeStore struct {
	intents  []models.Intent
	examples []models.TrainingExample
	resps    []models.Response
	flows    []models.Flow
	actions  []models.HTTPAction
	slots    []models.Slot
	entities []models.Entity
	forms    []models.Form
	config   []byte
}

func newFakeStore() *fakeStore { return &fakeStore{} }

var (
	_ repository.IntentRepository     = (*fakeIntents)(nil)
	_ repository.ResponseRepository   = (*fakeResponses)(nil)
	_ repository.FlowRepository       = (*fakeFlows)(nil)
	_ repository.HTTPActionRepository = (*fakeActions)(nil)
	_ repository.DomainRepository     = (*fakeDomain)(nil)
	_ repository.ImportLogRepository  = (*fakeImportLogs)(nil)
)

type fakeIntents struct{ s *fakeStore }

func (f *fakeIntents) Add(_ context.Context, intent *models.Intent) error {
	intent.Name = models.Normalize(intent.Name)
	f.s.intents = append(f.s.intents, *intent)
	return nil
}

func (f *fakeIntents) Exists(_ context.Context, bot, name string) (bool, error) {
	name = models.Normalize(name)
	for _, i := range f.s.intents {
		if i.Bot == bot && i.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeIntents) List(_ context.Context, bot string) ([]models.Intent, error) {
	var out []models.Intent
	for _, i := range f.s.intents {
		if i.Bot == bot {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeIntents) Names(ctx context.Context, bot string) ([]string, error) {
	list, _ := f.List(ctx, bot)
	names := make([]string, 0, len(list))
	for _, i := range list {
		names = append(names, i.Name)
	}
	return names, nil
}

func (f *fakeIntents) Delete(_ context.Context, bot, name string) error {
	name = models.Normalize(name)
	for idx, i := range f.s.intents {
		if i.Bot == bot && i.Name == name {
			f.s.intents = append(f.s.intents[:idx], f.s.intents[idx+1:]...)
			return nil
		}
	}
	return models.NewAppError("Intent does not exist")
}

func (f *fakeIntents) DeleteAll(_ context.Context, bot string) error {
	kept := f.s.intents[:0]
	for _, i := range f.s.intents {
		if i.Bot != bot {
			kept = append(kept, i)
		}
	}
	f.s.intents = kept
	return nil
}

func (f *fakeIntents) AddExample(_ context.Context, example *models.TrainingExample) error {
	example.Intent = models.Normalize(example.Intent)
	f.s.examples = append(f.s.examples, *example)
	return nil
}

func (f *fakeIntents) ExampleExists(_ context.Context, bot, intent, text string) (bool, error) {
	intent = models.Normalize(intent)
	for _, e := range f.s.examples {
		if e.Bot == bot && e.Intent == intent && e.Text == text {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeIntents) ListExamples(_ context.Context, bot, intent string) ([]models.TrainingExample, error) {
	intent = models.Normalize(intent)
	var out []models.TrainingExample
	for _, e := range f.s.examples {
		if e.Bot == bot && e.Intent == intent {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeIntents) CountExamples(_ context.Context, bot string) (int, error) {
	n := 0
	for _, e := range f.s.examples {
		if e.Bot == bot {
			n++
		}
	}
	return n, nil
}

func (f *fakeIntents) DeleteAllExamples(_ context.Context, bot string) error {
	kept := f.s.examples[:0]
	for _, e := range f.s.examples {
		if e.Bot != bot {
			kept = append(kept, e)
		}
	}
	f.s.examples = kept
	return nil
}

type fakeResponses struct{ s *fakeStore }

func (f *fakeResponses) Add(_ context.Context, response *models.Response) error {
	response.Name = models.Normalize(response.Name)
	f.s.resps = append(f.s.resps, *response)
	return nil
}

func (f *fakeResponses) Exists(_ context.Context, bot, name string) (bool, error) {
	name = models.Normalize(name)
	for _, r := range f.s.resps {
		if r.Bot == bot && r.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeResponses) List(_ context.Context, bot string) ([]models.Response, error) {
	var out []models.Response
	for _, r := range f.s.resps {
		if r.Bot == bot {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResponses) Names(ctx context.Context, bot string) ([]string, error) {
	seen := map[string]bool{}
	var names []string
	list, _ := f.List(ctx, bot)
	for _, r := range list {
		if !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}
	return names, nil
}

func (f *fakeResponses) Delete(_ context.Context, bot, name string) error {
	name = models.Normalize(name)
	kept := f.s.resps[:0]
	found := false
	for _, r := range f.s.resps {
		if r.Bot == bot && r.Name == name {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	f.s.resps = kept
	if !found {
		return models.NewAppError("Utterance does not exist")
	}
	return nil
}

func (f *fakeResponses) DeleteAll(_ context.Context, bot string) error {
	kept := f.s.resps[:0]
	for _, r := range f.s.resps {
		if r.Bot != bot {
			kept = append(kept, r)
		}
	}
	f.s.resps = kept
	return nil
}

type fakeFlows struct{ s *fakeStore }

func (f *fakeFlows) Add(_ context.Context, flow *models.Flow) error {
	flow.Name = models.Normalize(flow.Name)
	f.s.flows = append(f.s.flows, *flow)
	return nil
}

func (f *fakeFlows) Get(_ context.Context, bot, name string, flowType models.FlowType) (*models.Flow, error) {
	name = models.Normalize(name)
	for _, fl := range f.s.flows {
		if fl.Bot == bot && fl.Name == name && fl.Type == flowType {
			out := fl
			return &out, nil
		}
	}
	return nil, models.NewAppError("Flow does not exist")
}

func (f *fakeFlows) Exists(ctx context.Context, bot, name string, flowType models.FlowType) (bool, error) {
	_, err := f.Get(ctx, bot, name, flowType)
	return err == nil, nil
}

func (f *fakeFlows) List(_ context.Context, bot string, flowType models.FlowType) ([]models.Flow, error) {
	var out []models.Flow
	for _, fl := range f.s.flows {
		if fl.Bot == bot && fl.Type == flowType {
			out = append(out, fl)
		}
	}
	return out, nil
}

func (f *fakeFlows) Delete(_ context.Context, bot, name string, flowType models.FlowType) error {
	name = models.Normalize(name)
	for idx, fl := range f.s.flows {
		if fl.Bot == bot && fl.Name == name && fl.Type == flowType {
			f.s.flows = append(f.s.flows[:idx], f.s.flows[idx+1:]...)
			return nil
		}
	}
	return models.NewAppError("Flow does not exist")
}

func (f *fakeFlows) DeleteAll(_ context.Context, bot string, flowType models.FlowType) error {
	kept := f.s.flows[:0]
	for _, fl := range f.s.flows {
		if fl.Bot == bot && fl.Type == flowType {
			continue
		}
		kept = append(kept, fl)
	}
	f.s.flows = kept
	return nil
}

func (f *fakeFlows) ReferencesBotStep(_ context.Context, bot, name string) (bool, error) {
	name = models.Normalize(name)
	for _, fl := range f.s.flows {
		if fl.Bot != bot {
			continue
		}
		for _, step := range fl.Steps {
			if step.Type == models.StepBot && models.Normalize(step.Name) == name {
				return true, nil
			}
		}
	}
	return false, nil
}

type fakeActions struct{ s *fakeStore }

func (f *fakeActions) Add(_ context.Context, action *models.HTTPAction) error {
	action.ActionName = models.Normalize(action.ActionName)
	f.s.actions = append(f.s.actions, *action)
	return nil
}

func (f *fakeActions) Get(_ context.Context, bot, name string) (*models.HTTPAction, error) {
	name = models.Normalize(name)
	for _, a := range f.s.actions {
		if a.Bot == bot && a.ActionName == name {
			out := a
			return &out, nil
		}
	}
	return nil, models.NewAppError("No HTTP action found for bot")
}

func (f *fakeActions) Exists(ctx context.Context, bot, name string) (bool, error) {
	_, err := f.Get(ctx, bot, name)
	return err == nil, nil
}

func (f *fakeActions) List(_ context.Context, bot string) ([]models.HTTPAction, error) {
	var out []models.HTTPAction
	for _, a := range f.s.actions {
		if a.Bot == bot {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActions) Names(ctx context.Context, bot string) ([]string, error) {
	list, _ := f.List(ctx, bot)
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.ActionName)
	}
	return names, nil
}

func (f *fakeActions) Delete(_ context.Context, bot, name string) error {
	name = models.Normalize(name)
	for idx, a := range f.s.actions {
		if a.Bot == bot && a.ActionName == name {
			f.s.actions = append(f.s.actions[:idx], f.s.actions[idx+1:]...)
			return nil
		}
	}
	return models.NewAppError("No HTTP action found for bot")
}

func (f *fakeActions) DeleteAll(_ context.Context, bot string) error {
	kept := f.s.actions[:0]
	for _, a := range f.s.actions {
		if a.Bot != bot {
			kept = append(kept, a)
		}
	}
	f.s.actions = kept
	return nil
}

type fakeDomain struct {
	s         *fakeStore
	responses *fakeResponses
	actions   *fakeActions
	intents   *fakeIntents
}

func (f *fakeDomain) AddSlot(_ context.Context, slot *models.Slot) error {
	slot.Name = models.Normalize(slot.Name)
	f.s.slots = append(f.s.slots, *slot)
	return nil
}

func (f *fakeDomain) SlotNames(_ context.Context, bot string) ([]string, error) {
	var names []string
	for _, s := range f.s.slots {
		if s.Bot == bot {
			names = append(names, s.Name)
		}
	}
	return names, nil
}

func (f *fakeDomain) DeleteAllSlots(_ context.Context, bot string) error {
	kept := f.s.slots[:0]
	for _, s := range f.s.slots {
		if s.Bot != bot {
			kept = append(kept, s)
		}
	}
	f.s.slots = kept
	return nil
}

func (f *fakeDomain) AddEntity(_ context.Context, entity *models.Entity) error {
	entity.Name = models.Normalize(entity.Name)
	f.s.entities = append(f.s.entities, *entity)
	return nil
}

func (f *fakeDomain) EntityNames(_ context.Context, bot string) ([]string, error) {
	var names []string
	for _, e := range f.s.entities {
		if e.Bot == bot {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

func (f *fakeDomain) DeleteAllEntities(_ context.Context, bot string) error {
	kept := f.s.entities[:0]
	for _, e := range f.s.entities {
		if e.Bot != bot {
			kept = append(kept, e)
		}
	}
	f.s.entities = kept
	return nil
}

func (f *fakeDomain) AddForm(_ context.Context, form *models.Form) error {
	form.Name = models.Normalize(form.Name)
	f.s.forms = append(f.s.forms, *form)
	return nil
}

func (f *fakeDomain) FormNames(_ context.Context, bot string) ([]string, error) {
	var names []string
	for _, fo := range f.s.forms {
		if fo.Bot == bot {
			names = append(names, fo.Name)
		}
	}
	return names, nil
}

func (f *fakeDomain) DeleteAllForms(_ context.Context, bot string) error {
	kept := f.s.forms[:0]
	for _, fo := range f.s.forms {
		if fo.Bot != bot {
			kept = append(kept, fo)
		}
	}
	f.s.forms = kept
	return nil
}

func (f *fakeDomain) SaveConfig(_ context.Context, bot, user string, raw []byte) error {
	f.s.config = raw
	return nil
}

func (f *fakeDomain) GetConfig(_ context.Context, bot string) ([]byte, error) {
	return f.s.config, nil
}

func (f *fakeDomain) GetDomain(ctx context.Context, bot string) (*models.Domain, error) {
	intents, _ := f.intents.Names(ctx, bot)
	utterances, _ := f.responses.Names(ctx, bot)
	actions, _ := f.actions.Names(ctx, bot)
	slots, _ := f.SlotNames(ctx, bot)
	entities, _ := f.EntityNames(ctx, bot)
	forms, _ := f.FormNames(ctx, bot)
	return &models.Domain{
		Intents:    intents,
		Entities:   entities,
		Slots:      slots,
		Forms:      forms,
		Actions:    actions,
		Utterances: utterances,
	}, nil
}

type fakeImportLogs struct {
	logs []*models.ImportLog
}

func (f *fakeImportLogs) Create(_ context.Context, log *models.ImportLog) error {
	if log.ID == "" {
		log.ID = fmt.Sprintf("log-%d", len(f.logs)+1)
	}
	now := time.Now().UTC()
	log.StartTimestamp = now
	log.LastUpdate = now
	stored := *log
	f.logs = append(f.logs, &stored)
	return nil
}

func (f *fakeImportLogs) Update(_ context.Context, log *models.ImportLog) error {
	for i, existing := range f.logs {
		if existing.ID == log.ID {
			log.LastUpdate = time.Now().UTC()
			stored := *log
			f.logs[i] = &stored
			return nil
		}
	}
	return models.NewAppError("import log not found")
}

func (f *fakeImportLogs) Latest(_ context.Context, bot string) (*models.ImportLog, error) {
	for i := len(f.logs) - 1; i >= 0; i-- {
		if f.logs[i].Bot == bot {
			out := *f.logs[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeImportLogs) List(_ context.Context, bot string, limit, offset int) ([]models.ImportLog, error) {
	var out []models.ImportLog
	for i := len(f.logs) - 1; i >= 0; i-- {
		if f.logs[i].Bot == bot {
			out = append(out, *f.logs[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeImportLogs) CountSince(_ context.Context, bot string, since time.Time) (int, error) {
	n := 0
	for _, log := range f.logs {
		if log.Bot == bot && !log.StartTimestamp.Before(since) {
			n++
		}
	}
	return n, nil
}
