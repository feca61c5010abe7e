package importer

import (
	"context"

	"go.uber.org/zap"

	"botstudio/internal/flowcheck"
	"botstudio/internal/format"
	"botstudio/internal/models"
	"botstudio/internal/repository"
)

// Merger writes a validated bundle into the store. Each category is
// gated on its own validation result: a failing config blocks only the
// config write, never the rest of the bundle.
type Merger struct {
	intents   repository.IntentRepository
	responses repository.ResponseRepository
	flows     repository.FlowRepository
	actions   repository.HTTPActionRepository
	domain    repository.DomainRepository
	logger    *zap.Logger
}

func NewMerger(
	intents repository.IntentRepository,
	responses repository.ResponseRepository,
	flows repository.FlowRepository,
	actions repository.HTTPActionRepository,
	domain repository.DomainRepository,
	logger *zap.Logger,
) *Merger {
	return &Merger{
		intents:   intents,
		responses: responses,
		flows:     flows,
		actions:   actions,
		domain:    domain,
		logger:    logger,
	}
}

// Apply merges the bundle. In additive mode existing entries with the
// same normalized name are skipped silently; in overwrite mode every
// category present in the bundle is replaced wholesale and categories
// absent from the bundle are left untouched.
func (m *Merger) Apply(ctx context.Context, bot, user string, bundle *format.Bundle, summary *models.ImportSummary, overwrite bool) error {
	if err := m.applyNLU(ctx, bot, user, bundle, summary, overwrite); err != nil {
		return err
	}
	if err := m.applyFlows(ctx, bot, user, bundle.Stories, models.FlowStory, summary.Stories, overwrite); err != nil {
		return err
	}
	if err := m.applyFlows(ctx, bot, user, bundle.Rules, models.FlowRule, summary.Rules, overwrite); err != nil {
		return err
	}
	if err := m.applyDomain(ctx, bot, user, bundle, summary, overwrite); err != nil {
		return err
	}
	if err := m.applyConfig(ctx, bot, user, bundle, summary); err != nil {
		return err
	}
	return m.applyHTTPActions(ctx, bot, user, bundle, summary, overwrite)
}

func (m *Merger) applyNLU(ctx context.Context, bot, user string, bundle *format.Bundle, summary *models.ImportSummary, overwrite bool) error {
	if len(bundle.Intents) == 0 {
		return nil
	}
	if len(summary.Intents.Data) > 0 || len(summary.TrainingExamples.Data) > 0 {
		m.logger.Warn("skipping nlu merge", zap.String("bot", bot),
			zap.Int("errors", len(summary.Intents.Data)+len(summary.TrainingExamples.Data)))
		return nil
	}
	if overwrite {
		if err := m.intents.DeleteAllExamples(ctx, bot); err != nil {
			return err
		}
		if err := m.intents.DeleteAll(ctx, bot); err != nil {
			return err
		}
	}
	for _, data := range bundle.Intents {
		exists, err := m.intents.Exists(ctx, bot, data.Name)
		if err != nil {
			return err
		}
		if !exists {
			if err := m.intents.Add(ctx, &models.Intent{Bot: bot, Name: data.Name, User: user}); err != nil {
				return err
			}
		}
		for _, text := range data.Examples {
			known, err := m.intents.ExampleExists(ctx, bot, data.Name, text)
			if err != nil {
				return err
			}
			if known {
				continue
			}
			example := &models.TrainingExample{Bot: bot, Intent: data.Name, Text: text, User: user}
			if err := m.intents.AddExample(ctx, example); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Merger) applyFlows(ctx context.Context, bot, user string, flows []models.Flow, flowType models.FlowType, result models.CategoryResult, overwrite bool) error {
	if len(flows) == 0 {
		return nil
	}
	if len(result.Data) > 0 {
		m.logger.Warn("skipping flow merge", zap.String("bot", bot),
			zap.String("type", string(flowType)), zap.Int("errors", len(result.Data)))
		return nil
	}
	if overwrite {
		if err := m.flows.DeleteAll(ctx, bot, flowType); err != nil {
			return err
		}
	}
	for _, flow := range flows {
		exists, err := m.flows.Exists(ctx, bot, flow.Name, flowType)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		flow.Bot = bot
		flow.User = user
		flow.Type = flowType
		flow.TemplateType = flowcheck.TemplateType(flow.Steps)
		if err := m.flows.Add(ctx, &flow); err != nil {
			return err
		}
	}
	return nil
}

func (m *Merger) applyDomain(ctx context.Context, bot, user string, bundle *format.Bundle, summary *models.ImportSummary, overwrite bool) error {
	if bundle.Domain == nil {
		return nil
	}
	if len(summary.Domain.Data) > 0 || len(summary.Utterances.Data) > 0 {
		m.logger.Warn("skipping domain merge", zap.String("bot", bot),
			zap.Int("errors", len(summary.Domain.Data)+len(summary.Utterances.Data)))
		return nil
	}
	domain := bundle.Domain
	if overwrite {
		if err := m.domain.DeleteAllForms(ctx, bot); err != nil {
			return err
		}
		if err := m.domain.DeleteAllSlots(ctx, bot); err != nil {
			return err
		}
		if err := m.domain.DeleteAllEntities(ctx, bot); err != nil {
			return err
		}
		if err := m.responses.DeleteAll(ctx, bot); err != nil {
			return err
		}
	}
	existingSlots, err := nameSet(m.domain.SlotNames(ctx, bot))
	if err != nil {
		return err
	}
	for _, slot := range domain.Slots {
		if existingSlots[models.Normalize(slot.Name)] {
			continue
		}
		s := &models.Slot{Bot: bot, Name: slot.Name, Type: slot.Type, InitialValue: slot.InitialValue, User: user}
		if err := m.domain.AddSlot(ctx, s); err != nil {
			return err
		}
	}
	existingEntities, err := nameSet(m.domain.EntityNames(ctx, bot))
	if err != nil {
		return err
	}
	for _, name := range domain.Entities {
		if existingEntities[models.Normalize(name)] {
			continue
		}
		if err := m.domain.AddEntity(ctx, &models.Entity{Bot: bot, Name: name, User: user}); err != nil {
			return err
		}
	}
	existingForms, err := nameSet(m.domain.FormNames(ctx, bot))
	if err != nil {
		return err
	}
	for _, form := range domain.Forms {
		if existingForms[models.Normalize(form.Name)] {
			continue
		}
		f := &models.Form{Bot: bot, Name: form.Name, RequiredSlots: form.RequiredSlots, User: user}
		if err := m.domain.AddForm(ctx, f); err != nil {
			return err
		}
	}
	existingResponses := map[string]bool{}
	for _, response := range domain.Responses {
		name := models.Normalize(response.Name)
		if !existingResponses[name] {
			known, err := m.responses.Exists(ctx, bot, name)
			if err != nil {
				return err
			}
			if known {
				existingResponses[name] = true
			}
		}
		if existingResponses[name] {
			continue
		}
		r := &models.Response{Bot: bot, Name: response.Name, Text: response.Text, Custom: response.Custom, User: user}
		if err := m.responses.Add(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (m *Merger) applyConfig(ctx context.Context, bot, user string, bundle *format.Bundle, summary *models.ImportSummary) error {
	if bundle.Config == nil {
		return nil
	}
	if len(summary.Config.Data) > 0 {
		m.logger.Warn("skipping config merge", zap.String("bot", bot),
			zap.Int("errors", len(summary.Config.Data)))
		return nil
	}
	return m.domain.SaveConfig(ctx, bot, user, bundle.Config.Raw)
}

func (m *Merger) applyHTTPActions(ctx context.Context, bot, user string, bundle *format.Bundle, summary *models.ImportSummary, overwrite bool) error {
	if len(bundle.HTTPActions) == 0 {
		return nil
	}
	if len(summary.HTTPActions.Data) > 0 {
		m.logger.Warn("skipping http action merge", zap.String("bot", bot),
			zap.Int("errors", len(summary.HTTPActions.Data)))
		return nil
	}
	if overwrite {
		if err := m.actions.DeleteAll(ctx, bot); err != nil {
			return err
		}
	}
	for _, action := range bundle.HTTPActions {
		exists, err := m.actions.Exists(ctx, bot, action.ActionName)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		action.Bot = bot
		action.User = user
		if err := m.actions.Add(ctx, &action); err != nil {
			return err
		}
	}
	return nil
}

func nameSet(names []string, err error) (map[string]bool, error) {
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set, nil
}
