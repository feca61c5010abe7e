// Package importer validates an uploaded training-data bundle against
// the bot's declared domain and applies the result to the store. Each
// category is validated independently: a broken config never stops
// story validation from running.
package importer

import (
	"fmt"
	"sort"
	"strings"

	"botstudio/internal/flowcheck"
	"botstudio/internal/format"
	"botstudio/internal/models"
)

// allowedComponents is the recognized NLU pipeline component set.
var allowedComponents = map[string]bool{
	"WhitespaceTokenizer":        true,
	"SpacyTokenizer":             true,
	"ConveRTTokenizer":           true,
	"JiebaTokenizer":             true,
	"MitieTokenizer":             true,
	"RegexFeaturizer":            true,
	"LexicalSyntacticFeaturizer": true,
	"CountVectorsFeaturizer":     true,
	"ConveRTFeaturizer":          true,
	"SpacyFeaturizer":            true,
	"MitieFeaturizer":            true,
	"LanguageModelFeaturizer":    true,
	"DIETClassifier":             true,
	"SklearnIntentClassifier":    true,
	"MitieIntentClassifier":      true,
	"KeywordIntentClassifier":    true,
	"FallbackClassifier":         true,
	"ResponseSelector":           true,
	"CRFEntityExtractor":         true,
	"DucklingEntityExtractor":    true,
	"RegexEntityExtractor":       true,
	"SpacyEntityExtractor":       true,
	"MitieEntityExtractor":       true,
	"EntitySynonymMapper":        true,
	"SpacyNLP":                   true,
	"MitieNLP":                   true,
	"HFTransformersNLP":          true,
}

// allowedPolicies is the recognized dialogue policy set.
var allowedPolicies = map[string]bool{
	"MemoizationPolicy":          true,
	"AugmentedMemoizationPolicy": true,
	"TEDPolicy":                  true,
	"UnexpecTEDIntentPolicy":     true,
	"RulePolicy":                 true,
	"MappingPolicy":              true,
	"FormPolicy":                 true,
	"FallbackPolicy":             true,
	"TwoStageFallbackPolicy":     true,
}

type stringSet map[string]bool

func (s stringSet) add(names ...string) {
	for _, name := range names {
		s[name] = true
	}
}

// declared holds the effective name universe flows are checked against:
// the bundle's declarations plus, in additive mode, everything the bot
// already persists.
type declared struct {
	intents    stringSet
	utterances stringSet
	actions    stringSet
	slots      stringSet
}

func buildDeclared(bundle *format.Bundle, existing *models.Domain, overwrite bool) *declared {
	d := &declared{
		intents:    stringSet{},
		utterances: stringSet{},
		actions:    stringSet{},
		slots:      stringSet{},
	}
	for _, intent := range bundle.Intents {
		d.intents.add(intent.Name)
	}
	if bundle.Domain != nil {
		d.intents.add(bundle.Domain.Intents...)
		d.actions.add(bundle.Domain.Actions...)
		for _, form := range bundle.Domain.Forms {
			d.actions.add(form.Name)
		}
		for _, slot := range bundle.Domain.Slots {
			d.slots.add(slot.Name)
		}
		for _, response := range bundle.Domain.Responses {
			d.utterances.add(response.Name)
		}
	}
	for _, action := range bundle.HTTPActions {
		d.actions.add(action.ActionName)
	}
	if !overwrite && existing != nil {
		d.intents.add(existing.Intents...)
		d.utterances.add(existing.Utterances...)
		d.actions.add(existing.Actions...)
		d.actions.add(existing.Forms...)
		d.slots.add(existing.Slots...)
	}
	return d
}

// Validate checks every category of the bundle and returns the
// per-category accumulator. It never short-circuits: errors in one
// category leave the others fully validated.
func Validate(bundle *format.Bundle, existing *models.Domain, overwrite bool) *models.ImportSummary {
	summary := &models.ImportSummary{
		Intents:          models.CategoryResult{Data: []string{}},
		Utterances:       models.CategoryResult{Data: []string{}},
		Stories:          models.CategoryResult{Data: []string{}},
		Rules:            models.CategoryResult{Data: []string{}},
		TrainingExamples: models.CategoryResult{Data: []string{}},
		Domain:           models.DomainResult{Data: []string{}},
		Config:           models.CategoryResult{Data: []string{}},
		HTTPActions:      models.CategoryResult{Data: []string{}},
	}

	// Parse failures recorded by the adapters count against their
	// category like any other validation error.
	summary.Intents.Data = append(summary.Intents.Data, bundle.Errors[format.CategoryNLU]...)
	summary.Stories.Data = append(summary.Stories.Data, bundle.Errors[format.CategoryStories]...)
	summary.Rules.Data = append(summary.Rules.Data, bundle.Errors[format.CategoryRules]...)
	summary.Domain.Data = append(summary.Domain.Data, bundle.Errors[format.CategoryDomain]...)
	summary.Config.Data = append(summary.Config.Data, bundle.Errors[format.CategoryConfig]...)
	summary.HTTPActions.Data = append(summary.HTTPActions.Data, bundle.Errors[format.CategoryHTTPActions]...)

	decl := buildDeclared(bundle, existing, overwrite)
	validateIntents(bundle, summary)
	validateFlows(bundle.Stories, &summary.Stories, decl)
	validateFlows(bundle.Rules, &summary.Rules, decl)
	validateDomain(bundle, summary)
	validateConfig(bundle, summary)
	validateHTTPActions(bundle, summary)
	return summary
}

func validateIntents(bundle *format.Bundle, summary *models.ImportSummary) {
	summary.Intents.Count = len(bundle.Intents)
	seen := stringSet{}
	for _, intent := range bundle.Intents {
		if seen[intent.Name] {
			summary.Intents.Data = append(summary.Intents.Data,
				fmt.Sprintf("Duplicate intent found: %s", intent.Name))
		}
		seen[intent.Name] = true

		summary.TrainingExamples.Count += len(intent.Examples)
		examples := stringSet{}
		for _, example := range intent.Examples {
			if examples[example] {
				summary.TrainingExamples.Data = append(summary.TrainingExamples.Data,
					fmt.Sprintf("Duplicate training example found for intent '%s': %s", intent.Name, example))
			}
			examples[example] = true
		}
	}
}

func validateFlows(flows []models.Flow, result *models.CategoryResult, decl *declared) {
	result.Count = len(flows)
	seen := stringSet{}
	for _, flow := range flows {
		if seen[flow.Name] {
			result.Data = append(result.Data, fmt.Sprintf("Duplicate flow found: %s", flow.Name))
			continue
		}
		seen[flow.Name] = true

		if err := flowcheck.ValidateSteps(flow.Name, flow.Steps, flow.Type); err != nil {
			result.Data = append(result.Data, err.Error())
			continue
		}
		for _, step := range flow.Steps {
			switch step.Type {
			case models.StepIntent:
				if !decl.intents[step.Name] {
					result.Data = append(result.Data,
						fmt.Sprintf("Invalid component %s", step.Name))
				}
			case models.StepBot:
				if !decl.utterances[step.Name] {
					result.Data = append(result.Data,
						fmt.Sprintf("Invalid component %s", step.Name))
				}
			case models.StepAction, models.StepHTTPAction:
				if !decl.actions[step.Name] {
					result.Data = append(result.Data,
						fmt.Sprintf("Invalid component %s", step.Name))
				}
			case models.StepSlotSetAction:
				if !decl.slots[step.Name] {
					result.Data = append(result.Data,
						fmt.Sprintf("slots not exists: {%s}", step.Name))
				}
			}
		}
	}
}

func validateDomain(bundle *format.Bundle, summary *models.ImportSummary) {
	if bundle.Domain == nil {
		return
	}
	domain := bundle.Domain
	summary.Domain.IntentsCount = len(domain.Intents)
	summary.Domain.EntitiesCount = len(domain.Entities)
	summary.Domain.SlotsCount = len(domain.Slots)
	summary.Domain.FormsCount = len(domain.Forms)
	summary.Domain.ActionsCount = len(domain.Actions)

	utterances := stringSet{}
	for _, response := range domain.Responses {
		utterances[response.Name] = true
	}
	summary.Domain.UtterancesCount = len(utterances)
	summary.Utterances.Count = len(utterances)

	slots := stringSet{}
	for _, slot := range domain.Slots {
		slots[slot.Name] = true
	}
	var missing []string
	for _, form := range domain.Forms {
		for _, slot := range form.RequiredSlots {
			if !slots[slot] {
				missing = append(missing, slot)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		summary.Domain.Data = append(summary.Domain.Data,
			fmt.Sprintf("slots not exists: {%s}", strings.Join(missing, ", ")))
	}
}

func validateConfig(bundle *format.Bundle, summary *models.ImportSummary) {
	if bundle.Config == nil {
		return
	}
	for _, component := range bundle.Config.Pipeline {
		if !allowedComponents[component] {
			summary.Config.Data = append(summary.Config.Data,
				fmt.Sprintf("Invalid component %s", component))
		}
	}
	for _, policy := range bundle.Config.Policies {
		if !allowedPolicies[policy] {
			summary.Config.Data = append(summary.Config.Data,
				fmt.Sprintf("Invalid policy %s", policy))
		}
	}
	if len(bundle.Config.Policies) == 0 {
		summary.Config.Data = append(summary.Config.Data, "You didn't define any policies")
	}
}

func validateHTTPActions(bundle *format.Bundle, summary *models.ImportSummary) {
	summary.HTTPActions.Count = len(bundle.HTTPActions)
	seen := stringSet{}
	for _, action := range bundle.HTTPActions {
		if action.ActionName == "" || action.HTTPURL == "" || action.RequestMethod == "" || action.ResponseValue == "" {
			summary.HTTPActions.Data = append(summary.HTTPActions.Data,
				"Required http action fields not found")
			continue
		}
		if seen[action.ActionName] {
			summary.HTTPActions.Data = append(summary.HTTPActions.Data,
				fmt.Sprintf("Duplicate http action found: %s", action.ActionName))
			continue
		}
		seen[action.ActionName] = true

		if !models.RequestMethods[action.RequestMethod] {
			summary.HTTPActions.Data = append(summary.HTTPActions.Data,
				fmt.Sprintf("Invalid request method: %s", action.RequestMethod))
		}
		if err := ValidateActionParams(&action); err != nil {
			summary.HTTPActions.Data = append(summary.HTTPActions.Data, err.Error())
		}
	}
}

// ValidateActionParams checks the param/header contract shared by the
// import pipeline and the HTTP-action CRUD boundary: a value-typed
// entry must carry a value, sender_id and user_message entries need
// none.
func ValidateActionParams(action *models.HTTPAction) error {
	for _, group := range [][]models.HTTPActionParam{action.Params, action.Headers} {
		for _, param := range group {
			if param.Key == "" {
				return models.NewAppError(fmt.Sprintf("Invalid params_list for http action: %s", action.ActionName))
			}
			switch param.Type {
			case models.ParamSenderID, models.ParamUserMessage:
				// value not required
			case models.ParamValue, models.ParamSlot:
				if param.Value == "" {
					return models.NewAppError(fmt.Sprintf("Invalid params_list for http action: %s", action.ActionName))
				}
			default:
				return models.NewAppError(fmt.Sprintf("Invalid params_list for http action: %s", action.ActionName))
			}
		}
	}
	return nil
}
