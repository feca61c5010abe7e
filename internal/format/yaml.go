package format

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"botstudio/internal/models"
)

// readNLUYAML parses the structured NLU file:
//
//	nlu:
//	- intent: greet
//	  examples: |
//	    - hey
//	    - hello
func readNLUYAML(b *Bundle, data []byte) error {
	var doc struct {
		NLU []struct {
			Intent   string `yaml:"intent"`
			Examples string `yaml:"examples"`
		} `yaml:"nlu"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	for _, entry := range doc.NLU {
		if entry.Intent == "" {
			continue
		}
		b.Intents = append(b.Intents, IntentData{
			Name:     models.Normalize(entry.Intent),
			Examples: splitExampleBlock(entry.Examples),
		})
	}
	return nil
}

// splitExampleBlock turns the literal "- example" block into a list.
func splitExampleBlock(block string) []string {
	var examples []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		if text := strings.TrimSpace(strings.TrimPrefix(line, "- ")); text != "" {
			examples = append(examples, text)
		}
	}
	return examples
}

type yamlStep struct {
	Intent     string         `yaml:"intent"`
	Action     string         `yaml:"action"`
	SlotWasSet map[string]any `yaml:"slot_was_set"`
}

func flowSteps(raw []yamlStep) []models.Step {
	var steps []models.Step
	for _, s := range raw {
		switch {
		case s.Intent != "":
			steps = append(steps, models.Step{Name: models.Normalize(s.Intent), Type: models.StepIntent})
		case s.Action != "":
			name := models.Normalize(s.Action)
			steps = append(steps, models.Step{Name: name, Type: actionStepType(name)})
		case len(s.SlotWasSet) > 0:
			for slot := range s.SlotWasSet {
				steps = append(steps, models.Step{Name: models.Normalize(slot), Type: models.StepSlotSetAction})
			}
		}
	}
	return steps
}

// readStoriesYAML parses the structured stories file:
//
//	stories:
//	- story: greet user
//	  steps:
//	  - intent: greet
//	  - action: utter_greet
func readStoriesYAML(b *Bundle, data []byte) error {
	var doc struct {
		Stories []struct {
			Story string     `yaml:"story"`
			Steps []yamlStep `yaml:"steps"`
		} `yaml:"stories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	for _, entry := range doc.Stories {
		if entry.Story == "" {
			continue
		}
		b.Stories = append(b.Stories, models.Flow{
			Name:  models.Normalize(entry.Story),
			Type:  models.FlowStory,
			Steps: flowSteps(entry.Steps),
		})
	}
	return nil
}

// readRulesYAML parses the rules file, which shares the stories step
// shape under a "rules" key.
func readRulesYAML(b *Bundle, data []byte) error {
	var doc struct {
		Rules []struct {
			Rule  string     `yaml:"rule"`
			Steps []yamlStep `yaml:"steps"`
		} `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	for _, entry := range doc.Rules {
		if entry.Rule == "" {
			continue
		}
		b.Rules = append(b.Rules, models.Flow{
			Name:  models.Normalize(entry.Rule),
			Type:  models.FlowRule,
			Steps: flowSteps(entry.Steps),
		})
	}
	return nil
}

// readDomainYAML parses the domain file: declared intents, entities,
// slots, forms, actions and response variations.
func readDomainYAML(b *Bundle, data []byte) error {
	var doc struct {
		Intents  []yaml.Node          `yaml:"intents"`
		Entities []string             `yaml:"entities"`
		Slots    map[string]yaml.Node `yaml:"slots"`
		Forms    map[string]yaml.Node `yaml:"forms"`
		Actions  []string             `yaml:"actions"`
		Responses map[string][]struct {
			Text   string         `yaml:"text"`
			Custom map[string]any `yaml:"custom"`
		} `yaml:"responses"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	domain := &DomainData{}
	for _, node := range doc.Intents {
		// Intents may be plain names or maps with per-intent options.
		switch node.Kind {
		case yaml.ScalarNode:
			domain.Intents = append(domain.Intents, models.Normalize(node.Value))
		case yaml.MappingNode:
			if len(node.Content) > 0 {
				domain.Intents = append(domain.Intents, models.Normalize(node.Content[0].Value))
			}
		}
	}
	for _, entity := range doc.Entities {
		domain.Entities = append(domain.Entities, models.Normalize(entity))
	}
	for name, node := range doc.Slots {
		var slot struct {
			Type         string `yaml:"type"`
			InitialValue string `yaml:"initial_value"`
		}
		if err := node.Decode(&slot); err != nil {
			return fmt.Errorf("slot %s: %w", name, err)
		}
		domain.Slots = append(domain.Slots, SlotData{
			Name:         models.Normalize(name),
			Type:         slot.Type,
			InitialValue: slot.InitialValue,
		})
	}
	for name, node := range doc.Forms {
		var slots struct {
			RequiredSlots map[string][]map[string]any `yaml:"required_slots"`
		}
		form := FormData{Name: models.Normalize(name)}
		if err := node.Decode(&slots); err == nil {
			for slot := range slots.RequiredSlots {
				form.RequiredSlots = append(form.RequiredSlots, models.Normalize(slot))
			}
		}
		domain.Forms = append(domain.Forms, form)
	}
	for _, action := range doc.Actions {
		domain.Actions = append(domain.Actions, models.Normalize(action))
	}
	for name, variations := range doc.Responses {
		normalized := models.Normalize(name)
		for _, variation := range variations {
			response := ResponseData{Name: normalized, Text: variation.Text}
			if len(variation.Custom) > 0 {
				custom, err := yaml.Marshal(variation.Custom)
				if err != nil {
					return fmt.Errorf("response %s: %w", name, err)
				}
				response.Custom = strings.TrimSpace(string(custom))
			}
			domain.Responses = append(domain.Responses, response)
		}
	}
	b.Domain = domain
	return nil
}

// readConfigYAML parses the training configuration, keeping only the
// component and policy names plus the raw document.
func readConfigYAML(b *Bundle, data []byte) error {
	var doc struct {
		Language string           `yaml:"language"`
		Pipeline []map[string]any `yaml:"pipeline"`
		Policies []map[string]any `yaml:"policies"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	cfg := &ConfigData{Language: doc.Language, Raw: data}
	for _, component := range doc.Pipeline {
		if name, ok := component["name"].(string); ok {
			cfg.Pipeline = append(cfg.Pipeline, name)
		}
	}
	for _, policy := range doc.Policies {
		if name, ok := policy["name"].(string); ok {
			cfg.Policies = append(cfg.Policies, name)
		}
	}
	b.Config = cfg
	return nil
}

// readHTTPActionsYAML parses the http_action file:
//
//	http_actions:
//	- action_name: action_fetch
//	  http_url: http://example.com
//	  request_method: GET
//	  params_list:
//	  - key: order
//	    parameter_type: slot
//	    value: order_id
//	  response: ${RESPONSE}
func readHTTPActionsYAML(b *Bundle, data []byte) error {
	var doc struct {
		HTTPActions []struct {
			ActionName    string `yaml:"action_name"`
			HTTPURL       string `yaml:"http_url"`
			RequestMethod string `yaml:"request_method"`
			Response      string `yaml:"response"`
			ParamsList    []struct {
				Key           string `yaml:"key"`
				ParameterType string `yaml:"parameter_type"`
				Value         string `yaml:"value"`
			} `yaml:"params_list"`
			Headers []struct {
				Key           string `yaml:"key"`
				ParameterType string `yaml:"parameter_type"`
				Value         string `yaml:"value"`
			} `yaml:"headers"`
		} `yaml:"http_actions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	for _, entry := range doc.HTTPActions {
		action := models.HTTPAction{
			ActionName:    models.Normalize(entry.ActionName),
			HTTPURL:       entry.HTTPURL,
			RequestMethod: strings.ToUpper(entry.RequestMethod),
			ResponseValue: entry.Response,
		}
		for _, p := range entry.ParamsList {
			action.Params = append(action.Params, models.HTTPActionParam{
				Key:   p.Key,
				Type:  models.ParameterType(p.ParameterType),
				Value: p.Value,
			})
		}
		for _, h := range entry.Headers {
			action.Headers = append(action.Headers, models.HTTPActionParam{
				Key:      h.Key,
				Type:     models.ParameterType(h.ParameterType),
				Value:    h.Value,
				IsHeader: true,
			})
		}
		b.HTTPActions = append(b.HTTPActions, action)
	}
	return nil
}
