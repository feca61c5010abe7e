package format

import (
	"archive/zip"
	"bytes"
	"reflect"
	"testing"

	"botstudio/internal/models"
)

const nluYAML = `version: "2.0"
nlu:
- intent: greet
  examples: |
    - hey
    - hello there
- intent: Deny
  examples: |
    - no
`

const storiesYAML = `version: "2.0"
stories:
- story: Greet User
  steps:
  - intent: greet
  - action: utter_greet
- story: fetch order
  steps:
  - intent: order_status
  - action: action_fetch_order
  - action: utter_order
`

const rulesYAML = `rules:
- rule: say goodbye
  steps:
  - intent: bye
  - action: utter_bye
`

const domainYAML = `intents:
- greet
- deny
- order_status
- bye
entities:
- order_id
slots:
  order_id:
    type: text
    initial_value: none
forms:
  order_form:
    required_slots:
      order_id: []
actions:
- action_fetch_order
responses:
  utter_greet:
  - text: "Hey!"
  utter_order:
  - text: "Here is your order"
  - custom:
      type: card
  utter_bye:
  - text: "Bye"
`

const configYAML = `language: en
pipeline:
- name: WhitespaceTokenizer
- name: DIETClassifier
  epochs: 50
policies:
- name: MemoizationPolicy
- name: TEDPolicy
`

const httpActionYAML = `http_actions:
- action_name: Action_Fetch_Order
  http_url: http://orders.local/status
  request_method: get
  response: ${RESPONSE}
  params_list:
  - key: order
    parameter_type: slot
    value: order_id
  headers:
  - key: Authorization
    parameter_type: value
    value: token
`

func yamlBundleFiles() map[string][]byte {
	return map[string][]byte{
		"nlu.yml":         []byte(nluYAML),
		"stories.yml":     []byte(storiesYAML),
		"rules.yml":       []byte(rulesYAML),
		"domain.yml":      []byte(domainYAML),
		"config.yml":      []byte(configYAML),
		"http_action.yml": []byte(httpActionYAML),
	}
}

func TestReadBundleYAML(t *testing.T) {
	bundle, err := ReadBundle(yamlBundleFiles())
	if err != nil {
		t.Fatalf("ReadBundle: %v", err)
	}

	want := []string{"config", "domain", "http_actions", "nlu", "rules", "stories"}
	if !reflect.DeepEqual(bundle.FilesReceived, want) {
		t.Errorf("files received = %v, want %v", bundle.FilesReceived, want)
	}
	if len(bundle.Errors) != 0 {
		t.Errorf("unexpected parse errors: %v", bundle.Errors)
	}

	if len(bundle.Intents) != 2 {
		t.Fatalf("expected 2 intents, got %d", len(bundle.Intents))
	}
	if bundle.Intents[1].Name != "deny" {
		t.Errorf("intent names must be lowercased, got %q", bundle.Intents[1].Name)
	}
	if !reflect.DeepEqual(bundle.Intents[0].Examples, []string{"hey", "hello there"}) {
		t.Errorf("unexpected examples: %v", bundle.Intents[0].Examples)
	}

	if len(bundle.Stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(bundle.Stories))
	}
	greet := bundle.Stories[0]
	if greet.Name != "greet user" {
		t.Errorf("story names must be lowercased, got %q", greet.Name)
	}
	if greet.Steps[0].Type != models.StepIntent || greet.Steps[1].Type != models.StepBot {
		t.Errorf("unexpected step types: %+v", greet.Steps)
	}
	fetch := bundle.Stories[1]
	if fetch.Steps[1].Type != models.StepAction {
		t.Errorf("non-utter action should map to ACTION, got %s", fetch.Steps[1].Type)
	}

	if len(bundle.Rules) != 1 || bundle.Rules[0].Type != models.FlowRule {
		t.Fatalf("expected 1 rule, got %+v", bundle.Rules)
	}

	if bundle.Domain == nil {
		t.Fatal("expected domain data")
	}
	if len(bundle.Domain.Intents) != 4 || len(bundle.Domain.Responses) != 4 {
		t.Errorf("domain counts wrong: %d intents, %d responses",
			len(bundle.Domain.Intents), len(bundle.Domain.Responses))
	}
	var custom int
	for _, r := range bundle.Domain.Responses {
		if r.Custom != "" {
			custom++
		}
	}
	if custom != 1 {
		t.Errorf("expected exactly one custom response variation, got %d", custom)
	}

	if bundle.Config == nil {
		t.Fatal("expected config data")
	}
	if !reflect.DeepEqual(bundle.Config.Pipeline, []string{"WhitespaceTokenizer", "DIETClassifier"}) {
		t.Errorf("unexpected pipeline: %v", bundle.Config.Pipeline)
	}
	if !reflect.DeepEqual(bundle.Config.Policies, []string{"MemoizationPolicy", "TEDPolicy"}) {
		t.Errorf("unexpected policies: %v", bundle.Config.Policies)
	}

	if len(bundle.HTTPActions) != 1 {
		t.Fatalf("expected 1 http action, got %d", len(bundle.HTTPActions))
	}
	action := bundle.HTTPActions[0]
	if action.ActionName != "action_fetch_order" {
		t.Errorf("action names must be lowercased, got %q", action.ActionName)
	}
	if action.RequestMethod != "GET" {
		t.Errorf("request method must be upper-cased, got %q", action.RequestMethod)
	}
	if len(action.Params) != 1 || len(action.Headers) != 1 || !action.Headers[0].IsHeader {
		t.Errorf("params/headers not separated: %+v", action)
	}
}

const nluMarkdown = `## intent:greet
- hey
- hello

## intent:Bye
- goodbye

## synonym:credit
- credit card
`

const storiesMarkdown = `## greet path
* greet
  - utter_greet

## order path
* order_status{"order_id": "42"}
  - action_fetch_order
  - utter_order
`

func TestReadBundleMarkdown(t *testing.T) {
	bundle, err := ReadBundle(map[string][]byte{
		"nlu.md":     []byte(nluMarkdown),
		"stories.md": []byte(storiesMarkdown),
		"domain.yml": []byte(domainYAML),
		"config.yml": []byte(configYAML),
	})
	if err != nil {
		t.Fatalf("ReadBundle: %v", err)
	}

	if len(bundle.Intents) != 2 {
		t.Fatalf("expected 2 intents (synonym section skipped), got %d", len(bundle.Intents))
	}
	if bundle.Intents[1].Name != "bye" {
		t.Errorf("intent names must be lowercased, got %q", bundle.Intents[1].Name)
	}

	if len(bundle.Stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(bundle.Stories))
	}
	order := bundle.Stories[1]
	if order.Steps[0].Name != "order_status" {
		t.Errorf("inline entity payload must be stripped, got %q", order.Steps[0].Name)
	}
	if order.Steps[1].Type != models.StepAction || order.Steps[2].Type != models.StepBot {
		t.Errorf("unexpected step types: %+v", order.Steps)
	}
}

func TestReadBundleZip(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range map[string]string{
		"data/nlu.yml":     nluYAML,
		"data/stories.yml": storiesYAML,
		"domain.yml":       domainYAML,
		"config.yml":       configYAML,
	} {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(data)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	bundle, err := ReadBundle(map[string][]byte{"data.zip": buf.Bytes()})
	if err != nil {
		t.Fatalf("ReadBundle: %v", err)
	}
	want := []string{"config", "domain", "nlu", "stories"}
	if !reflect.DeepEqual(bundle.FilesReceived, want) {
		t.Errorf("files received = %v, want %v", bundle.FilesReceived, want)
	}
	if len(bundle.Stories) != 2 || len(bundle.Intents) != 2 {
		t.Errorf("archive members not parsed: %d stories, %d intents",
			len(bundle.Stories), len(bundle.Intents))
	}
}

func TestReadBundleCorruptFile(t *testing.T) {
	files := yamlBundleFiles()
	files["config.yml"] = []byte("")
	files["stories.yml"] = []byte("stories: [\n")

	bundle, err := ReadBundle(files)
	if err != nil {
		t.Fatalf("corrupt members must not abort the read: %v", err)
	}
	if len(bundle.Errors[CategoryConfig]) != 1 {
		t.Errorf("empty config should record a parse error, got %v", bundle.Errors)
	}
	if len(bundle.Errors[CategoryStories]) != 1 {
		t.Errorf("corrupt stories should record a parse error, got %v", bundle.Errors)
	}
	// valid siblings still parse
	if len(bundle.Intents) != 2 || bundle.Domain == nil {
		t.Errorf("valid files should still contribute: %d intents", len(bundle.Intents))
	}
}

func TestReadBundleIgnoresUnknownFiles(t *testing.T) {
	bundle, err := ReadBundle(map[string][]byte{
		"readme.txt": []byte("not training data"),
		"nlu.yml":    []byte(nluYAML),
	})
	if err != nil {
		t.Fatalf("ReadBundle: %v", err)
	}
	if !reflect.DeepEqual(bundle.FilesReceived, []string{"nlu"}) {
		t.Errorf("unknown files must be ignored, got %v", bundle.FilesReceived)
	}
}
