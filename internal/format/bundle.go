// Package format reads an uploaded set of bot-definition files into a
// common intermediate representation. Two dialects are supported: the
// structured YAML layout (nlu.yml, domain.yml, stories.yml, rules.yml,
// config.yml, http_action.yml) and the legacy line-oriented markdown
// layout (nlu.md, stories.md). Zip archives are expanded and their
// members treated like directly uploaded files.
package format

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"botstudio/internal/models"
)

// File categories recorded in the import log's files_received set.
const (
	CategoryNLU         = "nlu"
	CategoryStories     = "stories"
	CategoryRules       = "rules"
	CategoryDomain      = "domain"
	CategoryConfig      = "config"
	CategoryHTTPActions = "http_actions"
)

// IntentData is one intent and its example sentences as parsed from the
// NLU file.
type IntentData struct {
	Name     string
	Examples []string
}

// ResponseData is one utterance variation as parsed from the domain file.
type ResponseData struct {
	Name   string
	Text   string
	Custom string
}

// SlotData is one slot declaration.
type SlotData struct {
	Name         string
	Type         string
	InitialValue string
}

// FormData is one form and the slots it collects.
type FormData struct {
	Name          string
	RequiredSlots []string
}

// DomainData aggregates everything the domain file declares.
type DomainData struct {
	Intents   []string
	Entities  []string
	Slots     []SlotData
	Forms     []FormData
	Actions   []string
	Responses []ResponseData
}

// ConfigData is the training configuration: pipeline component names and
// policy names, plus the raw document for persistence.
type ConfigData struct {
	Language string
	Pipeline []string
	Policies []string
	Raw      []byte
}

// Bundle is the common intermediate representation both adapters produce.
// Absent file types leave their collections empty; per-file parse
// failures land in Errors under the file's category instead of aborting
// the whole read.
type Bundle struct {
	Intents       []IntentData
	Stories       []models.Flow
	Rules         []models.Flow
	Domain        *DomainData
	Config        *ConfigData
	HTTPActions   []models.HTTPAction
	FilesReceived []string
	Errors        map[string][]string
}

func newBundle() *Bundle {
	return &Bundle{Errors: make(map[string][]string)}
}

func (b *Bundle) received(category string) {
	for _, f := range b.FilesReceived {
		if f == category {
			return
		}
	}
	b.FilesReceived = append(b.FilesReceived, category)
	sort.Strings(b.FilesReceived)
}

func (b *Bundle) parseError(category, name string, err error) {
	b.received(category)
	b.Errors[category] = append(b.Errors[category], fmt.Sprintf("Failed to parse %s: %v", name, err))
}

// ReadBundle parses the uploaded files, keyed by filename, into a Bundle.
// Unrecognized filenames are ignored.
func ReadBundle(files map[string][]byte) (*Bundle, error) {
	expanded, err := expandArchives(files)
	if err != nil {
		return nil, err
	}

	bundle := newBundle()
	for name, data := range expanded {
		base := strings.ToLower(path.Base(name))
		switch base {
		case "nlu.yml", "nlu.yaml":
			readFile(bundle, CategoryNLU, name, data, readNLUYAML)
		case "nlu.md":
			readFile(bundle, CategoryNLU, name, data, readNLUMarkdown)
		case "stories.yml", "stories.yaml":
			readFile(bundle, CategoryStories, name, data, readStoriesYAML)
		case "stories.md":
			readFile(bundle, CategoryStories, name, data, readStoriesMarkdown)
		case "rules.yml", "rules.yaml":
			readFile(bundle, CategoryRules, name, data, readRulesYAML)
		case "domain.yml", "domain.yaml":
			readFile(bundle, CategoryDomain, name, data, readDomainYAML)
		case "config.yml", "config.yaml":
			readFile(bundle, CategoryConfig, name, data, readConfigYAML)
		case "http_action.yml", "http_actions.yml", "actions.yml":
			readFile(bundle, CategoryHTTPActions, name, data, readHTTPActionsYAML)
		}
	}
	return bundle, nil
}

type fileReader func(b *Bundle, data []byte) error

func readFile(b *Bundle, category, name string, data []byte, read fileReader) {
	if len(bytes.TrimSpace(data)) == 0 {
		b.parseError(category, name, fmt.Errorf("file is empty"))
		return
	}
	if err := read(b, data); err != nil {
		b.parseError(category, name, err)
		return
	}
	b.received(category)
}

// expandArchives replaces zip entries with their members. Non-archive
// files pass through untouched.
func expandArchives(files map[string][]byte) (map[string][]byte, error) {
	out := make(map[string][]byte, len(files))
	for name, data := range files {
		if !strings.HasSuffix(strings.ToLower(name), ".zip") {
			out[name] = data
			continue
		}
		reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, models.NewAppError(fmt.Sprintf("Invalid archive %s", name))
		}
		for _, member := range reader.File {
			if member.FileInfo().IsDir() {
				continue
			}
			rc, err := member.Open()
			if err != nil {
				return nil, fmt.Errorf("open archive member %s: %w", member.Name, err)
			}
			content, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("read archive member %s: %w", member.Name, err)
			}
			out[member.Name] = content
		}
	}
	return out, nil
}

// actionStepType maps a flow action name to its step role: utterances are
// BOT steps, everything else is a plain action until the import validator
// reclassifies names that match stored HTTP actions.
func actionStepType(name string) models.StepType {
	if strings.HasPrefix(name, "utter_") {
		return models.StepBot
	}
	return models.StepAction
}
