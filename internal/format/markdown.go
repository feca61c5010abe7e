package format

import (
	"bufio"
	"bytes"
	"strings"

	"botstudio/internal/models"
)

// readNLUMarkdown parses the legacy line-oriented NLU dialect:
//
//	## intent:greet
//	- hey
//	- hello there
func readNLUMarkdown(b *Bundle, data []byte) error {
	var current *IntentData
	flush := func() {
		if current != nil {
			b.Intents = append(b.Intents, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "## intent:"):
			flush()
			name := models.Normalize(strings.TrimPrefix(line, "## intent:"))
			current = &IntentData{Name: name}
		case strings.HasPrefix(line, "## "):
			// synonym/regex/lookup sections are not NLU intents
			flush()
		case strings.HasPrefix(line, "- ") && current != nil:
			if text := strings.TrimSpace(strings.TrimPrefix(line, "- ")); text != "" {
				current.Examples = append(current.Examples, text)
			}
		}
	}
	flush()
	return scanner.Err()
}

// readStoriesMarkdown parses the legacy line-oriented story dialect:
//
//	## greet user
//	* greet
//	  - utter_greet
func readStoriesMarkdown(b *Bundle, data []byte) error {
	var current *models.Flow
	flush := func() {
		if current != nil {
			b.Stories = append(b.Stories, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			name := models.Normalize(strings.TrimPrefix(line, "## "))
			current = &models.Flow{Name: name, Type: models.FlowStory}
		case strings.HasPrefix(line, "* ") && current != nil:
			// intent lines may carry inline entities: "* inform{"city": "x"}"
			name := strings.TrimSpace(strings.TrimPrefix(line, "* "))
			if i := strings.Index(name, "{"); i >= 0 {
				name = name[:i]
			}
			current.Steps = append(current.Steps, models.Step{
				Name: models.Normalize(name),
				Type: models.StepIntent,
			})
		case strings.HasPrefix(line, "- ") && current != nil:
			name := models.Normalize(strings.TrimPrefix(line, "- "))
			current.Steps = append(current.Steps, models.Step{
				Name: name,
				Type: actionStepType(name),
			})
		}
	}
	flush()
	return scanner.Err()
}
