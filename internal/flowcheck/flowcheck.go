// Package flowcheck validates the step grammar of stories and rules.
// It is pure: the same steps always produce the same verdict, and no bot
// state is consulted here. Cross-referencing step names against the
// declared domain happens later, in the import validator.
package flowcheck

import (
	"fmt"

	"botstudio/internal/models"
)

// Messages for each grammar violation. The first violation aborts
// validation for the flow.
const (
	MsgStepsRequired      = "Steps are required to form Flow"
	MsgFirstStepIntent    = "First step should be an intent"
	MsgConsecutiveIntents = "Found 2 consecutive intents"
	MsgDanglingIntent     = "Intent should be followed by utterance or action"
)

// followers are the step types allowed immediately after an intent.
var followers = map[models.StepType]bool{
	models.StepBot:           true,
	models.StepAction:        true,
	models.StepHTTPAction:    true,
	models.StepSlotSetAction: true,
}

// ValidateSteps checks a flow's step sequence against the grammar:
// non-empty, first step is an intent, no two adjacent intents, every
// intent is followed by an utterance or action, and a rule holds at most
// one intent. The first violation is returned as a domain error.
func ValidateSteps(name string, steps []models.Step, flowType models.FlowType) error {
	if len(steps) == 0 {
		return models.NewAppError(MsgStepsRequired)
	}
	if steps[0].Type != models.StepIntent {
		return models.NewAppError(MsgFirstStepIntent)
	}
	intents := 0
	for i, step := range steps {
		if step.Type != models.StepIntent {
			continue
		}
		intents++
		if i+1 >= len(steps) {
			return models.NewAppError(MsgDanglingIntent)
		}
		next := steps[i+1]
		if next.Type == models.StepIntent {
			return models.NewAppError(MsgConsecutiveIntents)
		}
		if !followers[next.Type] {
			return models.NewAppError(MsgDanglingIntent)
		}
	}
	if flowType == models.FlowRule && intents > 1 {
		return models.NewAppError(fmt.Sprintf(
			"Found rules '%s' that contain more than intent.\nPlease use stories for this case", name))
	}
	return nil
}

// TemplateType classifies a flow by shape: a single intent answered by a
// single utterance is Q&A, anything else is custom. Informational only.
func TemplateType(steps []models.Step) string {
	if len(steps) == 2 && steps[0].Type == models.StepIntent && steps[1].Type == models.StepBot {
		return models.TemplateQNA
	}
	return models.TemplateCustom
}
