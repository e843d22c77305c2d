// internal/service/content.go
package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mailramp/mailramp-backend/internal/model"
)

// ParseSteps normalizes campaign content into an ordered list of steps.
// Content may arrive as a JSON array of steps, an object with a "steps" key,
// or anything else; whenever no usable steps come out, a single synthetic
// step is derived from the flat subject/body fields. The function is total:
// it always returns at least one step and never fails.
func ParseSteps(rawContent, fallbackSubject, fallbackBody string) []model.Step {
	steps := decodeSteps(rawContent)
	if len(steps) == 0 {
		return []model.Step{{
			Subject: strings.TrimSpace(fallbackSubject),
			Body:    strings.TrimSpace(fallbackBody),
			Order:   1,
		}}
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Order < steps[j].Order
	})
	return steps
}

func decodeSteps(raw string) []model.Step {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var node interface{}
	if err := json.Unmarshal([]byte(raw), &node); err != nil {
		return nil
	}

	switch v := node.(type) {
	case []interface{}:
		return stepsFromList(v)
	case map[string]interface{}:
		if list, ok := v["steps"].([]interface{}); ok {
			return stepsFromList(list)
		}
		return nil
	default:
		return nil
	}
}

// stepsFromList keeps non-mapping elements as invalid steps rather than
// rejecting them: they fail every contact at send time instead.
func stepsFromList(list []interface{}) []model.Step {
	steps := make([]model.Step, 0, len(list))
	for i, el := range list {
		m, ok := el.(map[string]interface{})
		if !ok {
			steps = append(steps, model.Step{Order: i + 1, Invalid: true})
			continue
		}
		steps = append(steps, model.Step{
			Subject: strings.TrimSpace(asString(m["subject"])),
			Body:    strings.TrimSpace(asString(m["body"])),
			Order:   orderOf(m, i),
		})
	}
	return steps
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []interface{}:
		parts := make([]string, 0, len(s))
		for _, p := range s {
			if p != nil {
				parts = append(parts, asString(p))
			}
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(s)
	}
}

func orderOf(m map[string]interface{}, idx int) int {
	if n, ok := m["order"].(float64); ok && n > 0 {
		return int(n)
	}
	return idx + 1
}
