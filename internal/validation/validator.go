// Package validation checks submitted call answers against a call list's
// question schema. It is pure: no storage access, no input mutation, and it
// reports every violation in one pass rather than stopping at the first.
package validation

import (
	"fmt"
	"regexp"
	"time"

	"github.com/yutasato/campus-crm-api/internal/models"
)

// SubmittedAnswer is one answer as it arrives from a caller. Value carries
// whatever JSON produced: bool, float64, string or nil.
type SubmittedAnswer struct {
	QuestionUID string      `json:"question_id" binding:"required"`
	Value       interface{} `json:"value"`
}

// FieldError names the offending question so clients can point at it.
type FieldError struct {
	QuestionUID string `json:"question_id"`
	Message     string `json:"message"`
}

// Result aggregates every violation found in a single validation pass.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// Options controls which rules apply.
type Options struct {
	// SkipRequiredCheck waives the "required question not answered" rule.
	// Used when an item is skipped without a call: no answers can exist, but
	// any that were submitted must still type-check.
	SkipRequiredCheck bool
}

var decimalPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Accepted layouts for date answers.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Validate checks answers against the schema and returns every violation.
func Validate(answers []SubmittedAnswer, questions []models.Question) Result {
	return ValidateWithOptions(answers, questions, Options{})
}

// ValidateWithOptions is Validate with rule toggles.
func ValidateWithOptions(answers []SubmittedAnswer, questions []models.Question, opts Options) Result {
	byUID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byUID[q.UID] = q
	}

	answered := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		answered[a.QuestionUID] = struct{}{}
	}

	var errs []FieldError

	if !opts.SkipRequiredCheck {
		for _, q := range questions {
			if !q.Required {
				continue
			}
			if _, ok := answered[q.UID]; !ok {
				errs = append(errs, FieldError{
					QuestionUID: q.UID,
					Message:     "required question not answered",
				})
			}
		}
	}

	for _, a := range answers {
		q, ok := byUID[a.QuestionUID]
		if !ok {
			errs = append(errs, FieldError{
				QuestionUID: a.QuestionUID,
				Message:     "answer for unknown question",
			})
			continue
		}
		if msg := checkValue(q, a.Value); msg != "" {
			errs = append(errs, FieldError{QuestionUID: q.UID, Message: msg})
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// checkValue runs the type-specific rule for one answer. Returns an empty
// string when the value is acceptable.
func checkValue(q models.Question, value interface{}) string {
	switch q.Type {
	case models.QuestionYesNo:
		if _, ok := value.(bool); !ok {
			return "must be a yes/no value"
		}
	case models.QuestionMultipleChoice:
		s, ok := value.(string)
		if !ok {
			return "must be one of the configured options"
		}
		for _, opt := range q.OptionList() {
			if s == opt {
				return ""
			}
		}
		return "must be one of the configured options"
	case models.QuestionNumber:
		switch v := value.(type) {
		case float64:
			return ""
		case string:
			if decimalPattern.MatchString(v) {
				return ""
			}
			return "must be a number"
		default:
			return "must be a number"
		}
	case models.QuestionDate:
		s, ok := value.(string)
		if !ok {
			return "must be a valid date"
		}
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, s); err == nil {
				return ""
			}
		}
		return "must be a valid date"
	case models.QuestionText:
		if _, ok := value.(string); !ok {
			return "must be text"
		}
	default:
		return fmt.Sprintf("unsupported question type %q", q.Type)
	}
	return ""
}
