package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yutasato/campus-crm-api/internal/models"
	"gorm.io/datatypes"
)

func question(uid string, qType models.QuestionType, required bool, options ...string) models.Question {
	q := models.Question{
		UID:      uid,
		Prompt:   "Prompt for " + uid,
		Type:     qType,
		Required: required,
	}
	if len(options) > 0 {
		opts := "["
		for i, o := range options {
			if i > 0 {
				opts += ","
			}
			opts += `"` + o + `"`
		}
		opts += "]"
		q.Options = datatypes.JSON(opts)
	}
	return q
}

func TestValidate_RequiredQuestionMissing(t *testing.T) {
	schema := []models.Question{
		question("q1", models.QuestionYesNo, true),
		question("q2", models.QuestionNumber, false),
	}

	result := Validate([]SubmittedAnswer{{QuestionUID: "q2", Value: "abc"}}, schema)

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "q1", result.Errors[0].QuestionUID)
	assert.Equal(t, "required question not answered", result.Errors[0].Message)
	assert.Equal(t, "q2", result.Errors[1].QuestionUID)
	assert.Equal(t, "must be a number", result.Errors[1].Message)
}

func TestValidate_UnknownQuestion(t *testing.T) {
	schema := []models.Question{question("q1", models.QuestionText, false)}

	result := Validate([]SubmittedAnswer{{QuestionUID: "nope", Value: "hello"}}, schema)

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "answer for unknown question", result.Errors[0].Message)
}

func TestValidate_TypeRules(t *testing.T) {
	tests := []struct {
		name    string
		q       models.Question
		value   interface{}
		wantErr string
	}{
		{"yes_no accepts bool", question("q", models.QuestionYesNo, false), true, ""},
		{"yes_no rejects string", question("q", models.QuestionYesNo, false), "yes", "must be a yes/no value"},
		{"choice accepts option", question("q", models.QuestionMultipleChoice, false, "a", "b"), "b", ""},
		{"choice rejects other value", question("q", models.QuestionMultipleChoice, false, "a", "b"), "c", "must be one of the configured options"},
		{"choice rejects non-string", question("q", models.QuestionMultipleChoice, false, "a"), 1.0, "must be one of the configured options"},
		{"number accepts json number", question("q", models.QuestionNumber, false), 42.5, ""},
		{"number accepts decimal string", question("q", models.QuestionNumber, false), "-12.75", ""},
		{"number rejects partial match", question("q", models.QuestionNumber, false), "12abc", "must be a number"},
		{"number rejects bool", question("q", models.QuestionNumber, false), true, "must be a number"},
		{"date accepts rfc3339", question("q", models.QuestionDate, false), "2024-06-01T10:00:00Z", ""},
		{"date accepts plain date", question("q", models.QuestionDate, false), "2024-06-01", ""},
		{"date rejects garbage", question("q", models.QuestionDate, false), "tomorrow", "must be a valid date"},
		{"date rejects invalid calendar day", question("q", models.QuestionDate, false), "2024-02-31", "must be a valid date"},
		{"text accepts empty string", question("q", models.QuestionText, false), "", ""},
		{"text rejects number", question("q", models.QuestionText, false), 3.0, "must be text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate([]SubmittedAnswer{{QuestionUID: "q", Value: tt.value}}, []models.Question{tt.q})
			if tt.wantErr == "" {
				assert.True(t, result.Valid, "errors: %v", result.Errors)
			} else {
				require.Len(t, result.Errors, 1)
				assert.Equal(t, tt.wantErr, result.Errors[0].Message)
			}
		})
	}
}

func TestValidate_AggregatesAllViolations(t *testing.T) {
	schema := []models.Question{
		question("q1", models.QuestionYesNo, true),
		question("q2", models.QuestionNumber, true),
		question("q3", models.QuestionMultipleChoice, false, "x", "y"),
	}
	answers := []SubmittedAnswer{
		{QuestionUID: "q2", Value: "not-a-number"},
		{QuestionUID: "q3", Value: "z"},
		{QuestionUID: "q9", Value: "orphan"},
	}

	result := Validate(answers, schema)

	require.False(t, result.Valid)
	assert.Len(t, result.Errors, 4)
}

func TestValidate_SkipWaivesRequiredCheckOnly(t *testing.T) {
	schema := []models.Question{question("q1", models.QuestionYesNo, true)}

	result := ValidateWithOptions(nil, schema, Options{SkipRequiredCheck: true})
	assert.True(t, result.Valid)

	result = ValidateWithOptions(
		[]SubmittedAnswer{{QuestionUID: "q1", Value: "yes"}},
		schema,
		Options{SkipRequiredCheck: true},
	)
	require.False(t, result.Valid)
	assert.Equal(t, "must be a yes/no value", result.Errors[0].Message)
}

func TestValidate_DoesNotMutateInputs(t *testing.T) {
	schema := []models.Question{question("q1", models.QuestionYesNo, true)}
	answers := []SubmittedAnswer{{QuestionUID: "q1", Value: true}}

	Validate(answers, schema)

	assert.Equal(t, "q1", answers[0].QuestionUID)
	assert.Equal(t, true, answers[0].Value)
	assert.True(t, schema[0].Required)
}

func TestValidate_EmptySchemaAndAnswers(t *testing.T) {
	result := Validate(nil, nil)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}
