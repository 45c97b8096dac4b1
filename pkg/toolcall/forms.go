package toolcall

import (
	"context"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Form schemas the client-side form flow validates against before
// submission. Validation happens locally so a malformed form never costs a
// round trip to the client.
var formSchemas = map[string]string{
	"reminder": `{
		"type": "object",
		"required": ["title", "date", "time"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
			"time": {"type": "string", "pattern": "^([01]\\d|2[0-3]):[0-5]\\d$"},
			"recurrence_type": {"type": "string", "enum": ["none", "daily", "weekly", "custom"]},
			"custom_days": {
				"type": "array",
				"items": {
					"type": "string",
					"enum": ["monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"]
				}
			},
			"remind_before_minutes": {"type": "integer", "minimum": 0}
		}
	}`,
	"medication": `{
		"type": "object",
		"required": ["name", "dosage"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"dosage": {"type": "string", "minLength": 1},
			"times": {
				"type": "array",
				"items": {"type": "string", "pattern": "^([01]\\d|2[0-3]):[0-5]\\d$"}
			},
			"with_food": {"type": "boolean"}
		}
	}`,
}

// ValidationError reports which fields failed schema validation.
type ValidationError struct {
	FormType string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("form %q failed validation: %v", e.FormType, e.Problems)
}

// FormTool drives the client's guided form flow: setting individual fields,
// validating the assembled form, and submitting it.
type FormTool struct {
	*Caller
}

// NewFormTool creates the form orchestration tool.
func NewFormTool(sender Sender) *FormTool {
	return &FormTool{
		Caller: NewCaller("form", sender,
			"set_text_field", "set_name_field", "set_reminder_date",
			"set_reminder_time", "set_recurrence_type", "set_custom_days",
			"submit_form", "cancel_form"),
	}
}

// SetTextField fills a named text field on the client form.
func (t *FormTool) SetTextField(ctx context.Context, field, value string) (map[string]interface{}, error) {
	if field == "" {
		return nil, fmt.Errorf("field name is required")
	}
	return t.Dispatch(ctx, "set_text_field", map[string]interface{}{"field": field, "value": value}, field)
}

// SetNameField fills the dedicated name field.
func (t *FormTool) SetNameField(ctx context.Context, value string) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "set_name_field", map[string]interface{}{"value": value}, "")
}

// SetReminderDate fills the reminder form's date field (YYYY-MM-DD).
func (t *FormTool) SetReminderDate(ctx context.Context, date string) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "set_reminder_date", map[string]interface{}{"date": date}, date)
}

// SetReminderTime fills the reminder form's time field (HH:MM).
func (t *FormTool) SetReminderTime(ctx context.Context, timeOfDay string) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "set_reminder_time", map[string]interface{}{"time": timeOfDay}, timeOfDay)
}

// SetRecurrenceType sets how the reminder repeats.
func (t *FormTool) SetRecurrenceType(ctx context.Context, recurrence string) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "set_recurrence_type", map[string]interface{}{"recurrence_type": recurrence}, recurrence)
}

// SetCustomDays sets the weekdays for a custom recurrence.
func (t *FormTool) SetCustomDays(ctx context.Context, days []string) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "set_custom_days", map[string]interface{}{"days": days}, "")
}

// Validate checks the assembled form fields against the schema for the form
// type. It runs locally and makes no client round trip.
func (t *FormTool) Validate(formType string, fields map[string]interface{}) error {
	schema, ok := formSchemas[formType]
	if !ok {
		return fmt.Errorf("unknown form type %q", formType)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(fields),
	)
	if err != nil {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return &ValidationError{FormType: formType, Problems: problems}
	}
	return nil
}

// Submit validates then submits the client form.
func (t *FormTool) Submit(ctx context.Context, formType string, fields map[string]interface{}) (map[string]interface{}, error) {
	if err := t.Validate(formType, fields); err != nil {
		return nil, err
	}
	return t.Dispatch(ctx, "submit_form", map[string]interface{}{
		"form_type": formType,
		"fields":    fields,
	}, formType)
}

// Cancel abandons the client form flow.
func (t *FormTool) Cancel(ctx context.Context) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "cancel_form", map[string]interface{}{}, "")
}
