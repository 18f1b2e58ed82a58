// Package validation checks inbound request parameters against JSON schemas.
package validation

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// First returns the message of the first error, or "".
func (r *ValidationResult) First() string {
	if r == nil || len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// MembershipRequestSchema describes signup and unregister parameters. email
// must be present; an empty string is allowed.
var MembershipRequestSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"activity", "email"},
	"properties": map[string]interface{}{
		"activity": map[string]interface{}{"type": "string"},
		"email":    map[string]interface{}{"type": "string"},
	},
}

// Validate checks doc against schema. Both are plain Go values.
func Validate(schema, doc interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		field := e.Field()
		if e.Type() == "required" {
			if p, ok := e.Details()["property"].(string); ok {
				field = p
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: messageFor(field, e),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out, nil
}

func messageFor(field string, e gojsonschema.ResultError) string {
	switch e.Type() {
	case "required":
		return fmt.Sprintf("%s query parameter is required", field)
	default:
		return fmt.Sprintf("%s: %s", field, e.Description())
	}
}

// ValidateMembershipRequest validates the activity name and the email query
// parameter. When email is repeated the last value wins.
func ValidateMembershipRequest(activity string, query url.Values) (*ValidationResult, string, error) {
	doc := map[string]interface{}{"activity": activity}
	var email string
	if values, ok := query["email"]; ok && len(values) > 0 {
		email = values[len(values)-1]
		doc["email"] = email
	}

	result, err := Validate(MembershipRequestSchema, doc)
	if err != nil {
		return nil, "", err
	}
	return result, email, nil
}
