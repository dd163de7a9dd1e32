// Package validator checks telemetry submissions against a composed project
// schema.
package validator

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceURL = "mem://telemetry/schema.json"

var ErrInvalidSubmission = errors.New("submission does not match schema")

// Problem is one schema violation.
type Problem struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// SubmissionError lists the violations found in a submission.
type SubmissionError struct {
	Problems []Problem
}

func (e *SubmissionError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Location, p.Message))
	}
	return ErrInvalidSubmission.Error() + ": " + strings.Join(parts, "; ")
}

func (e *SubmissionError) Unwrap() error {
	return ErrInvalidSubmission
}

// Validator is a compiled schema. It is safe for concurrent use.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile prepares a validator for a JSON Schema document.
func Compile(schema []byte) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceURL, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: sch}, nil
}

// Validate checks a decoded JSON document (as produced by encoding/json,
// preferably with UseNumber). Violations are returned as *SubmissionError.
func (v *Validator) Validate(doc any) error {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate submission: %w", err)
	}

	out := ve.BasicOutput()
	problems := make([]Problem, 0, len(out.Errors))
	for _, e := range out.Errors {
		// the root entry only repeats that validation failed
		if e.KeywordLocation == "" && len(out.Errors) > 1 {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		problems = append(problems, Problem{Location: loc, Message: e.Error})
	}
	return &SubmissionError{Problems: problems}
}
