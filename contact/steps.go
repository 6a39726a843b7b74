// Package contact implements the multi-step contact form: the ordered
// questions, per-step validation, the Editing → Submitting → Succeeded/Failed
// state machine, and the chain of delivery mechanisms a finished form is
// handed to.
package contact

import (
	"fmt"
)

// Kind is the input control a step asks for.
type Kind int

const (
	KindShortText Kind = iota
	KindEmail
	KindLongText
	KindSingleSelect
)

var kindNames = [...]string{
	KindShortText:    "short-text",
	KindEmail:        "email",
	KindLongText:     "long-text",
	KindSingleSelect: "single-select",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name so the JSON API stays readable.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("contact: unknown kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("contact: unknown kind %q", b)
}

// OptionOther is the single-select option that requires a free-text
// follow-up in the step's OtherField.
const OptionOther = "Other"

// Step is one question of the form.
type Step struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Kind        Kind     `json:"kind"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
	// Rule is a validator tag applied to non-empty values, e.g. "phone".
	Rule string `json:"-"`
	// Message is shown when Rule rejects a value.
	Message string `json:"-"`
	// OtherField names the draft field that must be filled when OptionOther
	// is selected.
	OtherField string `json:"otherField,omitempty"`
}

// Fields returns the draft fields this step writes.
func (s Step) Fields() []string {
	if s.OtherField != "" {
		return []string{s.ID, s.OtherField}
	}
	return []string{s.ID}
}

// DefaultSteps returns the portfolio contact questions in order.
func DefaultSteps() []Step {
	return []Step{
		{
			ID:          "name",
			Prompt:      "What's your name?",
			Kind:        KindShortText,
			Required:    true,
			Placeholder: "Enter your name",
		},
		{
			ID:          "email",
			Prompt:      "What's your email?",
			Kind:        KindEmail,
			Required:    true,
			Placeholder: "Enter your email",
			Rule:        "contactemail",
			Message:     "Please enter a valid email address",
		},
		{
			ID:          "phone",
			Prompt:      "What's your phone number?",
			Kind:        KindShortText,
			Placeholder: "Enter your phone number",
			Rule:        "phone",
			Message:     "Please enter a valid phone number",
		},
		{
			ID:         "projectType",
			Prompt:     "What type of project are you interested in?",
			Kind:       KindSingleSelect,
			Required:   true,
			Options:    []string{"AI Integration", "Web Development", "Digital Marketing", OptionOther},
			OtherField: "projectTypeOther",
		},
		{
			ID:       "budget",
			Prompt:   "What's your budget range?",
			Kind:     KindSingleSelect,
			Required: true,
			Options:  []string{"$1k - $5k", "$5k - $10k", "$10k - $25k", "$25k+"},
		},
		{
			ID:          "message",
			Prompt:      "Tell me about your project",
			Kind:        KindLongText,
			Required:    true,
			Placeholder: "Describe your project in detail...",
		},
	}
}

func cloneSteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		s.Options = append([]string(nil), s.Options...)
		out[i] = s
	}
	return out
}
