package contact

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatorStep(t *testing.T) {
	v := NewValidator()
	steps := DefaultSteps()
	byID := make(map[string]Step)
	for _, s := range steps {
		byID[s.ID] = s
	}

	tests := []struct {
		name    string
		step    string
		draft   Draft
		wantErr error
	}{
		{"name given", "name", Draft{"name": "Ada"}, nil},
		{"name empty", "name", Draft{}, ErrFieldRequired},
		{"email valid", "email", Draft{"email": "ada@example.com"}, nil},
		{"email missing domain dot", "email", Draft{"email": "ada@example"}, errInvalid},
		{"email with space", "email", Draft{"email": "a da@example.com"}, errInvalid},
		{"phone empty is optional", "phone", Draft{"phone": ""}, nil},
		{"phone valid", "phone", Draft{"phone": "+1 (555) 123-4567"}, nil},
		{"phone letters", "phone", Draft{"phone": "call me"}, errInvalid},
		{"phone too short", "phone", Draft{"phone": "12345"}, errInvalid},
		{"phone too long", "phone", Draft{"phone": strings.Repeat("1", 21)}, errInvalid},
		{"select known option", "budget", Draft{"budget": "$25k+"}, nil},
		{"select unknown option", "budget", Draft{"budget": "$1M"}, ErrInvalidOption},
		{"other without detail", "projectType", Draft{"projectType": "Other"}, ErrFieldRequired},
		{"other with detail", "projectType", Draft{"projectType": "Other", "projectTypeOther": "Robotics"}, nil},
		{"message empty", "message", Draft{"message": "  "}, ErrFieldRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Step(byID[tt.step], tt.draft)
			switch {
			case tt.wantErr == nil:
				if err != nil {
					t.Errorf("Step() = %v, want nil", err)
				}
			case tt.wantErr == errInvalid:
				var ve *ValidationError
				if !errors.As(err, &ve) || errors.Is(err, ErrFieldRequired) {
					t.Errorf("Step() = %v, want rule ValidationError", err)
				}
				if ve != nil && ve.Message == "" {
					t.Error("ValidationError should carry a message")
				}
			default:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Step() = %v, want %v", err, tt.wantErr)
				}
			}
		})
	}
}

// errInvalid marks cases that should fail a Rule.
var errInvalid = errors.New("rule failure")

func TestRequiredMessage(t *testing.T) {
	err := NewValidator().Step(Step{ID: "x", Required: true}, Draft{})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Message != "This field is required" {
		t.Errorf("Message = %q", ve.Message)
	}
}

func TestEmailKindImpliesEmailRule(t *testing.T) {
	step := Step{ID: "contact", Kind: KindEmail, Required: true}
	err := NewValidator().Step(step, Draft{"contact": "not-an-email"})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Message != "Please enter a valid email address" {
		t.Errorf("err = %v, want email message", err)
	}
}

func TestRegisterRule(t *testing.T) {
	v := NewValidator()
	if err := v.RegisterRule("even", func(s string) bool { return len(s)%2 == 0 }); err != nil {
		t.Fatalf("RegisterRule: %v", err)
	}
	step := Step{ID: "code", Rule: "even", Message: "Must be even"}
	if err := v.Step(step, Draft{"code": "ab"}); err != nil {
		t.Errorf("even value rejected: %v", err)
	}
	var ve *ValidationError
	if err := v.Step(step, Draft{"code": "abc"}); !errors.As(err, &ve) || ve.Message != "Must be even" {
		t.Errorf("odd value = %v, want custom message", err)
	}
}

func TestKindText(t *testing.T) {
	for _, k := range []Kind{KindShortText, KindEmail, KindLongText, KindSingleSelect} {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", k, err)
		}
		var back Kind
		if err := back.UnmarshalText(b); err != nil || back != k {
			t.Errorf("round trip %s = %v, %v", b, back, err)
		}
	}
	if err := new(Kind).UnmarshalText([]byte("checkbox")); err == nil {
		t.Error("unknown kind should fail")
	}
}
