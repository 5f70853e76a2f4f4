package validation

import (
	"errors"
	"fmt"
	"testing"
)

type sample struct {
	Title  string `validate:"required,min=3,max=10" label:"Title"`
	Status string `validate:"oneof=open closed" label:"Status"`
	Email  string `validate:"omitempty,email" label:"Email"`
	Handle string `validate:"omitempty,username" label:"Username"`
}

// TestStruct_Valid verifies a valid struct yields no messages.
func TestStruct_Valid(t *testing.T) {
	errs := Struct(sample{Title: "Hello", Status: "open"})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if errs.Err() != nil {
		t.Error("expected Err() to be nil for valid input")
	}
}

// TestStruct_Messages verifies each rule produces a readable message.
func TestStruct_Messages(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"required", sample{Status: "open"}, "Title is required"},
		{"min", sample{Title: "Hi", Status: "open"}, "Title must be at least 3 characters"},
		{"max", sample{Title: "Much too long title", Status: "open"}, "Title must not exceed 10 characters"},
		{"oneof", sample{Title: "Hello", Status: "maybe"}, "Status must be one of: open, closed"},
		{"email", sample{Title: "Hello", Status: "open", Email: "nope"}, "Email must be a valid email address"},
		{"username", sample{Title: "Hello", Status: "open", Handle: "bad name!"}, "Username may only contain letters, numbers and underscores"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Struct(tt.in)
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %v", errs)
			}
			if errs[0] != tt.want {
				t.Errorf("got %q, want %q", errs[0], tt.want)
			}
		})
	}
}

// TestMessages_Wrapped verifies messages survive error wrapping.
func TestMessages_Wrapped(t *testing.T) {
	var errs Errors
	errs.Add("first")
	errs.Addf("second %d", 2)
	wrapped := fmt.Errorf("saving: %w", errs.Err())

	if !IsValidation(wrapped) {
		t.Fatal("expected wrapped error to be recognised as validation")
	}
	msgs := Messages(wrapped)
	if len(msgs) != 2 || msgs[1] != "second 2" {
		t.Errorf("unexpected messages: %v", msgs)
	}
	if Messages(errors.New("plain")) != nil {
		t.Error("expected nil messages for non-validation error")
	}
}
