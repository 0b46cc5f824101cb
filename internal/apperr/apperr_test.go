package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(New(Conflict, "SUBDOMAIN_EXISTS", "taken")); got != Conflict {
		t.Fatalf("KindOf: got %v, want Conflict", got)
	}
	if got := KindOf(errors.New("plain")); got != Internal {
		t.Fatalf("KindOf foreign error: got %v, want Internal", got)
	}
	if got := KindOf(nil); got != Internal {
		t.Fatalf("KindOf nil: got %v, want Internal", got)
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := New(NotFound, "USER_NOT_FOUND", "missing")
	outer := fmt.Errorf("lookup: %w", inner)
	if got := KindOf(outer); got != NotFound {
		t.Fatalf("KindOf through fmt wrap: got %v, want NotFound", got)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := Wrap(cause, "Failed to list users")
	if err.Kind != Internal {
		t.Fatalf("Wrap kind: got %v, want Internal", err.Kind)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("wrapped error lost its cause")
	}
}

func TestValidationCarriesFields(t *testing.T) {
	err := Validation([]FieldError{{Field: "password", Message: "too short"}})
	if err.Kind != Invalid {
		t.Fatalf("Validation kind: got %v, want Invalid", err.Kind)
	}
	if len(err.Fields) != 1 || err.Fields[0].Field != "password" {
		t.Fatalf("Validation fields not preserved: %+v", err.Fields)
	}
}

func TestAs(t *testing.T) {
	orig := New(Forbidden, "USER_INACTIVE", "inactive")
	if got := As(orig); got != orig {
		t.Fatalf("As should return the original *Error")
	}
	got := As(errors.New("boom"))
	if got.Kind != Internal || got.Err == nil {
		t.Fatalf("As should wrap foreign errors as Internal: %+v", got)
	}
}
