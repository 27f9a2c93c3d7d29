package domain

import (
	"errors"
	"math"
	"testing"
)

func TestParameterDraftValidate(t *testing.T) {
	valid := ParameterDraft{Name: "Ferritin", Unit: "ng/mL", Min: 30, Max: 400}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*ParameterDraft)
		field  string
	}{
		{"empty name", func(d *ParameterDraft) { d.Name = "" }, "name"},
		{"blank name", func(d *ParameterDraft) { d.Name = "   " }, "name"},
		{"empty unit", func(d *ParameterDraft) { d.Unit = "" }, "unit"},
		{"negative min", func(d *ParameterDraft) { d.Min = -1 }, "min"},
		{"nan min", func(d *ParameterDraft) { d.Min = math.NaN() }, "min"},
		{"min equals max", func(d *ParameterDraft) { d.Min, d.Max = 5, 5 }, "max"},
		{"max below min", func(d *ParameterDraft) { d.Max = 10 }, "max"},
		{"infinite max", func(d *ParameterDraft) { d.Max = math.Inf(1) }, "max"},
		{"name reported first", func(d *ParameterDraft) { d.Name, d.Max = "", 0 }, "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := valid
			tc.mutate(&d)
			err := d.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) || !errors.Is(err, ErrValidation) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %q, got %q (%s)", tc.field, verr.Field, verr.Message)
			}
		})
	}
}

func TestParameterValidateRequiresID(t *testing.T) {
	p := Parameter{Name: "ESR", Unit: "mm/h", NormalRange: NormalRange{Min: 2, Max: 15}}
	var verr *ValidationError
	if err := p.Validate(); !errors.As(err, &verr) || verr.Field != "id" {
		t.Fatalf("expected id error, got %v", err)
	}
	p.ID = "esr"
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestBuiltinParametersAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range BuiltinParameters() {
		if err := p.Validate(); err != nil {
			t.Fatalf("builtin %s invalid: %v", p.ID, err)
		}
		if seen[p.ID] {
			t.Fatalf("duplicate builtin id %s", p.ID)
		}
		seen[p.ID] = true
	}
	if len(seen) != 7 || len(PresetColors) != 12 {
		t.Fatalf("unexpected builtin counts %d/%d", len(seen), len(PresetColors))
	}
}

func TestErrorMatching(t *testing.T) {
	if !errors.Is(UnknownParameterError{ID: "x"}, ErrNotFound) || !errors.Is(UnknownParameterError{ID: "x"}, ErrUnknownParameter) {
		t.Fatalf("unknown parameter should match both sentinels")
	}
	if !errors.Is(NotFoundError{ID: "x"}, ErrNotFound) {
		t.Fatalf("not found should match ErrNotFound")
	}
	cause := errors.New("unexpected end of JSON input")
	corrupt := &CorruptSnapshotError{Key: DefaultSeriesKey, Err: cause}
	if !errors.Is(corrupt, ErrCorruptSnapshot) || !errors.Is(corrupt, cause) {
		t.Fatalf("corrupt snapshot should match sentinel and cause")
	}
}
