package core

import (
	"errors"
	"strings"
	"testing"

	"labtrack/pkg/domain"
)

func sequenceIDs(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func TestRegistryAddAssignsIDAndDefaultColor(t *testing.T) {
	r := NewRegistry()
	p, err := r.Add(domain.ParameterDraft{Name: " Ferritin ", Unit: "ng/mL", Min: 15, Max: 150})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.HasPrefix(p.ID, "custom_") {
		t.Fatalf("expected custom_ id, got %q", p.ID)
	}
	if p.Color != domain.DefaultColor {
		t.Fatalf("expected default color, got %q", p.Color)
	}
	if p.Name != "Ferritin" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}
	got, err := r.Get(p.ID)
	if err != nil || got != p {
		t.Fatalf("get after add: %+v %v", got, err)
	}
}

func TestRegistryAddRetriesCollidingIDs(t *testing.T) {
	r := NewRegistry()
	r.newID = sequenceIDs("custom_a", "custom_a", "custom_b")
	first, err := r.Add(domain.ParameterDraft{Name: "A", Unit: "u", Min: 0, Max: 1})
	if err != nil {
		t.Fatalf("add first: %v", err)
	}
	second, err := r.Add(domain.ParameterDraft{Name: "B", Unit: "u", Min: 0, Max: 1})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	if first.ID != "custom_a" || second.ID != "custom_b" {
		t.Fatalf("unexpected ids %q %q", first.ID, second.ID)
	}
	ids := []string{}
	for _, p := range r.List() {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "custom_a,custom_b" {
		t.Fatalf("insertion order lost: %v", ids)
	}
}

func TestRegistryAddRejectsInvalidDraft(t *testing.T) {
	cases := []struct {
		name  string
		draft domain.ParameterDraft
		field string
	}{
		{"empty name", domain.ParameterDraft{Name: "", Unit: "x", Min: 0, Max: 1}, "name"},
		{"max equals min", domain.ParameterDraft{Name: "X", Unit: "u", Min: 5, Max: 5}, "max"},
		{"negative min", domain.ParameterDraft{Name: "X", Unit: "u", Min: -1, Max: 5}, "min"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			_, err := r.Add(tc.draft)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, verr.Field)
			}
			if r.Len() != 0 {
				t.Fatalf("registry mutated on failure")
			}
		})
	}
}

func TestRegistryRegisterRejectsDuplicate(t *testing.T) {
	r, err := NewRegistryWith(domain.BuiltinParameters())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if r.Len() != 7 {
		t.Fatalf("expected 7 builtins, got %d", r.Len())
	}
	err = r.Register(domain.BuiltinParameters()[0])
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if _, err := r.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegistryCloneIsIndependent(t *testing.T) {
	r, _ := NewRegistryWith(domain.BuiltinParameters()[:2])
	cp := r.clone()
	if _, err := cp.Add(domain.ParameterDraft{Name: "X", Unit: "u", Min: 0, Max: 1}); err != nil {
		t.Fatalf("add to clone: %v", err)
	}
	if r.Len() != 2 || cp.Len() != 3 {
		t.Fatalf("clone shares state: %d %d", r.Len(), cp.Len())
	}
}
