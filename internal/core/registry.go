package core

import (
	"labtrack/pkg/domain"

	"github.com/google/uuid"
)

// customIDPrefix namespaces ids generated for user-defined parameters.
const customIDPrefix = "custom_"

// Registry owns the tracked parameter definitions in insertion order. It is
// not safe for concurrent mutation; Service serializes access.
type Registry struct {
	order  []string
	params map[string]domain.Parameter
	newID  func() string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[string]domain.Parameter),
		newID:  newCustomID,
	}
}

// NewRegistryWith returns a registry preloaded with params.
func NewRegistryWith(params []domain.Parameter) (*Registry, error) {
	r := NewRegistry()
	for _, p := range params {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// newCustomID derives an id from a version 7 UUID, whose leading bits encode
// the current Unix millisecond and which the uuid package keeps monotonic
// within the process.
func newCustomID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return customIDPrefix + id.String()
}

// List returns all parameters in insertion order.
func (r *Registry) List() []domain.Parameter {
	out := make([]domain.Parameter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.params[id])
	}
	return out
}

// Get looks up a parameter by id.
func (r *Registry) Get(id string) (domain.Parameter, error) {
	p, ok := r.params[id]
	if !ok {
		return domain.Parameter{}, domain.NotFoundError{ID: id}
	}
	return p, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.params[id]
	return ok
}

// Len returns the number of registered parameters.
func (r *Registry) Len() int { return len(r.order) }

// Add validates draft, assigns a fresh unique id and registers the result.
// Nothing is mutated when validation fails.
func (r *Registry) Add(draft domain.ParameterDraft) (domain.Parameter, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return domain.Parameter{}, err
	}
	id := r.newID()
	for r.Has(id) {
		id = r.newID()
	}
	color := draft.Color
	if color == "" {
		color = domain.DefaultColor
	}
	p := domain.Parameter{
		ID:          id,
		Name:        draft.Name,
		Unit:        draft.Unit,
		NormalRange: domain.NormalRange{Min: draft.Min, Max: draft.Max},
		Color:       color,
	}
	r.insert(p)
	return p, nil
}

// Register inserts a fully formed parameter under its own id.
func (r *Registry) Register(p domain.Parameter) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if r.Has(p.ID) {
		return &domain.ValidationError{Field: "id", Message: "parameter " + p.ID + " already exists"}
	}
	r.insert(p)
	return nil
}

func (r *Registry) insert(p domain.Parameter) {
	r.order = append(r.order, p.ID)
	r.params[p.ID] = p
}

func (r *Registry) clone() *Registry {
	cp := &Registry{
		order:  append([]string(nil), r.order...),
		params: make(map[string]domain.Parameter, len(r.params)),
		newID:  r.newID,
	}
	for k, v := range r.params {
		cp.params[k] = v
	}
	return cp
}
