// Package provider is the static catalogue of generative services known to
// scriptgen.
package provider

import (
	"fmt"
	"slices"
)

type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindSpeech   Kind = "speech"
	KindMetadata Kind = "metadata"
)

// Descriptor describes one external service. Endpoint is the full URL for
// text providers and the API base for job-based ones.
type Descriptor struct {
	ID             string
	DisplayName    string
	Kind           Kind
	Endpoint       string
	CredentialSlot string
	KeyURL         string
	Model          string
}

// Registry is an immutable, ordered set of descriptors.
type Registry struct {
	order []string
	byID  map[string]Descriptor
}

func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		order: make([]string, 0, len(descs)),
		byID:  make(map[string]Descriptor, len(descs)),
	}
	for _, d := range descs {
		if d.ID == "" {
			return nil, fmt.Errorf("provider with empty id")
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", d.ID)
		}
		r.order = append(r.order, d.ID)
		r.byID[d.ID] = d
	}
	return r, nil
}

func (r *Registry) Lookup(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// List returns descriptors of the given kind in catalogue order. An empty
// kind lists everything.
func (r *Registry) List(kind Kind) []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		d := r.byID[id]
		if kind == "" || d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func (r *Registry) IDs() []string {
	return slices.Clone(r.order)
}

// WithEndpoint returns a copy of the registry with id pointed at endpoint.
// Unknown ids are ignored.
func (r *Registry) WithEndpoint(id, endpoint string) *Registry {
	out := &Registry{
		order: slices.Clone(r.order),
		byID:  make(map[string]Descriptor, len(r.byID)),
	}
	for k, v := range r.byID {
		out.byID[k] = v
	}
	if d, ok := out.byID[id]; ok {
		d.Endpoint = endpoint
		out.byID[id] = d
	}
	return out
}
