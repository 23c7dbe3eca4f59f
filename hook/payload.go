package hook

import (
	"sort"

	"github.com/google/uuid"
)

// Attribute keys travelling with a payload outside the record data.
const (
	AttrCollection  = "collection_name"
	AttrColumn      = "column"
	AttrSelectState = "selectState"
	AttrIDs         = "ids"
	AttrPublic      = "public"
	AttrError       = "error"
)

// SelectState describes the query a select payload answers.
type SelectState struct {
	Table   string
	Columns []string
	IDs     []any
}

// Payload is the data bag threaded through one dispatch. Record keys keep
// insertion order. Select payloads carry their result set in Rows.
type Payload struct {
	ID uuid.UUID

	keys  []string
	data  map[string]any
	rows  []map[string]any
	attrs map[string]any
}

// NewPayload builds a payload over a copy of data. Keys are ordered by name.
func NewPayload(data map[string]any) *Payload {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return NewOrderedPayload(keys, data)
}

// NewOrderedPayload builds a payload whose record keys follow keys. Keys
// missing from data are skipped.
func NewOrderedPayload(keys []string, data map[string]any) *Payload {
	p := &Payload{
		ID:    uuid.New(),
		data:  make(map[string]any, len(data)),
		attrs: map[string]any{},
	}
	for _, k := range keys {
		if v, ok := data[k]; ok {
			p.Set(k, v)
		}
	}
	return p
}

// NewRowsPayload builds a select payload over rows.
func NewRowsPayload(rows []map[string]any) *Payload {
	p := NewPayload(nil)
	p.rows = rows
	return p
}

// Get returns the value stored under key.
func (p *Payload) Get(key string) (any, bool) {
	v, ok := p.data[key]
	return v, ok
}

// Value returns the value stored under key, or nil.
func (p *Payload) Value(key string) any { return p.data[key] }

// Has reports whether key is present in the record.
func (p *Payload) Has(key string) bool {
	_, ok := p.data[key]
	return ok
}

// Set stores v under key, appending key when new.
func (p *Payload) Set(key string, v any) {
	if _, ok := p.data[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.data[key] = v
}

// Remove deletes key from the record.
func (p *Payload) Remove(key string) {
	if _, ok := p.data[key]; !ok {
		return
	}
	delete(p.data, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the record keys in order.
func (p *Payload) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Data returns a copy of the record.
func (p *Payload) Data() map[string]any {
	out := make(map[string]any, len(p.data))
	for k, v := range p.data {
		out[k] = v
	}
	return out
}

// Replace swaps the whole record for data. Keys already present keep their
// position, new keys are appended by name.
func (p *Payload) Replace(data map[string]any) {
	keys := make([]string, 0, len(data))
	for _, k := range p.keys {
		if _, ok := data[k]; ok {
			keys = append(keys, k)
		}
	}
	var added []string
	for k := range data {
		if _, ok := p.data[k]; !ok {
			added = append(added, k)
		}
	}
	sort.Strings(added)

	p.keys = append(keys, added...)
	p.data = make(map[string]any, len(data))
	for k, v := range data {
		p.data[k] = v
	}
}

// Rows returns the result set of a select payload.
func (p *Payload) Rows() []map[string]any { return p.rows }

// SetRows replaces the result set of a select payload.
func (p *Payload) SetRows(rows []map[string]any) { p.rows = rows }

// Attribute returns an out-of-band attribute.
func (p *Payload) Attribute(key string) (any, bool) {
	v, ok := p.attrs[key]
	return v, ok
}

// SetAttribute stores an out-of-band attribute.
func (p *Payload) SetAttribute(key string, v any) { p.attrs[key] = v }

// WithAttribute stores an attribute and returns p for chaining.
func (p *Payload) WithAttribute(key string, v any) *Payload {
	p.SetAttribute(key, v)
	return p
}

// Collection returns the collection_name attribute.
func (p *Payload) Collection() string {
	s, _ := p.attrs[AttrCollection].(string)
	return s
}

// SelectState returns the selectState attribute of a select payload.
func (p *Payload) SelectState() (*SelectState, bool) {
	s, ok := p.attrs[AttrSelectState].(*SelectState)
	return s, ok && s != nil
}

// IDs returns the ids attribute set by delete dispatches.
func (p *Payload) IDs() []any {
	ids, _ := p.attrs[AttrIDs].([]any)
	return ids
}
