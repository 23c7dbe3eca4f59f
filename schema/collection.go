package schema

import "sync"

// CollectionInfo is the raw collection row reported by the schema source.
type CollectionInfo struct {
	Name    string
	Hidden  bool
	Single  bool
	Managed bool
	Note    string
}

// Collection is a named group of records sharing a field schema. Fields are
// attached after load by the Manager.
type Collection struct {
	Name    string
	Schema  string
	System  bool
	Hidden  bool
	Single  bool
	Managed bool
	Note    string

	mu     sync.RWMutex
	fields []*Field
	byName map[string]*Field
}

func newCollection(info CollectionInfo, schemaName string, system bool) *Collection {
	return &Collection{
		Name:    info.Name,
		Schema:  schemaName,
		System:  system,
		Hidden:  info.Hidden,
		Single:  info.Single,
		Managed: info.Managed,
		Note:    info.Note,
	}
}

// NewCollection builds a detached collection holding the given fields.
func NewCollection(name string, fields ...*Field) *Collection {
	c := &Collection{Name: name}
	c.setFields(fields)
	return c
}

func (c *Collection) setFields(fields []*Field) {
	byName := make(map[string]*Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	c.mu.Lock()
	c.fields = fields
	c.byName = byName
	c.mu.Unlock()
}

// HasFields reports whether the field list has been attached.
func (c *Collection) HasFields() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.fields) > 0
}

// Field returns the named field.
func (c *Collection) Field(name string) (*Field, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.byName[name]
	return f, ok
}

// Fields returns every field in load order, or the requested subset in
// request order. Unknown names are skipped.
func (c *Collection) Fields(names ...string) []*Field {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(names) == 0 {
		out := make([]*Field, len(c.fields))
		copy(out, c.fields)
		return out
	}
	out := make([]*Field, 0, len(names))
	for _, name := range names {
		if f, ok := c.byName[name]; ok {
			out = append(out, f)
		}
	}
	return out
}

// FieldNames returns the names of every field in load order.
func (c *Collection) FieldNames() []string {
	fields := c.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// FieldsByInterface returns every field carrying the given interface kind.
func (c *Collection) FieldsByInterface(kind InterfaceKind) []*Field {
	var out []*Field
	for _, f := range c.Fields() {
		if f.Interface.Is(kind) {
			out = append(out, f)
		}
	}
	return out
}

func (c *Collection) firstByInterface(kind InterfaceKind) *Field {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.fields {
		if f.Interface.Is(kind) {
			return f
		}
	}
	return nil
}

// PrimaryKey returns the primary key field, or nil.
func (c *Collection) PrimaryKey() *Field { return c.firstByInterface(InterfacePrimaryKey) }

// PrimaryKeyName returns the primary key field name, or "id" when the
// collection has no primary key field.
func (c *Collection) PrimaryKeyName() string {
	if f := c.PrimaryKey(); f != nil {
		return f.Name
	}
	return "id"
}

// DateCreateField returns the field stamped on insert, or nil.
func (c *Collection) DateCreateField() *Field { return c.firstByInterface(InterfaceDateCreated) }

// DateUpdateField returns the field stamped on every write, or nil.
func (c *Collection) DateUpdateField() *Field { return c.firstByInterface(InterfaceDateModified) }

// UserCreateField returns the field holding the creating user, or nil.
func (c *Collection) UserCreateField() *Field { return c.firstByInterface(InterfaceUserCreated) }

// UserUpdateField returns the field holding the last modifying user, or nil.
func (c *Collection) UserUpdateField() *Field { return c.firstByInterface(InterfaceUserModified) }

// StatusField returns the status field, or nil.
func (c *Collection) StatusField() *Field { return c.firstByInterface(InterfaceStatus) }

// SortField returns the sort field, or nil.
func (c *Collection) SortField() *Field { return c.firstByInterface(InterfaceSort) }
