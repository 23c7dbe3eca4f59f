package schema

// Side tells which endpoint of a relation a field sits on.
type Side int

const (
	SideA Side = iota + 1
	SideB
)

// Cardinality hints how many records sit on the far side of a relation.
type Cardinality string

const (
	ManyToOne  Cardinality = "many_to_one"
	OneToMany  Cardinality = "one_to_many"
	ManyToMany Cardinality = "many_to_many"
)

// Relation links a field of CollectionA to a field of CollectionB,
// optionally through a junction collection.
type Relation struct {
	ID                 int64
	CollectionA        string
	FieldA             string
	JunctionKeyA       string
	JunctionCollection string
	JunctionKeyB       string
	CollectionB        string
	FieldB             string
}

// IsJunction reports whether the relation goes through a junction collection.
func (r *Relation) IsJunction() bool { return r.JunctionCollection != "" }

// Cardinality returns the hint for a field sitting on side s.
func (r *Relation) Cardinality(s Side) Cardinality {
	if r.IsJunction() {
		return ManyToMany
	}
	if s == SideB {
		return OneToMany
	}
	return ManyToOne
}

// OwnField returns the relation field that sits on side s.
func (r *Relation) OwnField(s Side) string {
	if s == SideB {
		return r.FieldB
	}
	return r.FieldA
}

// RelatedCollection returns the collection across the relation from side s.
func (r *Relation) RelatedCollection(s Side) string {
	if s == SideB {
		return r.CollectionA
	}
	return r.CollectionB
}

// RelatedField returns the field across the relation from side s.
func (r *Relation) RelatedField(s Side) string {
	if s == SideB {
		return r.FieldA
	}
	return r.FieldB
}

// relationIndex resolves field names to relations. A-side matches win over
// B-side matches for the same name.
type relationIndex struct {
	a map[string]*Relation
	b map[string]*Relation
}

func newRelationIndex(rows []Relation) relationIndex {
	idx := relationIndex{
		a: make(map[string]*Relation, len(rows)),
		b: make(map[string]*Relation, len(rows)),
	}
	for i := range rows {
		r := &rows[i]
		if r.FieldA != "" {
			idx.a[r.FieldA] = r
		}
		if r.FieldB != "" {
			idx.b[r.FieldB] = r
		}
	}
	return idx
}

func (idx relationIndex) lookup(field string) (*Relation, Side, bool) {
	if r, ok := idx.a[field]; ok {
		return r, SideA, true
	}
	if r, ok := idx.b[field]; ok {
		return r, SideB, true
	}
	return nil, 0, false
}
