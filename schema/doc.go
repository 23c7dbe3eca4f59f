// Package schema holds the collection metadata model and the Manager that
// loads it from a Source.
//
// # Model
//
// A Collection owns an ordered list of Fields. Each Field carries a logical
// catalog.Type, an Interface tag and at most one Relation. Interfaces are a
// closed enumeration plus InterfaceCustom, which keeps the raw name:
//
//	f.Interface.Is(schema.InterfacePrimaryKey)
//	f.Interface.Kind == schema.InterfaceCustom // f.Interface.Raw holds the name
//
// # Loading
//
// Manager.Collection loads the collection row, then attaches its fields on
// first access. Fields come with relations resolved through two indices, one
// per relation side; when a field name appears on both sides the A-side
// relation is attached.
//
//	m := schema.NewManager(source)
//	articles, err := m.Collection(ctx, "articles", false)
//	if errs.IsCollectionNotFound(err) {
//		// ...
//	}
//
// # Casting
//
// CastValue normalizes stored values: booleans to bool, integer family to
// int64, floating point to float64, binary to base64 strings and dates to
// "2006-01-02" / "2006-01-02 15:04:05" strings. The all-zero date is nil.
// CastRecordValues applies it to one record or a slice of records.
package schema
