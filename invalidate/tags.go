// Package invalidate evicts cached reads when records, tables or permission
// rows change. It listens to after-phase events only, so a rejected or
// failed mutation never invalidates anything.
package invalidate

import "fmt"

// Tag kinds, used as metric labels.
const (
	KindEntity      = "entity"
	KindTable       = "table"
	KindPermissions = "permissions"
)

// EntityTag names the cached reads of one record.
func EntityTag(collection string, id any) string {
	return fmt.Sprintf("entity_%s_%v", collection, id)
}

// TableTag names every cached read of a collection.
func TableTag(collection string) string {
	return "table_" + collection
}

// PermissionsTag names the cached permission set of a group on a collection.
func PermissionsTag(collection string, group any) string {
	return fmt.Sprintf("permissions_collection_%s_group_%v", collection, group)
}
