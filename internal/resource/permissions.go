// AngelaMos | 2026
// permissions.go

package resource

// Permissions lists, per verb, the permission names that grant it. A caller
// needs any one name in the list.
type Permissions struct {
	Create     []string
	View       []string
	Edit       []string
	Delete     []string
	HardDelete []string
	Activate   []string
	Deactivate []string
}

// PermissionsFor builds "<name>:<verb>" permissions. Each alias, such as a
// legacy "can_manage_regions", grants every verb.
func PermissionsFor(name string, aliases ...string) Permissions {
	grant := func(verb string) []string {
		return append([]string{name + ":" + verb}, aliases...)
	}

	return Permissions{
		Create:     grant("create"),
		View:       grant("view"),
		Edit:       grant("edit"),
		Delete:     grant("delete"),
		HardDelete: grant("hard_delete"),
		Activate:   grant("activate"),
		Deactivate: grant("deactivate"),
	}
}
