package collector

import "strings"

// SpaceRole classifies a heap space by its function in the collector.
type SpaceRole string

const (
	RoleYoung SpaceRole = "young_gen"
	RoleOld   SpaceRole = "old_gen"
	RoleCode  SpaceRole = "code"
	RoleMap   SpaceRole = "map"
	RoleLarge SpaceRole = "large_object"
)

// spaceRoles maps reported space names to their role. Names outside this set
// (read-only space, shared space, ...) are ignored.
var spaceRoles = map[string]SpaceRole{
	"new_space":          RoleYoung,
	"old_space":          RoleOld,
	"code_space":         RoleCode,
	"map_space":          RoleMap,
	"large_object_space": RoleLarge,
}

// classifySpace returns the role of a heap space name.
func classifySpace(name string) (SpaceRole, bool) {
	role, ok := spaceRoles[name]
	return role, ok
}

// camelCase converts a snake_case statistic name to camelCase, so
// "total_heap_size" becomes "totalHeapSize". Names without underscores pass
// through unchanged. Heap statistic key sets vary between runtime versions,
// which is why the transform is applied generically instead of mapping a
// fixed struct.
func camelCase(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) == 1 {
		return name
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
