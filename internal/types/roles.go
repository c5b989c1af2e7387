package types

// Role is a per-user, per-project access level.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleEditor Role = "Editor"
	RoleViewer Role = "Viewer"
)

// Capability is a named action a role may perform on a project.
type Capability string

const (
	CapTaskMutate    Capability = "task_mutate"
	CapProjectManage Capability = "project_manage"
)

// RolePermissions maps each role to the capabilities it grants. Membership
// administration is deliberately stricter than task mutation.
var RolePermissions = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapTaskMutate:    true,
		CapProjectManage: true,
	},
	RoleEditor: {
		CapTaskMutate: true,
	},
	RoleViewer: {},
}

// ValidRole reports whether s is one of the recognized role values.
func ValidRole(s string) bool {
	_, ok := RolePermissions[Role(s)]
	return ok
}

// Task status values, matching the three kanban columns.
const (
	StatusTodo       = "To Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// Task priority values.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

func ValidStatus(s string) bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

func ValidPriority(s string) bool {
	return s == PriorityLow || s == PriorityMedium || s == PriorityHigh
}
