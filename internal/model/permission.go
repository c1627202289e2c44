package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionCatalogRead allows viewing programs, courses, faculty and sections.
	PermissionCatalogRead Permission = "catalog:read"

	// PermissionSectionsWrite allows creating, patching and deleting sections,
	// including rebinding their instructor.
	PermissionSectionsWrite Permission = "sections:write"

	// PermissionSchedulesRead allows viewing schedules and running conflict checks.
	PermissionSchedulesRead Permission = "schedules:read"

	// PermissionSchedulesWrite allows creating, updating and deleting schedules.
	PermissionSchedulesWrite Permission = "schedules:write"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionCatalogRead,
	PermissionSectionsWrite,
	PermissionSchedulesRead,
	PermissionSchedulesWrite,
}
