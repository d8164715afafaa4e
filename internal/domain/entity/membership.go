package entity

// Membership une un usuario con una organización bajo un rol.
// Un usuario puede pertenecer a varias organizaciones con roles distintos.
type Membership struct {
	UserID         string
	OrganizationID string
	RoleID         string
	IsSuperAdmin   bool // override a nivel de miembro
	IsActive       bool
}
