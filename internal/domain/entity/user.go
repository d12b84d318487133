package entity

// Roles de usuario reconocidos por el CRM.
const (
	RoleAdmin        = "ADMIN"
	RoleCEO          = "CEO"
	RoleDirComercial = "DIR_COMERCIAL"
	RoleComercial    = "COMERCIAL"
)

// UserSummary proyección mínima de un usuario (responsable de cuenta u oportunidad).
type UserSummary struct {
	ID    int64
	Name  string
	Email string
	Role  string
}
