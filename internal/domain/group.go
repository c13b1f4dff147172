package domain

import "time"

// Role define el nivel de acceso de un miembro dentro de un grupo.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWriter Role = "writer"
	RoleReader Role = "reader"
)

// ValidRole indica si el rol es uno de los tres soportados.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleWriter || r == RoleReader
}

// CanWrite indica si el rol permite append sobre objetos del grupo.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleWriter
}

// CanRead indica si el rol permite lectura.
func (r Role) CanRead() bool {
	return r == RoleAdmin || r == RoleWriter || r == RoleReader
}

// Membership es un par (principal, rol). Una fila por (grupo, principal).
type Membership struct {
	PrincipalID string    `json:"principal_id"`
	Role        Role      `json:"role"`
	AddedAt     time.Time `json:"added_at"`
}

// PermissionGroup es la unidad de control de acceso de los objetos compartidos.
// La membresia solo crece: no existe camino de revocacion en este diseno.
type PermissionGroup struct {
	ID        string       `json:"id"`
	Members   []Membership `json:"members"`
	CreatedAt time.Time    `json:"created_at"`
}

// RoleOf devuelve el rol efectivo del principal, considerando el grant "everyone".
func (g PermissionGroup) RoleOf(principalID string) (Role, bool) {
	for _, m := range g.Members {
		if m.PrincipalID == principalID {
			return m.Role, true
		}
	}
	if principalID != EveryonePrincipalID {
		for _, m := range g.Members {
			if m.PrincipalID == EveryonePrincipalID {
				return m.Role, true
			}
		}
	}
	return "", false
}

// CanRead indica si el principal puede leer objetos del grupo.
func (g PermissionGroup) CanRead(principalID string) bool {
	role, ok := g.RoleOf(principalID)
	return ok && role.CanRead()
}

// CanWrite indica si el principal puede escribir objetos del grupo.
func (g PermissionGroup) CanWrite(principalID string) bool {
	role, ok := g.RoleOf(principalID)
	return ok && role.CanWrite()
}
