package domain

import "time"

// PrincipalKind distingue cuentas humanas del worker de automatizacion.
type PrincipalKind string

const (
	PrincipalHuman  PrincipalKind = "human"
	PrincipalWorker PrincipalKind = "worker"
)

// EveryonePrincipalID es el pseudo-principal para grants de lectura publica.
const EveryonePrincipalID = "everyone"

// Principal es una identidad ya autenticada; inmutable despues de creada.
type Principal struct {
	ID          string        `json:"id"`
	Kind        PrincipalKind `json:"kind"`
	DisplayName string        `json:"display_name,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// IsWorker indica si el principal es la identidad de automatizacion.
func (p Principal) IsWorker() bool {
	return p.Kind == PrincipalWorker
}
