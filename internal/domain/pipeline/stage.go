// Package pipeline define las etapas del pipeline comercial y las reglas de
// transición entre ellas (política de etapas). Es código de dominio puro: no
// persiste ni registra logs; el caso de uso decide qué hacer con el resultado.
package pipeline

import (
	"fmt"

	"github.com/asesoriaprevencion/crm-api/internal/domain"
)

// Stage etapa del pipeline de una oportunidad.
type Stage string

// Etapas en orden canónico. CIERRE_P (perdida) es terminal y alcanzable desde cualquier etapa.
const (
	Prospeccion Stage = "PROSPECCION"
	Diagnostico Stage = "DIAGNOSTICO"
	Propuesta   Stage = "PROPUESTA"
	Seguimiento Stage = "SEGUIMIENTO"
	CierreG     Stage = "CIERRE_G" // ganada
	CierreP     Stage = "CIERRE_P" // perdida
)

// DefaultStage etapa asignada cuando la creación no indica ninguna.
const DefaultStage = Prospeccion

// maxForwardJump máximo de etapas que se puede avanzar en una sola transición.
const maxForwardJump = 2

// unknownProbability probabilidad para etapas no reconocidas.
const unknownProbability = 10

// stageIndex tabla explícita de orden; la aritmética de distancias no depende del orden de declaración.
var stageIndex = map[Stage]int{
	Prospeccion: 0,
	Diagnostico: 1,
	Propuesta:   2,
	Seguimiento: 3,
	CierreG:     4,
	CierreP:     5,
}

var defaultProbability = map[Stage]int{
	Prospeccion: 10,
	Diagnostico: 25,
	Propuesta:   50,
	Seguimiento: 70,
	CierreG:     100,
	CierreP:     0,
}

// Stages devuelve las etapas en orden canónico.
func Stages() []Stage {
	return []Stage{Prospeccion, Diagnostico, Propuesta, Seguimiento, CierreG, CierreP}
}

// Parse convierte s en una etapa conocida.
func Parse(s string) (Stage, error) {
	st := Stage(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: etapa desconocida %q", domain.ErrInvalidInput, s)
	}
	return st, nil
}

// Valid informa si la etapa pertenece al conjunto fijo.
func (s Stage) Valid() bool {
	_, ok := stageIndex[s]
	return ok
}

// Index posición de la etapa en el orden canónico, -1 si es desconocida.
func (s Stage) Index() int {
	if i, ok := stageIndex[s]; ok {
		return i
	}
	return -1
}

// IsClosing informa si la etapa resuelve la oportunidad (ganada o perdida).
func (s Stage) IsClosing() bool {
	return s == CierreG || s == CierreP
}

func (s Stage) String() string { return string(s) }

// DefaultProbability probabilidad de cierre por defecto para la etapa (10 si es desconocida).
func DefaultProbability(s Stage) int {
	if p, ok := defaultProbability[s]; ok {
		return p
	}
	return unknownProbability
}

// Transition resultado de validar un cambio de etapa permitido.
type Transition struct {
	From     Stage
	To       Stage
	Backward bool // retroceso permitido que el llamador debe advertir
}

// ValidateTransition aplica la política de transición:
//   - retroceder (salvo a PROSPECCION) está permitido pero se marca como Backward;
//   - avanzar más de 2 etapas se rechaza, excepto hacia CIERRE_P o desde PROSPECCION.
func ValidateTransition(current, next Stage) (Transition, error) {
	if !current.Valid() || !next.Valid() {
		return Transition{}, fmt.Errorf("%w: etapa desconocida (%s -> %s)", domain.ErrInvalidTransition, current, next)
	}
	ci, ni := current.Index(), next.Index()
	t := Transition{From: current, To: next}
	if ni < ci && next != Prospeccion {
		t.Backward = true
	}
	if ni-ci > maxForwardJump && next != CierreP && current != Prospeccion {
		return Transition{}, fmt.Errorf("%w: no se puede avanzar más de %d etapas a la vez (%s -> %s)",
			domain.ErrInvalidTransition, maxForwardJump, current, next)
	}
	return t, nil
}
