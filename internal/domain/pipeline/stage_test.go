package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriaprevencion/crm-api/internal/domain"
	"github.com/asesoriaprevencion/crm-api/internal/domain/pipeline"
)

// ── Probabilidad por defecto ──────────────────────────────────────────────────

func TestDefaultProbability_PorEtapa(t *testing.T) {
	cases := map[pipeline.Stage]int{
		pipeline.Prospeccion: 10,
		pipeline.Diagnostico: 25,
		pipeline.Propuesta:   50,
		pipeline.Seguimiento: 70,
		pipeline.CierreG:     100,
		pipeline.CierreP:     0,
	}
	for stage, want := range cases {
		assert.Equal(t, want, pipeline.DefaultProbability(stage), "etapa %s", stage)
		// Función pura: la segunda llamada devuelve lo mismo.
		assert.Equal(t, want, pipeline.DefaultProbability(stage), "etapa %s", stage)
	}
}

func TestDefaultProbability_EtapaDesconocida(t *testing.T) {
	assert.Equal(t, 10, pipeline.DefaultProbability(""))
	assert.Equal(t, 10, pipeline.DefaultProbability("NEGOCIACION"))
}

// ── Orden canónico ────────────────────────────────────────────────────────────

func TestStages_OrdenCanonico(t *testing.T) {
	stages := pipeline.Stages()
	require.Len(t, stages, 6)
	for i, s := range stages {
		assert.Equal(t, i, s.Index(), "índice de %s", s)
	}
	assert.Equal(t, 5, pipeline.CierreP.Index())
	assert.Equal(t, -1, pipeline.Stage("OTRA").Index())
}

func TestIsClosing(t *testing.T) {
	assert.True(t, pipeline.CierreG.IsClosing())
	assert.True(t, pipeline.CierreP.IsClosing())
	for _, s := range []pipeline.Stage{pipeline.Prospeccion, pipeline.Diagnostico, pipeline.Propuesta, pipeline.Seguimiento} {
		assert.False(t, s.IsClosing(), "etapa %s", s)
	}
}

func TestParse(t *testing.T) {
	st, err := pipeline.Parse("PROPUESTA")
	require.NoError(t, err)
	assert.Equal(t, pipeline.Propuesta, st)

	_, err = pipeline.Parse("propuesta")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Política de transición ────────────────────────────────────────────────────

// Desde PROSPECCION no hay límite de avance.
func TestValidateTransition_ProspeccionACierreG(t *testing.T) {
	tr, err := pipeline.ValidateTransition(pipeline.Prospeccion, pipeline.CierreG)
	require.NoError(t, err)
	assert.False(t, tr.Backward)
}

// Salto de 3 etapas desde DIAGNOSTICO hacia una etapa distinta de CIERRE_P.
func TestValidateTransition_DiagnosticoACierreG_Rechazada(t *testing.T) {
	_, err := pipeline.ValidateTransition(pipeline.Diagnostico, pipeline.CierreG)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestValidateTransition_RetrocesoPermitido(t *testing.T) {
	tr, err := pipeline.ValidateTransition(pipeline.Seguimiento, pipeline.Diagnostico)
	require.NoError(t, err)
	assert.True(t, tr.Backward, "el retroceso se marca para advertencia")
}

// Volver a PROSPECCION es retroceso permitido sin advertencia.
func TestValidateTransition_PropuestaAProspeccion(t *testing.T) {
	tr, err := pipeline.ValidateTransition(pipeline.Propuesta, pipeline.Prospeccion)
	require.NoError(t, err)
	assert.False(t, tr.Backward)
}

func TestValidateTransition_PerdidaDesdeCualquierEtapa(t *testing.T) {
	for _, s := range pipeline.Stages() {
		_, err := pipeline.ValidateTransition(s, pipeline.CierreP)
		assert.NoError(t, err, "desde %s", s)
	}
}

func TestValidateTransition_AvanceDeDosEtapas(t *testing.T) {
	_, err := pipeline.ValidateTransition(pipeline.Diagnostico, pipeline.Seguimiento)
	assert.NoError(t, err)
	_, err = pipeline.ValidateTransition(pipeline.Propuesta, pipeline.CierreG)
	assert.NoError(t, err)
}

// Saliendo de CIERRE_G hacia atrás es retroceso (no se limpia nada aquí).
func TestValidateTransition_ReaperturaDesdeCierre(t *testing.T) {
	tr, err := pipeline.ValidateTransition(pipeline.CierreG, pipeline.Seguimiento)
	require.NoError(t, err)
	assert.True(t, tr.Backward)
}

func TestValidateTransition_EtapaDesconocida(t *testing.T) {
	_, err := pipeline.ValidateTransition(pipeline.Prospeccion, "GANADA")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
