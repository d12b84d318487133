package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
	"github.com/asesoriaprevencion/crm-api/internal/application/usecase"
	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
	"github.com/asesoriaprevencion/crm-api/internal/infrastructure/memory"
	infrapdf "github.com/asesoriaprevencion/crm-api/internal/infrastructure/pdf"
	apphttp "github.com/asesoriaprevencion/crm-api/internal/interfaces/http"
)

// apiFixture API completa sobre el store en memoria con un usuario por rol.
type apiFixture struct {
	app   *fiber.App
	users map[string]int64
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	s := memory.NewStore()
	f := &apiFixture{users: map[string]int64{}}
	for _, role := range []string{entity.RoleAdmin, entity.RoleCEO, entity.RoleDirComercial, entity.RoleComercial} {
		u := &entity.UserSummary{Name: role, Email: role + "@example.cl", Role: role}
		require.NoError(t, s.Users().Create(context.Background(), u))
		f.users[role] = u.ID
	}

	companyUC := usecase.NewCompanyUseCase(s, s.Companies(), s.Opportunities(), s.Users())
	opportunityUC := usecase.NewOpportunityUseCase(s, s.Opportunities(), s.Companies(), s.Users(), nil, zerolog.Nop())
	reportUC := usecase.NewReportUseCase(companyUC, opportunityUC, infrapdf.NewPipelineReportGenerator())

	f.app = fiber.New()
	apphttp.Router(f.app, apphttp.RouterDeps{
		CompanyUC:     companyUC,
		OpportunityUC: opportunityUC,
		ReportUC:      reportUC,
		JWTSecret:     testJWTSecret,
	})
	return f
}

// do ejecuta la petición autenticada con el rol indicado y decodifica la respuesta en out (si no es nil).
func (f *apiFixture) do(t *testing.T, role, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenFor(t, f.users[role], role))

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *apiFixture) createCompany(t *testing.T, name, rut string) dto.CompanyResponse {
	t.Helper()
	var c dto.CompanyResponse
	body := map[string]any{"business_name": name}
	if rut != "" {
		body["rut"] = rut
	}
	require.Equal(t, http.StatusCreated, f.do(t, entity.RoleComercial, http.MethodPost, "/api/companies", body, &c))
	return c
}

func (f *apiFixture) createOpportunity(t *testing.T, companyID int64) dto.OpportunityResponse {
	t.Helper()
	var o dto.OpportunityResponse
	body := map[string]any{"title": "Asesoría DS44", "company_id": companyID, "estimated_amount_clp": 1500000}
	require.Equal(t, http.StatusCreated, f.do(t, entity.RoleComercial, http.MethodPost, "/api/opportunities", body, &o))
	return o
}

// ── Companies ────────────────────────────────────────────────────────────────

func TestAPI_CrearEmpresa(t *testing.T) {
	f := newAPI(t)

	c := f.createCompany(t, "Constructora Andes", "76.123.456-7")
	assert.Equal(t, "CLI-0001", c.Code)
	assert.Equal(t, entity.CompanyStatusActive, c.Status)

	var conflict dto.ErrorResponse
	status := f.do(t, entity.RoleComercial, http.MethodPost, "/api/companies",
		map[string]any{"business_name": "Otra", "rut": "76.123.456-7"}, &conflict)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", conflict.Code)
}

func TestAPI_EmpresaNoExiste_Retorna404(t *testing.T) {
	f := newAPI(t)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusNotFound, f.do(t, entity.RoleComercial, http.MethodGet, "/api/companies/999", nil, &e))
	assert.Equal(t, "NOT_FOUND", e.Code)

	assert.Equal(t, http.StatusBadRequest, f.do(t, entity.RoleComercial, http.MethodGet, "/api/companies/abc", nil, &e))
	assert.Equal(t, "INVALID_ID", e.Code)
}

func TestAPI_ValidacionRetorna400(t *testing.T) {
	f := newAPI(t)

	var e dto.ErrorResponse
	status := f.do(t, entity.RoleComercial, http.MethodPost, "/api/companies", map[string]any{"business_name": ""}, &e)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", e.Code)
}

func TestAPI_BajaEmpresaSoloEjecutivos(t *testing.T) {
	f := newAPI(t)
	c := f.createCompany(t, "Minera Norte", "")

	var e dto.ErrorResponse
	path := "/api/companies/" + itoa(c.ID)
	assert.Equal(t, http.StatusForbidden, f.do(t, entity.RoleComercial, http.MethodDelete, path, nil, &e))
	assert.Equal(t, http.StatusForbidden, f.do(t, entity.RoleDirComercial, http.MethodDelete, path, nil, &e))

	var removed dto.CompanyRemovedResponse
	assert.Equal(t, http.StatusOK, f.do(t, entity.RoleCEO, http.MethodDelete, path, nil, &removed))
	assert.Equal(t, entity.CompanyStatusClosed, removed.Company.Status)
}

func TestAPI_ListadoEmpresasPaginado(t *testing.T) {
	f := newAPI(t)
	for _, n := range []string{"Alfa", "Beta", "Gamma"} {
		f.createCompany(t, n, "")
	}

	var list dto.CompanyListResponse
	require.Equal(t, http.StatusOK, f.do(t, entity.RoleComercial, http.MethodGet, "/api/companies?page=2&limit=2", nil, &list))
	assert.Len(t, list.Data, 1)
	assert.Equal(t, 3, list.Meta.Total)
	assert.Equal(t, 2, list.Meta.TotalPages)
}

// ── Opportunities ────────────────────────────────────────────────────────────

func TestAPI_CrearOportunidad_ResponsableDelToken(t *testing.T) {
	f := newAPI(t)
	c := f.createCompany(t, "Constructora Andes", "")

	o := f.createOpportunity(t, c.ID)
	assert.Equal(t, "OPP-0001", o.Code)
	assert.Equal(t, "PROSPECCION", o.PipelineStage)
	require.NotNil(t, o.OwnerID)
	assert.Equal(t, f.users[entity.RoleComercial], *o.OwnerID)
}

func TestAPI_CambioDeEtapa(t *testing.T) {
	f := newAPI(t)
	c := f.createCompany(t, "Constructora Andes", "")
	o := f.createOpportunity(t, c.ID)
	path := "/api/opportunities/" + itoa(o.ID) + "/stage"

	var moved dto.OpportunityResponse
	require.Equal(t, http.StatusOK, f.do(t, entity.RoleComercial, http.MethodPatch, path,
		dto.UpdateStageRequest{PipelineStage: "DIAGNOSTICO"}, &moved))
	assert.Equal(t, "DIAGNOSTICO", moved.PipelineStage)
	assert.Equal(t, 25, moved.ProbabilityPercent)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, entity.RoleComercial, http.MethodPatch, path,
		dto.UpdateStageRequest{PipelineStage: "CIERRE_G"}, &e))
	assert.Equal(t, "INVALID_TRANSITION", e.Code)

	assert.Equal(t, http.StatusBadRequest, f.do(t, entity.RoleComercial, http.MethodPatch, path,
		dto.UpdateStageRequest{PipelineStage: "GANADA"}, &e))
	assert.Equal(t, "VALIDATION", e.Code)
}

func TestAPI_EliminarOportunidad_RolGerencial(t *testing.T) {
	f := newAPI(t)
	c := f.createCompany(t, "Constructora Andes", "")
	o := f.createOpportunity(t, c.ID)
	path := "/api/opportunities/" + itoa(o.ID)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusForbidden, f.do(t, entity.RoleComercial, http.MethodDelete, path, nil, &e))

	var msg dto.MessageResponse
	assert.Equal(t, http.StatusOK, f.do(t, entity.RoleDirComercial, http.MethodDelete, path, nil, &msg))
	assert.NotEmpty(t, msg.Message)
	assert.Equal(t, http.StatusNotFound, f.do(t, entity.RoleComercial, http.MethodGet, path, nil, &e))
}

// ── Reports ──────────────────────────────────────────────────────────────────

func TestAPI_ReportePipeline(t *testing.T) {
	f := newAPI(t)
	c := f.createCompany(t, "Constructora Andes", "")
	f.createOpportunity(t, c.ID)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusForbidden, f.do(t, entity.RoleComercial, http.MethodGet, "/api/reports/pipeline", nil, &e))

	var summary dto.PipelineSummary
	require.Equal(t, http.StatusOK, f.do(t, entity.RoleCEO, http.MethodGet, "/api/reports/pipeline", nil, &summary))
	assert.Equal(t, 1, summary.Opportunities.Total)
	assert.Equal(t, 1, summary.OpenCount)
}

func TestAPI_ReportePipelinePDF(t *testing.T) {
	f := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/pipeline.pdf", nil)
	req.Header.Set("Authorization", tokenFor(t, f.users[entity.RoleAdmin], entity.RoleAdmin))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
