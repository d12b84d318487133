package usecase_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
	"github.com/asesoriaprevencion/crm-api/internal/application/usecase"
	"github.com/asesoriaprevencion/crm-api/internal/domain"
	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
	"github.com/asesoriaprevencion/crm-api/internal/infrastructure/memory"
)

// fixture casos de uso sobre un store en memoria con un usuario comercial.
type fixture struct {
	store     *memory.Store
	companies *usecase.CompanyUseCase
	opps      *usecase.OpportunityUseCase
	reports   *usecase.ReportUseCase
	seller    *entity.UserSummary
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.NewStore()
	seller := &entity.UserSummary{Name: "Paula Rojas", Email: "paula@example.cl", Role: entity.RoleComercial}
	require.NoError(t, s.Users().Create(context.Background(), seller))

	f := &fixture{store: s, seller: seller}
	f.companies = usecase.NewCompanyUseCase(s, s.Companies(), s.Opportunities(), s.Users())
	f.opps = usecase.NewOpportunityUseCase(s, s.Opportunities(), s.Companies(), s.Users(), nil, zerolog.Nop())
	f.reports = usecase.NewReportUseCase(f.companies, f.opps, nil)
	return f
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func i64Ptr(n int64) *int64   { return &n }

func (f *fixture) mustCompany(t *testing.T, name string) *dto.CompanyResponse {
	t.Helper()
	c, err := f.companies.Create(context.Background(), dto.CreateCompanyRequest{BusinessName: name})
	require.NoError(t, err)
	return c
}

// ── Create ───────────────────────────────────────────────────────────────────

func TestCompanyCreate_CodigosSecuenciales(t *testing.T) {
	f := newFixture(t)

	a := f.mustCompany(t, "Constructora Andes")
	b := f.mustCompany(t, "Minera Norte")

	assert.Equal(t, "CLI-0001", a.Code)
	assert.Equal(t, "CLI-0002", b.Code)
	assert.Equal(t, entity.CompanyStatusActive, a.Status)
}

func TestCompanyCreate_RUTDuplicado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.companies.Create(ctx, dto.CreateCompanyRequest{BusinessName: "A", RUT: strPtr("76.123.456-7")})
	require.NoError(t, err)

	_, err = f.companies.Create(ctx, dto.CreateCompanyRequest{BusinessName: "B", RUT: strPtr(" 76.123.456-7 ")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	n, err := f.store.Companies().Count(ctx, repository.CompanyFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCompanyCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.companies.Create(ctx, dto.CreateCompanyRequest{BusinessName: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.companies.Create(ctx, dto.CreateCompanyRequest{BusinessName: "A", WorkersCount: intPtr(-3)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.companies.Create(ctx, dto.CreateCompanyRequest{BusinessName: "A", AccountOwnerID: i64Ptr(999)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompanyCreate_ConResponsable(t *testing.T) {
	f := newFixture(t)

	c, err := f.companies.Create(context.Background(), dto.CreateCompanyRequest{
		BusinessName: "Acme", AccountOwnerID: &f.seller.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, c.AccountOwner)
	assert.Equal(t, "Paula Rojas", c.AccountOwner.Name)
}

// ── FindOne / FindAll ────────────────────────────────────────────────────────

func TestCompanyFindOne_NoExiste(t *testing.T) {
	_, err := newFixture(t).companies.FindOne(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompanyFindOne_OportunidadesRecientes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.mustCompany(t, "Acme")
	for i := 0; i < 7; i++ {
		_, err := f.opps.Create(ctx, dto.CreateOpportunityRequest{Title: fmt.Sprintf("Opp %d", i), CompanyID: c.ID}, 0)
		require.NoError(t, err)
	}

	detail, err := f.companies.FindOne(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, detail.RecentOpportunities, 5)
	assert.Equal(t, "Acme", detail.BusinessName)
}

func TestCompanyFindAll_FiltrosYPaginacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := f.companies.Create(ctx, dto.CreateCompanyRequest{BusinessName: fmt.Sprintf("Empresa %02d", i), Segment: "PYME"})
		require.NoError(t, err)
	}
	_, err := f.companies.Create(ctx, dto.CreateCompanyRequest{BusinessName: "Gran Minera", Segment: "GRANDE"})
	require.NoError(t, err)

	page, err := f.companies.FindAll(ctx, dto.CompanyQuery{Segment: "PYME"})
	require.NoError(t, err)
	assert.Len(t, page.Data, 10)
	assert.Equal(t, dto.PageMeta{Total: 12, Page: 1, Limit: 10, TotalPages: 2}, page.Meta)

	page, err = f.companies.FindAll(ctx, dto.CompanyQuery{PageRequest: dto.PageRequest{Page: 2, Limit: 10}, Segment: "PYME"})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)

	page, err = f.companies.FindAll(ctx, dto.CompanyQuery{Search: "minera"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Gran Minera", page.Data[0].BusinessName)
}

// ── Update ───────────────────────────────────────────────────────────────────

func TestCompanyUpdate_RUTPropioPermitido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.companies.Create(ctx, dto.CreateCompanyRequest{BusinessName: "A", RUT: strPtr("11.111.111-1")})
	require.NoError(t, err)
	_, err = f.companies.Create(ctx, dto.CreateCompanyRequest{BusinessName: "B", RUT: strPtr("22.222.222-2")})
	require.NoError(t, err)

	updated, err := f.companies.Update(ctx, a.ID, dto.UpdateCompanyRequest{RUT: strPtr("11.111.111-1"), Region: strPtr("Biobío")})
	require.NoError(t, err)
	assert.Equal(t, "Biobío", updated.Region)

	_, err = f.companies.Update(ctx, a.ID, dto.UpdateCompanyRequest{RUT: strPtr("22.222.222-2")})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCompanyUpdate_NoExiste(t *testing.T) {
	_, err := newFixture(t).companies.Update(context.Background(), 5, dto.UpdateCompanyRequest{Region: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompanyUpdate_EstadoYFechas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.mustCompany(t, "Acme")

	_, err := f.companies.Update(ctx, c.ID, dto.UpdateCompanyRequest{Status: strPtr("ARCHIVADA")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.companies.Update(ctx, c.ID, dto.UpdateCompanyRequest{StartDate: strPtr("01-02-2026")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	updated, err := f.companies.Update(ctx, c.ID, dto.UpdateCompanyRequest{
		Status:      strPtr(entity.CompanyStatusSuspended),
		StartDate:   strPtr("2026-01-15"),
		RenewalDate: strPtr("2027-01-15T00:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CompanyStatusSuspended, updated.Status)
	require.NotNil(t, updated.StartDate)
	assert.Equal(t, 2026, updated.StartDate.Year())
	require.NotNil(t, updated.RenewalDate)
	assert.Equal(t, "CLI-0001", updated.Code, "el código no cambia")
}

// ── Remove / Stats ───────────────────────────────────────────────────────────

func TestCompanyRemove_BajaLogica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.mustCompany(t, "Acme")

	res, err := f.companies.Remove(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Empresa marcada como cerrada exitosamente", res.Message)
	assert.Equal(t, entity.CompanyStatusClosed, res.Company.Status)

	again, err := f.companies.FindOne(ctx, c.ID)
	require.NoError(t, err, "la empresa sigue existiendo")
	assert.Equal(t, entity.CompanyStatusClosed, again.Status)

	_, err = f.companies.Remove(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompanyStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.companies.Create(ctx, dto.CreateCompanyRequest{BusinessName: "A", Segment: "PYME", CurrentPhase: "F1"})
	require.NoError(t, err)
	_, err = f.companies.Create(ctx, dto.CreateCompanyRequest{BusinessName: "B", Segment: "PYME"})
	require.NoError(t, err)
	c := f.mustCompany(t, "C")
	_, err = f.companies.Remove(ctx, c.ID)
	require.NoError(t, err)

	stats, err := f.companies.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Contains(t, stats.ByStatus, dto.GroupCountDTO{Key: entity.CompanyStatusActive, Count: 2})
	assert.Contains(t, stats.ByStatus, dto.GroupCountDTO{Key: entity.CompanyStatusClosed, Count: 1})
	assert.Contains(t, stats.BySegment, dto.GroupCountDTO{Key: "PYME", Count: 2})
	assert.Contains(t, stats.ByPhase, dto.GroupCountDTO{Key: "F1", Count: 1})
}
