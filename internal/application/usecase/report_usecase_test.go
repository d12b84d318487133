package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
	"github.com/asesoriaprevencion/crm-api/internal/application/usecase"
	"github.com/asesoriaprevencion/crm-api/internal/domain/pipeline"
)

type mockRenderer struct{ mock.Mock }

func (m *mockRenderer) RenderPipelineReport(ctx context.Context, s *dto.PipelineSummary) ([]byte, error) {
	args := m.Called(ctx, s)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type failingStats struct{}

func (failingStats) Stats(context.Context) (*dto.CompanyStats, error) {
	return nil, errors.New("db caída")
}

func TestPipelineSummary_Derivados(t *testing.T) {
	f := newFixture(t)
	c := f.mustCompany(t, "Acme")
	f.mustOpportunity(t, c.ID, pipeline.Propuesta)
	f.mustOpportunity(t, c.ID, pipeline.CierreG)
	f.mustOpportunity(t, c.ID, pipeline.CierreG)
	f.mustOpportunity(t, c.ID, pipeline.CierreG)
	f.mustOpportunity(t, c.ID, pipeline.CierreP)

	s, err := f.reports.PipelineSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Companies.Total)
	assert.Equal(t, 5, s.Opportunities.Total)
	assert.Equal(t, 3, s.WonCount)
	assert.Equal(t, 1, s.LostCount)
	assert.Equal(t, 1, s.OpenCount)
	assert.True(t, s.WinRatePercent.Equal(decimal.NewFromInt(75)), "got %s", s.WinRatePercent)
	assert.False(t, s.GeneratedAt.IsZero())
}

func TestPipelineSummary_SinCierres(t *testing.T) {
	f := newFixture(t)

	s, err := f.reports.PipelineSummary(context.Background())
	require.NoError(t, err)
	assert.True(t, s.WinRatePercent.IsZero())
	assert.Zero(t, s.OpenCount)
}

func TestPipelineSummary_PropagaError(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewReportUseCase(failingStats{}, f.opps, nil)

	_, err := uc.PipelineSummary(context.Background())
	assert.ErrorContains(t, err, "db caída")
}

func TestPipelinePDF_UsaRenderer(t *testing.T) {
	f := newFixture(t)
	r := new(mockRenderer)
	r.On("RenderPipelineReport", mock.Anything, mock.AnythingOfType("*dto.PipelineSummary")).
		Return([]byte("%PDF-1.3"), nil).Once()
	uc := usecase.NewReportUseCase(f.companies, f.opps, r)

	out, err := uc.PipelinePDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3"), out)
	r.AssertExpectations(t)
}

func TestPipelinePDF_SinRenderer(t *testing.T) {
	_, err := newFixture(t).reports.PipelinePDF(context.Background())
	assert.Error(t, err)
}
