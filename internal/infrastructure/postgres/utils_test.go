package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
)

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"Acme":    "Acme",
		"100%":    `100\%`,
		"a_b":     `a\_b`,
		`c:\ruta`: `c:\\ruta`,
		`%_\`:     `\%\_\\`,
	}
	for in, want := range cases {
		assert.Equal(t, want, escapeLike(in), in)
	}
}

func TestCompanyWhere_BusquedaLiteral(t *testing.T) {
	w := companyWhere(repository.CompanyFilter{Search: "50%_off", Status: "ACTIVE"})

	assert.Equal(t,
		` WHERE (business_name ILIKE $1 ESCAPE '\' OR trade_name ILIKE $1 ESCAPE '\' OR rut ILIKE $1 ESCAPE '\') AND status = $2`,
		w.sql())
	require.Len(t, w.args, 2)
	assert.Equal(t, `%50\%\_off%`, w.args[0])
	assert.Equal(t, "ACTIVE", w.args[1])
}

func TestCompanyWhere_SinFiltros(t *testing.T) {
	w := companyWhere(repository.CompanyFilter{})
	assert.Empty(t, w.sql())
	assert.Equal(t, "$1", w.next())
}
