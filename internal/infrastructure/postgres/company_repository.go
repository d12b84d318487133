package postgres

import (
	"context"
	"fmt"

	"github.com/asesoriaprevencion/crm-api/internal/domain"
	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

const companyColumns = `
	id, code, business_name, COALESCE(trade_name, ''), rut, COALESCE(industry, ''),
	COALESCE(segment, ''), workers_count, COALESCE(address, ''), COALESCE(commune, ''),
	COALESCE(region, ''), COALESCE(admin_body, ''), COALESCE(website, ''),
	COALESCE(main_contact_name, ''), COALESCE(main_contact_role, ''),
	COALESCE(main_contact_email, ''), COALESCE(main_contact_phone, ''),
	COALESCE(current_phase, ''), COALESCE(current_services, ''),
	start_date, renewal_date, status, account_owner_id, created_at, updated_at`

// companyGroupColumns columnas permitidas en CountBy.
var companyGroupColumns = map[string]bool{"status": true, "segment": true, "current_phase": true}

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL (pool o tx).
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas. Pasar pool o tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste una nueva empresa y completa su ID.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	query := `
		INSERT INTO companies (
			code, business_name, trade_name, rut, industry, segment, workers_count,
			address, commune, region, admin_body, website,
			main_contact_name, main_contact_role, main_contact_email, main_contact_phone,
			current_phase, current_services, start_date, renewal_date, status,
			account_owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		c.Code, c.BusinessName, nullIfEmpty(c.TradeName), c.RUT, nullIfEmpty(c.Industry),
		nullIfEmpty(c.Segment), c.WorkersCount, nullIfEmpty(c.Address), nullIfEmpty(c.Commune),
		nullIfEmpty(c.Region), nullIfEmpty(c.AdminBody), nullIfEmpty(c.Website),
		nullIfEmpty(c.MainContactName), nullIfEmpty(c.MainContactRole),
		nullIfEmpty(c.MainContactEmail), nullIfEmpty(c.MainContactPhone),
		nullIfEmpty(c.CurrentPhase), nullIfEmpty(c.CurrentServices),
		c.StartDate, c.RenewalDate, c.Status, c.AccountOwnerID, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: RUT o código de empresa duplicado", domain.ErrConflict)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// GetByRUT obtiene una empresa por RUT.
func (r *CompanyRepo) GetByRUT(ctx context.Context, rut string) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE rut = $1`, rut))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company by RUT: %w", err)
	}
	return c, nil
}

// Update actualiza una empresa existente. El código no se modifica.
func (r *CompanyRepo) Update(ctx context.Context, c *entity.Company) error {
	query := `
		UPDATE companies SET
			business_name = $2, trade_name = $3, rut = $4, industry = $5, segment = $6,
			workers_count = $7, address = $8, commune = $9, region = $10, admin_body = $11,
			website = $12, main_contact_name = $13, main_contact_role = $14,
			main_contact_email = $15, main_contact_phone = $16, current_phase = $17,
			current_services = $18, start_date = $19, renewal_date = $20, status = $21,
			account_owner_id = $22, updated_at = $23
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		c.ID, c.BusinessName, nullIfEmpty(c.TradeName), c.RUT, nullIfEmpty(c.Industry),
		nullIfEmpty(c.Segment), c.WorkersCount, nullIfEmpty(c.Address), nullIfEmpty(c.Commune),
		nullIfEmpty(c.Region), nullIfEmpty(c.AdminBody), nullIfEmpty(c.Website),
		nullIfEmpty(c.MainContactName), nullIfEmpty(c.MainContactRole),
		nullIfEmpty(c.MainContactEmail), nullIfEmpty(c.MainContactPhone),
		nullIfEmpty(c.CurrentPhase), nullIfEmpty(c.CurrentServices),
		c.StartDate, c.RenewalDate, c.Status, c.AccountOwnerID, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: RUT %s ya registrado", domain.ErrConflict, deref(c.RUT))
		}
		return fmt.Errorf("update company: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: empresa con ID %d no encontrada", domain.ErrNotFound, c.ID)
	}
	return nil
}

// List devuelve empresas filtradas, más recientes primero.
func (r *CompanyRepo) List(ctx context.Context, f repository.CompanyFilter, limit, offset int) ([]*entity.Company, error) {
	w := companyWhere(f)
	query := `SELECT ` + companyColumns + ` FROM companies` + w.sql() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + w.next()
	args := append(w.args, limit)
	query += ` OFFSET ` + placeholder(len(args)+1)
	args = append(args, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var list []*entity.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Count total de empresas que cumplen el filtro.
func (r *CompanyRepo) Count(ctx context.Context, f repository.CompanyFilter) (int, error) {
	w := companyWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM companies`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return n, nil
}

// CountBy agrupa por status, segment o current_phase.
func (r *CompanyRepo) CountBy(ctx context.Context, field string) ([]repository.GroupCount, error) {
	if !companyGroupColumns[field] {
		return nil, fmt.Errorf("%w: no se puede agrupar empresas por %q", domain.ErrInvalidInput, field)
	}
	return groupCount(ctx, r.q, "companies", field)
}

func companyWhere(f repository.CompanyFilter) *where {
	w := &where{}
	if f.Search != "" {
		w.add(`(business_name ILIKE ? ESCAPE '\' OR trade_name ILIKE ? ESCAPE '\' OR rut ILIKE ? ESCAPE '\')`,
			"%"+escapeLike(f.Search)+"%")
	}
	if f.Segment != "" {
		w.add("segment = ?", f.Segment)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Region != "" {
		w.add("region = ?", f.Region)
	}
	return w
}

func scanCompany(row pgxScanner) (*entity.Company, error) {
	var c entity.Company
	err := row.Scan(
		&c.ID, &c.Code, &c.BusinessName, &c.TradeName, &c.RUT, &c.Industry,
		&c.Segment, &c.WorkersCount, &c.Address, &c.Commune,
		&c.Region, &c.AdminBody, &c.Website,
		&c.MainContactName, &c.MainContactRole,
		&c.MainContactEmail, &c.MainContactPhone,
		&c.CurrentPhase, &c.CurrentServices,
		&c.StartDate, &c.RenewalDate, &c.Status, &c.AccountOwnerID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// groupCount ejecuta SELECT field, COUNT(*) … GROUP BY field. field debe venir de una lista blanca.
func groupCount(ctx context.Context, q Querier, table, field string) ([]repository.GroupCount, error) {
	query := fmt.Sprintf(`SELECT COALESCE(%[1]s, ''), COUNT(*) FROM %[2]s GROUP BY %[1]s ORDER BY COUNT(*) DESC, 1`, field, table)
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count %s by %s: %w", table, field, err)
	}
	defer rows.Close()

	out := make([]repository.GroupCount, 0)
	for rows.Next() {
		var g repository.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, fmt.Errorf("scan group count: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
