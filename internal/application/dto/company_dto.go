package dto

import "time"

// CreateCompanyRequest entrada para crear una empresa.
type CreateCompanyRequest struct {
	BusinessName     string  `json:"business_name" validate:"required,max=255"`
	TradeName        string  `json:"trade_name" validate:"max=255"`
	RUT              *string `json:"rut"`
	Industry         string  `json:"industry"`
	Segment          string  `json:"segment"`
	WorkersCount     *int    `json:"workers_count" validate:"omitempty,min=0"`
	Address          string  `json:"address"`
	Commune          string  `json:"commune"`
	Region           string  `json:"region"`
	AdminBody        string  `json:"admin_body"`
	Website          string  `json:"website"`
	MainContactName  string  `json:"main_contact_name"`
	MainContactRole  string  `json:"main_contact_role"`
	MainContactEmail string  `json:"main_contact_email" validate:"omitempty,email"`
	MainContactPhone string  `json:"main_contact_phone"`
	CurrentPhase     string  `json:"current_phase"`
	CurrentServices  string  `json:"current_services"`
	AccountOwnerID   *int64  `json:"account_owner_id"`
}

// UpdateCompanyRequest entrada para actualizar una empresa (campos opcionales).
// Las fechas aceptan "2006-01-02" o RFC 3339.
type UpdateCompanyRequest struct {
	BusinessName     *string `json:"business_name"`
	TradeName        *string `json:"trade_name"`
	RUT              *string `json:"rut"`
	Industry         *string `json:"industry"`
	Segment          *string `json:"segment"`
	WorkersCount     *int    `json:"workers_count"`
	Address          *string `json:"address"`
	Commune          *string `json:"commune"`
	Region           *string `json:"region"`
	AdminBody        *string `json:"admin_body"`
	Website          *string `json:"website"`
	MainContactName  *string `json:"main_contact_name"`
	MainContactRole  *string `json:"main_contact_role"`
	MainContactEmail *string `json:"main_contact_email"`
	MainContactPhone *string `json:"main_contact_phone"`
	CurrentPhase     *string `json:"current_phase"`
	CurrentServices  *string `json:"current_services"`
	AccountOwnerID   *int64  `json:"account_owner_id"`
	Status           *string `json:"status" validate:"omitempty,oneof=ACTIVE PROSPECT SUSPENDED CLOSED"`
	StartDate        *string `json:"start_date"`
	RenewalDate      *string `json:"renewal_date"`
}

// CompanyQuery filtros y paginación del listado de empresas.
type CompanyQuery struct {
	PageRequest
	Search  string `query:"search"`
	Segment string `query:"segment"`
	Status  string `query:"status"`
	Region  string `query:"region"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID               int64                `json:"id"`
	Code             string               `json:"code"`
	BusinessName     string               `json:"business_name"`
	TradeName        string               `json:"trade_name,omitempty"`
	RUT              *string              `json:"rut,omitempty"`
	Industry         string               `json:"industry,omitempty"`
	Segment          string               `json:"segment,omitempty"`
	WorkersCount     *int                 `json:"workers_count,omitempty"`
	Address          string               `json:"address,omitempty"`
	Commune          string               `json:"commune,omitempty"`
	Region           string               `json:"region,omitempty"`
	AdminBody        string               `json:"admin_body,omitempty"`
	Website          string               `json:"website,omitempty"`
	MainContactName  string               `json:"main_contact_name,omitempty"`
	MainContactRole  string               `json:"main_contact_role,omitempty"`
	MainContactEmail string               `json:"main_contact_email,omitempty"`
	MainContactPhone string               `json:"main_contact_phone,omitempty"`
	CurrentPhase     string               `json:"current_phase,omitempty"`
	CurrentServices  string               `json:"current_services,omitempty"`
	StartDate        *time.Time           `json:"start_date,omitempty"`
	RenewalDate      *time.Time           `json:"renewal_date,omitempty"`
	Status           string               `json:"status"`
	AccountOwnerID   *int64               `json:"account_owner_id,omitempty"`
	AccountOwner     *UserSummaryResponse `json:"account_owner,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// CompanyDetailResponse empresa con sus oportunidades más recientes.
type CompanyDetailResponse struct {
	CompanyResponse
	RecentOpportunities []OpportunityBrief `json:"recent_opportunities"`
}

// CompanySummary resumen de la empresa dueña de una oportunidad.
type CompanySummary struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	BusinessName string `json:"business_name"`
	TradeName    string `json:"trade_name,omitempty"`
	Segment      string `json:"segment,omitempty"`
	WorkersCount *int   `json:"workers_count,omitempty"`
	Region       string `json:"region,omitempty"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Data []CompanyResponse `json:"data"`
	Meta PageMeta          `json:"meta"`
}

// CompanyRemovedResponse confirmación de baja lógica.
type CompanyRemovedResponse struct {
	Message string          `json:"message"`
	Company CompanyResponse `json:"company"`
}

// CompanyStats resumen agregado de empresas.
type CompanyStats struct {
	Total     int             `json:"total"`
	ByStatus  []GroupCountDTO `json:"by_status"`
	BySegment []GroupCountDTO `json:"by_segment"`
	ByPhase   []GroupCountDTO `json:"by_phase"`
}
