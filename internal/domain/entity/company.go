package entity

import "time"

// Estados del ciclo de vida de una empresa cliente.
const (
	CompanyStatusActive    = "ACTIVE"
	CompanyStatusProspect  = "PROSPECT"
	CompanyStatusSuspended = "SUSPENDED"
	CompanyStatusClosed    = "CLOSED" // baja lógica
)

// CompanyCodePrefix prefijo de la familia de códigos de empresas (CLI-0001).
const CompanyCodePrefix = "CLI"

// Company representa una empresa cliente del CRM.
type Company struct {
	ID               int64
	Code             string  // CLI-####, asignado al crear e inmutable
	BusinessName     string  // razón social
	TradeName        string  // nombre de fantasía
	RUT              *string // único cuando está presente
	Industry         string
	Segment          string
	WorkersCount     *int
	Address          string
	Commune          string
	Region           string
	AdminBody        string // organismo administrador (ACHS, IST, Mutual, ISL)
	Website          string
	MainContactName  string
	MainContactRole  string
	MainContactEmail string
	MainContactPhone string
	CurrentPhase     string
	CurrentServices  string
	StartDate        *time.Time
	RenewalDate      *time.Time
	Status           string
	AccountOwnerID   *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsValidCompanyStatus informa si s es un estado conocido.
func IsValidCompanyStatus(s string) bool {
	switch s {
	case CompanyStatusActive, CompanyStatusProspect, CompanyStatusSuspended, CompanyStatusClosed:
		return true
	}
	return false
}
