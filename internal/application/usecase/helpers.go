package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
	"github.com/asesoriaprevencion/crm-api/internal/domain"
	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
)

// parseDate acepta "2006-01-02" o RFC 3339. Cadena vacía = sin cambio (nil).
func parseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s no es una fecha válida: %q", domain.ErrInvalidInput, field, s)
}

// normalizeRUT recorta espacios; un RUT vacío equivale a no tener RUT.
func normalizeRUT(rut *string) *string {
	if rut == nil {
		return nil
	}
	v := strings.TrimSpace(*rut)
	if v == "" {
		return nil
	}
	return &v
}

// userLookup resuelve responsables con caché por llamada (listados).
type userLookup struct {
	repo  repository.UserRepository
	cache map[int64]*entity.UserSummary
}

func newUserLookup(repo repository.UserRepository) *userLookup {
	return &userLookup{repo: repo, cache: make(map[int64]*entity.UserSummary)}
}

func (l *userLookup) get(ctx context.Context, id *int64) (*entity.UserSummary, error) {
	if id == nil || l.repo == nil {
		return nil, nil
	}
	if u, ok := l.cache[*id]; ok {
		return u, nil
	}
	u, err := l.repo.GetSummary(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("obtener usuario %d: %w", *id, err)
	}
	l.cache[*id] = u
	return u, nil
}

// requireUser verifica que el usuario exista.
func requireUser(ctx context.Context, repo repository.UserRepository, id int64) error {
	if repo == nil {
		return nil
	}
	u, err := repo.GetSummary(ctx, id)
	if err != nil {
		return fmt.Errorf("obtener usuario %d: %w", id, err)
	}
	if u == nil {
		return fmt.Errorf("%w: usuario con ID %d no encontrado", domain.ErrNotFound, id)
	}
	return nil
}

func toUserSummaryResponse(u *entity.UserSummary) *dto.UserSummaryResponse {
	if u == nil {
		return nil
	}
	return &dto.UserSummaryResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func toGroupCounts(in []repository.GroupCount) []dto.GroupCountDTO {
	out := make([]dto.GroupCountDTO, 0, len(in))
	for _, g := range in {
		out = append(out, dto.GroupCountDTO{Key: g.Key, Count: g.Count})
	}
	return out
}
