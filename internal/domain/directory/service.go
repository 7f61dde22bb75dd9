package directory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"scorecard/internal/domain/auth"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, tenantID string, filter Filter) ([]Person, int, error) {
	total, err := s.store.CountPeople(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	people, err := s.store.ListPeople(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return people, total, nil
}

// Get resolves a person inside the tenant. Ids that are not UUIDs are reported
// as ErrPersonNotFound without a round trip.
func (s *Service) Get(ctx context.Context, tenantID, personID string) (Person, error) {
	if !ValidID(personID) {
		return Person{}, ErrPersonNotFound
	}
	return s.store.GetPerson(ctx, tenantID, personID)
}

func (s *Service) Create(ctx context.Context, tenantID string, person NewPerson) (string, error) {
	person.Email = strings.ToLower(strings.TrimSpace(person.Email))
	person.Name = strings.TrimSpace(person.Name)
	person.Department = strings.TrimSpace(person.Department)
	hash, err := auth.HashPassword(person.Password)
	if err != nil {
		return "", err
	}
	return s.store.CreatePerson(ctx, tenantID, person, hash)
}

// Lookup resolves ids to display details. Unknown ids are absent from the result.
func (s *Service) Lookup(ctx context.Context, tenantID string, personIDs []string) (map[string]DisplayInfo, error) {
	return s.store.DisplayInfo(ctx, tenantID, dedupe(personIDs))
}

// ValidID reports whether id is a hyphenated UUID as stored in users.id.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
