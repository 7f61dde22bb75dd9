package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scorecard/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListPeople(ctx context.Context, tenantID string, filter Filter) ([]Person, error) {
	query, args := buildPeopleQuery("SELECT id, email, name, department, role, status, created_at", tenantID, filter)
	query += fmt.Sprintf(" ORDER BY name ASC, id ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Email, &p.Name, &p.Department, &p.Role, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

func (s *Store) CountPeople(ctx context.Context, tenantID string, filter Filter) (int, error) {
	query, args := buildPeopleQuery("SELECT COUNT(1)", tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) GetPerson(ctx context.Context, tenantID, personID string) (Person, error) {
	var p Person
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, name, department, role, status, created_at
    FROM users
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, personID).Scan(&p.ID, &p.Email, &p.Name, &p.Department, &p.Role, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) || querier.HasCode(err, querier.CodeInvalidText) {
		return Person{}, ErrPersonNotFound
	}
	return p, err
}

func (s *Store) CreatePerson(ctx context.Context, tenantID string, person NewPerson, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, name, department, role)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, tenantID, person.Email, passwordHash, person.Name, person.Department, person.Role).Scan(&id)
	if querier.HasCode(err, querier.CodeUniqueViolation) {
		return "", ErrEmailTaken
	}
	return id, err
}

func (s *Store) DisplayInfo(ctx context.Context, tenantID string, personIDs []string) (map[string]DisplayInfo, error) {
	out := make(map[string]DisplayInfo, len(personIDs))
	if len(personIDs) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, department, role
    FROM users
    WHERE tenant_id = $1 AND id::text = ANY($2)
  `, tenantID, personIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var info DisplayInfo
		if err := rows.Scan(&id, &info.Name, &info.Department, &info.Role); err != nil {
			return nil, err
		}
		out[id] = info
	}
	return out, rows.Err()
}

func buildPeopleQuery(prefix, tenantID string, filter Filter) (string, []any) {
	query := prefix + " FROM users WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.Department != "" {
		query += fmt.Sprintf(" AND department = $%d", len(args)+1)
		args = append(args, filter.Department)
	}
	if filter.Role != "" {
		query += fmt.Sprintf(" AND role = $%d", len(args)+1)
		args = append(args, filter.Role)
	}
	return query, args
}
