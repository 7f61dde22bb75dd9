package directory

import "context"

type StoreAPI interface {
	ListPeople(ctx context.Context, tenantID string, filter Filter) ([]Person, error)
	CountPeople(ctx context.Context, tenantID string, filter Filter) (int, error)
	GetPerson(ctx context.Context, tenantID, personID string) (Person, error)
	CreatePerson(ctx context.Context, tenantID string, person NewPerson, passwordHash string) (string, error)
	DisplayInfo(ctx context.Context, tenantID string, personIDs []string) (map[string]DisplayInfo, error)
}
