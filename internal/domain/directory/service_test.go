package directory

import (
	"context"
	"errors"
	"testing"

	"scorecard/internal/domain/auth"
)

type fakeStore struct {
	created      NewPerson
	createdHash  string
	lookupIDs    []string
	displayInfos map[string]DisplayInfo
	people       map[string]Person
	getCalls     int
}

func (f *fakeStore) ListPeople(context.Context, string, Filter) ([]Person, error) {
	return []Person{{ID: "p1"}}, nil
}

func (f *fakeStore) CountPeople(context.Context, string, Filter) (int, error) { return 1, nil }

func (f *fakeStore) GetPerson(_ context.Context, _ string, personID string) (Person, error) {
	f.getCalls++
	if p, ok := f.people[personID]; ok {
		return p, nil
	}
	return Person{}, ErrPersonNotFound
}

func (f *fakeStore) CreatePerson(_ context.Context, _ string, person NewPerson, hash string) (string, error) {
	f.created = person
	f.createdHash = hash
	return "new-id", nil
}

func (f *fakeStore) DisplayInfo(_ context.Context, _ string, ids []string) (map[string]DisplayInfo, error) {
	f.lookupIDs = ids
	return f.displayInfos, nil
}

func TestCreateNormalizesAndHashes(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	id, err := svc.Create(context.Background(), "t1", NewPerson{Email: " Ana@Example.COM ", Name: " Ana ", Role: auth.RoleEmployee, Password: "Secret123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "new-id" {
		t.Fatalf("unexpected id %q", id)
	}
	if store.created.Email != "ana@example.com" || store.created.Name != "Ana" {
		t.Fatalf("expected normalized person, got %+v", store.created)
	}
	if err := auth.CheckPassword(store.createdHash, "Secret123"); err != nil {
		t.Fatalf("expected stored hash to match password: %v", err)
	}
}

func TestLookupDedupesIDs(t *testing.T) {
	store := &fakeStore{displayInfos: map[string]DisplayInfo{"a": {Name: "A"}}}
	svc := NewService(store)

	got, err := svc.Lookup(context.Background(), "t1", []string{"a", "", "b", "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.lookupIDs) != 2 || store.lookupIDs[0] != "a" || store.lookupIDs[1] != "b" {
		t.Fatalf("expected deduped ids, got %v", store.lookupIDs)
	}
	if got["a"].Name != "A" {
		t.Fatalf("unexpected display info: %+v", got)
	}
}

func TestGetRejectsMalformedIDWithoutQuery(t *testing.T) {
	const known = "6f1c8a52-3b0e-4c55-9d57-0c1a2b3c4d5e"
	store := &fakeStore{people: map[string]Person{known: {ID: known, Name: "Ana"}}}
	svc := NewService(store)

	for _, id := range []string{"", "s1", "not-a-uuid", "6f1c8a52"} {
		if _, err := svc.Get(context.Background(), "t1", id); !errors.Is(err, ErrPersonNotFound) {
			t.Fatalf("%q: expected ErrPersonNotFound, got %v", id, err)
		}
	}
	if store.getCalls != 0 {
		t.Fatalf("expected malformed ids to skip the store, got %d calls", store.getCalls)
	}

	person, err := svc.Get(context.Background(), "t1", known)
	if err != nil || person.Name != "Ana" {
		t.Fatalf("expected known person, got %+v, %v", person, err)
	}
	if _, err := svc.Get(context.Background(), "t1", "00000000-0000-0000-0000-000000000001"); !errors.Is(err, ErrPersonNotFound) {
		t.Fatalf("expected unknown uuid to be not found, got %v", err)
	}
}
