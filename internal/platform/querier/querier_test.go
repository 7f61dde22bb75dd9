package querier

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestHasCode(t *testing.T) {
	fk := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeForeignKeyViolation})

	if !HasCode(fk, CodeInvalidText, CodeForeignKeyViolation) {
		t.Fatal("expected wrapped foreign key violation to match")
	}
	if HasCode(fk, CodeUniqueViolation) {
		t.Fatal("expected unique violation not to match")
	}
	if HasCode(errors.New("plain"), CodeForeignKeyViolation) {
		t.Fatal("expected non-pg error not to match")
	}
	if HasCode(nil, CodeForeignKeyViolation) {
		t.Fatal("expected nil not to match")
	}
}
