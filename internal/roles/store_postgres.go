package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "crewbase/pkg/domain"
	"crewbase/pkg/platform/sentinel"
)

// PostgresOperatorRegistry reads the platform-operator directory.
//
// Expected schema:
//
//	CREATE TABLE platform_operators (
//	    principal_id UUID PRIMARY KEY,
//	    display_name TEXT NOT NULL DEFAULT ''
//	);
type PostgresOperatorRegistry struct {
	db *sql.DB
}

func NewPostgresOperatorRegistry(db *sql.DB) *PostgresOperatorRegistry {
	return &PostgresOperatorRegistry{db: db}
}

func (r *PostgresOperatorRegistry) FindOperator(ctx context.Context, principalID id.PrincipalID) (Operator, error) {
	var op Operator
	var pid uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`SELECT principal_id, display_name FROM platform_operators WHERE principal_id = $1`,
		uuid.UUID(principalID),
	).Scan(&pid, &op.DisplayName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Operator{}, fmt.Errorf("operator not found: %w", sentinel.ErrNotFound)
		}
		return Operator{}, fmt.Errorf("find operator: %w", err)
	}
	op.PrincipalID = id.PrincipalID(pid)
	return op, nil
}

// PostgresMemberRegistry reads the company-member directory.
//
// Expected schema:
//
//	CREATE TABLE company_members (
//	    principal_id UUID PRIMARY KEY,
//	    tenant_id    UUID NOT NULL,
//	    display_name TEXT NOT NULL DEFAULT ''
//	);
type PostgresMemberRegistry struct {
	db *sql.DB
}

func NewPostgresMemberRegistry(db *sql.DB) *PostgresMemberRegistry {
	return &PostgresMemberRegistry{db: db}
}

func (r *PostgresMemberRegistry) FindMember(ctx context.Context, principalID id.PrincipalID) (Member, error) {
	var m Member
	var pid, tid uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`SELECT principal_id, tenant_id, display_name FROM company_members WHERE principal_id = $1`,
		uuid.UUID(principalID),
	).Scan(&pid, &tid, &m.DisplayName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Member{}, fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
		}
		return Member{}, fmt.Errorf("find member: %w", err)
	}
	m.PrincipalID = id.PrincipalID(pid)
	m.TenantID = id.TenantID(tid)
	return m, nil
}
