// Package directory translates user and franchise references into contact
// identities. Lookups that find nothing return a nil result and a nil error;
// only infrastructure failures are reported as errors.
package directory

import (
	"context"
	"database/sql"
	"errors"

	apperrors "franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/models"

	"github.com/jmoiron/sqlx"
)

type Directory interface {
	GetUserByID(ctx context.Context, userID string) (*models.UserEmailInfo, error)
	GetFranchiseOwner(ctx context.Context, franchiseID string) (*models.UserEmailInfo, error)
	GetFranchiseName(ctx context.Context, franchiseID string) (string, error)
	ListActiveAdmins(ctx context.Context) ([]models.UserEmailInfo, error)
}

const (
	userColumns = `u.id, u.email, u.name, u.role, u.franchise_id, u.phone`

	queryUserByID = `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	queryFranchiseOwner = `SELECT ` + userColumns + `
		FROM franchises f
		JOIN users u ON u.id = f.owner_user_id
		WHERE f.id = $1`

	queryFranchiseName = `SELECT business_name FROM franchises WHERE id = $1`

	queryActiveAdmins = `SELECT ` + userColumns + `
		FROM users u
		WHERE u.role = 'ADMIN' AND u.is_active = TRUE
		ORDER BY u.email`
)

// PostgresDirectory reads the users and franchises tables owned by the
// surrounding platform.
type PostgresDirectory struct {
	db *sqlx.DB
}

func NewPostgresDirectory(db *sqlx.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) GetUserByID(ctx context.Context, userID string) (*models.UserEmailInfo, error) {
	return d.getUser(ctx, "getUserById", queryUserByID, userID)
}

func (d *PostgresDirectory) GetFranchiseOwner(ctx context.Context, franchiseID string) (*models.UserEmailInfo, error) {
	return d.getUser(ctx, "getFranchiseOwner", queryFranchiseOwner, franchiseID)
}

func (d *PostgresDirectory) getUser(ctx context.Context, lookup, query, id string) (*models.UserEmailInfo, error) {
	if id == "" {
		return nil, nil
	}

	var user models.UserEmailInfo
	if err := d.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewDirectoryLookupFailedError(lookup, err)
	}
	return &user, nil
}

func (d *PostgresDirectory) GetFranchiseName(ctx context.Context, franchiseID string) (string, error) {
	if franchiseID == "" {
		return "", nil
	}

	var name sql.NullString
	if err := d.db.GetContext(ctx, &name, queryFranchiseName, franchiseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", apperrors.NewDirectoryLookupFailedError("getFranchiseName", err)
	}
	return name.String, nil
}

func (d *PostgresDirectory) ListActiveAdmins(ctx context.Context) ([]models.UserEmailInfo, error) {
	admins := []models.UserEmailInfo{}
	if err := d.db.SelectContext(ctx, &admins, queryActiveAdmins); err != nil {
		return nil, apperrors.NewDirectoryLookupFailedError("listActiveAdmins", err)
	}
	return admins, nil
}
