package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/internal/identity/store"
)

var psq = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var accountColumns = []string{
	"id",
	"email",
	"first_name",
	"last_name",
	"password_hash",
	"is_active",
	"mfa_secret",
	"mfa_enabled",
	"created_at",
	"updated_at",
}

type accountsRepo struct {
	db     dbtx
	atomic func(ctx context.Context, fn func(dbtx) error) error
}

var _ store.Accounts = (*accountsRepo)(nil)

func (r *accountsRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query, args, err := psq.Select("COUNT(1)").
		From("accounts").
		Where(sq.Eq{"email": domain.NormalizeEmail(email)}).
		ToSql()
	if err != nil {
		return false, err
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.getOne(ctx, sq.Eq{"email": domain.NormalizeEmail(email)})
}

func (r *accountsRepo) Count(ctx context.Context) (int, error) {
	query, args, err := psq.Select("COUNT(1)").From("accounts").ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	rec := a.Record()

	query, args, err := psq.Insert("accounts").
		Columns(accountColumns...).
		Values(
			rec.ID,
			rec.Email,
			rec.FirstName,
			rec.LastName,
			rec.PasswordHash,
			rec.IsActive,
			nullString(rec.MFASecret),
			rec.MFAEnabled,
			rec.CreatedAt.UnixNano(),
			rec.UpdatedAt.UnixNano(),
		).
		ToSql()
	if err != nil {
		return err
	}

	return r.atomic(ctx, func(q dbtx) error {
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return mapConstraint(err)
		}
		return insertRoles(ctx, q, rec.ID, rec.Roles)
	})
}

func (r *accountsRepo) Update(ctx context.Context, a domain.Account) error {
	rec := a.Record()

	query, args, err := psq.Update("accounts").
		SetMap(map[string]any{
			"email":         rec.Email,
			"first_name":    rec.FirstName,
			"last_name":     rec.LastName,
			"password_hash": rec.PasswordHash,
			"is_active":     rec.IsActive,
			"mfa_secret":    nullString(rec.MFASecret),
			"mfa_enabled":   rec.MFAEnabled,
			"updated_at":    rec.UpdatedAt.UnixNano(),
		}).
		Where(sq.Eq{"id": rec.ID}).
		ToSql()
	if err != nil {
		return err
	}

	del, delArgs, err := psq.Delete("account_roles").Where(sq.Eq{"account_id": rec.ID}).ToSql()
	if err != nil {
		return err
	}

	return r.atomic(ctx, func(q dbtx) error {
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return mapConstraint(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}

		if _, err := q.ExecContext(ctx, del, delArgs...); err != nil {
			return err
		}
		return insertRoles(ctx, q, rec.ID, rec.Roles)
	})
}

func insertRoles(ctx context.Context, q dbtx, accountID string, roles []domain.Role) error {
	if len(roles) == 0 {
		return nil
	}

	ins := psq.Insert("account_roles").Columns("account_id", "role", "position")
	for i, role := range roles {
		ins = ins.Values(accountID, string(role), i)
	}

	query, args, err := ins.ToSql()
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *accountsRepo) getOne(ctx context.Context, where sq.Sqlizer) (domain.Account, error) {
	query, args, err := psq.Select(accountColumns...).From("accounts").Where(where).ToSql()
	if err != nil {
		return domain.Account{}, err
	}

	var (
		rec       domain.AccountRecord
		mfaSecret sql.NullString
		createdAt int64
		updatedAt int64
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.ID,
		&rec.Email,
		&rec.FirstName,
		&rec.LastName,
		&rec.PasswordHash,
		&rec.IsActive,
		&mfaSecret,
		&rec.MFAEnabled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	rec.MFASecret = mfaSecret.String
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	rec.UpdatedAt = time.Unix(0, updatedAt).UTC()

	rec.Roles, err = r.roles(ctx, rec.ID)
	if err != nil {
		return domain.Account{}, err
	}

	a, err := domain.RestoreAccount(rec)
	if err != nil {
		// A stored row that breaks the invariants is an internal failure,
		// not a validation problem of the caller.
		return domain.Account{}, fmt.Errorf("sqlite: account %s is corrupt: %s", rec.ID, err.Error())
	}
	return a, nil
}

func (r *accountsRepo) roles(ctx context.Context, accountID string) ([]domain.Role, error) {
	query, args, err := psq.Select("role").
		From("account_roles").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, domain.Role(role))
	}
	return roles, errors.Join(rows.Err(), rows.Close())
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
