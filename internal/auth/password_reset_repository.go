package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/spielrunde/cardtable/internal/database"
)

var ErrPasswordResetTokenNotFound = errors.New("password reset token not found")

// PasswordResetRepository handles password reset records in Postgres.
// The table is keyed by email, so at most one live record exists per address.
type PasswordResetRepository struct {
	db *bun.DB
}

func NewPasswordResetRepository(db *bun.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Replace deletes any prior record for the email and inserts a fresh one.
func (r *PasswordResetRepository) Replace(ctx context.Context, email, tokenHash string) error {
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*database.PasswordResetToken)(nil)).
			Where("email = ?", email).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete prior reset record: %w", err)
		}

		record := &database.PasswordResetToken{
			Email:     email,
			TokenHash: tokenHash,
		}
		_, err = tx.NewInsert().
			Model(record).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert reset record: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace reset record: %w", err)
	}

	return nil
}

// GetByEmail retrieves the live reset record for an email
func (r *PasswordResetRepository) GetByEmail(ctx context.Context, email string) (*PasswordResetRecord, error) {
	record := new(database.PasswordResetToken)
	err := r.db.NewSelect().
		Model(record).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPasswordResetTokenNotFound
		}
		return nil, fmt.Errorf("failed to get reset record: %w", err)
	}

	return &PasswordResetRecord{
		Email:     record.Email,
		TokenHash: record.TokenHash,
		CreatedAt: record.CreatedAt,
	}, nil
}

// Delete removes the reset record for an email (after use or expiry)
func (r *PasswordResetRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.NewDelete().
		Model((*database.PasswordResetToken)(nil)).
		Where("email = ?", email).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete reset record: %w", err)
	}

	return nil
}
