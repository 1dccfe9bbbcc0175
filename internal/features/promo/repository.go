package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymlegend.ru/gym-bot/internal/common"
)

// Repository — операции с промокодами в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий промокодов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const codeColumns = `id, code, reward_type, amount, uses_left, total_uses, expires_at, created_by, created_at`

func scanCode(row pgx.Row) (*Code, error) {
	var c Code
	err := row.Scan(&c.ID, &c.Code, &c.RewardType, &c.Amount, &c.UsesLeft, &c.TotalUses,
		&c.ExpiresAt, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPromoNotFound
		}
		return nil, fmt.Errorf("скан промокода: %w", err)
	}
	return &c, nil
}

// Create сохраняет новый промокод. Код должен быть уникален.
func (r *Repository) Create(ctx context.Context, code, rewardType string, amount int64, uses int, expiresAt *time.Time, createdBy int64) (*Code, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO promo_codes (code, reward_type, amount, uses_left, total_uses, expires_at, created_by)
		VALUES ($1, $2, $3, $4, $4, $5, $6)
		ON CONFLICT (code) DO NOTHING
		RETURNING `+codeColumns,
		code, rewardType, amount, uses, expiresAt, createdBy)

	c, err := scanCode(row)
	if errors.Is(err, common.ErrPromoNotFound) {
		return nil, common.ErrPromoExists
	}
	return c, err
}

// GetByCode возвращает промокод по коду.
func (r *Repository) GetByCode(ctx context.Context, code string) (*Code, error) {
	row := r.db.QueryRow(ctx, `SELECT `+codeColumns+` FROM promo_codes WHERE code = $1`, code)
	return scanCode(row)
}

// Delete удаляет промокод вместе с историей использований.
func (r *Repository) Delete(ctx context.Context, code string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM promo_codes WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("удаление промокода: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPromoNotFound
	}
	return nil
}

// List возвращает активные промокоды, новые первыми.
func (r *Repository) List(ctx context.Context, limit int) ([]*Code, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+codeColumns+`
		FROM promo_codes
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("список промокодов: %w", err)
	}
	defer rows.Close()

	var out []*Code
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Redeem активирует промокод для игрока в одной транзакции:
// проверяет срок, списывает одно использование из общего счётчика
// и зачисляет награду. Счётчик никогда не уходит ниже нуля.
func (r *Repository) Redeem(ctx context.Context, code string, playerID int64) (*RedeemResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+codeColumns+` FROM promo_codes WHERE code = $1 FOR UPDATE`, code)
	c, err := scanCode(row)
	if err != nil {
		return nil, err
	}
	if c.Expired(time.Now()) {
		return nil, common.ErrPromoExpired
	}

	tag, err := tx.Exec(ctx, `
		UPDATE promo_codes SET uses_left = uses_left - 1
		WHERE id = $1 AND uses_left > 0`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("списание использования: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, common.ErrPromoExhausted
	}

	var column string
	switch c.RewardType {
	case RewardCoins:
		column = "balance"
	case RewardMagnesia:
		column = "magnesia"
	case RewardPower:
		column = "power"
	default:
		return nil, fmt.Errorf("неизвестная награда промокода: %s", c.RewardType)
	}

	tag, err = tx.Exec(ctx,
		`UPDATE players SET `+column+` = `+column+` + $1, updated_at = NOW() WHERE id = $2`,
		c.Amount, playerID)
	if err != nil {
		return nil, fmt.Errorf("зачисление награды: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, common.ErrPlayerNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}
	return &RedeemResult{Code: c, RewardType: c.RewardType, Amount: c.Amount}, nil
}
