// Package confirm хранит отложенные подтверждения разрушительных операций
// (роспуск клана, удаление игрока, полный сброс) в таблице pending_actions.
// Подтверждения переживают перезапуск бота и истекают по времени.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TTL — время жизни подтверждения.
const TTL = 5 * time.Minute

// Типы отложенных действий.
const (
	ActionDisbandClan  = "disband_clan"
	ActionDeletePlayer = "delete_player"
	ActionDeleteClan   = "delete_clan"
	ActionResetAll     = "reset_all"
)

// Repository предоставляет методы для работы с подтверждениями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий подтверждений.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Save запоминает отложенное действие. Повторный вызов обновляет
// полезную нагрузку и продлевает срок.
func (r *Repository) Save(ctx context.Context, actorID int64, action, payload string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO pending_actions (actor_id, action_type, payload, expires_at)
		VALUES ($1, $2, $3, NOW() + $4::interval)
		ON CONFLICT (actor_id, action_type)
		DO UPDATE SET payload = $3, expires_at = NOW() + $4::interval
	`, actorID, action, payload, fmt.Sprintf("%d seconds", int(TTL.Seconds())))
	if err != nil {
		return fmt.Errorf("ошибка сохранения подтверждения: %w", err)
	}
	return nil
}

// Take забирает неистёкшее отложенное действие и удаляет его.
// Возвращает false, если подтверждать нечего.
func (r *Repository) Take(ctx context.Context, actorID int64, action string) (string, bool, error) {
	var payload string
	err := r.db.QueryRow(ctx, `
		DELETE FROM pending_actions
		WHERE actor_id = $1 AND action_type = $2 AND expires_at > NOW()
		RETURNING payload
	`, actorID, action).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("ошибка чтения подтверждения: %w", err)
	}
	return payload, true, nil
}

// Drop снимает отложенное действие без выполнения (команды с суффиксом «-»).
func (r *Repository) Drop(ctx context.Context, actorID int64, action string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM pending_actions WHERE actor_id = $1 AND action_type = $2
	`, actorID, action)
	if err != nil {
		return fmt.Errorf("ошибка снятия подтверждения: %w", err)
	}
	return nil
}

// Sweep удаляет истёкшие подтверждения. Вызывается планировщиком.
func (r *Repository) Sweep(ctx context.Context) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM pending_actions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки подтверждений: %w", err)
	}
	return ct.RowsAffected(), nil
}
