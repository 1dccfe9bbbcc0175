// Package players — repository.go выполняет все операции с таблицей players.
// Денежные операции выполняются в транзакциях БД с блокировкой строк FOR UPDATE.
package players

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/features/clans"
)

// Repository предоставляет методы для работы с игроками.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий игроков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const playerColumns = `
	id, tg_id, COALESCE(username, ''), COALESCE(nickname, ''),
	balance, magnesia, power, dumbbell_level, custom_income,
	total_lifts, total_earned, last_lift_at,
	clan_id, COALESCE(clan_role, ''), clan_contribution,
	banned_until, perm_banned, COALESCE(ban_reason, ''),
	admin_level, COALESCE(admin_nick, ''), created_at
`

func scanPlayer(row pgx.Row) (*Player, error) {
	var p Player
	err := row.Scan(
		&p.ID, &p.TgID, &p.Username, &p.Nickname,
		&p.Balance, &p.Magnesia, &p.Power, &p.DumbbellLevel, &p.CustomIncome,
		&p.TotalLifts, &p.TotalEarned, &p.LastLiftAt,
		&p.ClanID, &p.ClanRole, &p.Contribution,
		&p.BannedUntil, &p.PermBanned, &p.BanReason,
		&p.AdminLevel, &p.AdminNick, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("ошибка чтения игрока: %w", err)
	}
	return &p, nil
}

// Ensure регистрирует игрока при первом обращении и обновляет username.
// Повторный вызов безопасен.
func (r *Repository) Ensure(ctx context.Context, tgID int64, username string) (*Player, error) {
	query := `
		INSERT INTO players (tg_id, username)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (tg_id) DO UPDATE SET username = NULLIF($2, ''), updated_at = NOW()
		RETURNING ` + playerColumns
	return scanPlayer(r.db.QueryRow(ctx, query, tgID, username))
}

// GetByID возвращает игрока по игровому ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	return scanPlayer(r.db.QueryRow(ctx, query, id))
}

// GetByTgID возвращает игрока по Telegram ID.
func (r *Repository) GetByTgID(ctx context.Context, tgID int64) (*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE tg_id = $1`
	return scanPlayer(r.db.QueryRow(ctx, query, tgID))
}

// NicknameTaken проверяет, занят ли ник другим игроком (без учёта регистра).
func (r *Repository) NicknameTaken(ctx context.Context, nickname string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM players WHERE LOWER(nickname) = LOWER($1) AND id <> $2)
	`, nickname, exceptID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки ника: %w", err)
	}
	return taken, nil
}

// SetNickname сохраняет игровой ник.
func (r *Repository) SetNickname(ctx context.Context, id int64, nickname string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE players SET nickname = $2, updated_at = NOW() WHERE id = $1
	`, id, nickname)
	if err != nil {
		return fmt.Errorf("ошибка сохранения ника: %w", err)
	}
	return nil
}

// Transfer переводит монеты между игроками с удержанием комиссии.
// Получатель получает amount, отправитель теряет amount + fee.
// Атомарная операция: строки обоих игроков блокируются в порядке возрастания ID,
// чтобы встречные переводы не взаимоблокировались.
func (r *Repository) Transfer(ctx context.Context, fromID, toID, amount, fee int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	firstID, secondID := fromID, toID
	if toID < fromID {
		firstID, secondID = toID, fromID
	}
	for _, id := range []int64{firstID, secondID} {
		if _, err := tx.Exec(ctx, `SELECT 1 FROM players WHERE id = $1 FOR UPDATE`, id); err != nil {
			return fmt.Errorf("ошибка блокировки игрока %d: %w", id, err)
		}
	}

	var balance int64
	err = tx.QueryRow(ctx, `SELECT balance FROM players WHERE id = $1`, fromID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrPlayerNotFound
		}
		return fmt.Errorf("ошибка получения баланса: %w", err)
	}
	if balance < amount+fee {
		return common.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		UPDATE players SET balance = balance - $2, updated_at = NOW() WHERE id = $1
	`, fromID, amount+fee)
	if err != nil {
		return fmt.Errorf("ошибка списания: %w", err)
	}

	ct, err := tx.Exec(ctx, `
		UPDATE players SET balance = balance + $2, updated_at = NOW() WHERE id = $1
	`, toID, amount)
	if err != nil {
		return fmt.Errorf("ошибка зачисления: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (from_player_id, to_player_id, amount, fee, tx_type, description)
		VALUES ($1, $2, $3, $4, 'transfer', 'перевод между игроками')
	`, fromID, toID, amount, fee)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// Lift выполняет одно поднятие: начисляет доход и силу, обновляет счётчики
// и, если игрок в клане, зачисляет клановый бонус в казну.
// Откат проверяется внутри транзакции по заблокированной строке, поэтому
// два параллельных «поднять» не пройдут оба.
func (r *Repository) Lift(ctx context.Context, playerID int64, income, powerGain int64, cooldown time.Duration) (*LiftResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		lastLift *time.Time
		clanID   *int64
	)
	err = tx.QueryRow(ctx, `
		SELECT last_lift_at, clan_id FROM players WHERE id = $1 FOR UPDATE
	`, playerID).Scan(&lastLift, &clanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("ошибка блокировки игрока: %w", err)
	}

	now := time.Now()
	if lastLift != nil {
		if elapsed := now.Sub(*lastLift); elapsed < cooldown {
			return &LiftResult{Remaining: cooldown - elapsed}, common.ErrLiftCooldown
		}
	}

	res := &LiftResult{Income: income, PowerGain: powerGain}
	err = tx.QueryRow(ctx, `
		UPDATE players
		SET balance = balance + $2,
		    power = power + $3,
		    total_lifts = total_lifts + 1,
		    total_earned = total_earned + $2,
		    last_lift_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING balance, power, total_lifts
	`, playerID, income, powerGain).Scan(&res.NewBalance, &res.NewPower, &res.TotalLifts)
	if err != nil {
		return nil, fmt.Errorf("ошибка начисления за поднятие: %w", err)
	}

	if clanID != nil {
		var level int
		err = tx.QueryRow(ctx, `
			SELECT level FROM clans WHERE id = $1 FOR UPDATE
		`, *clanID).Scan(&level)
		if err != nil {
			return nil, fmt.Errorf("ошибка блокировки клана: %w", err)
		}
		bonus := clans.LiftBonus(level)
		_, err = tx.Exec(ctx, `
			UPDATE clans SET treasury = treasury + $2 WHERE id = $1
		`, *clanID, bonus)
		if err != nil {
			return nil, fmt.Errorf("ошибка начисления в казну: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO clan_treasury_log (clan_id, player_id, amount, op)
			VALUES ($1, $2, $3, 'lift_bonus')
		`, *clanID, playerID, bonus)
		if err != nil {
			return nil, fmt.Errorf("ошибка записи лога казны: %w", err)
		}
		res.ClanBonus = bonus
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return res, nil
}

// BuyDumbbell покупает гантелю следующего уровня.
// Проверка уровня и баланса выполняется под блокировкой строки.
func (r *Repository) BuyDumbbell(ctx context.Context, playerID int64, newLevel int, price int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	var current int
	err = tx.QueryRow(ctx, `
		SELECT balance, dumbbell_level FROM players WHERE id = $1 FOR UPDATE
	`, playerID).Scan(&balance, &current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrPlayerNotFound
		}
		return fmt.Errorf("ошибка блокировки игрока: %w", err)
	}

	if current >= MaxDumbbellLevel {
		return common.ErrMaxDumbbell
	}
	if newLevel != current+1 {
		return fmt.Errorf("гантели покупаются по порядку: следующая %d", current+1)
	}
	if balance < price {
		return common.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		UPDATE players
		SET balance = balance - $2, dumbbell_level = $3, updated_at = NOW()
		WHERE id = $1
	`, playerID, price, newLevel)
	if err != nil {
		return fmt.Errorf("ошибка покупки гантели: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (from_player_id, amount, tx_type, description)
		VALUES ($1, $2, 'dumbbell', 'покупка гантели уровня ' || $3::text)
	`, playerID, price, newLevel)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// Top возвращает таблицу лидеров по выбранному показателю.
func (r *Repository) Top(ctx context.Context, kind TopKind, limit int) ([]*Player, error) {
	order := "balance DESC"
	switch kind {
	case TopByLifts:
		order = "total_lifts DESC"
	case TopByEarned:
		order = "total_earned DESC"
	}
	query := `SELECT ` + playerColumns + ` FROM players
		WHERE perm_banned = FALSE
		ORDER BY ` + order + `, id ASC
		LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса топа: %w", err)
	}
	defer rows.Close()

	var out []*Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
