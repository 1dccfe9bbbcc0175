// Package clans — repository.go выполняет все операции с таблицами clans,
// clan_bans, clan_log и clan_treasury_log, а также с клановыми колонками players.
// Каждая денежная операция — одна транзакция БД с блокировкой строк FOR UPDATE,
// поэтому параллельные вклады и снятия не теряют обновления.
package clans

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymlegend.ru/gym-bot/internal/common"
)

// Repository предоставляет методы для работы с кланами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий кланов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const clanColumns = `
	c.id, c.tag, c.name, c.owner_id, c.level, c.treasury,
	COALESCE(c.description, ''), COALESCE(c.greeting, ''), c.min_dumbbell,
	(SELECT COUNT(*) FROM players p WHERE p.clan_id = c.id), c.created_at
`

func scanClan(row pgx.Row) (*Clan, error) {
	var c Clan
	err := row.Scan(
		&c.ID, &c.Tag, &c.Name, &c.OwnerID, &c.Level, &c.Treasury,
		&c.Description, &c.Greeting, &c.MinDumbbell, &c.MemberCount, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrClanNotFound
		}
		return nil, fmt.Errorf("ошибка чтения клана: %w", err)
	}
	return &c, nil
}

// GetByID возвращает клан по ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Clan, error) {
	query := `SELECT ` + clanColumns + ` FROM clans c WHERE c.id = $1`
	return scanClan(r.db.QueryRow(ctx, query, id))
}

// GetByTag возвращает клан по тегу (без учёта регистра).
func (r *Repository) GetByTag(ctx context.Context, tag string) (*Clan, error) {
	query := `SELECT ` + clanColumns + ` FROM clans c WHERE UPPER(c.tag) = UPPER($1)`
	return scanClan(r.db.QueryRow(ctx, query, tag))
}

// SearchByName ищет кланы по подстроке названия.
func (r *Repository) SearchByName(ctx context.Context, q string, limit int) ([]*Clan, error) {
	query := `SELECT ` + clanColumns + ` FROM clans c
		WHERE c.name ILIKE '%' || $1 || '%'
		ORDER BY c.level DESC, c.treasury DESC
		LIMIT $2`
	return r.queryClans(ctx, query, q, limit)
}

// Top возвращает топ кланов по уровню и казне.
func (r *Repository) Top(ctx context.Context, limit int) ([]*Clan, error) {
	query := `SELECT ` + clanColumns + ` FROM clans c
		ORDER BY c.level DESC, c.treasury DESC, c.id ASC
		LIMIT $1`
	return r.queryClans(ctx, query, limit)
}

func (r *Repository) queryClans(ctx context.Context, query string, args ...any) ([]*Clan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса кланов: %w", err)
	}
	defer rows.Close()

	var out []*Clan
	for rows.Next() {
		c, err := scanClan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create создаёт клан: списывает взнос с владельца и сажает его в клан.
// Уникальность тега и названия проверяется в той же транзакции.
func (r *Repository) Create(ctx context.Context, ownerID int64, tag, name string, fee int64) (*Clan, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	var clanID *int64
	err = tx.QueryRow(ctx, `
		SELECT balance, clan_id FROM players WHERE id = $1 FOR UPDATE
	`, ownerID).Scan(&balance, &clanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("ошибка блокировки игрока: %w", err)
	}
	if clanID != nil {
		return nil, common.ErrAlreadyInClan
	}
	if balance < fee {
		return nil, common.ErrInsufficientBalance
	}

	var tagTaken, nameTaken bool
	err = tx.QueryRow(ctx, `
		SELECT
			EXISTS(SELECT 1 FROM clans WHERE UPPER(tag) = UPPER($1)),
			EXISTS(SELECT 1 FROM clans WHERE LOWER(name) = LOWER($2))
	`, tag, name).Scan(&tagTaken, &nameTaken)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки уникальности: %w", err)
	}
	if tagTaken {
		return nil, common.ErrClanTagTaken
	}
	if nameTaken {
		return nil, common.ErrClanNameTaken
	}

	var newID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO clans (tag, name, owner_id, level, treasury)
		VALUES ($1, $2, $3, 1, 0)
		RETURNING id
	`, tag, name, ownerID).Scan(&newID)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клана: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE players
		SET balance = balance - $2, clan_id = $3, clan_role = $4,
		    clan_contribution = 0, updated_at = NOW()
		WHERE id = $1
	`, ownerID, fee, newID, RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("ошибка списания взноса: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clan_log (clan_id, actor_id, action, details)
		VALUES ($1, $2, $3, 'клан создан')
	`, newID, ownerID, OpCreate)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи лога: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return r.GetByID(ctx, newID)
}

// Join вступает в клан. Бан-лист, требование по гантеле и лимит участников
// проверяются под блокировкой строки клана.
func (r *Repository) Join(ctx context.Context, clanID, playerID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var curClan *int64
	var dumbbell int
	err = tx.QueryRow(ctx, `
		SELECT clan_id, dumbbell_level FROM players WHERE id = $1 FOR UPDATE
	`, playerID).Scan(&curClan, &dumbbell)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrPlayerNotFound
		}
		return fmt.Errorf("ошибка блокировки игрока: %w", err)
	}
	if curClan != nil {
		return common.ErrAlreadyInClan
	}

	var level, minDumbbell int
	err = tx.QueryRow(ctx, `
		SELECT level, min_dumbbell FROM clans WHERE id = $1 FOR UPDATE
	`, clanID).Scan(&level, &minDumbbell)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrClanNotFound
		}
		return fmt.Errorf("ошибка блокировки клана: %w", err)
	}

	var banned bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM clan_bans WHERE clan_id = $1 AND player_id = $2)
	`, clanID, playerID).Scan(&banned)
	if err != nil {
		return fmt.Errorf("ошибка проверки бан-листа: %w", err)
	}
	if banned {
		return common.ErrBanned
	}
	if dumbbell < minDumbbell {
		return common.ErrPermissionDenied
	}

	var members int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM players WHERE clan_id = $1`, clanID).Scan(&members)
	if err != nil {
		return fmt.Errorf("ошибка подсчёта участников: %w", err)
	}
	if members >= BonusesForLevel(level).MemberLimit {
		return common.ErrClanFull
	}

	_, err = tx.Exec(ctx, `
		UPDATE players
		SET clan_id = $2, clan_role = $3, clan_contribution = 0, updated_at = NOW()
		WHERE id = $1
	`, playerID, clanID, RoleMember)
	if err != nil {
		return fmt.Errorf("ошибка вступления: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clan_log (clan_id, actor_id, action, details)
		VALUES ($1, $2, 'join', 'вступил в клан')
	`, clanID, playerID)
	if err != nil {
		return fmt.Errorf("ошибка записи лога: %w", err)
	}

	return tx.Commit(ctx)
}

// Leave выходит из клана (для не-владельца).
func (r *Repository) Leave(ctx context.Context, clanID, playerID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE players
		SET clan_id = NULL, clan_role = NULL, clan_contribution = 0, updated_at = NOW()
		WHERE id = $1 AND clan_id = $2
	`, playerID, clanID)
	if err != nil {
		return fmt.Errorf("ошибка выхода из клана: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotInClan
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clan_log (clan_id, actor_id, action, details)
		VALUES ($1, $2, 'leave', 'покинул клан')
	`, clanID, playerID)
	if err != nil {
		return fmt.Errorf("ошибка записи лога: %w", err)
	}

	return tx.Commit(ctx)
}

// Kick исключает участника и заносит его в бан-лист клана.
func (r *Repository) Kick(ctx context.Context, clanID, actorID, targetID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE players
		SET clan_id = NULL, clan_role = NULL, clan_contribution = 0, updated_at = NOW()
		WHERE id = $1 AND clan_id = $2
	`, targetID, clanID)
	if err != nil {
		return fmt.Errorf("ошибка исключения: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotInClan
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clan_bans (clan_id, player_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, clanID, targetID)
	if err != nil {
		return fmt.Errorf("ошибка записи в бан-лист: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clan_log (clan_id, actor_id, action, details)
		VALUES ($1, $2, 'kick', 'исключил игрока ' || $3::text)
	`, clanID, actorID, targetID)
	if err != nil {
		return fmt.Errorf("ошибка записи лога: %w", err)
	}

	return tx.Commit(ctx)
}

// Unban убирает игрока из бан-листа клана (команда «к восстановить»).
func (r *Repository) Unban(ctx context.Context, clanID, actorID, targetID int64) error {
	ct, err := r.db.Exec(ctx, `
		DELETE FROM clan_bans WHERE clan_id = $1 AND player_id = $2
	`, clanID, targetID)
	if err != nil {
		return fmt.Errorf("ошибка восстановления: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO clan_log (clan_id, actor_id, action, details)
		VALUES ($1, $2, 'unban', 'восстановил игрока ' || $3::text)
	`, clanID, actorID, targetID)
	if err != nil {
		return fmt.Errorf("ошибка записи лога: %w", err)
	}
	return nil
}

// TransferOwnership передаёт клан новому владельцу.
// Взнос списывается со старого владельца, он становится заместителем.
func (r *Repository) TransferOwnership(ctx context.Context, clanID, oldOwnerID, newOwnerID, fee int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM players WHERE id = $1 AND clan_id = $2 FOR UPDATE
	`, oldOwnerID, clanID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrNotInClan
		}
		return fmt.Errorf("ошибка блокировки владельца: %w", err)
	}
	if balance < fee {
		return common.ErrInsufficientBalance
	}

	ct, err := tx.Exec(ctx, `
		UPDATE players SET clan_role = $3, updated_at = NOW()
		WHERE id = $1 AND clan_id = $2
	`, newOwnerID, clanID, RoleOwner)
	if err != nil {
		return fmt.Errorf("ошибка назначения владельца: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotInClan
	}

	_, err = tx.Exec(ctx, `
		UPDATE players SET balance = balance - $3, clan_role = $4, updated_at = NOW()
		WHERE id = $1 AND clan_id = $2
	`, oldOwnerID, clanID, fee, RoleOfficer)
	if err != nil {
		return fmt.Errorf("ошибка понижения старого владельца: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE clans SET owner_id = $2 WHERE id = $1`, clanID, newOwnerID)
	if err != nil {
		return fmt.Errorf("ошибка смены владельца: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clan_log (clan_id, actor_id, action, details)
		VALUES ($1, $2, $3, 'передал клан игроку ' || $4::text)
	`, clanID, oldOwnerID, OpTransfer, newOwnerID)
	if err != nil {
		return fmt.Errorf("ошибка записи лога: %w", err)
	}

	return tx.Commit(ctx)
}

// Disband распускает клан: очищает членство всех участников и удаляет клан
// вместе с логами и бан-листом (ON DELETE CASCADE).
func (r *Repository) Disband(ctx context.Context, clanID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE players
		SET clan_id = NULL, clan_role = NULL, clan_contribution = 0, updated_at = NOW()
		WHERE clan_id = $1
	`, clanID)
	if err != nil {
		return fmt.Errorf("ошибка очистки членства: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM clans WHERE id = $1`, clanID)
	if err != nil {
		return fmt.Errorf("ошибка удаления клана: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrClanNotFound
	}

	return tx.Commit(ctx)
}

// Rename переименовывает клан с проверкой уникальности названия.
func (r *Repository) Rename(ctx context.Context, clanID, actorID int64, name string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var taken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM clans WHERE LOWER(name) = LOWER($1) AND id <> $2)
	`, name, clanID).Scan(&taken)
	if err != nil {
		return fmt.Errorf("ошибка проверки названия: %w", err)
	}
	if taken {
		return common.ErrClanNameTaken
	}

	_, err = tx.Exec(ctx, `UPDATE clans SET name = $2 WHERE id = $1`, clanID, name)
	if err != nil {
		return fmt.Errorf("ошибка переименования: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO clan_log (clan_id, actor_id, action, details)
		VALUES ($1, $2, 'rename', 'новое название: ' || $3)
	`, clanID, actorID, name)
	if err != nil {
		return fmt.Errorf("ошибка записи лога: %w", err)
	}

	return tx.Commit(ctx)
}

// SetDescription сохраняет описание клана.
func (r *Repository) SetDescription(ctx context.Context, clanID, actorID int64, text string) error {
	return r.setField(ctx, clanID, actorID, "description", "description", text)
}

// SetGreeting сохраняет приветствие клана (пустая строка очищает).
func (r *Repository) SetGreeting(ctx context.Context, clanID, actorID int64, text string) error {
	return r.setField(ctx, clanID, actorID, "greeting", "greeting", text)
}

func (r *Repository) setField(ctx context.Context, clanID, actorID int64, column, action, text string) error {
	_, err := r.db.Exec(ctx, `UPDATE clans SET `+column+` = $2 WHERE id = $1`, clanID, text)
	if err != nil {
		return fmt.Errorf("ошибка обновления клана: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO clan_log (clan_id, actor_id, action, details)
		VALUES ($1, $2, $3, 'изменено')
	`, clanID, actorID, action)
	if err != nil {
		return fmt.Errorf("ошибка записи лога: %w", err)
	}
	return nil
}

// SetRequirement сохраняет минимальный уровень гантели для вступления.
func (r *Repository) SetRequirement(ctx context.Context, clanID, actorID int64, minDumbbell int) error {
	_, err := r.db.Exec(ctx, `UPDATE clans SET min_dumbbell = $2 WHERE id = $1`, clanID, minDumbbell)
	if err != nil {
		return fmt.Errorf("ошибка обновления требования: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO clan_log (clan_id, actor_id, action, details)
		VALUES ($1, $2, 'requirement', 'минимальная гантеля: ' || $3::text)
	`, clanID, actorID, minDumbbell)
	if err != nil {
		return fmt.Errorf("ошибка записи лога: %w", err)
	}
	return nil
}

// SetRole меняет роль участника (назначение/снятие заместителя).
func (r *Repository) SetRole(ctx context.Context, clanID, actorID, targetID int64, role string) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE players SET clan_role = $3, updated_at = NOW()
		WHERE id = $1 AND clan_id = $2
	`, targetID, clanID, role)
	if err != nil {
		return fmt.Errorf("ошибка смены роли: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotInClan
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO clan_log (clan_id, actor_id, action, details)
		VALUES ($1, $2, 'role', 'игрок ' || $3::text || ' теперь ' || $4)
	`, clanID, actorID, targetID, role)
	if err != nil {
		return fmt.Errorf("ошибка записи лога: %w", err)
	}
	return nil
}

// Deposit кладёт монеты игрока в казну и увеличивает его счётчик вклада.
func (r *Repository) Deposit(ctx context.Context, clanID, playerID, amount int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM players WHERE id = $1 AND clan_id = $2 FOR UPDATE
	`, playerID, clanID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrNotInClan
		}
		return 0, fmt.Errorf("ошибка блокировки игрока: %w", err)
	}
	if balance < amount {
		return 0, common.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		UPDATE players
		SET balance = balance - $2, clan_contribution = clan_contribution + $2, updated_at = NOW()
		WHERE id = $1
	`, playerID, amount)
	if err != nil {
		return 0, fmt.Errorf("ошибка списания: %w", err)
	}

	var newTreasury int64
	err = tx.QueryRow(ctx, `
		UPDATE clans SET treasury = treasury + $2 WHERE id = $1 RETURNING treasury
	`, clanID, amount).Scan(&newTreasury)
	if err != nil {
		return 0, fmt.Errorf("ошибка пополнения казны: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clan_treasury_log (clan_id, player_id, amount, op)
		VALUES ($1, $2, $3, $4)
	`, clanID, playerID, amount, OpDeposit)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи лога казны: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return newTreasury, nil
}

// Withdraw снимает монеты из казны на баланс игрока.
func (r *Repository) Withdraw(ctx context.Context, clanID, playerID, amount int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var treasury int64
	err = tx.QueryRow(ctx, `
		SELECT treasury FROM clans WHERE id = $1 FOR UPDATE
	`, clanID).Scan(&treasury)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrClanNotFound
		}
		return 0, fmt.Errorf("ошибка блокировки клана: %w", err)
	}
	if treasury < amount {
		return 0, common.ErrInsufficientTreasury
	}

	var newTreasury int64
	err = tx.QueryRow(ctx, `
		UPDATE clans SET treasury = treasury - $2 WHERE id = $1 RETURNING treasury
	`, clanID, amount).Scan(&newTreasury)
	if err != nil {
		return 0, fmt.Errorf("ошибка снятия из казны: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE players SET balance = balance + $2, updated_at = NOW() WHERE id = $1
	`, playerID, amount)
	if err != nil {
		return 0, fmt.Errorf("ошибка зачисления: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clan_treasury_log (clan_id, player_id, amount, op)
		VALUES ($1, $2, $3, $4)
	`, clanID, playerID, amount, OpWithdraw)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи лога казны: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return newTreasury, nil
}

// DistributeEqual раздаёт perMember монет каждому участнику клана из казны.
func (r *Repository) DistributeEqual(ctx context.Context, clanID, actorID, perMember int64) (*DistributeResult, error) {
	return r.distribute(ctx, clanID, actorID, perMember, 0)
}

// DistributeTop раздаёт perMember монет каждому из topN участников
// с наибольшим вкладом (равные вклады упорядочены по ID).
func (r *Repository) DistributeTop(ctx context.Context, clanID, actorID, perMember int64, topN int) (*DistributeResult, error) {
	return r.distribute(ctx, clanID, actorID, perMember, topN)
}

func (r *Repository) distribute(ctx context.Context, clanID, actorID, perMember int64, topN int) (*DistributeResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var treasury int64
	err = tx.QueryRow(ctx, `
		SELECT treasury FROM clans WHERE id = $1 FOR UPDATE
	`, clanID).Scan(&treasury)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrClanNotFound
		}
		return nil, fmt.Errorf("ошибка блокировки клана: %w", err)
	}

	query := `
		SELECT id, COALESCE(nickname, COALESCE(username, 'Игрок ' || id::text)), clan_contribution
		FROM players WHERE clan_id = $1
		ORDER BY clan_contribution DESC, id ASC`
	args := []any{clanID}
	if topN > 0 {
		query += ` LIMIT $2`
		args = append(args, topN)
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки участников: %w", err)
	}
	var recipients []*Contributor
	for rows.Next() {
		var c Contributor
		if err := rows.Scan(&c.PlayerID, &c.Name, &c.Contribution); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ошибка чтения участника: %w", err)
		}
		recipients = append(recipients, &c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка выборки участников: %w", err)
	}
	if len(recipients) == 0 {
		return nil, common.ErrClanNotFound
	}

	total := perMember * int64(len(recipients))
	if treasury < total {
		return nil, common.ErrInsufficientTreasury
	}

	for _, rec := range recipients {
		_, err = tx.Exec(ctx, `
			UPDATE players SET balance = balance + $2, updated_at = NOW() WHERE id = $1
		`, rec.PlayerID, perMember)
		if err != nil {
			return nil, fmt.Errorf("ошибка зачисления участнику %d: %w", rec.PlayerID, err)
		}
	}

	res := &DistributeResult{Recipients: recipients, PerMember: perMember, Total: total}
	err = tx.QueryRow(ctx, `
		UPDATE clans SET treasury = treasury - $2 WHERE id = $1 RETURNING treasury
	`, clanID, total).Scan(&res.NewTreasury)
	if err != nil {
		return nil, fmt.Errorf("ошибка списания из казны: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clan_treasury_log (clan_id, player_id, amount, op)
		VALUES ($1, $2, $3, $4)
	`, clanID, actorID, total, OpDistribute)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи лога казны: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return res, nil
}

// Upgrade повышает уровень клана за счёт казны.
// Стоимость каждого следующего уровня — baseCost × текущий уровень.
// maxLevels ограничивает число уровней за один вызов (1 — «улучшить»,
// большое число — «улучшить макс»).
func (r *Repository) Upgrade(ctx context.Context, clanID int64, baseCost int64, maxLevels, levelCap int) (*UpgradeResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var level int
	var treasury int64
	err = tx.QueryRow(ctx, `
		SELECT level, treasury FROM clans WHERE id = $1 FOR UPDATE
	`, clanID).Scan(&level, &treasury)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrClanNotFound
		}
		return nil, fmt.Errorf("ошибка блокировки клана: %w", err)
	}

	res := &UpgradeResult{OldLevel: level, NewLevel: level, NewTreasury: treasury}
	for i := 0; i < maxLevels && res.NewLevel < levelCap; i++ {
		cost := UpgradeCost(baseCost, res.NewLevel)
		if res.NewTreasury < cost {
			break
		}
		res.NewTreasury -= cost
		res.Spent += cost
		res.NewLevel++
	}

	if res.NewLevel == res.OldLevel {
		if level >= levelCap {
			return nil, common.ErrClanMaxLevel
		}
		return nil, common.ErrInsufficientTreasury
	}

	_, err = tx.Exec(ctx, `
		UPDATE clans SET level = $2, treasury = $3 WHERE id = $1
	`, clanID, res.NewLevel, res.NewTreasury)
	if err != nil {
		return nil, fmt.Errorf("ошибка улучшения клана: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clan_treasury_log (clan_id, player_id, amount, op)
		VALUES ($1, 0, $2, $3)
	`, clanID, res.Spent, OpUpgrade)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи лога казны: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return res, nil
}

// Members возвращает участников клана, владелец и заместители первыми.
func (r *Repository) Members(ctx context.Context, clanID int64) ([]*Member, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, COALESCE(nickname, COALESCE(username, 'Игрок ' || id::text)),
		       COALESCE(clan_role, ''), clan_contribution, power, updated_at
		FROM players WHERE clan_id = $1
		ORDER BY CASE clan_role WHEN 'owner' THEN 0 WHEN 'officer' THEN 1 ELSE 2 END, id ASC
	`, clanID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса участников: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.PlayerID, &m.Name, &m.Role, &m.Contribution, &m.Power, &m.JoinedClanAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения участника: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// Contributors возвращает участников по убыванию вклада.
func (r *Repository) Contributors(ctx context.Context, clanID int64, limit int) ([]*Contributor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, COALESCE(nickname, COALESCE(username, 'Игрок ' || id::text)), clan_contribution
		FROM players WHERE clan_id = $1
		ORDER BY clan_contribution DESC, id ASC
		LIMIT $2
	`, clanID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса вкладов: %w", err)
	}
	defer rows.Close()

	var out []*Contributor
	for rows.Next() {
		var c Contributor
		if err := rows.Scan(&c.PlayerID, &c.Name, &c.Contribution); err != nil {
			return nil, fmt.Errorf("ошибка чтения вклада: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// TreasuryLog возвращает последние операции с казной.
func (r *Repository) TreasuryLog(ctx context.Context, clanID int64, limit int) ([]*TreasuryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.player_id,
		       COALESCE(p.nickname, COALESCE(p.username, 'Игрок ' || l.player_id::text)),
		       l.amount, l.op, l.created_at
		FROM clan_treasury_log l
		LEFT JOIN players p ON p.id = l.player_id
		WHERE l.clan_id = $1
		ORDER BY l.created_at DESC
		LIMIT $2
	`, clanID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса лога казны: %w", err)
	}
	defer rows.Close()

	var out []*TreasuryEntry
	for rows.Next() {
		var e TreasuryEntry
		if err := rows.Scan(&e.PlayerID, &e.Name, &e.Amount, &e.Op, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения лога казны: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ActionLog возвращает последние действия в клане.
func (r *Repository) ActionLog(ctx context.Context, clanID int64, limit int) ([]*LogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.actor_id,
		       COALESCE(p.nickname, COALESCE(p.username, 'Игрок ' || l.actor_id::text)),
		       l.action, COALESCE(l.details, ''), l.created_at
		FROM clan_log l
		LEFT JOIN players p ON p.id = l.actor_id
		WHERE l.clan_id = $1
		ORDER BY l.created_at DESC
		LIMIT $2
	`, clanID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса лога клана: %w", err)
	}
	defer rows.Close()

	var out []*LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ActorID, &e.Name, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения лога клана: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// MemberRole возвращает клан и роль игрока.
func (r *Repository) MemberRole(ctx context.Context, playerID int64) (*int64, string, error) {
	var clanID *int64
	var role *string
	err := r.db.QueryRow(ctx, `
		SELECT clan_id, clan_role FROM players WHERE id = $1
	`, playerID).Scan(&clanID, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", common.ErrPlayerNotFound
		}
		return nil, "", fmt.Errorf("ошибка чтения игрока: %w", err)
	}
	if role == nil {
		return clanID, "", nil
	}
	return clanID, *role, nil
}
