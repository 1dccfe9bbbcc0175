package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymlegend.ru/gym-bot/internal/common"
)

// BalanceCap — потолок баланса при административных начислениях.
const BalanceCap = 2_147_483_647

// Repository — административные операции в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый административный репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// --- Карточки игроков и кланов ---

const playerCardColumns = `
	p.id, p.tg_id, COALESCE(p.username, ''), COALESCE(p.nickname, ''),
	p.balance, p.magnesia, p.power, p.dumbbell_level, p.custom_income,
	p.total_lifts, p.total_earned,
	COALESCE(c.tag, ''), COALESCE(p.clan_role, ''),
	p.admin_level, COALESCE(p.admin_nick, ''),
	p.banned_until, p.perm_banned, COALESCE(p.ban_reason, ''), p.created_at`

func scanPlayerCard(row pgx.Row) (*PlayerCard, error) {
	var c PlayerCard
	err := row.Scan(&c.ID, &c.TgID, &c.Username, &c.Nickname,
		&c.Balance, &c.Magnesia, &c.Power, &c.DumbbellLevel, &c.CustomIncome,
		&c.TotalLifts, &c.TotalEarned, &c.ClanTag, &c.ClanRole,
		&c.AdminLevel, &c.AdminNick, &c.BannedUntil, &c.PermBanned, &c.BanReason, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("скан карточки игрока: %w", err)
	}
	return &c, nil
}

// PlayerCard возвращает карточку игрока по игровому ID.
func (r *Repository) PlayerCard(ctx context.Context, playerID int64) (*PlayerCard, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+playerCardColumns+`
		FROM players p
		LEFT JOIN clans c ON c.id = p.clan_id
		WHERE p.id = $1`, playerID)
	return scanPlayerCard(row)
}

// RecentPlayers возвращает последних зарегистрированных игроков.
func (r *Repository) RecentPlayers(ctx context.Context, limit int) ([]*PlayerCard, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+playerCardColumns+`
		FROM players p
		LEFT JOIN clans c ON c.id = p.clan_id
		ORDER BY p.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("список игроков: %w", err)
	}
	defer rows.Close()

	var out []*PlayerCard
	for rows.Next() {
		c, err := scanPlayerCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AllClans возвращает все кланы для админской сводки.
func (r *Repository) AllClans(ctx context.Context) ([]*ClanCard, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.tag, c.name, c.owner_id, c.level, c.treasury,
		       (SELECT COUNT(*) FROM players p WHERE p.clan_id = c.id),
		       c.created_at
		FROM clans c
		ORDER BY c.level DESC, c.treasury DESC, c.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("список кланов: %w", err)
	}
	defer rows.Close()

	var out []*ClanCard
	for rows.Next() {
		var c ClanCard
		if err := rows.Scan(&c.ID, &c.Tag, &c.Name, &c.OwnerID, &c.Level, &c.Treasury,
			&c.MemberCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("скан клана: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// AllPlayerTgIDs возвращает telegram ID всех незабаненных игроков для рассылки.
func (r *Repository) AllPlayerTgIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT tg_id FROM players
		WHERE NOT perm_banned AND (banned_until IS NULL OR banned_until < NOW())
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("получатели рассылки: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("скан tg_id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// --- Мутации игроков ---

// mutatePlayer выполняет UPDATE и переводит нулевой счётчик строк в ErrPlayerNotFound.
func (r *Repository) mutatePlayer(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("мутация игрока: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}
	return nil
}

// AddBalance начисляет монеты с потолком BalanceCap.
func (r *Repository) AddBalance(ctx context.Context, playerID, amount int64) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET balance = LEAST(balance + $1, $2), updated_at = NOW() WHERE id = $3`,
		amount, int64(BalanceCap), playerID)
}

// SubBalance списывает монеты, но не ниже нуля.
func (r *Repository) SubBalance(ctx context.Context, playerID, amount int64) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET balance = GREATEST(balance - $1, 0), updated_at = NOW() WHERE id = $2`,
		amount, playerID)
}

// Ban банит игрока на срок until с указанием причины.
func (r *Repository) Ban(ctx context.Context, playerID int64, until time.Time, reason string) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET banned_until = $1, ban_reason = $2, updated_at = NOW() WHERE id = $3`,
		until, reason, playerID)
}

// PermBan банит игрока навсегда.
func (r *Repository) PermBan(ctx context.Context, playerID int64, reason string) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET perm_banned = TRUE, ban_reason = $1, updated_at = NOW() WHERE id = $2`,
		reason, playerID)
}

// Unban снимает оба вида бана.
func (r *Repository) Unban(ctx context.Context, playerID int64) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET banned_until = NULL, perm_banned = FALSE, ban_reason = '', updated_at = NOW() WHERE id = $1`,
		playerID)
}

// SetNickname принудительно меняет ник игрока.
func (r *Repository) SetNickname(ctx context.Context, playerID int64, nickname string) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET nickname = $1, updated_at = NOW() WHERE id = $2`,
		nickname, playerID)
}

// SetLifts устанавливает счётчик поднятий.
func (r *Repository) SetLifts(ctx context.Context, playerID, lifts int64) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET total_lifts = $1, updated_at = NOW() WHERE id = $2`,
		lifts, playerID)
}

// SetCustomIncome задаёт персональный доход с поднятия. Ноль возвращает табличный.
func (r *Repository) SetCustomIncome(ctx context.Context, playerID, income int64) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET custom_income = $1, updated_at = NOW() WHERE id = $2`,
		income, playerID)
}

// AddMagnesia начисляет магнезию.
func (r *Repository) AddMagnesia(ctx context.Context, playerID, amount int64) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET magnesia = magnesia + $1, updated_at = NOW() WHERE id = $2`,
		amount, playerID)
}

// SetPower устанавливает силу игрока.
func (r *Repository) SetPower(ctx context.Context, playerID, power int64) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET power = $1, updated_at = NOW() WHERE id = $2`,
		power, playerID)
}

// SetDumbbell устанавливает уровень гантели.
func (r *Repository) SetDumbbell(ctx context.Context, playerID int64, level int) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET dumbbell_level = $1, updated_at = NOW() WHERE id = $2`,
		level, playerID)
}

// SetAdminLevel назначает или снимает администратора.
func (r *Repository) SetAdminLevel(ctx context.Context, playerID int64, level int) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET admin_level = $1, updated_at = NOW() WHERE id = $2`,
		level, playerID)
}

// SetAdminNick устанавливает админ-ник.
func (r *Repository) SetAdminNick(ctx context.Context, playerID int64, nick string) error {
	return r.mutatePlayer(ctx,
		`UPDATE players SET admin_nick = $1, updated_at = NOW() WHERE id = $2`,
		nick, playerID)
}

// --- Разрушительные операции ---

// DeletePlayer удаляет игрока. Если игрок владел кланом, клан распускается.
func (r *Repository) DeletePlayer(ctx context.Context, playerID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var clanID *int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM clans WHERE owner_id = $1`, playerID).Scan(&clanID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("поиск клана игрока: %w", err)
	}
	if clanID != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE players SET clan_id = NULL, clan_role = NULL, clan_contribution = 0 WHERE clan_id = $1`,
			*clanID); err != nil {
			return fmt.Errorf("роспуск клана: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM clans WHERE id = $1`, *clanID); err != nil {
			return fmt.Errorf("удаление клана: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM players WHERE id = $1`, playerID)
	if err != nil {
		return fmt.Errorf("удаление игрока: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}
	return tx.Commit(ctx)
}

// DeleteClanByTag распускает клан по тегу.
func (r *Repository) DeleteClanByTag(ctx context.Context, tag string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var clanID int64
	err = tx.QueryRow(ctx, `SELECT id FROM clans WHERE UPPER(tag) = UPPER($1)`, tag).Scan(&clanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrClanNotFound
		}
		return fmt.Errorf("поиск клана: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE players SET clan_id = NULL, clan_role = NULL, clan_contribution = 0 WHERE clan_id = $1`,
		clanID); err != nil {
		return fmt.Errorf("освобождение участников: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM clans WHERE id = $1`, clanID); err != nil {
		return fmt.Errorf("удаление клана: %w", err)
	}
	return tx.Commit(ctx)
}

// RenameClanByTag переименовывает клан по тегу (аксменить).
func (r *Repository) RenameClanByTag(ctx context.Context, tag, name string) error {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM clans WHERE name = $1)`, name).Scan(&exists); err != nil {
		return fmt.Errorf("проверка названия: %w", err)
	}
	if exists {
		return common.ErrClanNameTaken
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE clans SET name = $1 WHERE UPPER(tag) = UPPER($2)`, name, tag)
	if err != nil {
		return fmt.Errorf("переименование клана: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return common.ErrClanNotFound
	}
	return nil
}

// ResetAll обнуляет игровой прогресс всех игроков и удаляет все кланы.
// Административные уровни и баны сохраняются.
func (r *Repository) ResetAll(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE players SET
			balance = 0, magnesia = 0, power = 0, dumbbell_level = 1,
			custom_income = 0, total_lifts = 0, total_earned = 0,
			last_lift_at = NULL, clan_id = NULL, clan_role = NULL, clan_contribution = 0,
			updated_at = NOW()`); err != nil {
		return fmt.Errorf("сброс игроков: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM clans`); err != nil {
		return fmt.Errorf("удаление кланов: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("очистка переводов: %w", err)
	}
	return tx.Commit(ctx)
}

// --- Аудит ---

// AppendLog пишет запись аудита.
func (r *Repository) AppendLog(ctx context.Context, adminID int64, action string, targetID int64, details string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO admin_logs (admin_id, action, target_id, details)
		VALUES ($1, $2, $3, $4)`,
		adminID, action, targetID, details)
	if err != nil {
		return fmt.Errorf("запись аудита: %w", err)
	}
	return nil
}

// PanelStats собирает счётчики действий администратора из аудита.
func (r *Repository) PanelStats(ctx context.Context, adminID int64) (*PanelStats, error) {
	rows, err := r.db.Query(ctx, `
		SELECT action, COUNT(*)
		FROM admin_logs
		WHERE admin_id = $1
		GROUP BY action`, adminID)
	if err != nil {
		return nil, fmt.Errorf("статистика админа: %w", err)
	}
	defer rows.Close()

	stats := &PanelStats{}
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("скан статистики: %w", err)
		}
		switch action {
		case ActionBan:
			stats.Bans = n
		case ActionPermBan:
			stats.PermBans = n
		case ActionDeletePlayer:
			stats.Deletions = n
		case ActionSetDumbbell:
			stats.DumbbellSets = n
		case ActionSetNickname:
			stats.NicknameChanges = n
		}
	}
	return stats, rows.Err()
}

// PurgeLogs удаляет записи аудита старше порога. Возвращает число удалённых.
func (r *Repository) PurgeLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM admin_logs WHERE created_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("очистка аудита: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Очередь заявок ---

const requestColumns = `id, requester_id, type, target_id, COALESCE(target_tag, ''),
	COALESCE(reason, ''), status, COALESCE(processed_by, 0), processed_at, created_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.RequesterID, &req.Type, &req.TargetID, &req.TargetTag,
		&req.Reason, &req.Status, &req.ProcessedBy, &req.ProcessedAt, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrRequestNotFound
		}
		return nil, fmt.Errorf("скан заявки: %w", err)
	}
	return &req, nil
}

// CreateRequest ставит заявку модератора в очередь.
func (r *Repository) CreateRequest(ctx context.Context, requesterID int64, reqType string, targetID int64, targetTag, reason string) (*Request, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO admin_requests (requester_id, type, target_id, target_tag, reason, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING `+requestColumns,
		requesterID, reqType, targetID, targetTag, reason)
	return scanRequest(row)
}

// GetRequest возвращает заявку по номеру.
func (r *Repository) GetRequest(ctx context.Context, requestID int64) (*Request, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM admin_requests WHERE id = $1`, requestID)
	return scanRequest(row)
}

// PendingRequests возвращает необработанные заявки, старые первыми.
func (r *Repository) PendingRequests(ctx context.Context) ([]*Request, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+requestColumns+`
		FROM admin_requests
		WHERE status = 'pending'
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("список заявок: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// ResolveRequest переводит заявку из pending в новый статус ровно один раз.
// Повторная обработка возвращает ErrAlreadyProcessed, статус не меняется.
func (r *Repository) ResolveRequest(ctx context.Context, requestID, processedBy int64, status string) (*Request, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM admin_requests WHERE id = $1 FOR UPDATE`, requestID)
	req, err := scanRequest(row)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, common.ErrAlreadyProcessed
	}

	if _, err := tx.Exec(ctx, `
		UPDATE admin_requests
		SET status = $1, processed_by = $2, processed_at = NOW()
		WHERE id = $3`,
		status, processedBy, requestID); err != nil {
		return nil, fmt.Errorf("обработка заявки: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}

	req.Status = status
	req.ProcessedBy = processedBy
	now := time.Now()
	req.ProcessedAt = &now
	return req, nil
}

// PurgeRequests удаляет обработанные заявки старше порога.
func (r *Repository) PurgeRequests(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM admin_requests
		WHERE status <> 'pending' AND created_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("очистка заявок: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Доступ к «инфа» ---

// GrantInfoAccess выдаёт или продлевает доступ к команде «инфа».
func (r *Repository) GrantInfoAccess(ctx context.Context, playerID, grantedBy int64, until time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO info_access (player_id, granted_by, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id) DO UPDATE
		SET granted_by = EXCLUDED.granted_by, expires_at = EXCLUDED.expires_at`,
		playerID, grantedBy, until)
	if err != nil {
		return fmt.Errorf("выдача доступа: %w", err)
	}
	return nil
}

// RevokeInfoAccess отзывает доступ.
func (r *Repository) RevokeInfoAccess(ctx context.Context, playerID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM info_access WHERE player_id = $1`, playerID)
	if err != nil {
		return fmt.Errorf("отзыв доступа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrAccessNotFound
	}
	return nil
}

// InfoAccess возвращает запись доступа игрока.
func (r *Repository) InfoAccess(ctx context.Context, playerID int64) (*InfoAccess, error) {
	var a InfoAccess
	err := r.db.QueryRow(ctx, `
		SELECT player_id, granted_by, expires_at, created_at
		FROM info_access WHERE player_id = $1`, playerID).
		Scan(&a.PlayerID, &a.GrantedBy, &a.ExpiresAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrAccessNotFound
		}
		return nil, fmt.Errorf("чтение доступа: %w", err)
	}
	return &a, nil
}

// ListInfoAccess возвращает все действующие доступы.
func (r *Repository) ListInfoAccess(ctx context.Context) ([]*InfoAccess, error) {
	rows, err := r.db.Query(ctx, `
		SELECT player_id, granted_by, expires_at, created_at
		FROM info_access
		WHERE expires_at > NOW()
		ORDER BY expires_at`)
	if err != nil {
		return nil, fmt.Errorf("список доступов: %w", err)
	}
	defer rows.Close()

	var out []*InfoAccess
	for rows.Next() {
		var a InfoAccess
		if err := rows.Scan(&a.PlayerID, &a.GrantedBy, &a.ExpiresAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("скан доступа: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// --- Рассылки ---

// CountBroadcasts считает рассылки администратора за скользящие сутки.
func (r *Repository) CountBroadcasts(ctx context.Context, adminID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM broadcast_usage
		WHERE admin_id = $1 AND sent_at > NOW() - INTERVAL '24 hours'`, adminID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("счётчик рассылок: %w", err)
	}
	return n, nil
}

// RecordBroadcast фиксирует выполненную рассылку.
func (r *Repository) RecordBroadcast(ctx context.Context, adminID int64) error {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO broadcast_usage (admin_id) VALUES ($1)`, adminID); err != nil {
		return fmt.Errorf("запись рассылки: %w", err)
	}
	return nil
}

// PurgeBroadcasts удаляет записи рассылок старше суток.
func (r *Repository) PurgeBroadcasts(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM broadcast_usage WHERE sent_at < NOW() - INTERVAL '24 hours'`)
	if err != nil {
		return 0, fmt.Errorf("очистка рассылок: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Попытки входа ---

// RecordLoginAttempt логирует попытку входа по паролю.
func (r *Repository) RecordLoginAttempt(ctx context.Context, tgID int64, success bool) error {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO login_attempts (tg_id, success) VALUES ($1, $2)`, tgID, success); err != nil {
		return fmt.Errorf("запись попытки входа: %w", err)
	}
	return nil
}

// FailedLoginAttempts считает неудачные попытки за последний час.
func (r *Repository) FailedLoginAttempts(ctx context.Context, tgID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE tg_id = $1 AND NOT success AND attempted_at > NOW() - INTERVAL '1 hour'`, tgID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("счётчик попыток: %w", err)
	}
	return n, nil
}

// --- Статистика ---

// Stats собирает сводную статистику бота.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM players),
			(SELECT COUNT(*) FROM clans),
			(SELECT COUNT(*) FROM players WHERE admin_level > 0),
			(SELECT COUNT(*) FROM players WHERE perm_banned OR banned_until > NOW()),
			(SELECT COALESCE(SUM(balance), 0) FROM players),
			(SELECT COALESCE(SUM(total_lifts), 0) FROM players),
			(SELECT COUNT(*) FROM promo_codes)`).
		Scan(&s.Players, &s.Clans, &s.Admins, &s.Banned, &s.TotalBalance, &s.TotalLifts, &s.PromoCodes)
	if err != nil {
		return nil, fmt.Errorf("статистика бота: %w", err)
	}
	return &s, nil
}
