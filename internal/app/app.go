// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики
// и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"gymlegend.ru/gym-bot/internal/bot"
	"gymlegend.ru/gym-bot/internal/config"
	"gymlegend.ru/gym-bot/internal/db/postgres"
	"gymlegend.ru/gym-bot/internal/features/admin"
	"gymlegend.ru/gym-bot/internal/features/clans"
	"gymlegend.ru/gym-bot/internal/features/confirm"
	"gymlegend.ru/gym-bot/internal/features/players"
	"gymlegend.ru/gym-bot/internal/features/promo"
	"gymlegend.ru/gym-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	playerRepo := players.NewRepository(pool)
	clanRepo := clans.NewRepository(pool)
	promoRepo := promo.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)
	confirmRepo := confirm.NewRepository(pool)

	// === 4. Сервисы ===
	clanService := clans.NewService(clanRepo, confirmRepo, cfg)
	playerService := players.NewService(playerRepo, cfg)
	promoService := promo.NewService(promoRepo, cfg)
	adminService := admin.NewService(adminRepo, confirmRepo, cfg)

	// === 5. Обработчики ===
	playerHandler := players.NewHandler(playerService, clanService, botAPI)
	clanHandler := clans.NewHandler(clanService, botAPI)
	promoHandler := promo.NewHandler(promoService, botAPI)
	adminHandler := admin.NewHandler(adminService, promoService, clanService, botAPI)

	// === 6. Собираем бота ===
	b := bot.New(
		botAPI, cfg,
		playerService, playerHandler,
		clanHandler,
		promoHandler,
		adminHandler,
	)

	// === 7. Планировщик задач ===
	scheduler := jobs.NewScheduler(confirmRepo, adminRepo)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.RunMigrations(ctx, pool, "migrations"); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Players},
		{2, migration002Transactions},
		{3, migration003Clans},
		{4, migration004Promo},
		{5, migration005Admin},
		{6, migration006Access},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Players = `
CREATE TABLE IF NOT EXISTS players (
    id BIGSERIAL PRIMARY KEY,
    tg_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255),
    nickname VARCHAR(64),
    balance BIGINT NOT NULL DEFAULT 0,
    magnesia BIGINT NOT NULL DEFAULT 0,
    power BIGINT NOT NULL DEFAULT 0,
    dumbbell_level INTEGER NOT NULL DEFAULT 1,
    custom_income BIGINT NOT NULL DEFAULT 0,
    total_lifts BIGINT NOT NULL DEFAULT 0,
    total_earned BIGINT NOT NULL DEFAULT 0,
    last_lift_at TIMESTAMP,
    clan_id BIGINT,
    clan_role VARCHAR(16),
    clan_contribution BIGINT NOT NULL DEFAULT 0,
    banned_until TIMESTAMP,
    perm_banned BOOLEAN NOT NULL DEFAULT FALSE,
    ban_reason TEXT,
    admin_level INTEGER NOT NULL DEFAULT 0,
    admin_nick VARCHAR(32),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_players_tg_id ON players(tg_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_players_nickname_lower ON players(LOWER(nickname)) WHERE nickname IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_players_balance ON players(balance DESC);
CREATE INDEX IF NOT EXISTS idx_players_total_lifts ON players(total_lifts DESC);
`

var migration002Transactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    from_player_id BIGINT REFERENCES players(id) ON DELETE SET NULL,
    to_player_id BIGINT REFERENCES players(id) ON DELETE SET NULL,
    amount BIGINT NOT NULL,
    fee BIGINT NOT NULL DEFAULT 0,
    tx_type VARCHAR(32) NOT NULL,
    description TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_from_player ON transactions(from_player_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration003Clans = `
CREATE TABLE IF NOT EXISTS clans (
    id BIGSERIAL PRIMARY KEY,
    tag VARCHAR(3) UNIQUE NOT NULL,
    name VARCHAR(64) UNIQUE NOT NULL,
    owner_id BIGINT NOT NULL,
    level INTEGER NOT NULL DEFAULT 1,
    treasury BIGINT NOT NULL DEFAULT 0,
    description TEXT,
    greeting TEXT,
    min_dumbbell INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);
ALTER TABLE players
    ADD CONSTRAINT fk_players_clan FOREIGN KEY (clan_id) REFERENCES clans(id) ON DELETE SET NULL;
CREATE INDEX IF NOT EXISTS idx_players_clan_id ON players(clan_id);

CREATE TABLE IF NOT EXISTS clan_log (
    id BIGSERIAL PRIMARY KEY,
    clan_id BIGINT NOT NULL REFERENCES clans(id) ON DELETE CASCADE,
    actor_id BIGINT NOT NULL,
    action VARCHAR(32) NOT NULL,
    details TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_clan_log_clan_id ON clan_log(clan_id, created_at DESC);

CREATE TABLE IF NOT EXISTS clan_bans (
    clan_id BIGINT NOT NULL REFERENCES clans(id) ON DELETE CASCADE,
    player_id BIGINT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    PRIMARY KEY (clan_id, player_id)
);

CREATE TABLE IF NOT EXISTS clan_treasury_log (
    id BIGSERIAL PRIMARY KEY,
    clan_id BIGINT NOT NULL REFERENCES clans(id) ON DELETE CASCADE,
    player_id BIGINT NOT NULL DEFAULT 0,
    amount BIGINT NOT NULL,
    op VARCHAR(32) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_clan_treasury_log_clan ON clan_treasury_log(clan_id, created_at DESC);
`

var migration004Promo = `
CREATE TABLE IF NOT EXISTS promo_codes (
    id BIGSERIAL PRIMARY KEY,
    code VARCHAR(20) UNIQUE NOT NULL,
    reward_type VARCHAR(16) NOT NULL,
    amount BIGINT NOT NULL,
    uses_left INTEGER NOT NULL,
    total_uses INTEGER NOT NULL,
    expires_at TIMESTAMP,
    created_by BIGINT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
`

var migration005Admin = `
CREATE TABLE IF NOT EXISTS admin_logs (
    id BIGSERIAL PRIMARY KEY,
    admin_id BIGINT NOT NULL,
    action VARCHAR(32) NOT NULL,
    target_id BIGINT NOT NULL DEFAULT 0,
    details TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_logs_admin ON admin_logs(admin_id, action);
CREATE INDEX IF NOT EXISTS idx_admin_logs_created_at ON admin_logs(created_at);

CREATE TABLE IF NOT EXISTS admin_requests (
    id BIGSERIAL PRIMARY KEY,
    requester_id BIGINT NOT NULL,
    type VARCHAR(32) NOT NULL,
    target_id BIGINT NOT NULL DEFAULT 0,
    target_tag VARCHAR(3),
    reason TEXT,
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    processed_by BIGINT,
    processed_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_requests_status ON admin_requests(status, id);

CREATE TABLE IF NOT EXISTS pending_actions (
    actor_id BIGINT NOT NULL,
    action_type VARCHAR(32) NOT NULL,
    payload TEXT NOT NULL DEFAULT '',
    expires_at TIMESTAMP NOT NULL,
    PRIMARY KEY (actor_id, action_type)
);
`

var migration006Access = `
CREATE TABLE IF NOT EXISTS info_access (
    player_id BIGINT PRIMARY KEY,
    granted_by BIGINT NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS broadcast_usage (
    id BIGSERIAL PRIMARY KEY,
    admin_id BIGINT NOT NULL,
    sent_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_broadcast_usage_admin ON broadcast_usage(admin_id, sent_at);

CREATE TABLE IF NOT EXISTS login_attempts (
    id BIGSERIAL PRIMARY KEY,
    tg_id BIGINT NOT NULL,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    attempted_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_login_attempts_tg ON login_attempts(tg_id, attempted_at);
`
