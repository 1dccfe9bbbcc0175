// Package admin реализует трёхуровневую административную модель:
// прямые команды, очередь заявок на разрушительные действия и аудит.
package admin

import "time"

// Уровни администраторов. Чем меньше число, тем больше прав.
const (
	LevelNone      = 0
	LevelCreator   = 1
	LevelSenior    = 2
	LevelModerator = 3
)

// LevelLabel возвращает русское название должности.
func LevelLabel(level int) string {
	switch level {
	case LevelCreator:
		return "👑 Создатель🌟"
	case LevelSenior:
		return "⭐ Старший администратор"
	case LevelModerator:
		return "👮 Модератор"
	}
	return "❓ Неизвестная должность"
}

// Типы заявок очереди модерации.
const (
	RequestDeletePlayer = "delete_player"
	RequestDeleteClan   = "delete_clan"
	RequestResetAll     = "reset_all"
)

// Статусы заявки. Из pending заявка уходит ровно один раз.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request — заявка модератора на разрушительное действие.
type Request struct {
	ID          int64
	RequesterID int64
	Type        string
	TargetID    int64  // Игрок для delete_player, 0 иначе
	TargetTag   string // Тег клана для delete_clan
	Reason      string
	Status      string
	ProcessedBy int64
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// LogEntry — запись аудита административных действий.
type LogEntry struct {
	ID        int64
	AdminID   int64
	Action    string
	TargetID  int64
	Details   string
	CreatedAt time.Time
}

// Действия аудита, по которым строятся счётчики админпанели.
const (
	ActionBan          = "ban"
	ActionPermBan      = "permban"
	ActionUnban        = "unban"
	ActionDeletePlayer = "delete_player"
	ActionDeleteClan   = "delete_clan"
	ActionSetNickname  = "set_nickname"
	ActionSetDumbbell  = "set_dumbbell"
	ActionBalance      = "balance"
	ActionResetAll     = "reset_all"
	ActionBroadcast    = "broadcast"
	ActionPromote      = "promote_admin"
	ActionDemote       = "demote_admin"
)

// PanelStats — счётчики для админпанели.
type PanelStats struct {
	Bans            int
	PermBans        int
	Deletions       int
	DumbbellSets    int
	NicknameChanges int
}

// InfoAccess — выданный неадмину доступ к команде «инфа».
type InfoAccess struct {
	PlayerID  int64
	GrantedBy int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Active сообщает, действует ли ещё доступ.
func (a *InfoAccess) Active(now time.Time) bool {
	return now.Before(a.ExpiresAt)
}

// Stats — сводная статистика бота для команды «статистика».
type Stats struct {
	Players      int64
	Clans        int64
	Admins       int64
	Banned       int64
	TotalBalance int64
	TotalLifts   int64
	PromoCodes   int64
}

// PlayerCard — карточка игрока для команд «инфа» и «аигроки».
type PlayerCard struct {
	ID            int64
	TgID          int64
	Username      string
	Nickname      string
	Balance       int64
	Magnesia      int64
	Power         int64
	DumbbellLevel int
	CustomIncome  int64
	TotalLifts    int64
	TotalEarned   int64
	ClanTag       string
	ClanRole      string
	AdminLevel    int
	AdminNick     string
	BannedUntil   *time.Time
	PermBanned    bool
	BanReason     string
	CreatedAt     time.Time
}

// ClanCard — строка для команды «акланы».
type ClanCard struct {
	ID          int64
	Tag         string
	Name        string
	OwnerID     int64
	Level       int
	Treasury    int64
	MemberCount int
	CreatedAt   time.Time
}
