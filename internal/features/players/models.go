// Package players — models.go определяет структуры данных игроков.
package players

import (
	"strconv"
	"time"
)

// Роли игрока внутри клана.
const (
	// RoleNone — игрок не состоит в клане
	RoleNone = ""
	// RoleMember — обычный участник клана
	RoleMember = "member"
	// RoleOfficer — заместитель (может кикать участников и смотреть лог)
	RoleOfficer = "officer"
	// RoleOwner — владелец клана
	RoleOwner = "owner"
)

// Player — игрок качалки. ID — игровой номер (BIGSERIAL),
// по нему игроки ссылаются друг на друга в командах.
type Player struct {
	ID            int64      // Игровой ID
	TgID          int64      // Telegram ID
	Username      string     // Username в Telegram (может быть пустым)
	Nickname      string     // Игровой ник (команда «гник»)
	Balance       int64      // Монеты
	Magnesia      int64      // Банки магнезии
	Power         int64      // Сила
	DumbbellLevel int        // Уровень гантели (1..20)
	CustomIncome  int64      // Кастомный доход за поднятие (0 — берётся из линейки)
	TotalLifts    int64      // Всего поднятий
	TotalEarned   int64      // Всего заработано монет
	LastLiftAt    *time.Time // Время последнего поднятия
	ClanID        *int64     // Клан (nil — не состоит)
	ClanRole      string     // Роль в клане
	Contribution  int64      // Вклад в казну текущего клана
	BannedUntil   *time.Time // Временный бан (nil — нет)
	PermBanned    bool       // Перманентный бан
	BanReason     string     // Причина бана
	AdminLevel    int        // 0 — не админ, 1 — создатель, 2 — старший, 3 — модератор
	AdminNick     string     // Ник администратора (команда «аник»)
	CreatedAt     time.Time
}

// DisplayName возвращает имя для вывода: ник, либо username, либо "Игрок <id>".
func (p *Player) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	if p.Username != "" {
		return "@" + p.Username
	}
	return "Игрок " + strconv.FormatInt(p.ID, 10)
}

// IsBanned сообщает, действует ли сейчас бан (временный или перманентный).
func (p *Player) IsBanned(now time.Time) bool {
	if p.PermBanned {
		return true
	}
	return p.BannedUntil != nil && p.BannedUntil.After(now)
}

// InClan сообщает, состоит ли игрок в клане.
func (p *Player) InClan() bool {
	return p.ClanID != nil
}

// LiftResult — итог одного поднятия.
type LiftResult struct {
	Income      int64 // Заработано монет
	PowerGain   int64 // Прирост силы
	ClanBonus   int64 // Бонус, зачисленный в казну клана
	NewBalance  int64
	NewPower    int64
	TotalLifts  int64
	Remaining   time.Duration // Если > 0 — поднятие не состоялось, откат ещё идёт
}

// TopKind — вид таблицы лидеров.
type TopKind string

const (
	TopByBalance TopKind = "монет"
	TopByLifts   TopKind = "поднятий"
	TopByEarned  TopKind = "заработка"
)
