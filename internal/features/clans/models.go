// Package clans — models.go определяет структуры данных кланов.
package clans

import "time"

// Роли участника клана. Дублируют значения колонки players.clan_role.
const (
	RoleMember  = "member"
	RoleOfficer = "officer"
	RoleOwner   = "owner"
)

// Clan — клан качалки.
type Clan struct {
	ID          int64
	Tag         string // Три заглавные латинские буквы, уникален
	Name        string // 3..20 символов, уникален
	OwnerID     int64  // Игровой ID владельца
	Level       int
	Treasury    int64 // Казна, всегда >= 0
	Description string
	Greeting    string // Приветствие новым участникам, поддерживает {player} {clan} {tag}
	MinDumbbell int    // Минимальный уровень гантели для вступления (0 — без требования)
	MemberCount int
	CreatedAt   time.Time
}

// Member — участник клана глазами клановых команд.
type Member struct {
	PlayerID     int64
	Name         string // Ник или username
	Role         string
	Contribution int64
	Power        int64
	JoinedClanAt time.Time
}

// TreasuryEntry — запись лога казны.
type TreasuryEntry struct {
	PlayerID  int64
	Name      string
	Amount    int64
	Op        string // deposit, withdraw, distribute, upgrade, lift_bonus, create...
	CreatedAt time.Time
}

// LogEntry — запись лога действий клана.
type LogEntry struct {
	ActorID   int64
	Name      string
	Action    string
	Details   string
	CreatedAt time.Time
}

// Contributor — строка в списке вкладов.
type Contributor struct {
	PlayerID     int64
	Name         string
	Contribution int64
}

// RoleRank возвращает числовой ранг роли: владелец 2, заместитель 1, участник 0.
func RoleRank(role string) int {
	switch role {
	case RoleOwner:
		return 2
	case RoleOfficer:
		return 1
	default:
		return 0
	}
}

// DistributeResult — итог распределения казны.
type DistributeResult struct {
	Recipients  []*Contributor // Кто получил и сколько вложил
	PerMember   int64          // Сумма каждому
	Total       int64          // Всего выдано
	NewTreasury int64
}

// UpgradeResult — итог улучшения клана.
type UpgradeResult struct {
	OldLevel    int
	NewLevel    int
	Spent       int64
	NewTreasury int64
}

// Операции лога казны.
const (
	OpDeposit    = "deposit"
	OpWithdraw   = "withdraw"
	OpDistribute = "distribute"
	OpUpgrade    = "upgrade"
	OpLiftBonus  = "lift_bonus"
	OpCreate     = "create"
	OpTransfer   = "transfer"
)
