package clans

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/config"
)

// RoleNone — игрок не состоит в клане (как players.RoleNone; прямой импорт
// невозможен из-за цикла clans <- players).
const RoleNone = ""

// fakePlayer — минимальный игрок для проверки клановой логики в памяти.
type fakePlayer struct {
	id            int64
	name          string
	balance       int64
	dumbbellLevel int
	clanID        *int64
	role          string
	contribution  int64
}

// fakeStore — хранилище кланов в памяти с той же арифметикой,
// что и у боевого репозитория.
type fakeStore struct {
	clans   map[int64]*Clan
	players map[int64]*fakePlayer
	bans    map[int64]map[int64]bool // clanID -> playerID
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clans:   make(map[int64]*Clan),
		players: make(map[int64]*fakePlayer),
		bans:    make(map[int64]map[int64]bool),
		nextID:  1,
	}
}

func (f *fakeStore) addPlayer(id int64, name string, balance int64) *fakePlayer {
	p := &fakePlayer{id: id, name: name, balance: balance, dumbbellLevel: 1, role: RoleNone}
	f.players[id] = p
	return p
}

func (f *fakeStore) memberCount(clanID int64) int {
	n := 0
	for _, p := range f.players {
		if p.clanID != nil && *p.clanID == clanID {
			n++
		}
	}
	return n
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Clan, error) {
	c, ok := f.clans[id]
	if !ok {
		return nil, common.ErrClanNotFound
	}
	out := *c
	out.MemberCount = f.memberCount(id)
	return &out, nil
}

func (f *fakeStore) GetByTag(ctx context.Context, tag string) (*Clan, error) {
	for id, c := range f.clans {
		if c.Tag == strings.ToUpper(tag) {
			return f.GetByID(ctx, id)
		}
	}
	return nil, common.ErrClanNotFound
}

func (f *fakeStore) SearchByName(ctx context.Context, q string, _ int) ([]*Clan, error) {
	var out []*Clan
	for id, c := range f.clans {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
			clan, _ := f.GetByID(ctx, id)
			out = append(out, clan)
		}
	}
	return out, nil
}

func (f *fakeStore) Top(ctx context.Context, _ int) ([]*Clan, error) {
	var out []*Clan
	for id := range f.clans {
		clan, _ := f.GetByID(ctx, id)
		out = append(out, clan)
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, ownerID int64, tag, name string, fee int64) (*Clan, error) {
	p, ok := f.players[ownerID]
	if !ok {
		return nil, common.ErrPlayerNotFound
	}
	if p.clanID != nil {
		return nil, common.ErrAlreadyInClan
	}
	if p.balance < fee {
		return nil, common.ErrInsufficientBalance
	}
	for _, c := range f.clans {
		if c.Tag == tag {
			return nil, common.ErrClanTagTaken
		}
		if c.Name == name {
			return nil, common.ErrClanNameTaken
		}
	}

	id := f.nextID
	f.nextID++
	clan := &Clan{ID: id, Tag: tag, Name: name, OwnerID: ownerID, Level: 1, Treasury: 0, CreatedAt: time.Now()}
	f.clans[id] = clan
	p.balance -= fee
	p.clanID = &id
	p.role = RoleOwner
	return f.GetByID(context.Background(), id)
}

func (f *fakeStore) Join(_ context.Context, clanID, playerID int64) error {
	p := f.players[playerID]
	c, ok := f.clans[clanID]
	if !ok {
		return common.ErrClanNotFound
	}
	if p.clanID != nil {
		return common.ErrAlreadyInClan
	}
	if f.bans[clanID][playerID] {
		return common.ErrBanned
	}
	if p.dumbbellLevel < c.MinDumbbell {
		return common.ErrPermissionDenied
	}
	if f.memberCount(clanID) >= BonusesForLevel(c.Level).MemberLimit {
		return common.ErrClanFull
	}
	p.clanID = &clanID
	p.role = RoleMember
	return nil
}

func (f *fakeStore) Leave(_ context.Context, clanID, playerID int64) error {
	p := f.players[playerID]
	if p.clanID == nil || *p.clanID != clanID {
		return common.ErrNotInClan
	}
	p.clanID = nil
	p.role = RoleNone
	p.contribution = 0
	return nil
}

func (f *fakeStore) Kick(ctx context.Context, clanID, _, targetID int64) error {
	if err := f.Leave(ctx, clanID, targetID); err != nil {
		return err
	}
	if f.bans[clanID] == nil {
		f.bans[clanID] = make(map[int64]bool)
	}
	f.bans[clanID][targetID] = true
	return nil
}

func (f *fakeStore) Unban(_ context.Context, clanID, _, targetID int64) error {
	if !f.bans[clanID][targetID] {
		return common.ErrPlayerNotFound
	}
	delete(f.bans[clanID], targetID)
	return nil
}

func (f *fakeStore) TransferOwnership(_ context.Context, clanID, oldOwnerID, newOwnerID, fee int64) error {
	old := f.players[oldOwnerID]
	if old.balance < fee {
		return common.ErrInsufficientBalance
	}
	old.balance -= fee
	old.role = RoleOfficer
	f.players[newOwnerID].role = RoleOwner
	f.clans[clanID].OwnerID = newOwnerID
	return nil
}

func (f *fakeStore) Disband(_ context.Context, clanID int64) error {
	for _, p := range f.players {
		if p.clanID != nil && *p.clanID == clanID {
			p.clanID = nil
			p.role = RoleNone
			p.contribution = 0
		}
	}
	delete(f.clans, clanID)
	delete(f.bans, clanID)
	return nil
}

func (f *fakeStore) Rename(_ context.Context, clanID, _ int64, name string) error {
	for id, c := range f.clans {
		if id != clanID && c.Name == name {
			return common.ErrClanNameTaken
		}
	}
	f.clans[clanID].Name = name
	return nil
}

func (f *fakeStore) SetDescription(_ context.Context, clanID, _ int64, text string) error {
	f.clans[clanID].Description = text
	return nil
}

func (f *fakeStore) SetGreeting(_ context.Context, clanID, _ int64, text string) error {
	f.clans[clanID].Greeting = text
	return nil
}

func (f *fakeStore) SetRequirement(_ context.Context, clanID, _ int64, minDumbbell int) error {
	f.clans[clanID].MinDumbbell = minDumbbell
	return nil
}

func (f *fakeStore) SetRole(_ context.Context, clanID, _, targetID int64, role string) error {
	p := f.players[targetID]
	if p.clanID == nil || *p.clanID != clanID {
		return common.ErrNotInClan
	}
	p.role = role
	return nil
}

func (f *fakeStore) Deposit(_ context.Context, clanID, playerID, amount int64) (int64, error) {
	p := f.players[playerID]
	if p.balance < amount {
		return 0, common.ErrInsufficientBalance
	}
	p.balance -= amount
	p.contribution += amount
	f.clans[clanID].Treasury += amount
	return f.clans[clanID].Treasury, nil
}

func (f *fakeStore) Withdraw(_ context.Context, clanID, playerID, amount int64) (int64, error) {
	c := f.clans[clanID]
	if c.Treasury < amount {
		return 0, common.ErrInsufficientTreasury
	}
	c.Treasury -= amount
	f.players[playerID].balance += amount
	return c.Treasury, nil
}

func (f *fakeStore) clanMembers(clanID int64) []*fakePlayer {
	var out []*fakePlayer
	for _, p := range f.players {
		if p.clanID != nil && *p.clanID == clanID {
			out = append(out, p)
		}
	}
	// Вклад по убыванию, при равенстве — меньший ID первым.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			a, b := out[i], out[j]
			if b.contribution > a.contribution || (b.contribution == a.contribution && b.id < a.id) {
				out[i], out[j] = b, a
			}
		}
	}
	return out
}

func (f *fakeStore) distribute(clanID, perMember int64, topN int) (*DistributeResult, error) {
	members := f.clanMembers(clanID)
	if topN > 0 && len(members) > topN {
		members = members[:topN]
	}
	total := perMember * int64(len(members))
	c := f.clans[clanID]
	if c.Treasury < total {
		return nil, common.ErrInsufficientTreasury
	}
	c.Treasury -= total

	res := &DistributeResult{PerMember: perMember, Total: total, NewTreasury: c.Treasury}
	for _, m := range members {
		m.balance += perMember
		res.Recipients = append(res.Recipients, &Contributor{PlayerID: m.id, Name: m.name, Contribution: m.contribution})
	}
	return res, nil
}

func (f *fakeStore) DistributeEqual(_ context.Context, clanID, _, perMember int64) (*DistributeResult, error) {
	return f.distribute(clanID, perMember, 0)
}

func (f *fakeStore) DistributeTop(_ context.Context, clanID, _, perMember int64, topN int) (*DistributeResult, error) {
	return f.distribute(clanID, perMember, topN)
}

func (f *fakeStore) Upgrade(_ context.Context, clanID int64, baseCost int64, maxLevels, levelCap int) (*UpgradeResult, error) {
	c := f.clans[clanID]
	res := &UpgradeResult{OldLevel: c.Level, NewLevel: c.Level}
	for i := 0; i < maxLevels && c.Level < levelCap; i++ {
		cost := UpgradeCost(baseCost, c.Level)
		if c.Treasury < cost {
			break
		}
		c.Treasury -= cost
		c.Level++
		res.Spent += cost
		res.NewLevel = c.Level
	}
	if res.NewLevel == res.OldLevel {
		if res.OldLevel >= levelCap {
			return nil, common.ErrClanMaxLevel
		}
		return nil, common.ErrInsufficientTreasury
	}
	res.NewTreasury = c.Treasury
	return res, nil
}

func (f *fakeStore) Members(_ context.Context, clanID int64) ([]*Member, error) {
	var out []*Member
	for _, p := range f.clanMembers(clanID) {
		out = append(out, &Member{PlayerID: p.id, Name: p.name, Role: p.role, Contribution: p.contribution})
	}
	return out, nil
}

func (f *fakeStore) Contributors(_ context.Context, clanID int64, limit int) ([]*Contributor, error) {
	var out []*Contributor
	for _, p := range f.clanMembers(clanID) {
		out = append(out, &Contributor{PlayerID: p.id, Name: p.name, Contribution: p.contribution})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) TreasuryLog(_ context.Context, _ int64, _ int) ([]*TreasuryEntry, error) {
	return nil, nil
}

func (f *fakeStore) ActionLog(_ context.Context, _ int64, _ int) ([]*LogEntry, error) {
	return nil, nil
}

func (f *fakeStore) MemberRole(_ context.Context, playerID int64) (*int64, string, error) {
	p, ok := f.players[playerID]
	if !ok {
		return nil, "", common.ErrPlayerNotFound
	}
	return p.clanID, p.role, nil
}

// fakeConfirms — подтверждения в памяти.
type fakeConfirms struct {
	saved map[string]string
}

func newFakeConfirms() *fakeConfirms {
	return &fakeConfirms{saved: make(map[string]string)}
}

func confirmKey(actorID int64, action string) string {
	return action + "/" + strconv.FormatInt(actorID, 10)
}

func (f *fakeConfirms) Save(_ context.Context, actorID int64, action, payload string) error {
	f.saved[confirmKey(actorID, action)] = payload
	return nil
}

func (f *fakeConfirms) Take(_ context.Context, actorID int64, action string) (string, bool, error) {
	key := confirmKey(actorID, action)
	payload, ok := f.saved[key]
	if !ok {
		return "", false, nil
	}
	delete(f.saved, key)
	return payload, true, nil
}

func (f *fakeConfirms) Drop(_ context.Context, actorID int64, action string) error {
	delete(f.saved, confirmKey(actorID, action))
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		ClanCreateCost:      300,
		ClanTransferCost:    500,
		ClanUpgradeBaseCost: 500,
		ClanMaxLevel:        10,
	}
}

func newTestService(store *fakeStore) *Service {
	return NewService(store, newFakeConfirms(), testConfig())
}

func TestCreateClanChargesFee(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 300)
	svc := newTestService(store)

	clan, err := svc.Create(ctx, 1, "leg", "Легенда")
	require.NoError(t, err)

	assert.Equal(t, "LEG", clan.Tag)
	assert.Equal(t, "Легенда", clan.Name)
	assert.Equal(t, 1, clan.Level)
	assert.Equal(t, int64(0), clan.Treasury)
	assert.Equal(t, int64(1), clan.OwnerID)
	assert.Equal(t, int64(0), store.players[1].balance)
	assert.Equal(t, RoleOwner, store.players[1].role)
}

func TestCreateClanInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 299)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "LEG", "Легенда")
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
	assert.Len(t, store.clans, 0)
	assert.Equal(t, int64(299), store.players[1].balance)
}

func TestCreateClanTagUnique(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	store.addPlayer(2, "Петя", 1000)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "LEG", "Легенда")
	require.NoError(t, err)

	_, err = svc.Create(ctx, 2, "leg", "Другой клан")
	assert.ErrorIs(t, err, common.ErrClanTagTaken)

	_, err = svc.Create(ctx, 2, "ABC", "Легенда")
	assert.ErrorIs(t, err, common.ErrClanNameTaken)
}

func TestJoinSecondClanRejected(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	store.addPlayer(2, "Петя", 1000)
	store.addPlayer(3, "Коля", 100)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, "BBB", "Второй клан")
	require.NoError(t, err)

	_, _, err = svc.Join(ctx, 3, "AAA", "Коля")
	require.NoError(t, err)

	_, _, err = svc.Join(ctx, 3, "BBB", "Коля")
	assert.ErrorIs(t, err, common.ErrAlreadyInClan)
	assert.Equal(t, int64(1), *store.players[3].clanID)
}

func TestJoinRespectsBanList(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	store.addPlayer(2, "Петя", 100)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, 2, "AAA", "Петя")
	require.NoError(t, err)

	_, err = svc.Kick(ctx, 1, 2)
	require.NoError(t, err)

	_, _, err = svc.Join(ctx, 2, "AAA", "Петя")
	assert.ErrorIs(t, err, common.ErrBanned)

	_, err = svc.Unban(ctx, 1, 2)
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, 2, "AAA", "Петя")
	assert.NoError(t, err)
}

func TestDepositWithdrawArithmetic(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)

	_, treasury, err := svc.Deposit(ctx, 1, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(400), treasury)
	assert.Equal(t, int64(300), store.players[1].balance)
	assert.Equal(t, int64(400), store.players[1].contribution)

	_, treasury, err = svc.Withdraw(ctx, 1, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(250), treasury)
	assert.Equal(t, int64(450), store.players[1].balance)

	// Снятие сверх казны отклоняется целиком, состояние не меняется.
	_, _, err = svc.Withdraw(ctx, 1, 1000)
	assert.ErrorIs(t, err, common.ErrInsufficientTreasury)
	assert.Equal(t, int64(250), store.clans[1].Treasury)
	assert.Equal(t, int64(450), store.players[1].balance)

	// Вклад сверх баланса тоже отклоняется целиком.
	_, _, err = svc.Deposit(ctx, 1, 10_000)
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
	assert.Equal(t, int64(250), store.clans[1].Treasury)
}

func TestWithdrawRequiresOfficer(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	store.addPlayer(2, "Петя", 500)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, 2, "AAA", "Петя")
	require.NoError(t, err)
	_, _, err = svc.Deposit(ctx, 2, 300)
	require.NoError(t, err)

	_, _, err = svc.Withdraw(ctx, 2, 100)
	assert.ErrorIs(t, err, common.ErrNotClanOfficer)

	_, err = svc.Promote(ctx, 1, 2)
	require.NoError(t, err)
	_, _, err = svc.Withdraw(ctx, 2, 100)
	assert.NoError(t, err)
}

func TestDistributeEqual(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 2000)
	store.addPlayer(2, "Петя", 0)
	store.addPlayer(3, "Коля", 0)
	store.addPlayer(4, "Дима", 0)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	for _, id := range []int64{2, 3, 4} {
		_, _, err = svc.Join(ctx, id, "AAA", "x")
		require.NoError(t, err)
	}
	_, _, err = svc.Deposit(ctx, 1, 1000)
	require.NoError(t, err)

	// Сумма указывается на каждого: 100 монет × 4 участника.
	_, res, err := svc.DistributeEqual(ctx, 1, 100)
	require.NoError(t, err)

	assert.Equal(t, int64(100), res.PerMember)
	assert.Equal(t, int64(400), res.Total)
	assert.Equal(t, int64(600), res.NewTreasury)
	assert.Len(t, res.Recipients, 4)
	assert.Equal(t, int64(100), store.players[2].balance)
	assert.Equal(t, int64(100), store.players[3].balance)
	assert.Equal(t, int64(100), store.players[4].balance)
}

func TestDistributeTopTieBreaksByID(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 5000)
	store.addPlayer(2, "Петя", 300)
	store.addPlayer(3, "Коля", 300)
	store.addPlayer(4, "Дима", 500)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	for _, id := range []int64{2, 3, 4} {
		_, _, err = svc.Join(ctx, id, "AAA", "x")
		require.NoError(t, err)
	}
	_, _, err = svc.Deposit(ctx, 1, 2000)
	require.NoError(t, err)
	_, _, err = svc.Deposit(ctx, 2, 300)
	require.NoError(t, err)
	_, _, err = svc.Deposit(ctx, 3, 300)
	require.NoError(t, err)
	_, _, err = svc.Deposit(ctx, 4, 500)
	require.NoError(t, err)

	_, res, err := svc.DistributeTop(ctx, 1, 50)
	require.NoError(t, err)

	require.Len(t, res.Recipients, 3)
	// Вклады: Ваня 2000, Дима 500, далее равные 300 у Пети и Коли —
	// при равенстве побеждает меньший ID.
	assert.Equal(t, int64(1), res.Recipients[0].PlayerID)
	assert.Equal(t, int64(4), res.Recipients[1].PlayerID)
	assert.Equal(t, int64(2), res.Recipients[2].PlayerID)
	assert.Equal(t, int64(150), res.Total)
}

func TestDistributeRejectedWhenTreasuryShort(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	store.addPlayer(2, "Петя", 0)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, 2, "AAA", "Петя")
	require.NoError(t, err)
	_, _, err = svc.Deposit(ctx, 1, 150)
	require.NoError(t, err)

	// 100 × 2 участника = 200 > 150 в казне: никто не получает ничего.
	_, _, err = svc.DistributeEqual(ctx, 1, 100)
	assert.ErrorIs(t, err, common.ErrInsufficientTreasury)
	assert.Equal(t, int64(150), store.clans[1].Treasury)
	assert.Equal(t, int64(0), store.players[2].balance)
}

func TestKickOfficerVsOfficer(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	store.addPlayer(2, "Петя", 0)
	store.addPlayer(3, "Коля", 0)
	store.addPlayer(4, "Дима", 0)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	for _, id := range []int64{2, 3, 4} {
		_, _, err = svc.Join(ctx, id, "AAA", "x")
		require.NoError(t, err)
	}
	_, err = svc.Promote(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.Promote(ctx, 1, 3)
	require.NoError(t, err)

	// Заместитель не может исключить заместителя.
	_, err = svc.Kick(ctx, 2, 3)
	assert.ErrorIs(t, err, common.ErrKickPeer)

	// Участника — может.
	_, err = svc.Kick(ctx, 2, 4)
	assert.NoError(t, err)

	// Владельца не может никто.
	_, err = svc.Kick(ctx, 2, 1)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	// Владелец может исключить заместителя.
	_, err = svc.Kick(ctx, 1, 3)
	assert.NoError(t, err)
}

func TestOwnerCannotLeave(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)

	_, err = svc.Leave(ctx, 1)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestTransferOwnershipSwapsRoles(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	store.addPlayer(2, "Петя", 0)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, 2, "AAA", "Петя")
	require.NoError(t, err)

	_, err = svc.TransferOwnership(ctx, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, RoleOfficer, store.players[1].role)
	assert.Equal(t, RoleOwner, store.players[2].role)
	assert.Equal(t, int64(2), store.clans[1].OwnerID)
	// 1000 - 300 создание - 500 передача
	assert.Equal(t, int64(200), store.players[1].balance)
}

func TestDisbandRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	store.addPlayer(2, "Петя", 0)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, 2, "AAA", "Петя")
	require.NoError(t, err)

	// Без запроса подтверждать нечего.
	_, err = svc.DisbandConfirm(ctx, 1)
	assert.ErrorIs(t, err, common.ErrNoConfirmation)

	_, err = svc.DisbandRequest(ctx, 1)
	require.NoError(t, err)

	_, err = svc.DisbandConfirm(ctx, 1)
	require.NoError(t, err)

	assert.Len(t, store.clans, 0)
	assert.Nil(t, store.players[1].clanID)
	assert.Nil(t, store.players[2].clanID)

	// Подтверждение одноразовое.
	_, err = svc.DisbandConfirm(ctx, 1)
	assert.ErrorIs(t, err, common.ErrNoConfirmation)
}

func TestDisbandOnlyOwner(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	store.addPlayer(2, "Петя", 0)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, 2, "AAA", "Петя")
	require.NoError(t, err)
	_, err = svc.Promote(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.DisbandRequest(ctx, 2)
	assert.ErrorIs(t, err, common.ErrNotClanLeader)
}

func TestUpgradeSpendsTreasury(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 5000)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	_, _, err = svc.Deposit(ctx, 1, 1600)
	require.NoError(t, err)

	// Уровень 1→2 стоит 500.
	_, res, err := svc.UpgradeOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewLevel)
	assert.Equal(t, int64(500), res.Spent)
	assert.Equal(t, int64(1100), res.NewTreasury)

	// «макс»: 2→3 стоит 1000, на 3→4 (1500) уже не хватает.
	_, res, err = svc.UpgradeMax(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, res.NewLevel)
	assert.Equal(t, int64(1000), res.Spent)
	assert.Equal(t, int64(100), res.NewTreasury)

	_, _, err = svc.UpgradeOne(ctx, 1)
	assert.ErrorIs(t, err, common.ErrInsufficientTreasury)
}

func TestJoinDumbbellRequirement(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	p2 := store.addPlayer(2, "Петя", 0)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)
	_, err = svc.SetRequirement(ctx, 1, 5)
	require.NoError(t, err)

	_, _, err = svc.Join(ctx, 2, "AAA", "Петя")
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	p2.dumbbellLevel = 5
	_, _, err = svc.Join(ctx, 2, "AAA", "Петя")
	assert.NoError(t, err)
}

func TestGreetingClearedByKeyword(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addPlayer(1, "Ваня", 1000)
	svc := newTestService(store)

	_, err := svc.Create(ctx, 1, "AAA", "Первый клан")
	require.NoError(t, err)

	_, err = svc.SetGreeting(ctx, 1, "Привет, {player}!")
	require.NoError(t, err)
	assert.Equal(t, "Привет, {player}!", store.clans[1].Greeting)

	_, err = svc.SetGreeting(ctx, 1, "нет")
	require.NoError(t, err)
	assert.Equal(t, "", store.clans[1].Greeting)
}
