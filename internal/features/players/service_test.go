package players

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/config"
)

// fakeStore — хранилище игроков в памяти для тестов.
type fakeStore struct {
	players  map[int64]*Player
	lastTop  TopKind
	lastLift map[int64]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:  make(map[int64]*Player),
		lastLift: make(map[int64]time.Time),
	}
}

func (f *fakeStore) addPlayer(id int64, balance int64, dumbbellLevel int) *Player {
	p := &Player{ID: id, TgID: 1000 + id, Balance: balance, DumbbellLevel: dumbbellLevel, CreatedAt: time.Now()}
	f.players[id] = p
	return p
}

func (f *fakeStore) Ensure(_ context.Context, tgID int64, username string) (*Player, error) {
	for _, p := range f.players {
		if p.TgID == tgID {
			p.Username = username
			return p, nil
		}
	}
	p := &Player{ID: int64(len(f.players) + 1), TgID: tgID, Username: username, DumbbellLevel: 1}
	f.players[p.ID] = p
	return p, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, common.ErrPlayerNotFound
	}
	return p, nil
}

func (f *fakeStore) GetByTgID(_ context.Context, tgID int64) (*Player, error) {
	for _, p := range f.players {
		if p.TgID == tgID {
			return p, nil
		}
	}
	return nil, common.ErrPlayerNotFound
}

func (f *fakeStore) NicknameTaken(_ context.Context, nickname string, exceptID int64) (bool, error) {
	for _, p := range f.players {
		if p.ID != exceptID && p.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SetNickname(_ context.Context, id int64, nickname string) error {
	p, ok := f.players[id]
	if !ok {
		return common.ErrPlayerNotFound
	}
	p.Nickname = nickname
	return nil
}

func (f *fakeStore) Transfer(_ context.Context, fromID, toID, amount, fee int64) error {
	from, ok := f.players[fromID]
	if !ok {
		return common.ErrPlayerNotFound
	}
	to, ok := f.players[toID]
	if !ok {
		return common.ErrPlayerNotFound
	}
	if from.Balance < amount+fee {
		return common.ErrInsufficientBalance
	}
	from.Balance -= amount + fee
	to.Balance += amount
	return nil
}

func (f *fakeStore) Lift(_ context.Context, playerID int64, income, powerGain int64, cooldown time.Duration) (*LiftResult, error) {
	p, ok := f.players[playerID]
	if !ok {
		return nil, common.ErrPlayerNotFound
	}
	if last, ok := f.lastLift[playerID]; ok {
		if remaining := cooldown - time.Since(last); remaining > 0 {
			return &LiftResult{Remaining: remaining}, common.ErrLiftCooldown
		}
	}
	f.lastLift[playerID] = time.Now()
	p.Balance += income
	p.TotalEarned += income
	p.Power += powerGain
	p.TotalLifts++
	return &LiftResult{
		Income:     income,
		PowerGain:  powerGain,
		NewBalance: p.Balance,
		NewPower:   p.Power,
		TotalLifts: p.TotalLifts,
	}, nil
}

func (f *fakeStore) BuyDumbbell(_ context.Context, playerID int64, newLevel int, price int64) error {
	p, ok := f.players[playerID]
	if !ok {
		return common.ErrPlayerNotFound
	}
	if p.Balance < price {
		return common.ErrInsufficientBalance
	}
	p.Balance -= price
	p.DumbbellLevel = newLevel
	return nil
}

func (f *fakeStore) Top(_ context.Context, kind TopKind, limit int) ([]*Player, error) {
	f.lastTop = kind
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		LiftCooldown:       time.Minute,
		TransferMin:        10,
		TransferFeePercent: 5,
	}
}

func TestLiftEarnsTableIncome(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, testConfig())
	player := store.addPlayer(1, 0, 5)

	res, err := svc.Lift(context.Background(), player)
	require.NoError(t, err)

	// Гантеля 5кг даёт 5 монет и 5 силы за подход
	assert.Equal(t, int64(5), res.Income)
	assert.Equal(t, int64(5), res.PowerGain)
	assert.Equal(t, int64(5), res.NewBalance)
	assert.Equal(t, int64(1), res.TotalLifts)
}

func TestLiftCustomIncomeOverridesTable(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, testConfig())
	player := store.addPlayer(1, 0, 5)
	player.CustomIncome = 777

	res, err := svc.Lift(context.Background(), player)
	require.NoError(t, err)
	assert.Equal(t, int64(777), res.Income)
}

func TestLiftCooldown(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, testConfig())
	player := store.addPlayer(1, 0, 1)

	_, err := svc.Lift(context.Background(), player)
	require.NoError(t, err)

	res, err := svc.Lift(context.Background(), player)
	assert.ErrorIs(t, err, common.ErrLiftCooldown)
	assert.Greater(t, res.Remaining, time.Duration(0))
}

func TestLiftBannedPlayer(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, testConfig())
	player := store.addPlayer(1, 0, 1)
	player.PermBanned = true

	_, err := svc.Lift(context.Background(), player)
	assert.ErrorIs(t, err, common.ErrBanned)
}

func TestTransferFee(t *testing.T) {
	svc := NewService(newFakeStore(), testConfig())

	// 5%, но не меньше одной монеты
	assert.Equal(t, int64(1), svc.TransferFee(10))
	assert.Equal(t, int64(1), svc.TransferFee(30))
	assert.Equal(t, int64(5), svc.TransferFee(100))
	assert.Equal(t, int64(50), svc.TransferFee(1000))
}

func TestTransfer(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, testConfig())
	from := store.addPlayer(1, 200, 1)
	store.addPlayer(2, 0, 1)
	ctx := context.Background()

	recipient, fee, err := svc.Transfer(ctx, from, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), recipient.ID)
	assert.Equal(t, int64(5), fee)
	assert.Equal(t, int64(95), store.players[1].Balance)
	assert.Equal(t, int64(100), store.players[2].Balance)
}

func TestTransferValidation(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, testConfig())
	from := store.addPlayer(1, 1000, 1)
	store.addPlayer(2, 0, 1)
	banned := store.addPlayer(3, 0, 1)
	banned.PermBanned = true
	ctx := context.Background()

	_, _, err := svc.Transfer(ctx, from, 1, 100)
	assert.ErrorIs(t, err, common.ErrSelfTransfer)

	_, _, err = svc.Transfer(ctx, from, 2, 9)
	assert.ErrorIs(t, err, common.ErrTransferTooSmall)

	_, _, err = svc.Transfer(ctx, from, 2, -50)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, _, err = svc.Transfer(ctx, from, 99, 100)
	assert.ErrorIs(t, err, common.ErrPlayerNotFound)

	_, _, err = svc.Transfer(ctx, from, 3, 100)
	assert.ErrorIs(t, err, common.ErrBanned)

	// Не хватает на сумму с комиссией: 1000 + 50 > 1000
	_, _, err = svc.Transfer(ctx, from, 2, 1000)
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
}

func TestBuyNextDumbbell(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, testConfig())
	player := store.addPlayer(1, 10, 1)
	ctx := context.Background()

	next, err := svc.BuyNextDumbbell(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Level)
	assert.Equal(t, int64(0), store.players[1].Balance)

	// на третью гантелю уже не хватает
	player.DumbbellLevel = 2
	_, err = svc.BuyNextDumbbell(ctx, player)
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
}

func TestBuyDumbbellAtMaxLevel(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, testConfig())
	player := store.addPlayer(1, 100000, MaxDumbbellLevel)

	_, err := svc.BuyNextDumbbell(context.Background(), player)
	assert.ErrorIs(t, err, common.ErrMaxDumbbell)
}

func TestSetNickname(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, testConfig())
	player := store.addPlayer(1, 0, 1)
	other := store.addPlayer(2, 0, 1)
	other.Nickname = "Качок"
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetNickname(ctx, player, "аб"), common.ErrInvalidNickname)
	assert.ErrorIs(t, svc.SetNickname(ctx, player, "ник!@#"), common.ErrInvalidNickname)
	assert.ErrorIs(t, svc.SetNickname(ctx, player, "два  пробела"), common.ErrInvalidNickname)
	assert.ErrorIs(t, svc.SetNickname(ctx, player, "Качок"), common.ErrNicknameTaken)

	require.NoError(t, svc.SetNickname(ctx, player, "Железный Арни"))
	assert.Equal(t, "Железный Арни", store.players[1].Nickname)
}

func TestDumbbellTable(t *testing.T) {
	first, ok := DumbbellByLevel(1)
	require.True(t, ok)
	assert.Equal(t, int64(0), first.Price)

	last, ok := DumbbellByLevel(MaxDumbbellLevel)
	require.True(t, ok)
	assert.Equal(t, int64(1100), last.Price)
	assert.Equal(t, int64(55), last.Income)

	_, ok = DumbbellByLevel(0)
	assert.False(t, ok)
	_, ok = DumbbellByLevel(MaxDumbbellLevel + 1)
	assert.False(t, ok)

	// Цены и доход растут монотонно
	prev := first
	for level := 2; level <= MaxDumbbellLevel; level++ {
		d, ok := DumbbellByLevel(level)
		require.True(t, ok)
		assert.Greater(t, d.Price, prev.Price, "уровень %d", level)
		assert.GreaterOrEqual(t, d.Income, prev.Income, "уровень %d", level)
		prev = d
	}
}

func TestTopUnknownKindFallsBackToBalance(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, testConfig())

	_, err := svc.Top(context.Background(), TopKind("чепуха"))
	require.NoError(t, err)
	assert.Equal(t, TopByBalance, store.lastTop)

	_, err = svc.Top(context.Background(), TopByLifts)
	require.NoError(t, err)
	assert.Equal(t, TopByLifts, store.lastTop)
}
