package promo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/config"
)

// fakeStore — промокоды в памяти с той же арифметикой активаций,
// что и у боевого репозитория.
type fakeStore struct {
	codes   map[string]*Code
	credits map[int64]map[string]int64
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		codes:   make(map[string]*Code),
		credits: make(map[int64]map[string]int64),
		nextID:  1,
	}
}

func (f *fakeStore) Create(_ context.Context, code, rewardType string, amount int64, uses int, expiresAt *time.Time, createdBy int64) (*Code, error) {
	if _, ok := f.codes[code]; ok {
		return nil, common.ErrPromoExists
	}
	c := &Code{
		ID: f.nextID, Code: code, RewardType: rewardType, Amount: amount,
		UsesLeft: uses, TotalUses: uses, ExpiresAt: expiresAt, CreatedBy: createdBy, CreatedAt: time.Now(),
	}
	f.nextID++
	f.codes[code] = c
	return c, nil
}

func (f *fakeStore) GetByCode(_ context.Context, code string) (*Code, error) {
	c, ok := f.codes[code]
	if !ok {
		return nil, common.ErrPromoNotFound
	}
	return c, nil
}

func (f *fakeStore) Delete(_ context.Context, code string) error {
	if _, ok := f.codes[code]; !ok {
		return common.ErrPromoNotFound
	}
	delete(f.codes, code)
	return nil
}

func (f *fakeStore) List(_ context.Context, _ int) ([]*Code, error) {
	var out []*Code
	for _, c := range f.codes {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) Redeem(_ context.Context, code string, playerID int64) (*RedeemResult, error) {
	c, ok := f.codes[code]
	if !ok {
		return nil, common.ErrPromoNotFound
	}
	if c.Expired(time.Now()) {
		return nil, common.ErrPromoExpired
	}
	if c.UsesLeft <= 0 {
		return nil, common.ErrPromoExhausted
	}
	c.UsesLeft--
	if f.credits[playerID] == nil {
		f.credits[playerID] = make(map[string]int64)
	}
	f.credits[playerID][c.RewardType] += c.Amount
	return &RedeemResult{Code: c, RewardType: c.RewardType, Amount: c.Amount}, nil
}

func newTestService(store *fakeStore) *Service {
	return NewService(store, &config.Config{
		PromoMaxCoins:    10000,
		PromoMaxMagnesia: 1000,
		PromoMaxPower:    500,
	})
}

func TestParseReward(t *testing.T) {
	for raw, want := range map[string]string{
		"монеты":   RewardCoins,
		"Магнезия": RewardMagnesia,
		"сила":     RewardPower,
	} {
		got, err := ParseReward(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"опыт", "деньги", ""} {
		_, err := ParseReward(bad)
		assert.Error(t, err, "награда %q должна быть отвергнута", bad)
	}
}

// Потолки сумм привязаны к рангу создателя: для модераторов включены,
// старшие админы и создатель выдают любую сумму.
func TestCreateCapsOnlyWhenCapped(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore())

	_, err := svc.Create(ctx, "CREATORPROMO", "монеты", 50000, 10, 0, 1, false)
	assert.NoError(t, err)

	_, err = svc.Create(ctx, "BIGFREEPOWER", "сила", 100000, 10, 0, 1, false)
	assert.NoError(t, err)

	_, err = svc.Create(ctx, "MODPROMO", "монеты", 50000, 10, 0, 3, true)
	assert.ErrorIs(t, err, common.ErrPromoLimit)
}

func TestCreateEnforcesCaps(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore())

	_, err := svc.Create(ctx, "GYM2026", "монеты", 10000, 100, 0, 1, true)
	assert.NoError(t, err)

	_, err = svc.Create(ctx, "BIGCOINS", "монеты", 10001, 100, 0, 1, true)
	assert.ErrorIs(t, err, common.ErrPromoLimit)

	_, err = svc.Create(ctx, "BIGPOWER", "сила", 501, 100, 0, 1, true)
	assert.ErrorIs(t, err, common.ErrPromoLimit)

	_, err = svc.Create(ctx, "ZERO", "монеты", 0, 100, 0, 1, false)
	assert.ErrorIs(t, err, common.ErrPromoLimit)

	_, err = svc.Create(ctx, "NOUSES", "монеты", 100, 0, 0, 1, false)
	assert.ErrorIs(t, err, common.ErrPromoLimit)
}

func TestCreateDuplicateCode(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore())

	_, err := svc.Create(ctx, "GYM", "монеты", 100, 10, 0, 1, true)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "gym", "сила", 50, 10, 0, 1, true)
	assert.ErrorIs(t, err, common.ErrPromoExists)
}

func TestRedeemSingleUse(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store)

	// Одна активация на весь код: второй игрок опаздывает.
	_, err := svc.Create(ctx, "LAST", "монеты", 500, 1, 0, 1, true)
	require.NoError(t, err)

	res, err := svc.Redeem(ctx, "last", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.Amount)
	assert.Equal(t, int64(500), store.credits[10][RewardCoins])

	_, err = svc.Redeem(ctx, "LAST", 11)
	assert.ErrorIs(t, err, common.ErrPromoExhausted)
}

func TestRedeemDecrementsGlobalCounter(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.Create(ctx, "GYM", "сила", 50, 3, 0, 1, true)
	require.NoError(t, err)

	// Счётчик общий на код: один игрок может активировать дважды.
	_, err = svc.Redeem(ctx, "GYM", 10)
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, "GYM", 10)
	require.NoError(t, err)

	assert.Equal(t, int64(100), store.credits[10][RewardPower])
	assert.Equal(t, 1, store.codes["GYM"].UsesLeft)
}

func TestRedeemExpired(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store)

	past := time.Now().Add(-time.Hour)
	_, err := store.Create(ctx, "OLD", RewardCoins, 100, 10, &past, 1)
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, "OLD", 10)
	assert.ErrorIs(t, err, common.ErrPromoExpired)
}

func TestRedeemUnknownCode(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore())

	_, err := svc.Redeem(ctx, "NOPE", 10)
	assert.ErrorIs(t, err, common.ErrPromoNotFound)

	_, err = svc.Redeem(ctx, "нерусский", 10)
	assert.ErrorIs(t, err, common.ErrPromoNotFound)
}
