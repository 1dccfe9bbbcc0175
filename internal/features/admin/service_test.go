package admin

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"

	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/config"
)

// fakeStore — административное хранилище в памяти для тестов.
type fakeStore struct {
	players     map[int64]*PlayerCard
	requests    map[int64]*Request
	nextRequest int64

	access     map[int64]*InfoAccess
	broadcasts map[int64]int
	failedLogs map[int64]int

	deletedPlayers []int64
	deletedClans   []string
	resetCalls     int
	logs           []string
	tgIDs          []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:    make(map[int64]*PlayerCard),
		requests:   make(map[int64]*Request),
		access:     make(map[int64]*InfoAccess),
		broadcasts: make(map[int64]int),
		failedLogs: make(map[int64]int),
	}
}

func (f *fakeStore) addPlayer(id, tgID int64, adminLevel int) *PlayerCard {
	card := &PlayerCard{ID: id, TgID: tgID, Username: fmt.Sprintf("player%d", id),
		AdminLevel: adminLevel, DumbbellLevel: 1, CreatedAt: time.Now()}
	f.players[id] = card
	return card
}

func (f *fakeStore) PlayerCard(_ context.Context, playerID int64) (*PlayerCard, error) {
	card, ok := f.players[playerID]
	if !ok {
		return nil, common.ErrPlayerNotFound
	}
	return card, nil
}

func (f *fakeStore) RecentPlayers(_ context.Context, _ int) ([]*PlayerCard, error) { return nil, nil }
func (f *fakeStore) AllClans(_ context.Context) ([]*ClanCard, error)              { return nil, nil }
func (f *fakeStore) AllPlayerTgIDs(_ context.Context) ([]int64, error)            { return f.tgIDs, nil }

func (f *fakeStore) mutate(playerID int64, fn func(*PlayerCard)) error {
	card, ok := f.players[playerID]
	if !ok {
		return common.ErrPlayerNotFound
	}
	fn(card)
	return nil
}

func (f *fakeStore) AddBalance(_ context.Context, playerID, amount int64) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.Balance += amount })
}

func (f *fakeStore) SubBalance(_ context.Context, playerID, amount int64) error {
	return f.mutate(playerID, func(c *PlayerCard) {
		c.Balance -= amount
		if c.Balance < 0 {
			c.Balance = 0
		}
	})
}

func (f *fakeStore) Ban(_ context.Context, playerID int64, until time.Time, reason string) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.BannedUntil = &until; c.BanReason = reason })
}

func (f *fakeStore) PermBan(_ context.Context, playerID int64, reason string) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.PermBanned = true; c.BanReason = reason })
}

func (f *fakeStore) Unban(_ context.Context, playerID int64) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.BannedUntil = nil; c.PermBanned = false })
}

func (f *fakeStore) SetNickname(_ context.Context, playerID int64, nickname string) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.Nickname = nickname })
}

func (f *fakeStore) SetLifts(_ context.Context, playerID, lifts int64) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.TotalLifts = lifts })
}

func (f *fakeStore) SetCustomIncome(_ context.Context, playerID, income int64) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.CustomIncome = income })
}

func (f *fakeStore) AddMagnesia(_ context.Context, playerID, amount int64) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.Magnesia += amount })
}

func (f *fakeStore) SetPower(_ context.Context, playerID, power int64) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.Power = power })
}

func (f *fakeStore) SetDumbbell(_ context.Context, playerID int64, level int) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.DumbbellLevel = level })
}

func (f *fakeStore) SetAdminLevel(_ context.Context, playerID int64, level int) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.AdminLevel = level })
}

func (f *fakeStore) SetAdminNick(_ context.Context, playerID int64, nick string) error {
	return f.mutate(playerID, func(c *PlayerCard) { c.AdminNick = nick })
}

func (f *fakeStore) DeletePlayer(_ context.Context, playerID int64) error {
	if _, ok := f.players[playerID]; !ok {
		return common.ErrPlayerNotFound
	}
	delete(f.players, playerID)
	f.deletedPlayers = append(f.deletedPlayers, playerID)
	return nil
}

func (f *fakeStore) DeleteClanByTag(_ context.Context, tag string) error {
	f.deletedClans = append(f.deletedClans, tag)
	return nil
}

func (f *fakeStore) RenameClanByTag(_ context.Context, _, _ string) error { return nil }

func (f *fakeStore) ResetAll(_ context.Context) error {
	f.resetCalls++
	return nil
}

func (f *fakeStore) AppendLog(_ context.Context, _ int64, action string, _ int64, _ string) error {
	f.logs = append(f.logs, action)
	return nil
}

func (f *fakeStore) PanelStats(_ context.Context, _ int64) (*PanelStats, error) {
	return &PanelStats{}, nil
}

func (f *fakeStore) CreateRequest(_ context.Context, requesterID int64, reqType string, targetID int64, targetTag, reason string) (*Request, error) {
	f.nextRequest++
	req := &Request{ID: f.nextRequest, RequesterID: requesterID, Type: reqType,
		TargetID: targetID, TargetTag: targetTag, Reason: reason,
		Status: StatusPending, CreatedAt: time.Now()}
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeStore) GetRequest(_ context.Context, requestID int64) (*Request, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return nil, common.ErrRequestNotFound
	}
	return req, nil
}

func (f *fakeStore) PendingRequests(_ context.Context) ([]*Request, error) {
	var out []*Request
	for _, req := range f.requests {
		if req.Status == StatusPending {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeStore) ResolveRequest(_ context.Context, requestID, processedBy int64, status string) (*Request, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return nil, common.ErrRequestNotFound
	}
	if req.Status != StatusPending {
		return nil, common.ErrAlreadyProcessed
	}
	now := time.Now()
	req.Status = status
	req.ProcessedBy = processedBy
	req.ProcessedAt = &now
	return req, nil
}

func (f *fakeStore) GrantInfoAccess(_ context.Context, playerID, grantedBy int64, until time.Time) error {
	f.access[playerID] = &InfoAccess{PlayerID: playerID, GrantedBy: grantedBy, ExpiresAt: until}
	return nil
}

func (f *fakeStore) RevokeInfoAccess(_ context.Context, playerID int64) error {
	if _, ok := f.access[playerID]; !ok {
		return common.ErrAccessNotFound
	}
	delete(f.access, playerID)
	return nil
}

func (f *fakeStore) InfoAccess(_ context.Context, playerID int64) (*InfoAccess, error) {
	access, ok := f.access[playerID]
	if !ok {
		return nil, common.ErrAccessNotFound
	}
	return access, nil
}

func (f *fakeStore) ListInfoAccess(_ context.Context) ([]*InfoAccess, error) { return nil, nil }

func (f *fakeStore) CountBroadcasts(_ context.Context, adminID int64) (int, error) {
	return f.broadcasts[adminID], nil
}

func (f *fakeStore) RecordBroadcast(_ context.Context, adminID int64) error {
	f.broadcasts[adminID]++
	return nil
}

func (f *fakeStore) RecordLoginAttempt(_ context.Context, tgID int64, success bool) error {
	if !success {
		f.failedLogs[tgID]++
	}
	return nil
}

func (f *fakeStore) FailedLoginAttempts(_ context.Context, tgID int64) (int, error) {
	return f.failedLogs[tgID], nil
}

func (f *fakeStore) Stats(_ context.Context) (*Stats, error) { return &Stats{}, nil }

// fakeConfirms — отложенные подтверждения в памяти.
type fakeConfirms struct {
	saved map[string]string
}

func newFakeConfirms() *fakeConfirms {
	return &fakeConfirms{saved: make(map[string]string)}
}

func confirmKey(actorID int64, action string) string {
	return fmt.Sprintf("%s/%d", action, actorID)
}

func (f *fakeConfirms) Save(_ context.Context, actorID int64, action, payload string) error {
	f.saved[confirmKey(actorID, action)] = payload
	return nil
}

func (f *fakeConfirms) Take(_ context.Context, actorID int64, action string) (string, bool, error) {
	key := confirmKey(actorID, action)
	payload, ok := f.saved[key]
	if ok {
		delete(f.saved, key)
	}
	return payload, ok, nil
}

func (f *fakeConfirms) Drop(_ context.Context, actorID int64, action string) error {
	delete(f.saved, confirmKey(actorID, action))
	return nil
}

func testAdminConfig() *config.Config {
	return &config.Config{BroadcastDailyLimit: 5}
}

// Игроки в сценариях: 1 — создатель, 2 — старший, 3 — модератор,
// 10 и дальше — обычные игроки.
func newTestService() (*Service, *fakeStore, *fakeConfirms) {
	store := newFakeStore()
	store.addPlayer(1, 101, LevelCreator)
	store.addPlayer(2, 102, LevelSenior)
	store.addPlayer(3, 103, LevelModerator)
	store.addPlayer(10, 110, LevelNone)
	confirms := newFakeConfirms()
	return NewService(store, confirms, testAdminConfig()), store, confirms
}

func TestModeratorDeleteGoesThroughQueue(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	// Модератор не удаляет сразу, а создаёт заявку.
	req, err := svc.DeletePlayerStart(ctx, 3, 10, "мультиаккаунт")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, StatusPending, req.Status)
	assert.Empty(t, store.deletedPlayers)

	// Старший одобряет, и действие выполняется в момент одобрения.
	approved, err := svc.Approve(ctx, 2, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, []int64{10}, store.deletedPlayers)

	// Повторное одобрение той же заявки невозможно.
	_, err = svc.Approve(ctx, 1, req.ID)
	assert.ErrorIs(t, err, common.ErrAlreadyProcessed)

	// Как и отклонение уже обработанной.
	_, err = svc.Reject(ctx, 2, req.ID, "передумал")
	assert.ErrorIs(t, err, common.ErrAlreadyProcessed)
}

func TestRejectLeavesTargetIntact(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	req, err := svc.DeletePlayerStart(ctx, 3, 10, "спам")
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, 2, req.ID, "недостаточно оснований")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Empty(t, store.deletedPlayers)
	_, err = store.PlayerCard(ctx, 10)
	assert.NoError(t, err)
}

func TestApproveFailureKeepsRequestPending(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	req, err := svc.DeletePlayerStart(ctx, 3, 10, "мультиаккаунт")
	require.NoError(t, err)

	// Цель пропала до одобрения: действие падает, заявка не должна
	// застрять в статусе approved.
	delete(store.players, 10)
	_, err = svc.Approve(ctx, 2, req.ID)
	require.ErrorIs(t, err, common.ErrPlayerNotFound)
	assert.Equal(t, StatusPending, store.requests[req.ID].Status)

	// После устранения причины заявку можно одобрить повторно.
	store.addPlayer(10, 110, LevelNone)
	approved, err := svc.Approve(ctx, 2, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, []int64{10}, store.deletedPlayers)
}

func TestModeratorCannotMutatePlayers(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.AddBalance(ctx, 3, 10, 1000), common.ErrPermissionDenied)
	assert.ErrorIs(t, svc.Ban(ctx, 3, 10, 7, "спам"), common.ErrPermissionDenied)
	assert.ErrorIs(t, svc.SetDumbbell(ctx, 3, 10, 5), common.ErrPermissionDenied)

	// Обычный игрок не проходит даже первый уровень шлюза.
	assert.ErrorIs(t, svc.AddBalance(ctx, 10, 3, 1000), common.ErrNotAdmin)
}

func TestSeniorDeletePlayerNeedsConfirmation(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	req, err := svc.DeletePlayerStart(ctx, 2, 10, "нарушение правил")
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.Empty(t, store.deletedPlayers)

	targetID, err := svc.DeletePlayerConfirm(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(10), targetID)
	assert.Equal(t, []int64{10}, store.deletedPlayers)

	// Подтверждение одноразовое.
	_, err = svc.DeletePlayerConfirm(ctx, 2)
	assert.ErrorIs(t, err, common.ErrNoConfirmation)
}

func TestDeletePlayerCancelDropsConfirmation(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	_, err := svc.DeletePlayerStart(ctx, 2, 10, "ошибка")
	require.NoError(t, err)
	require.NoError(t, svc.DeletePlayerCancel(ctx, 2))

	_, err = svc.DeletePlayerConfirm(ctx, 2)
	assert.ErrorIs(t, err, common.ErrNoConfirmation)
	assert.Empty(t, store.deletedPlayers)
}

func TestDeleteClanRepeatToConfirm(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	// Первый вызов старшего только откладывает удаление.
	req, needRepeat, err := svc.DeleteClan(ctx, 2, "leg", "мёртвый клан")
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.True(t, needRepeat)
	assert.Empty(t, store.deletedClans)

	// Повтор с тем же тегом выполняет удаление.
	req, needRepeat, err = svc.DeleteClan(ctx, 2, "LEG", "мёртвый клан")
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.False(t, needRepeat)
	assert.Equal(t, []string{"LEG"}, store.deletedClans)

	// Модератор вместо подтверждения создаёт заявку.
	req, needRepeat, err = svc.DeleteClan(ctx, 3, "IRN", "реклама")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.False(t, needRepeat)
	assert.Equal(t, RequestDeleteClan, req.Type)
	assert.Equal(t, "IRN", req.TargetTag)
}

func TestDeleteClanDifferentTagRestartsConfirmation(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	_, needRepeat, err := svc.DeleteClan(ctx, 2, "LEG", "")
	require.NoError(t, err)
	require.True(t, needRepeat)

	// Повтор с другим тегом не удаляет старый, а откладывает новый.
	_, needRepeat, err = svc.DeleteClan(ctx, 2, "IRN", "")
	require.NoError(t, err)
	assert.True(t, needRepeat)
	assert.Empty(t, store.deletedClans)

	_, needRepeat, err = svc.DeleteClan(ctx, 2, "IRN", "")
	require.NoError(t, err)
	assert.False(t, needRepeat)
	assert.Equal(t, []string{"IRN"}, store.deletedClans)
}

func TestResetAllApprovableOnlyByCreator(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	req, err := svc.ResetAllStart(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, RequestResetAll, req.Type)

	// Старшему администратору заявка на полный сброс не по уровню.
	_, err = svc.Approve(ctx, 2, req.ID)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
	assert.Zero(t, store.resetCalls)

	// Создатель одобряет, сброс выполняется ровно один раз.
	_, err = svc.Approve(ctx, 1, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.resetCalls)
}

func TestResetAllConfirmFlow(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	req, err := svc.ResetAllStart(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.Zero(t, store.resetCalls)

	require.NoError(t, svc.ResetAllConfirm(ctx, 1))
	assert.Equal(t, 1, store.resetCalls)

	assert.ErrorIs(t, svc.ResetAllConfirm(ctx, 1), common.ErrNoConfirmation)
}

func TestPromoteRespectsHierarchy(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	// Старший не может выдать уровень сильнее собственного.
	assert.ErrorIs(t, svc.PromoteAdmin(ctx, 2, 10, LevelCreator), common.ErrPermissionDenied)

	// И не может трогать равного себе.
	assert.ErrorIs(t, svc.PromoteAdmin(ctx, 2, 2, LevelModerator), common.ErrPermissionDenied)

	// Модератору команда недоступна вовсе.
	assert.ErrorIs(t, svc.PromoteAdmin(ctx, 3, 10, LevelModerator), common.ErrPermissionDenied)

	// Старший назначает модератора, создатель — старшего.
	require.NoError(t, svc.PromoteAdmin(ctx, 2, 10, LevelModerator))
	assert.Equal(t, LevelModerator, store.players[10].AdminLevel)

	store.addPlayer(11, 111, LevelNone)
	require.NoError(t, svc.PromoteAdmin(ctx, 1, 11, LevelSenior))
	assert.Equal(t, LevelSenior, store.players[11].AdminLevel)

	// Уровень вне диапазона отклоняется.
	assert.ErrorIs(t, svc.PromoteAdmin(ctx, 1, 10, 4), common.ErrInvalidAmount)
}

func TestDemoteRespectsHierarchy(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	// Старший снимает модератора.
	require.NoError(t, svc.DemoteAdmin(ctx, 2, 3))
	assert.Equal(t, LevelNone, store.players[3].AdminLevel)

	// Но не равного и не создателя.
	store.addPlayer(4, 104, LevelSenior)
	assert.ErrorIs(t, svc.DemoteAdmin(ctx, 2, 4), common.ErrPermissionDenied)
	assert.ErrorIs(t, svc.DemoteAdmin(ctx, 2, 1), common.ErrPermissionDenied)

	// Снятие не-админа сообщает об этом явно.
	assert.ErrorIs(t, svc.DemoteAdmin(ctx, 1, 10), common.ErrNotAdmin)
}

func TestBroadcastLimitForModerators(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	store.tgIDs = []int64{110, 111, 112}

	// Пять рассылок модератору доступны, шестая упирается в лимит.
	for i := 0; i < 5; i++ {
		recipients, err := svc.BeginBroadcast(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, recipients, 3)
		svc.FinishBroadcast(ctx, 3, len(recipients), 0)
	}
	_, err := svc.BeginBroadcast(ctx, 3)
	assert.ErrorIs(t, err, common.ErrBroadcastLimit)

	// Старшие уровни лимитом не ограничены.
	store.broadcasts[2] = 50
	_, err = svc.BeginBroadcast(ctx, 2)
	assert.NoError(t, err)
}

func TestConfiguredAdminIDsAreCreators(t *testing.T) {
	store := newFakeStore()
	store.addPlayer(10, 110, LevelNone)
	cfg := testAdminConfig()
	cfg.AdminIDs = []int64{110}
	svc := NewService(store, newFakeConfirms(), cfg)

	level, err := svc.Level(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, LevelCreator, level)
}

func TestInfoRequiresAdminOrGrantedAccess(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	store.addPlayer(11, 111, LevelNone)

	_, err := svc.Info(ctx, 10, 11)
	assert.ErrorIs(t, err, common.ErrNotAdmin)

	// Старший выдаёт доступ на 7 дней, команда открывается.
	require.NoError(t, svc.GrantInfoAccess(ctx, 2, 10, 7))
	card, err := svc.Info(ctx, 10, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(11), card.ID)

	// Ноль дней отзывает доступ.
	require.NoError(t, svc.GrantInfoAccess(ctx, 2, 10, 0))
	_, err = svc.Info(ctx, 10, 11)
	assert.ErrorIs(t, err, common.ErrNotAdmin)
}

func encodeArgon2id(password string) string {
	salt := []byte("testsalt12345678")
	var memory uint32 = 65536
	var iterations uint32 = 3
	var parallelism uint8 = 2
	sum := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, 32)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum))
}

func TestLoginGrantsCreatorLevel(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	svc.cfg.AdminPasswordHash = encodeArgon2id("сталь-и-пот")

	require.NoError(t, svc.Login(ctx, 10, 110, "сталь-и-пот"))
	assert.Equal(t, LevelCreator, store.players[10].AdminLevel)
}

func TestLoginLockoutAfterThreeFailures(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	svc.cfg.AdminPasswordHash = encodeArgon2id("сталь-и-пот")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, svc.Login(ctx, 10, 110, "не тот пароль"), common.ErrWrongPassword)
	}
	// Четвёртая попытка блокируется даже с верным паролем.
	assert.ErrorIs(t, svc.Login(ctx, 10, 110, "сталь-и-пот"), common.ErrTooManyAttempts)
	assert.Equal(t, LevelNone, store.players[10].AdminLevel)
}
