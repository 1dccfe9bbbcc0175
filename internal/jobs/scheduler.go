// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: чистка истёкших подтверждений
// и еженощная уборка журналов.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"gymlegend.ru/gym-bot/internal/features/admin"
	"gymlegend.ru/gym-bot/internal/features/confirm"
)

// Журналы аудита и обработанные заявки храним 15 дней.
const logRetention = 15 * 24 * time.Hour

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron      *cron.Cron
	confirms  *confirm.Repository
	adminRepo *admin.Repository
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(confirms *confirm.Repository, adminRepo *admin.Repository) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		confirms:  confirms,
		adminRepo: adminRepo,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Каждый час убираем истёкшие подтверждения
	s.cron.AddFunc("0 * * * *", func() {
		n, err := s.confirms.Sweep(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка чистки подтверждений")
			return
		}
		if n > 0 {
			log.WithField("removed", n).Debug("[CRON] Истёкшие подтверждения удалены")
		}
	})

	// Ежедневная уборка в 00:00 по Москве
	s.cron.AddFunc("0 0 * * *", func() {
		log.Info("[CRON] Ежедневная уборка журналов")

		if n, err := s.adminRepo.PurgeLogs(ctx, logRetention); err != nil {
			log.WithError(err).Error("[CRON] Ошибка чистки журнала аудита")
		} else if n > 0 {
			log.WithField("removed", n).Info("[CRON] Старые записи аудита удалены")
		}

		if n, err := s.adminRepo.PurgeRequests(ctx, logRetention); err != nil {
			log.WithError(err).Error("[CRON] Ошибка чистки обработанных заявок")
		} else if n > 0 {
			log.WithField("removed", n).Info("[CRON] Старые заявки удалены")
		}

		if n, err := s.adminRepo.PurgeBroadcasts(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка чистки учёта рассылок")
		} else if n > 0 {
			log.WithField("removed", n).Debug("[CRON] Учёт рассылок очищен")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Moscow)")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
