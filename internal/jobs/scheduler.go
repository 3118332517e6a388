// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает единственную задачу: еженедельный цикл рейтингов
// (штраф за неактивность, отчёт, рассылка, сброс накопителей).
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/timur1arkhipov/nonono-toxic/internal/common"
	"github.com/timur1arkhipov/nonono-toxic/internal/config"
	"github.com/timur1arkhipov/nonono-toxic/internal/features/rating"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron          *cron.Cron
	cfg           *config.Config
	ratingService *rating.Service
	render        rating.RenderFunc
	dispatch      rating.DispatchFunc
}

// NewScheduler создаёт планировщик в часовом поясе из конфига.
func NewScheduler(cfg *config.Config, ratingService *rating.Service, render rating.RenderFunc, dispatch rating.DispatchFunc) *Scheduler {
	loc := common.LoadLocation(cfg.AppTimezone)
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:          c,
		cfg:           cfg,
		ratingService: ratingService,
		render:        render,
		dispatch:      dispatch,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	// Еженедельный цикл: по умолчанию суббота 17:00.
	// Повторный тик во время идущего цикла сериализуется мьютексом леджера.
	_, err := s.cron.AddFunc(s.cfg.ReportCron, func() {
		log.Info("[CRON] Еженедельный цикл рейтингов")
		if err := s.ratingService.WeeklyRollover(ctx, s.render, s.dispatch); err != nil {
			log.WithError(err).Error("[CRON] Ошибка еженедельного цикла")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"cron":     s.cfg.ReportCron,
		"timezone": s.cfg.AppTimezone,
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и дожидается текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
