// Package report — handlers.go обрабатывает команды:
// /ratings (общий отчёт), /top [N], /myrating, /help.
package report

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/timur1arkhipov/nonono-toxic/internal/config"
	"github.com/timur1arkhipov/nonono-toxic/internal/features/rating"
)

// Handler обрабатывает команды отчётов.
type Handler struct {
	formatter *Formatter
	service   *rating.Service
	bot       *tgbotapi.BotAPI
	cfg       *config.Config
}

// NewHandler создаёт обработчик команд отчётов.
func NewHandler(formatter *Formatter, service *rating.Service, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{formatter: formatter, service: service, bot: bot, cfg: cfg}
}

// HandleRatings — команда /ratings. Полный отчёт по текущему состоянию.
func (h *Handler) HandleRatings(ctx context.Context, chatID int64, userID int64) {
	log.WithField("user_id", userID).Info("Запрошены текущие рейтинги")
	h.sendHTML(chatID, h.formatter.RenderWeekly(h.service.SnapshotCopy()))
}

// HandleTop — команда /top [N]. Некорректный N молча заменяется дефолтом.
func (h *Handler) HandleTop(ctx context.Context, chatID int64, userID int64, args []string) {
	limitArg := ""
	if len(args) > 0 {
		limitArg = args[0]
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"arg":     limitArg,
	}).Info("Запрошен топ рейтингов")
	h.sendHTML(chatID, h.formatter.RenderTop(h.service.SnapshotCopy(), limitArg))
}

// HandleMyRating — команда /myrating. Регистрирует спрашивающего, если его
// ещё нет (как исходный бот), затем отдаёт личную сводку.
func (h *Handler) HandleMyRating(ctx context.Context, chatID int64, userID int64, username string) {
	skipped, err := h.service.EnsureUser(ctx, userID, username)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка регистрации при /myrating")
		return
	}
	if skipped {
		return
	}
	log.WithField("user_id", userID).Info("Запрошен личный рейтинг")
	h.sendHTML(chatID, h.formatter.RenderMyStatus(h.service.SnapshotCopy(), userID))
}

// HandleHelp — команда /help.
func (h *Handler) HandleHelp(chatID int64) {
	h.sendHTML(chatID, h.formatter.RenderHelp(
		h.cfg.RatingVoteDelta, h.cfg.RatingInactivityPenalty, h.cfg.RatingStart,
	))
}

func (h *Handler) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
