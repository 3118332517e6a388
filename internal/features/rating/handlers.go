// Package rating — handlers.go принимает входящие сообщения Telegram:
// регистрация отправителя, отметка активности, учёт чата и голоса-реакции.
package rating

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Handler превращает сообщения Telegram в операции леджера.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик входящих сообщений.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleMessage прогоняет сообщение через конвейер леджера.
// Возвращает false, если событие нужно отбросить целиком (системный
// аккаунт): дальше его не должны видеть ни команды, ни реакции.
//
// Отказ в голосе — не ошибка и не повод для ответа в чат: self-vote,
// повторная реакция и оценка бота только логируются.
func (h *Handler) HandleMessage(ctx context.Context, message *tgbotapi.Message) bool {
	userID := message.From.ID
	username := displayName(message.From)

	skipped, err := h.service.EnsureUser(ctx, userID, username)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка регистрации пользователя")
		return false
	}
	if skipped {
		return false
	}

	// Групповые чаты запоминаем для рассылки еженедельного отчёта.
	if message.Chat.IsGroup() || message.Chat.IsSuperGroup() {
		if err := h.service.TrackChat(ctx, message.Chat.ID); err != nil {
			log.WithError(err).WithField("chat_id", message.Chat.ID).Error("Ошибка учёта чата")
		}
	}

	// Активность считается за любое сообщение, даже без текста.
	if err := h.service.MarkActive(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка отметки активности")
	}

	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil {
		h.handleReply(ctx, message)
	}

	return true
}

// handleReply обрабатывает ответ на чужое сообщение как возможную реакцию.
// Текст, не являющийся токеном "w"/"f", инертен: активность уже отмечена,
// голоса нет.
func (h *Handler) handleReply(ctx context.Context, message *tgbotapi.Message) {
	dir, ok := ParseReaction(message.Text)
	if !ok {
		return
	}

	original := message.ReplyToMessage
	outcome, err := h.service.CastVote(ctx,
		message.From.ID,
		message.Chat.ID,
		original.MessageID,
		original.From.ID,
		displayName(original.From),
		dir,
	)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"voter_id":  message.From.ID,
			"author_id": original.From.ID,
		}).Error("Голос не сохранён")
		return
	}

	log.WithFields(log.Fields{
		"voter_id":  message.From.ID,
		"author_id": original.From.ID,
		"direction": dir,
		"outcome":   outcome.String(),
	}).Debug("Реакция обработана")
}

// displayName возвращает имя пользователя: @username или имя из профиля.
func displayName(user *tgbotapi.User) string {
	if user.UserName != "" {
		return user.UserName
	}
	return user.FirstName
}
