// Package filters решает, какие сообщения бот вообще обрабатывает.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает сообщения из разрешённых групповых чатов и личек.
// Пустой список разрешённых чатов — бот работает в любой группе,
// куда его добавили (поведение исходного бота).
type ChatFilter struct {
	allowedChats map[int64]struct{}
}

// NewChatFilter создаёт фильтр по списку ALLOWED_CHAT_IDS.
func NewChatFilter(allowedChatIDs []int64) *ChatFilter {
	allowed := make(map[int64]struct{}, len(allowedChatIDs))
	for _, id := range allowedChatIDs {
		allowed[id] = struct{}{}
	}
	return &ChatFilter{allowedChats: allowed}
}

// Allow возвращает true, если сообщение нужно обрабатывать.
func (f *ChatFilter) Allow(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		return false
	}
	if message.From == nil {
		// Сервисные сообщения и посты каналов: некого регистрировать.
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("deny: сообщение без отправителя")
		return false
	}

	// Личка всегда разрешена: там живут /myrating и /help.
	if message.Chat.IsPrivate() {
		return true
	}

	if !message.Chat.IsGroup() && !message.Chat.IsSuperGroup() {
		return false
	}

	if len(f.allowedChats) == 0 {
		return true
	}
	if _, ok := f.allowedChats[message.Chat.ID]; ok {
		return true
	}

	log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
	}).Debug("deny: чат не входит в ALLOWED_CHAT_IDS")
	return false
}
