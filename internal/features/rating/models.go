// Package rating реализует леджер рейтингов: регистрацию пользователей,
// голоса-реакции, недельную активность и еженедельный цикл.
// models.go описывает структуры состояния и формат снапшота.
package rating

import "fmt"

// Direction — направление реакции на сообщение.
type Direction string

const (
	// DirectionUp — реакция "w", +очки автору
	DirectionUp Direction = "w"
	// DirectionDown — реакция "f", -очки автору
	DirectionDown Direction = "f"
)

// VoteOutcome — результат попытки проголосовать.
type VoteOutcome int

const (
	// VoteApplied — голос засчитан, рейтинг автора изменён
	VoteApplied VoteOutcome = iota
	// VoteSelf — ответ на собственное сообщение, голос отклонён
	VoteSelf
	// VoteAlreadyCast — этот пользователь уже реагировал на это сообщение
	VoteAlreadyCast
	// VoteTargetSystem — автор сообщения — бот, голос отклонён
	VoteTargetSystem
)

func (o VoteOutcome) String() string {
	switch o {
	case VoteApplied:
		return "applied"
	case VoteSelf:
		return "self_vote"
	case VoteAlreadyCast:
		return "already_voted"
	case VoteTargetSystem:
		return "target_is_system"
	}
	return fmt.Sprintf("unknown(%d)", int(o))
}

// User — участник рейтинга.
// Создаётся при первом сообщении со стартовым рейтингом и никогда не удаляется.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

// ReactionKey строит ключ реакции по чату и сообщению.
// Формат "chatId_messageId" — как в исходном ratings.json.
func ReactionKey(chatID int64, messageID int) string {
	return fmt.Sprintf("%d_%d", chatID, messageID)
}

// Snapshot — полное состояние леджера, сериализуемое одним блобом.
// Ключи совпадают с форматом ratings.json исходного бота; "chats" —
// расширение (старые снапшоты без него загружаются без ошибок).
type Snapshot struct {
	Users               map[int64]*User                `json:"users"`
	WeeklyActivity      map[int64]bool                 `json:"weeklyActivity"`
	WeeklyRatingChanges map[int64]int                  `json:"weeklyRatingChanges"`
	Reactions           map[string]map[int64]Direction `json:"reactions"`
	Chats               map[int64]bool                 `json:"chats,omitempty"`
}

// NewSnapshot создаёт пустой снапшот с инициализированными картами.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Users:               map[int64]*User{},
		WeeklyActivity:      map[int64]bool{},
		WeeklyRatingChanges: map[int64]int{},
		Reactions:           map[string]map[int64]Direction{},
		Chats:               map[int64]bool{},
	}
}

// Normalize добивает nil-карты после загрузки старого снапшота.
func (s *Snapshot) Normalize() {
	if s.Users == nil {
		s.Users = map[int64]*User{}
	}
	if s.WeeklyActivity == nil {
		s.WeeklyActivity = map[int64]bool{}
	}
	if s.WeeklyRatingChanges == nil {
		s.WeeklyRatingChanges = map[int64]int{}
	}
	if s.Reactions == nil {
		s.Reactions = map[string]map[int64]Direction{}
	}
	if s.Chats == nil {
		s.Chats = map[int64]bool{}
	}
}

// Clone делает глубокую копию снапшота.
// Используется для отката мутаций при ошибке записи и для передачи
// состояния наружу без утечки внутренних карт.
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot()
	for id, u := range s.Users {
		copied := *u
		c.Users[id] = &copied
	}
	for id, active := range s.WeeklyActivity {
		c.WeeklyActivity[id] = active
	}
	for id, change := range s.WeeklyRatingChanges {
		c.WeeklyRatingChanges[id] = change
	}
	for key, voters := range s.Reactions {
		copied := make(map[int64]Direction, len(voters))
		for voter, dir := range voters {
			copied[voter] = dir
		}
		c.Reactions[key] = copied
	}
	for id, known := range s.Chats {
		c.Chats[id] = known
	}
	return c
}
