// Package rating — service.go содержит бизнес-логику леджера.
// Все мутации проходят через один мьютекс и завершаются синхронной записью
// снапшота. Еженедельный цикл держит тот же мьютекс целиком: голос не может
// вклиниться между штрафом и сбросом накопителей.
package rating

import (
	"context"
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/timur1arkhipov/nonono-toxic/internal/common"
	"github.com/timur1arkhipov/nonono-toxic/internal/config"
)

// RenderFunc строит текст еженедельного отчёта по копии состояния.
type RenderFunc func(snap *Snapshot) string

// DispatchFunc отправляет готовый отчёт в один чат.
type DispatchFunc func(chatID int64, text string)

// Service — леджер рейтингов: единственный владелец состояния.
type Service struct {
	cfg   *config.Config
	store Store

	// Системные аккаунты, исключённые из рейтинга (ID бота и SYSTEM_USER_IDS).
	// Заполняется при сборке приложения, до запуска — без блокировки.
	systemIDs map[int64]struct{}

	mu    sync.Mutex
	state *Snapshot
}

// NewService загружает снапшот из хранилища и создаёт сервис.
func NewService(ctx context.Context, store Store, cfg *config.Config) (*Service, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки леджера: %w", err)
	}

	s := &Service{
		cfg:       cfg,
		store:     store,
		systemIDs: map[int64]struct{}{},
		state:     state,
	}
	for _, id := range cfg.SystemUserIDs {
		s.systemIDs[id] = struct{}{}
	}
	return s, nil
}

// AddSystemID добавляет системный аккаунт в список исключений.
// Вызывается при сборке приложения (ID самого бота известен после авторизации).
func (s *Service) AddSystemID(id int64) {
	s.systemIDs[id] = struct{}{}
}

// IsSystem сообщает, исключён ли аккаунт из рейтинга.
func (s *Service) IsSystem(id int64) bool {
	_, ok := s.systemIDs[id]
	return ok
}

// EnsureUser лениво регистрирует пользователя со стартовым рейтингом.
// Для системного аккаунта возвращает skipped=true без какой-либо мутации:
// вызывающий обязан прекратить обработку исходного события.
func (s *Service) EnsureUser(ctx context.Context, id int64, username string) (skipped bool, err error) {
	if s.IsSystem(id) {
		log.WithField("user_id", id).Debug("Пропущено: системный аккаунт исключён из рейтинга")
		return true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state.Clone()
	if !s.ensureLocked(id, username) {
		return false, nil // уже зарегистрирован, мутации не было
	}
	if err := s.flushLocked(ctx, prev); err != nil {
		return false, err
	}
	return false, nil
}

// MarkActive помечает пользователя активным в текущем цикле.
// Вызывается для каждого входящего сообщения после успешного EnsureUser.
func (s *Service) MarkActive(ctx context.Context, id int64) error {
	if s.IsSystem(id) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.WeeklyActivity[id] {
		return nil // уже активен, переписывать снапшот незачем
	}

	prev := s.state.Clone()
	s.state.WeeklyActivity[id] = true
	return s.flushLocked(ctx, prev)
}

// TrackChat запоминает групповой чат для рассылки еженедельного отчёта.
func (s *Service) TrackChat(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Chats[chatID] {
		return nil
	}

	prev := s.state.Clone()
	s.state.Chats[chatID] = true
	log.WithField("chat_id", chatID).Info("Новый чат добавлен в рассылку отчётов")
	return s.flushLocked(ctx, prev)
}

// CastVote применяет голос-реакцию на сообщение.
//
// Предусловия проверяются по порядку, первое сработавшее решает исход:
//  1. ответ на собственное сообщение → VoteSelf
//  2. автор — системный аккаунт → VoteTargetSystem
//  3. автор ещё не зарегистрирован → регистрируем
//  4. голосующий уже реагировал на это сообщение → VoteAlreadyCast
//
// При VoteApplied рейтинг автора меняется на ±RATING_VOTE_DELTA
// и реакция фиксируется до еженедельной очистки.
func (s *Service) CastVote(ctx context.Context, voterID int64, chatID int64, messageID int, authorID int64, authorName string, dir Direction) (VoteOutcome, error) {
	if voterID == authorID {
		log.WithField("user_id", voterID).Debug("Пропущено: ответ на собственное сообщение")
		return VoteSelf, nil
	}
	if s.IsSystem(authorID) {
		log.WithField("author_id", authorID).Debug("Пропущено: оценка сообщения бота")
		return VoteTargetSystem, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state.Clone()
	s.ensureLocked(authorID, authorName)

	key := ReactionKey(chatID, messageID)
	if prevDir, ok := s.state.Reactions[key][voterID]; ok {
		s.state = prev
		log.WithFields(log.Fields{
			"voter_id":      voterID,
			"reaction_key":  key,
			"prev_reaction": prevDir,
		}).Debug("Пропущено: реакция на это сообщение уже была")
		return VoteAlreadyCast, nil
	}

	delta := s.cfg.RatingVoteDelta
	if dir == DirectionDown {
		delta = -delta
	}
	s.updateRatingLocked(authorID, delta)

	if s.state.Reactions[key] == nil {
		s.state.Reactions[key] = map[int64]Direction{}
	}
	s.state.Reactions[key][voterID] = dir

	if err := s.flushLocked(ctx, prev); err != nil {
		return VoteApplied, err
	}

	log.WithFields(log.Fields{
		"voter_id":  voterID,
		"author_id": authorID,
		"direction": dir,
		"delta":     delta,
	}).Info("Голос засчитан")
	return VoteApplied, nil
}

// WeeklyRollover выполняет еженедельный цикл:
//  1. штраф за неактивность + сброс флагов активности
//  2. отчёт по уже оштрафованному состоянию
//  3. рассылка по всем известным чатам (ноль чатов — не ошибка)
//  4. обнуление недельных накопителей и очистка реакций
//
// Фазы 1 и 4 записываются в хранилище отдельно: упавший между ними процесс
// продолжает с уже сохранённого места. Паника при рендере или отправке не
// должна сорвать сброс — иначе накопители утекут в следующий цикл.
func (s *Service) WeeklyRollover(ctx context.Context, render RenderFunc, dispatch DispatchFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info("Запуск еженедельного цикла")

	// Фаза 1: штраф за неактивность, затем сброс флагов у ВСЕХ.
	prev := s.state.Clone()
	penalized := 0
	for _, id := range sortedKeys(s.state.WeeklyActivity) {
		if !s.state.WeeklyActivity[id] {
			log.WithField("user_id", id).Info("Штраф за неактивность на этой неделе")
			s.updateRatingLocked(id, -s.cfg.RatingInactivityPenalty)
			penalized++
		}
		s.state.WeeklyActivity[id] = false
	}
	if err := s.flushLocked(ctx, prev); err != nil {
		return fmt.Errorf("фаза штрафов не сохранена: %w", err)
	}
	log.WithField("penalized", penalized).Info("Штрафы за неактивность применены")

	// Фазы 2–3: отчёт и рассылка по копии состояния.
	s.renderAndDispatch(render, dispatch)

	// Фаза 4: сброс недельных накопителей и очистка реакций.
	prev = s.state.Clone()
	for id := range s.state.WeeklyRatingChanges {
		s.state.WeeklyRatingChanges[id] = 0
	}
	s.state.Reactions = map[string]map[int64]Direction{}
	if err := s.flushLocked(ctx, prev); err != nil {
		return fmt.Errorf("фаза сброса не сохранена: %w", err)
	}

	log.Info("Еженедельный цикл завершён")
	return nil
}

// renderAndDispatch строит и рассылает отчёт, глотая панику:
// сломанный рендер не должен помешать сбросу накопителей.
func (s *Service) renderAndDispatch(render RenderFunc, dispatch DispatchFunc) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprintf("%v", r)).Error("Паника при формировании отчёта — сброс продолжится")
		}
	}()

	snap := s.state.Clone()
	text := render(snap)

	chats := sortedKeys(snap.Chats)
	if len(chats) == 0 {
		log.Info("Нет известных чатов для рассылки отчёта")
		return
	}

	log.WithField("chats", len(chats)).Info("Отправка еженедельного отчёта")
	for _, chatID := range chats {
		dispatch(chatID, text)
	}
}

// SnapshotCopy возвращает глубокую копию состояния для чтения (отчёты).
func (s *Service) SnapshotCopy() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// ensureLocked регистрирует пользователя, если его ещё нет.
// Возвращает true, если состояние изменилось. Мьютекс должен быть взят.
func (s *Service) ensureLocked(id int64, username string) bool {
	if username == "" {
		username = fmt.Sprintf("User%d", id)
	}

	changed := false
	if _, ok := s.state.Users[id]; !ok {
		log.WithFields(log.Fields{
			"user_id":  id,
			"username": username,
		}).Info("Новый пользователь")
		s.state.Users[id] = &User{ID: id, Username: username, Rating: s.cfg.RatingStart}
		changed = true
	} else if s.state.Users[id].Username != username {
		// Пользователь сменил ник — обновляем отображаемое имя.
		s.state.Users[id].Username = username
		changed = true
	}

	if _, ok := s.state.WeeklyActivity[id]; !ok {
		s.state.WeeklyActivity[id] = false
		changed = true
	}
	if _, ok := s.state.WeeklyRatingChanges[id]; !ok {
		s.state.WeeklyRatingChanges[id] = 0
		changed = true
	}
	return changed
}

// updateRatingLocked применяет дельту к рейтингу и недельному накопителю.
// Рейтинг не опускается ниже нуля; накопитель НЕ ограничивается — он
// отражает сырую дельту даже при срезании рейтинга в ноль.
func (s *Service) updateRatingLocked(id int64, delta int) {
	user, ok := s.state.Users[id]
	if !ok {
		log.WithField("user_id", id).Warn("updateRating для незарегистрированного пользователя")
		return
	}

	oldRating := user.Rating
	user.Rating += delta
	if user.Rating < 0 {
		user.Rating = 0
	}
	s.state.WeeklyRatingChanges[id] += delta

	log.WithFields(log.Fields{
		"username":   user.Username,
		"old_rating": oldRating,
		"new_rating": user.Rating,
		"delta":      delta,
	}).Debug("Рейтинг изменён")
}

// flushLocked синхронно сохраняет снапшот. При ошибке записи состояние
// откатывается к prev: память и хранилище не должны расходиться.
func (s *Service) flushLocked(ctx context.Context, prev *Snapshot) error {
	if err := s.store.Save(ctx, s.state); err != nil {
		s.state = prev
		log.WithError(err).Error("Ошибка сохранения снапшота, мутация откатена")
		return fmt.Errorf("%w: %v", common.ErrStorePersistence, err)
	}
	return nil
}

func sortedKeys(m map[int64]bool) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
