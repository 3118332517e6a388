// Package report строит отчёты по состоянию леджера.
// formatter.go — чистые функции над копией снапшота: никаких мутаций,
// одинаковый вход даёт одинаковый текст.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/timur1arkhipov/nonono-toxic/internal/common"
	"github.com/timur1arkhipov/nonono-toxic/internal/features/rating"
)

// Formatter рендерит отчёты в HTML для Telegram.
type Formatter struct {
	isSystem   func(id int64) bool
	topDefault int
}

// NewFormatter создаёт форматтер.
// isSystem исключает системные аккаунты из всех списков, topDefault —
// размер топа по умолчанию для /top без аргумента.
func NewFormatter(isSystem func(id int64) bool, topDefault int) *Formatter {
	return &Formatter{isSystem: isSystem, topDefault: topDefault}
}

// DeltaRow — строка списка недельных изменений.
type DeltaRow struct {
	UserID   int64
	Username string
	Change   int
}

// Ranked возвращает всех пользователей (кроме системных) по убыванию
// рейтинга. При равном рейтинге — по возрастанию ID: порядок детерминирован.
func (f *Formatter) Ranked(snap *rating.Snapshot) []rating.User {
	out := make([]rating.User, 0, len(snap.Users))
	for _, u := range snap.Users {
		if f.isSystem(u.ID) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// WeeklyDeltas возвращает недельные изменения (кроме системных аккаунтов)
// по убыванию дельты, при равенстве — по возрастанию ID.
func (f *Formatter) WeeklyDeltas(snap *rating.Snapshot) []DeltaRow {
	out := make([]DeltaRow, 0, len(snap.WeeklyRatingChanges))
	for id, change := range snap.WeeklyRatingChanges {
		if f.isSystem(id) {
			continue
		}
		username := fmt.Sprintf("User%d", id)
		if u, ok := snap.Users[id]; ok {
			username = u.Username
		}
		out = append(out, DeltaRow{UserID: id, Username: username, Change: change})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Change != out[j].Change {
			return out[i].Change > out[j].Change
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// RenderWeekly строит полный еженедельный отчёт: рейтинги + изменения.
func (f *Formatter) RenderWeekly(snap *rating.Snapshot) string {
	var b strings.Builder
	b.WriteString("<b>📊 Еженедельный отчет рейтингов 📊</b>\n\n")
	b.WriteString("<b>Текущие рейтинги:</b>\n")

	for i, u := range f.Ranked(snap) {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, u.Username, common.FormatPoints(u.Rating))
	}

	b.WriteString("\n<b>Изменения за неделю:</b>\n")
	for i, row := range f.WeeklyDeltas(snap) {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, row.Username, common.FormatDelta(row.Change))
	}

	return b.String()
}

// RenderTop строит топ-N рейтингов. limitArg — сырой аргумент команды:
// нечисловое или неположительное значение молча заменяется дефолтом.
func (f *Formatter) RenderTop(snap *rating.Snapshot, limitArg string) string {
	limit := CoerceLimit(limitArg, f.topDefault)

	ranked := f.Ranked(snap)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>📊 Топ-%d рейтингов 📊</b>\n\n", limit)
	for i, u := range ranked {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, u.Username, common.FormatPoints(u.Rating))
	}
	return b.String()
}

// RenderMyStatus строит личную сводку: рейтинг, место, недельное изменение.
// Место считается по тому же списку, что и общий отчёт (без системных
// аккаунтов) — в исходном боте /myrating считал место без этого фильтра,
// здесь обе выборки приведены к одной политике.
func (f *Formatter) RenderMyStatus(snap *rating.Snapshot, userID int64) string {
	ranked := f.Ranked(snap)

	position := 0
	var me *rating.User
	for i := range ranked {
		if ranked[i].ID == userID {
			position = i + 1
			me = &ranked[i]
			break
		}
	}
	if me == nil {
		return "Вы ещё не участвуете в рейтинге — напишите что-нибудь в чат."
	}

	var b strings.Builder
	b.WriteString("<b>📊 Ваш рейтинг 📊</b>\n\n")
	fmt.Fprintf(&b, "%s, ваш текущий рейтинг: <b>%d</b> %s\n",
		me.Username, me.Rating, common.PluralizePoints(me.Rating))
	fmt.Fprintf(&b, "Вы на <b>%d</b> месте из %d %s\n",
		position, len(ranked), common.PluralizeUsers(len(ranked)))
	fmt.Fprintf(&b, "\nИзменение за неделю: %s", common.FormatDelta(snap.WeeklyRatingChanges[userID]))
	return b.String()
}

// RenderHelp возвращает статичную справку по правилам и командам.
func (f *Formatter) RenderHelp(voteDelta, penalty, start int) string {
	return fmt.Sprintf(`<b>Помощь по боту рейтингов</b>

Этот бот отслеживает рейтинги пользователей на основе ответов на сообщения:
- Ответ "w": +%d очков автору сообщения
- Ответ "f": -%d очков автору сообщения

<b>Правила:</b>
- Каждый пользователь начинает с %d очков
- Ответы на собственные сообщения не учитываются
- На одно сообщение — одна реакция от каждого пользователя
- Неактивные пользователи теряют %d очков в неделю
- Рейтинг не может опуститься ниже 0

<b>Команды:</b>
/ratings - Показать текущие рейтинги всех
/top [N] - Показать топ N пользователей (по умолчанию %d)
/myrating - Показать ваш личный рейтинг
/help - Показать это сообщение с помощью

Еженедельные отчеты публикуются каждую субботу в 17:00.`,
		voteDelta, voteDelta, start, penalty, f.topDefault)
}

// CoerceLimit приводит сырой аргумент топа к положительному числу.
// Пустая строка, мусор или неположительное число — дефолт.
func CoerceLimit(arg string, def int) int {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return def
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
