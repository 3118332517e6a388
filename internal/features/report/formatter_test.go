package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timur1arkhipov/nonono-toxic/internal/features/rating"
)

const botID int64 = 999

func notSystem(id int64) bool { return false }
func botIsSystem(id int64) bool { return id == botID }

func sampleSnapshot() *rating.Snapshot {
	snap := rating.NewSnapshot()
	snap.Users[1] = &rating.User{ID: 1, Username: "alice", Rating: 1100}
	snap.Users[2] = &rating.User{ID: 2, Username: "bob", Rating: 950}
	snap.Users[3] = &rating.User{ID: 3, Username: "carol", Rating: 1100}
	snap.Users[botID] = &rating.User{ID: botID, Username: "nononotoxic_bot", Rating: 1000}
	snap.WeeklyRatingChanges[1] = 100
	snap.WeeklyRatingChanges[2] = -50
	snap.WeeklyRatingChanges[3] = 0
	snap.WeeklyRatingChanges[botID] = 0
	return snap
}

func TestRanked_SortsByRatingThenID(t *testing.T) {
	f := NewFormatter(botIsSystem, 10)
	ranked := f.Ranked(sampleSnapshot())

	require.Len(t, ranked, 3)
	// 1100 у alice и carol — при равном рейтинге меньший ID первым
	assert.Equal(t, int64(1), ranked[0].ID)
	assert.Equal(t, int64(3), ranked[1].ID)
	assert.Equal(t, int64(2), ranked[2].ID)
}

func TestRanked_ExcludesSystemIdentity(t *testing.T) {
	f := NewFormatter(botIsSystem, 10)
	for _, u := range f.Ranked(sampleSnapshot()) {
		assert.NotEqual(t, botID, u.ID)
	}
}

func TestWeeklyDeltas_SortedDescending(t *testing.T) {
	f := NewFormatter(botIsSystem, 10)
	deltas := f.WeeklyDeltas(sampleSnapshot())

	require.Len(t, deltas, 3)
	assert.Equal(t, 100, deltas[0].Change)
	assert.Equal(t, 0, deltas[1].Change)
	assert.Equal(t, -50, deltas[2].Change)
}

func TestRenderWeekly_Deterministic(t *testing.T) {
	f := NewFormatter(botIsSystem, 10)
	snap := sampleSnapshot()

	first := f.RenderWeekly(snap)
	second := f.RenderWeekly(snap)
	assert.Equal(t, first, second, "рендер без мутаций обязан быть идемпотентным")
}

func TestRenderWeekly_Content(t *testing.T) {
	f := NewFormatter(botIsSystem, 10)
	text := f.RenderWeekly(sampleSnapshot())

	assert.Contains(t, text, "Еженедельный отчет рейтингов")
	assert.Contains(t, text, "Текущие рейтинги:")
	assert.Contains(t, text, "Изменения за неделю:")
	assert.Contains(t, text, "1. alice: 1100 очков")
	assert.Contains(t, text, "📈 100 очков")
	assert.Contains(t, text, "📉 -50 очков")
	assert.Contains(t, text, "➖ 0 очков")
	assert.NotContains(t, text, "nononotoxic_bot")
}

func TestRenderTop_LimitsRows(t *testing.T) {
	snap := rating.NewSnapshot()
	for i := int64(1); i <= 15; i++ {
		snap.Users[i] = &rating.User{ID: i, Username: fmt.Sprintf("user%d", i), Rating: 1000 + int(i)}
	}

	f := NewFormatter(notSystem, 10)
	text := f.RenderTop(snap, "3")

	assert.Contains(t, text, "Топ-3 рейтингов")
	assert.Equal(t, 3, strings.Count(text, ". user"), "ровно три строки рейтинга")
	assert.Contains(t, text, "1. user15: 1015 очков")
	assert.NotContains(t, text, "user12")
}

func TestRenderTop_BadLimitFallsBackToDefault(t *testing.T) {
	f := NewFormatter(botIsSystem, 10)
	snap := sampleSnapshot()

	// нечисловой аргумент ведёт себя ровно как отсутствующий
	assert.Equal(t, f.RenderTop(snap, ""), f.RenderTop(snap, "abc"))
	assert.Equal(t, f.RenderTop(snap, ""), f.RenderTop(snap, "-5"))
}

func TestCoerceLimit(t *testing.T) {
	tests := []struct {
		arg  string
		want int
	}{
		{"", 10},
		{"abc", 10},
		{"0", 10},
		{"-3", 10},
		{"3.5", 10},
		{"5", 5},
		{" 7 ", 7},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceLimit(tt.arg, 10))
		})
	}
}

func TestRenderMyStatus(t *testing.T) {
	f := NewFormatter(botIsSystem, 10)
	text := f.RenderMyStatus(sampleSnapshot(), 2)

	assert.Contains(t, text, "Ваш рейтинг")
	assert.Contains(t, text, "bob, ваш текущий рейтинг: <b>950</b> очков")
	assert.Contains(t, text, "Вы на <b>3</b> месте из 3 пользователей")
	assert.Contains(t, text, "Изменение за неделю: 📉 -50 очков")
}

func TestRenderMyStatus_UnknownUser(t *testing.T) {
	f := NewFormatter(botIsSystem, 10)
	text := f.RenderMyStatus(sampleSnapshot(), 42)
	assert.Contains(t, text, "не участвуете")
}

func TestRenderHelp_ListsRulesAndCommands(t *testing.T) {
	f := NewFormatter(botIsSystem, 10)
	text := f.RenderHelp(25, 125, 1000)

	assert.Contains(t, text, "+25 очков")
	assert.Contains(t, text, "-25 очков")
	assert.Contains(t, text, "1000 очков")
	assert.Contains(t, text, "125 очков в неделю")
	for _, cmd := range []string{"/ratings", "/top", "/myrating", "/help"} {
		assert.Contains(t, text, cmd)
	}
}
