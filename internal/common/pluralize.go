// Package common — pluralize.go содержит вспомогательные функции
// для правильного склонения русских числительных.
package common

// PluralizePoints возвращает правильную форму слова «очко» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "очко" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "очка" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "очков" (0, 5-20, 25-30, 100, ...)
//
// Примеры:
//
//	PluralizePoints(1)  → "очко"
//	PluralizePoints(3)  → "очка"
//	PluralizePoints(25) → "очков"
//	PluralizePoints(11) → "очков"
func PluralizePoints(n int) string {
	absN := n
	if absN < 0 {
		absN = -absN
	}
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	// Единственное число: 1, 21, 31, 101 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return "очко"
	}

	// Малое множественное: 2-4, 22-24, 32-34 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "очка"
	}

	return "очков"
}

// PluralizeUsers возвращает форму слова «пользователь» в родительном падеже,
// как в строке «из N пользователей».
func PluralizeUsers(n int) string {
	absN := n
	if absN < 0 {
		absN = -absN
	}
	if absN%10 == 1 && absN%100 != 11 {
		return "пользователя"
	}
	return "пользователей"
}
