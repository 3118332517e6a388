// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование очков, работа с временем.
package common

import (
	"fmt"
	"time"
)

// MoscowLocation возвращает часовой пояс Europe/Moscow.
// Если tzdata недоступна — фиксированный UTC+3.
func MoscowLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// LoadLocation загружает часовой пояс из конфига с откатом на Москву.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return MoscowLocation()
	}
	return loc
}

// FormatPoints форматирует количество очков в читабельную строку.
// Пример: FormatPoints(1025) → "1025 очков"
func FormatPoints(n int) string {
	return fmt.Sprintf("%d %s", n, PluralizePoints(n))
}

// FormatDelta создаёт строку с символом направления для недельного изменения.
//
// Примеры:
//
//	FormatDelta(25)  → "📈 25 очков"
//	FormatDelta(-50) → "📉 -50 очков"
//	FormatDelta(0)   → "➖ 0 очков"
func FormatDelta(delta int) string {
	symbol := "➖"
	if delta > 0 {
		symbol = "📈"
	} else if delta < 0 {
		symbol = "📉"
	}
	return fmt.Sprintf("%s %d %s", symbol, delta, PluralizePoints(delta))
}
