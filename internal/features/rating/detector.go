// Package rating — detector.go определяет, является ли текст ответа реакцией.
package rating

import "strings"

// ParseReaction распознаёт реакцию в тексте ответа.
// Засчитываются только точные токены "w" и "f" (регистр и пробелы по краям
// не важны). Любой другой текст — не реакция.
func ParseReaction(text string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "w":
		return DirectionUp, true
	case "f":
		return DirectionDown, true
	}
	return "", false
}
