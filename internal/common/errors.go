// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Ошибки голосования намеренно «тихие»: обработчики только логируют их
// и ничего не отправляют в чат.
package common

import "errors"

// Ошибки голосования (реакции w/f)
var (
	// ErrSelfVote — попытка оценить собственное сообщение
	ErrSelfVote = errors.New("нельзя оценивать собственные сообщения")
	// ErrAlreadyVoted — этот пользователь уже реагировал на это сообщение
	ErrAlreadyVoted = errors.New("реакция на это сообщение уже была")
	// ErrSystemIdentity — участник является ботом и исключён из рейтинга
	ErrSystemIdentity = errors.New("бот исключён из рейтинга")
	// ErrUserNotFound — пользователь не найден в леджере
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки хранилища
var (
	// ErrStorePersistence — не удалось сохранить снапшот.
	// Мутация при этом откатывается: память и диск не должны расходиться.
	ErrStorePersistence = errors.New("не удалось сохранить снапшот леджера")
)
