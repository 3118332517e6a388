// Package health поднимает маленький HTTP-сервер живости.
// Исходный бот слушал порт 3009 и отвечал «Бот рейтинга активен» —
// этим пользуются хостинги и docker healthcheck.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Server — HTTP-сервер живости.
type Server struct {
	echo *echo.Echo
	port int
}

// NewServer создаёт сервер с единственным маршрутом GET /healthz.
func NewServer(port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Бот рейтинга активен")
	})

	return &Server{echo: e, port: port}
}

// Start запускает сервер в фоне и останавливает его по отмене контекста.
func (s *Server) Start(ctx context.Context) {
	go func() {
		addr := fmt.Sprintf(":%d", s.port)
		log.WithField("addr", addr).Info("Health-сервер запущен")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Health-сервер упал")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Ошибка остановки health-сервера")
		}
	}()
}
