// Package http serves the tool dispatcher over an echo HTTP server.
package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/slighter12/godot-agent-tools/config"
	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/tools"
)

type Server struct {
	toolManager *tools.Manager
	config      *config.Config
	echo        *echo.Echo
}

func NewServer(cfg *config.Config, toolManager *tools.Manager) *Server {
	s := &Server{
		toolManager: toolManager,
		config:      cfg,
		echo:        echo.New(),
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	s.echo.HideBanner = true
	s.echo.Use(middleware.Logger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	RegisterRoutes(s.echo, s)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	logger.Info("HTTP server starting to listen", "address", addr)
	return s.echo.Start(addr)
}

func (s *Server) GetToolManager() *tools.Manager {
	return s.toolManager
}

func (s *Server) GetConfig() *config.Config {
	return s.config
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
