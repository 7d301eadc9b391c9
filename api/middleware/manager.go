package middleware

import (
	"aldoge_server/structs"

	"github.com/MonkyMars/gecho"
)

type Middleware struct {
	logger *gecho.Logger
	cfg    *structs.Config
}

func NewMiddleware(cfg *structs.Config, logger *gecho.Logger) *Middleware {
	return &Middleware{
		logger: logger,
		cfg:    cfg,
	}
}
