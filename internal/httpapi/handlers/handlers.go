package handlers

import (
	"time"

	"amsgate/internal/assembler"
	"amsgate/internal/assembler/presets"
	"amsgate/internal/media"
	"amsgate/internal/pkg/logger"
	"amsgate/internal/poller"
)

type Deps struct {
	Svc     media.Service
	Presets *presets.Store
	Log     *logger.Logger

	PollAttempts int
	PollInterval time.Duration
}

type Handler struct {
	svc       media.Service
	assembler *assembler.Assembler
	poller    *poller.Poller
	log       *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	if d.Presets == nil {
		d.Presets = presets.NewStore("")
	}
	return &Handler{
		svc:       d.Svc,
		assembler: assembler.New(d.Svc, d.Presets, log),
		poller:    poller.New(d.Svc, d.PollAttempts, d.PollInterval, log),
		log:       log,
	}
}
