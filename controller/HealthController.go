package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/db"
	log "github.com/sirupsen/logrus"
)

const readinessCheckTimeout = 3 * time.Second

type HealthController interface {
	HandleReadyRequest(w http.ResponseWriter, r *http.Request)
	HandleLiveRequest(w http.ResponseWriter, r *http.Request)
}

func NewHealthController(cp db.ConnectionProvider) HealthController {
	return &healthControllerImpl{cp: cp}
}

type healthControllerImpl struct {
	cp db.ConnectionProvider
}

// HandleReadyRequest reports ready while the database answers; jobs cannot run without it.
func (h healthControllerImpl) HandleReadyRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessCheckTimeout)
	defer cancel()
	if err := h.cp.Ping(ctx); err != nil {
		log.Warnf("Readiness check failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h healthControllerImpl) HandleLiveRequest(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
