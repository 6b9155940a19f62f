package controller

import (
	"net/http"

	"github.com/Netcracker/qubership-marketplace-cleanup/service"
	"github.com/Netcracker/qubership-marketplace-cleanup/utils"
)

type CleanupBacklogController interface {
	GetCleanupBacklog(w http.ResponseWriter, r *http.Request)
}

func NewCleanupBacklogController(backlogService service.CleanupBacklogService) CleanupBacklogController {
	return &cleanupBacklogControllerImpl{backlogService: backlogService}
}

type cleanupBacklogControllerImpl struct {
	backlogService service.CleanupBacklogService
}

func (c cleanupBacklogControllerImpl) GetCleanupBacklog(w http.ResponseWriter, r *http.Request) {
	backlog, err := c.backlogService.GetCleanupBacklog(r.Context())
	if err != nil {
		utils.RespondWithError(w, "Failed to get cleanup backlog", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, backlog)
}
