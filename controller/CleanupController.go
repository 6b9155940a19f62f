// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package controller

import (
	"net/http"

	"github.com/Netcracker/qubership-marketplace-cleanup/exception"
	"github.com/Netcracker/qubership-marketplace-cleanup/service"
	"github.com/Netcracker/qubership-marketplace-cleanup/service/cleanup"
	"github.com/Netcracker/qubership-marketplace-cleanup/utils"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
	log "github.com/sirupsen/logrus"
)

type CleanupController interface {
	GetCleanupLogs(w http.ResponseWriter, r *http.Request)
	GetCleanupJobs(w http.ResponseWriter, r *http.Request)
	RunCleanupJob(w http.ResponseWriter, r *http.Request)
}

func NewCleanupController(cleanupService cleanup.CleanupService, cleanupLogService service.CleanupLogService) CleanupController {
	return &cleanupControllerImpl{
		cleanupService:    cleanupService,
		cleanupLogService: cleanupLogService,
	}
}

type cleanupControllerImpl struct {
	cleanupService    cleanup.CleanupService
	cleanupLogService service.CleanupLogService
}

func (c cleanupControllerImpl) GetCleanupLogs(w http.ResponseWriter, r *http.Request) {
	limit, customErr := getLimitQueryParam(r)
	if customErr != nil {
		utils.RespondWithCustomError(w, customErr)
		return
	}
	operation := r.URL.Query().Get("operation")

	logs, err := c.cleanupLogService.GetRecentCleanupLogs(r.Context(), operation, limit)
	if err != nil {
		utils.RespondWithError(w, "Failed to get cleanup logs", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, logs)
}

func (c cleanupControllerImpl) GetCleanupJobs(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJson(w, http.StatusOK, view.CleanupJobs{Jobs: c.cleanupService.JobNames()})
}

func (c cleanupControllerImpl) RunCleanupJob(w http.ResponseWriter, r *http.Request) {
	jobName, err := getUnescapedStringParam(r, "jobName")
	if err != nil || !utils.SliceContains(c.cleanupService.JobNames(), jobName) {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.CleanupJobNotFound,
			Message: exception.CleanupJobNotFoundMsg,
			Params:  map[string]interface{}{"job": jobName},
		})
		return
	}
	if err = c.cleanupService.RunNow(jobName); err != nil {
		utils.RespondWithError(w, "Failed to start cleanup job", err)
		return
	}
	log.Infof("%s job was started manually", jobName)
	w.WriteHeader(http.StatusAccepted)
}
