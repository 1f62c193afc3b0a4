package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-staging/services"
)

type TimerHandler struct {
	stagingService services.StagingService
}

func NewTimerHandler(stagingService services.StagingService) *TimerHandler {
	return &TimerHandler{stagingService: stagingService}
}

// StateHandler обрабатывает GET /stages/{stageID}/timer
func (h *TimerHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state := h.stagingService.TimerState(stageID)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"timer": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartHandler обрабатывает POST /stages/{stageID}/timer/start
func (h *TimerHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.stagingService.StartTimer(stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"timer": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PauseHandler обрабатывает POST /stages/{stageID}/timer/pause
func (h *TimerHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.stagingService.PauseTimer(stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"timer": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetHandler обрабатывает POST /stages/{stageID}/timer/reset
func (h *TimerHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state := h.stagingService.ResetTimer(stageID)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"timer": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
