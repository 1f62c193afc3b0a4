package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-staging/services"
	"github.com/Dosada05/tournament-staging/store"
)

type StagingHandler struct {
	stagingService    services.StagingService
	assignmentService services.AssignmentService
	entityStore       *store.EntityStore
}

func NewStagingHandler(
	stagingService services.StagingService,
	assignmentService services.AssignmentService,
	entityStore *store.EntityStore,
) *StagingHandler {
	return &StagingHandler{
		stagingService:    stagingService,
		assignmentService: assignmentService,
		entityStore:       entityStore,
	}
}

// BoardHandler обрабатывает GET /stages/{stageID}/board
func (h *StagingHandler) BoardHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	board, err := h.stagingService.Board(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"board": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RefreshHandler обрабатывает POST /stages/{stageID}/refresh
func (h *StagingHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	board, err := h.stagingService.LoadStage(r.Context(), stageID)
	if err != nil {
		// Обогнавшая нас более новая загрузка — не ошибка для клиента
		if errors.Is(err, services.ErrStaleSelection) {
			if err := writeJSON(w, http.StatusOK, jsonResponse{"stale": true}, nil); err != nil {
				serverErrorResponse(w, r, err)
			}
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"board": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListGroupsHandler обрабатывает GET /stages/{stageID}/groups
func (h *StagingHandler) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, ok := h.entityStore.StageByID(stageID); !ok {
		notFoundResponse(w, r)
		return
	}

	groups := h.entityStore.GroupsByStage(stageID)
	for i := range groups {
		groups[i].Couples = h.entityStore.CouplesByGroup(groups[i].ID)
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListBracketsHandler обрабатывает GET /stages/{stageID}/brackets
func (h *StagingHandler) ListBracketsHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, ok := h.entityStore.StageByID(stageID); !ok {
		notFoundResponse(w, r)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"brackets": h.entityStore.BracketsByStage(stageID)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListGroupCouplesHandler обрабатывает GET /groups/{groupID}/couples
func (h *StagingHandler) ListGroupCouplesHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, ok := h.entityStore.GroupByID(groupID); !ok {
		notFoundResponse(w, r)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"couples": h.entityStore.CouplesByGroup(groupID)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AssignCoupleHandler обрабатывает POST /groups/{groupID}/couples
func (h *StagingHandler) AssignCoupleHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		CoupleID int `json:"couple_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.assignmentService.Assign(r.Context(), groupID, input.CoupleID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"couples": h.entityStore.CouplesByGroup(groupID)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UnassignCoupleHandler обрабатывает DELETE /groups/{groupID}/couples/{coupleID}
func (h *StagingHandler) UnassignCoupleHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	coupleID, err := getIDFromURL(r, "coupleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.assignmentService.Unassign(r.Context(), groupID, coupleID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AutoAssignHandler обрабатывает POST /stages/{stageID}/couples/auto-assign
func (h *StagingHandler) AutoAssignHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Method string `json:"method"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	moved, err := h.assignmentService.AutoAssign(r.Context(), stageID, services.AssignMethod(input.Method))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"moved": moved}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GroupStandingsHandler обрабатывает GET /groups/{groupID}/standings
func (h *StagingHandler) GroupStandingsHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.stagingService.GroupStandings(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
