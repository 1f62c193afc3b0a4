package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-staging/models"
	"github.com/Dosada05/tournament-staging/services"
)

type MatchHandler struct {
	generationService services.GenerationService
	lifecycleService  services.LifecycleService
}

func NewMatchHandler(
	generationService services.GenerationService,
	lifecycleService services.LifecycleService,
) *MatchHandler {
	return &MatchHandler{
		generationService: generationService,
		lifecycleService:  lifecycleService,
	}
}

// GenerateGroupMatchesHandler обрабатывает POST /groups/{groupID}/matches/generate
func (h *MatchHandler) GenerateGroupMatchesHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Force bool `json:"force"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.generationService.GenerateForGroup(r.Context(), groupID, input.Force)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateBracketMatchesHandler обрабатывает POST /brackets/{bracketID}/matches/generate
func (h *MatchHandler) GenerateBracketMatchesHandler(w http.ResponseWriter, r *http.Request) {
	bracketID, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Seeds []int `json:"seeds"`
		Force bool  `json:"force"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.generationService.GenerateForBracket(r.Context(), bracketID, input.Seeds, input.Force)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitResultHandler обрабатывает POST /matches/{matchID}/result
func (h *MatchHandler) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status         models.MatchResultStatus `json:"match_result_status"`
		Games          []models.Game            `json:"games"`
		WinnerCoupleID *int                     `json:"winner_couple_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.lifecycleService.SubmitResult(r.Context(), matchID, services.ResultInput{
		Status:         input.Status,
		Games:          input.Games,
		WinnerCoupleID: input.WinnerCoupleID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
