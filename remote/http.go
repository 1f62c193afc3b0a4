package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Dosada05/tournament-staging/models"
)

const defaultRequestTimeout = 10 * time.Second

// HTTPClient вызывает удалённый tournament API. Базовый URL и сервисный
// токен приходят из конфигурации.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}
}

var _ Client = (*HTTPClient)(nil)

// do выполняет один запрос и декодирует JSON-ответ в out (если out != nil).
// Любой не-2xx статус заворачивается в *Error как есть, без повторов.
func (c *HTTPClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	op := method + " " + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func (c *HTTPClient) FetchStage(ctx context.Context, stageID int) (*models.Stage, error) {
	var out struct {
		Stage *models.Stage `json:"stage"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/stages/%d", stageID), nil, &out); err != nil {
		return nil, err
	}
	return out.Stage, nil
}

func (c *HTTPClient) FetchStageGroups(ctx context.Context, stageID int) ([]models.Group, error) {
	var out struct {
		Groups []models.Group `json:"groups"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/stages/%d/groups", stageID), nil, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

func (c *HTTPClient) FetchStageBrackets(ctx context.Context, stageID int) ([]models.Bracket, error) {
	var out struct {
		Brackets []models.Bracket `json:"brackets"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/stages/%d/brackets", stageID), nil, &out); err != nil {
		return nil, err
	}
	return out.Brackets, nil
}

func (c *HTTPClient) FetchStageCouples(ctx context.Context, stageID int) ([]models.Couple, error) {
	var out struct {
		Couples []models.Couple `json:"couples"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/stages/%d/couples", stageID), nil, &out); err != nil {
		return nil, err
	}
	return out.Couples, nil
}

func (c *HTTPClient) FetchStageCourts(ctx context.Context, stageID int) ([]models.Court, error) {
	var out struct {
		Courts []models.Court `json:"courts"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/stages/%d/courts", stageID), nil, &out); err != nil {
		return nil, err
	}
	return out.Courts, nil
}

func (c *HTTPClient) FetchTournamentCourts(ctx context.Context, tournamentID int) ([]models.Court, error) {
	var out struct {
		Courts []models.Court `json:"courts"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tournaments/%d/courts", tournamentID), nil, &out); err != nil {
		return nil, err
	}
	return out.Courts, nil
}

func (c *HTTPClient) FetchGroupCouples(ctx context.Context, groupID int) ([]models.Couple, error) {
	var out struct {
		Couples []models.Couple `json:"couples"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/groups/%d/couples", groupID), nil, &out); err != nil {
		return nil, err
	}
	return out.Couples, nil
}

func (c *HTTPClient) AddCoupleToGroup(ctx context.Context, groupID, coupleID int) error {
	body := map[string]int{"couple_id": coupleID}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/groups/%d/couples", groupID), body, nil)
}

func (c *HTTPClient) RemoveCoupleFromGroup(ctx context.Context, groupID, coupleID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/groups/%d/couples/%d", groupID, coupleID), nil, nil)
}

func (c *HTTPClient) GenerateGroupMatches(ctx context.Context, groupID int) ([]models.Match, error) {
	var out struct {
		Matches []models.Match `json:"matches"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/groups/%d/matches/generate", groupID), nil, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

func (c *HTTPClient) GenerateBracketMatches(ctx context.Context, bracketID int, seeds []int) ([]models.Match, error) {
	var body interface{}
	if len(seeds) > 0 {
		body = map[string][]int{"seeds": seeds}
	}
	var out struct {
		Matches []models.Match `json:"matches"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/brackets/%d/matches/generate", bracketID), body, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

func (c *HTTPClient) FetchStageMatches(ctx context.Context, stageID int) ([]models.Match, error) {
	var out struct {
		Matches []models.Match `json:"matches"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/stages/%d/matches", stageID), nil, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

func (c *HTTPClient) UpdateMatch(ctx context.Context, matchID int, update MatchUpdate) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/matches/%d", matchID), update, nil)
}

func (c *HTTPClient) FetchGroupStandings(ctx context.Context, groupID int) ([]models.StandingsRow, error) {
	var out struct {
		Standings []models.StandingsRow `json:"standings"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/groups/%d/standings", groupID), nil, &out); err != nil {
		return nil, err
	}
	return out.Standings, nil
}
