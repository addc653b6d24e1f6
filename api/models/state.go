package models

import (
	"encoding/json"

	"github.com/pj950/live-scoring/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// Action names accepted by the POST /api/state dispatch endpoint.
const (
	ActionAddTeam         = "ADD_TEAM"
	ActionRemoveTeam      = "REMOVE_TEAM"
	ActionAddJudge        = "ADD_JUDGE"
	ActionRemoveJudge     = "REMOVE_JUDGE"
	ActionAddCriterion    = "ADD_CRITERION"
	ActionRemoveCriterion = "REMOVE_CRITERION"
	ActionSetLockSetup    = "SET_LOCK_SETUP"
	ActionSetActiveTeam   = "SET_ACTIVE_TEAM"
	ActionSubmitRating    = "SUBMIT_RATING"
	ActionSystemReset     = "SYSTEM_RESET"
)

// ActionRequest is the envelope for every mutation. The payload shape
// depends on the action.
type ActionRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type AddTeamPayload struct {
	Name string `json:"name"`
}

type RemoveTeamPayload struct {
	ID string `json:"id"`
}

type AddJudgePayload struct {
	Name string `json:"name"`
}

type RemoveJudgePayload struct {
	ID string `json:"id"`
}

type AddCriterionPayload struct {
	Name     string `json:"name"`
	MaxScore int    `json:"maxScore"`
}

type RemoveCriterionPayload struct {
	ID string `json:"id"`
}

type SetLockSetupPayload struct {
	IsLocked bool `json:"isLocked"`
}

type SetActiveTeamPayload struct {
	TeamID *string `json:"teamId"`
}

type SubmitRatingPayload struct {
	TeamID  string             `json:"team_id"`
	JudgeID string             `json:"judgeId"`
	Scores  map[string]float64 `json:"scores"`
}

type TeamResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type JudgeResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SecretID string `json:"secret_id"`
}

type CriterionResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MaxScore int    `json:"max_score"`
}

type RatingResponse struct {
	JudgeID string             `json:"judge_id"`
	TeamID  string             `json:"team_id"`
	Scores  map[string]float64 `json:"scores"`
}

// StateResponse is the full snapshot every client polls. Teams, judges and
// criteria are in creation order; ratings are unordered.
type StateResponse struct {
	Teams         []TeamResponse      `json:"teams"`
	Judges        []JudgeResponse     `json:"judges"`
	Criteria      []CriterionResponse `json:"criteria"`
	Ratings       []RatingResponse    `json:"ratings"`
	ActiveTeamID  *string             `json:"activeTeamId"`
	IsSetupLocked bool                `json:"isSetupLocked"`
}

func TransformTeamFromStorage(t *storage.Team) TeamResponse {
	return TeamResponse{
		ID:   t.ID,
		Name: t.Name,
	}
}

func TransformJudgeFromStorage(j *storage.Judge) JudgeResponse {
	return JudgeResponse{
		ID:       j.ID,
		Name:     j.Name,
		SecretID: j.SecretCode,
	}
}

func TransformCriterionFromStorage(c *storage.Criterion) CriterionResponse {
	return CriterionResponse{
		ID:       c.ID,
		Name:     c.Name,
		MaxScore: c.MaxScore,
	}
}

func TransformRatingFromStorage(r *storage.Rating) RatingResponse {
	return RatingResponse{
		JudgeID: r.JudgeID,
		TeamID:  r.TeamID,
		Scores:  r.Scores,
	}
}
