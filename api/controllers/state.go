package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pj950/live-scoring/api/models"
	"github.com/pj950/live-scoring/logging"
	"github.com/pj950/live-scoring/storage"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// StateController serves the shared snapshot and applies the named mutation
// operations. Every write goes through the single dispatch endpoint; every
// read goes through the single snapshot endpoint.
type StateController struct {
	teamsStorage    storage.TeamStorage
	judgesStorage   storage.JudgeStorage
	criteriaStorage storage.CriterionStorage
	ratingsStorage  storage.RatingStorage
	controlStorage  storage.ControlStorage
}

func NewStateController(teams storage.TeamStorage, judges storage.JudgeStorage,
	criteria storage.CriterionStorage, ratings storage.RatingStorage,
	control storage.ControlStorage) *StateController {
	return &StateController{
		teamsStorage:    teams,
		judgesStorage:   judges,
		criteriaStorage: criteria,
		ratingsStorage:  ratings,
		controlStorage:  control,
	}
}

func (c *StateController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api")

	group.GET("/state", c.getState)
	group.POST("/state", c.dispatch)
}

// getState godoc
// @Summary Get the full state snapshot
// @Description Returns all teams, judges, criteria and ratings plus the control record
// @Tags state
// @Produce json
// @Success 200 {object} models.StateResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/state [get]
func (c *StateController) getState(g *gin.Context) {
	state, err := c.loadState(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("STATE: failed to load snapshot: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load state"})
		return
	}
	g.JSON(http.StatusOK, state)
}

func (c *StateController) loadState(ctx context.Context) (*models.StateResponse, error) {
	teams, err := c.teamsStorage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	judges, err := c.judgesStorage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	criteria, err := c.criteriaStorage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	ratings, err := c.ratingsStorage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	control, err := c.controlStorage.Get(ctx)
	if err != nil {
		return nil, err
	}

	// Scans return items in key order; clients expect creation order.
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].CreatedAt.Before(teams[j].CreatedAt)
	})
	sort.SliceStable(judges, func(i, j int) bool {
		return judges[i].CreatedAt.Before(judges[j].CreatedAt)
	})
	sort.SliceStable(criteria, func(i, j int) bool {
		return criteria[i].CreatedAt.Before(criteria[j].CreatedAt)
	})

	state := &models.StateResponse{
		Teams:         make([]models.TeamResponse, 0, len(teams)),
		Judges:        make([]models.JudgeResponse, 0, len(judges)),
		Criteria:      make([]models.CriterionResponse, 0, len(criteria)),
		Ratings:       make([]models.RatingResponse, 0, len(ratings)),
		ActiveTeamID:  control.ActiveTeamID,
		IsSetupLocked: control.IsSetupLocked,
	}
	for _, t := range teams {
		state.Teams = append(state.Teams, models.TransformTeamFromStorage(t))
	}
	for _, j := range judges {
		state.Judges = append(state.Judges, models.TransformJudgeFromStorage(j))
	}
	for _, cr := range criteria {
		state.Criteria = append(state.Criteria, models.TransformCriterionFromStorage(cr))
	}
	for _, r := range ratings {
		state.Ratings = append(state.Ratings, models.TransformRatingFromStorage(r))
	}
	return state, nil
}

// dispatch godoc
// @Summary Apply one mutation operation
// @Description Dispatches a named action with an action-specific payload
// @Tags state
// @Accept json
// @Produce json
// @Param request body models.ActionRequest true "Action envelope"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse "Malformed payload or unknown action"
// @Failure 409 {object} models.ErrorResponse "Duplicate derived judge code"
// @Failure 500 {object} models.ErrorResponse "Store failure"
// @Router /api/state [post]
func (c *StateController) dispatch(g *gin.Context) {
	var req models.ActionRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	logging.Log.Infof("STATE: dispatching action %s", req.Action)

	switch req.Action {
	case models.ActionAddTeam:
		c.addTeam(g, req.Payload)
	case models.ActionRemoveTeam:
		c.removeTeam(g, req.Payload)
	case models.ActionAddJudge:
		c.addJudge(g, req.Payload)
	case models.ActionRemoveJudge:
		c.removeJudge(g, req.Payload)
	case models.ActionAddCriterion:
		c.addCriterion(g, req.Payload)
	case models.ActionRemoveCriterion:
		c.removeCriterion(g, req.Payload)
	case models.ActionSetLockSetup:
		c.setLockSetup(g, req.Payload)
	case models.ActionSetActiveTeam:
		c.setActiveTeam(g, req.Payload)
	case models.ActionSubmitRating:
		c.submitRating(g, req.Payload)
	case models.ActionSystemReset:
		c.systemReset(g)
	default:
		logging.Log.Warnf("STATE: unknown action %q", req.Action)
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid action"})
	}
}

func (c *StateController) addTeam(g *gin.Context, raw json.RawMessage) {
	var payload models.AddTeamPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid payload"})
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "team name is required"})
		return
	}

	team := &storage.Team{
		ID:        newEntityID(),
		Name:      payload.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.teamsStorage.Create(g.Request.Context(), team); err != nil {
		logging.Log.Errorf("STATE: failed to add team: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not add team"})
		return
	}
	logging.Log.Infof("STATE: added team %s (%s)", team.Name, team.ID)
	g.JSON(http.StatusOK, &models.SuccessResponse{Success: true})
}

// removeTeam cascades: ratings for the team go first, then the active-team
// pointer is cleared if it still points here, then the team itself.
// Removing an unknown id is an idempotent no-op.
func (c *StateController) removeTeam(g *gin.Context, raw json.RawMessage) {
	var payload models.RemoveTeamPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ID == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "team id is required"})
		return
	}

	ctx := g.Request.Context()
	if err := c.ratingsStorage.DeleteByTeam(ctx, payload.ID); err != nil {
		logging.Log.Errorf("STATE: failed to cascade ratings for team %s: %v", payload.ID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not remove team"})
		return
	}
	if err := c.controlStorage.ClearActiveTeam(ctx, payload.ID); err != nil {
		logging.Log.Errorf("STATE: failed to clear active team %s: %v", payload.ID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not remove team"})
		return
	}
	if err := c.teamsStorage.Delete(ctx, payload.ID); err != nil {
		logging.Log.Errorf("STATE: failed to remove team %s: %v", payload.ID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not remove team"})
		return
	}
	g.JSON(http.StatusOK, &models.SuccessResponse{Success: true})
}

func (c *StateController) addJudge(g *gin.Context, raw json.RawMessage) {
	var payload models.AddJudgePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid payload"})
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "judge name is required"})
		return
	}

	judge := &storage.Judge{
		SecretCode: models.DeriveSecretCode(payload.Name),
		ID:         newEntityID(),
		Name:       payload.Name,
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.judgesStorage.Create(g.Request.Context(), judge); err != nil {
		if errors.Is(err, storage.ErrCodeAlreadyExists) {
			g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "a judge with the same derived code already exists"})
			return
		}
		logging.Log.Errorf("STATE: failed to add judge: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not add judge"})
		return
	}
	logging.Log.Infof("STATE: added judge %s with code %s", judge.Name, judge.SecretCode)
	g.JSON(http.StatusOK, &models.SuccessResponse{Success: true})
}

func (c *StateController) removeJudge(g *gin.Context, raw json.RawMessage) {
	var payload models.RemoveJudgePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ID == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "judge id is required"})
		return
	}

	ctx := g.Request.Context()
	judge, err := c.judgesStorage.DeleteByID(ctx, payload.ID)
	if err != nil {
		logging.Log.Errorf("STATE: failed to remove judge %s: %v", payload.ID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not remove judge"})
		return
	}
	if judge != nil {
		if err := c.ratingsStorage.DeleteByJudge(ctx, judge.ID); err != nil {
			logging.Log.Errorf("STATE: failed to cascade ratings for judge %s: %v", judge.ID, err)
			g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not remove judge"})
			return
		}
	}
	g.JSON(http.StatusOK, &models.SuccessResponse{Success: true})
}

func (c *StateController) addCriterion(g *gin.Context, raw json.RawMessage) {
	var payload models.AddCriterionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid payload"})
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "criterion name is required"})
		return
	}
	if payload.MaxScore <= 0 {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "maxScore must be a positive integer"})
		return
	}

	criterion := &storage.Criterion{
		ID:        newEntityID(),
		Name:      payload.Name,
		MaxScore:  payload.MaxScore,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.criteriaStorage.Create(g.Request.Context(), criterion); err != nil {
		logging.Log.Errorf("STATE: failed to add criterion: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not add criterion"})
		return
	}
	logging.Log.Infof("STATE: added criterion %s (max %d)", criterion.Name, criterion.MaxScore)
	g.JSON(http.StatusOK, &models.SuccessResponse{Success: true})
}

// removeCriterion does not touch ratings: stale score entries stay in the
// maps and aggregation ignores them.
func (c *StateController) removeCriterion(g *gin.Context, raw json.RawMessage) {
	var payload models.RemoveCriterionPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ID == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "criterion id is required"})
		return
	}

	if err := c.criteriaStorage.Delete(g.Request.Context(), payload.ID); err != nil {
		logging.Log.Errorf("STATE: failed to remove criterion %s: %v", payload.ID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not remove criterion"})
		return
	}
	g.JSON(http.StatusOK, &models.SuccessResponse{Success: true})
}

// setLockSetup has no precondition on entity counts: the "can lock" gate
// lives in the admin UI only.
func (c *StateController) setLockSetup(g *gin.Context, raw json.RawMessage) {
	var payload models.SetLockSetupPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid payload"})
		return
	}

	if err := c.controlStorage.SetLock(g.Request.Context(), payload.IsLocked); err != nil {
		logging.Log.Errorf("STATE: failed to set lock: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not set lock"})
		return
	}
	g.JSON(http.StatusOK, &models.SuccessResponse{Success: true})
}

func (c *StateController) setActiveTeam(g *gin.Context, raw json.RawMessage) {
	var payload models.SetActiveTeamPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid payload"})
		return
	}

	if err := c.controlStorage.SetActiveTeam(g.Request.Context(), payload.TeamID); err != nil {
		logging.Log.Errorf("STATE: failed to set active team: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not set active team"})
		return
	}
	g.JSON(http.StatusOK, &models.SuccessResponse{Success: true})
}

// submitRating upserts the rating for the (judge, team) pair in one store
// call: a resubmission replaces the whole scores map. Scores are trusted as
// sent; the input widget bounds them, the server does not.
func (c *StateController) submitRating(g *gin.Context, raw json.RawMessage) {
	var payload models.SubmitRatingPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid payload"})
		return
	}
	if payload.TeamID == "" || payload.JudgeID == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "team_id and judgeId are required"})
		return
	}
	if payload.Scores == nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "scores are required"})
		return
	}

	rating := &storage.Rating{
		JudgeID:   payload.JudgeID,
		TeamID:    payload.TeamID,
		Scores:    payload.Scores,
		UpdatedAt: time.Now().UTC(),
	}
	if err := c.ratingsStorage.Put(g.Request.Context(), rating); err != nil {
		logging.Log.Errorf("STATE: failed to submit rating: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not submit rating"})
		return
	}
	logging.Log.Infof("STATE: rating submitted by judge %s for team %s", payload.JudgeID, payload.TeamID)
	g.JSON(http.StatusOK, &models.SuccessResponse{Success: true})
}

// systemReset wipes ratings, criteria, judges and teams in dependency
// order, then resets the control record.
func (c *StateController) systemReset(g *gin.Context) {
	ctx := g.Request.Context()

	if err := c.ratingsStorage.DeleteAll(ctx); err != nil {
		logging.Log.Errorf("STATE: reset failed wiping ratings: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not reset system"})
		return
	}
	if err := c.criteriaStorage.DeleteAll(ctx); err != nil {
		logging.Log.Errorf("STATE: reset failed wiping criteria: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not reset system"})
		return
	}
	if err := c.judgesStorage.DeleteAll(ctx); err != nil {
		logging.Log.Errorf("STATE: reset failed wiping judges: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not reset system"})
		return
	}
	if err := c.teamsStorage.DeleteAll(ctx); err != nil {
		logging.Log.Errorf("STATE: reset failed wiping teams: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not reset system"})
		return
	}
	if err := c.controlStorage.Reset(ctx); err != nil {
		logging.Log.Errorf("STATE: reset failed resetting control record: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not reset system"})
		return
	}

	logging.Log.Warn("STATE: system reset completed")
	g.JSON(http.StatusOK, &models.SuccessResponse{Success: true})
}

func newEntityID() string {
	id, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		logging.Log.Errorf("STATE: failed to generate id: %v", err)
		return "ERROR"
	}
	return id
}
