package controllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/pj950/live-scoring/api/models"
	"github.com/pj950/live-scoring/logging"
	"github.com/pj950/live-scoring/scoring"
	"github.com/pj950/live-scoring/storage"
)

// ResultsController serves the aggregated view of the rating set: ranked
// results, judging progress and the CSV export.
type ResultsController struct {
	teamsStorage    storage.TeamStorage
	judgesStorage   storage.JudgeStorage
	criteriaStorage storage.CriterionStorage
	ratingsStorage  storage.RatingStorage
}

func NewResultsController(teams storage.TeamStorage, judges storage.JudgeStorage,
	criteria storage.CriterionStorage, ratings storage.RatingStorage) *ResultsController {
	return &ResultsController{
		teamsStorage:    teams,
		judgesStorage:   judges,
		criteriaStorage: criteria,
		ratingsStorage:  ratings,
	}
}

func (c *ResultsController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/results")

	group.GET("", c.getResults)
	group.GET("/progress", c.getProgress)
	group.GET("/export", c.exportCSV)
}

// getResults godoc
// @Summary Get ranked team results
// @Description Per-criterion means, totals and averages, ranked by total score
// @Tags results
// @Produce json
// @Success 200 {array} scoring.TeamResult
// @Failure 500 {object} models.ErrorResponse
// @Router /api/results [get]
func (c *ResultsController) getResults(g *gin.Context) {
	teams, criteria, ratings, err := c.loadEntities(g)
	if err != nil {
		return
	}
	g.JSON(http.StatusOK, scoring.ComputeResults(teams, criteria, ratings))
}

// getProgress godoc
// @Summary Get judging progress
// @Description Completion matrix over (team, judge) pairs with counts and percentage
// @Tags results
// @Produce json
// @Success 200 {object} scoring.Progress
// @Failure 500 {object} models.ErrorResponse
// @Router /api/results/progress [get]
func (c *ResultsController) getProgress(g *gin.Context) {
	teams, err := c.teamsStorage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("RESULTS: failed to load teams: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load teams"})
		return
	}
	judges, err := c.judgesStorage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("RESULTS: failed to load judges: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load judges"})
		return
	}
	ratings, err := c.ratingsStorage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("RESULTS: failed to load ratings: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load ratings"})
		return
	}

	g.JSON(http.StatusOK, scoring.ComputeProgress(teams, judges, ratings))
}

// exportCSV godoc
// @Summary Export results as CSV
// @Description One row per team in ranking order, two-decimal scores, N/A for unscored criteria
// @Tags results
// @Produce text/csv
// @Success 200 {string} string
// @Failure 500 {object} models.ErrorResponse
// @Router /api/results/export [get]
func (c *ResultsController) exportCSV(g *gin.Context) {
	teams, criteria, ratings, err := c.loadEntities(g)
	if err != nil {
		return
	}

	out, err := scoring.RenderCSV(teams, criteria, ratings)
	if err != nil {
		logging.Log.Errorf("RESULTS: failed to render CSV: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not render export"})
		return
	}

	g.Header("Content-Disposition", `attachment; filename="scoring_results.csv"`)
	g.Data(http.StatusOK, "text/csv", out)
}

// loadEntities fetches the slices the aggregation needs and writes the
// error response itself so handlers can just bail on non-nil error.
func (c *ResultsController) loadEntities(g *gin.Context) ([]*storage.Team, []*storage.Criterion, []*storage.Rating, error) {
	teams, err := c.teamsStorage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("RESULTS: failed to load teams: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load teams"})
		return nil, nil, nil, err
	}
	criteria, err := c.criteriaStorage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("RESULTS: failed to load criteria: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load criteria"})
		return nil, nil, nil, err
	}
	ratings, err := c.ratingsStorage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("RESULTS: failed to load ratings: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load ratings"})
		return nil, nil, nil, err
	}

	// Results order must follow team creation order for stable ties and
	// criterion creation order for columns.
	sortByCreation(teams, criteria)
	return teams, criteria, ratings, nil
}

func sortByCreation(teams []*storage.Team, criteria []*storage.Criterion) {
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].CreatedAt.Before(teams[j].CreatedAt)
	})
	sort.SliceStable(criteria, func(i, j int) bool {
		return criteria[i].CreatedAt.Before(criteria[j].CreatedAt)
	})
}
