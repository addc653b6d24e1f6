package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gin-gonic/gin"
	testutils "github.com/pj950/live-scoring/api/controllers/testing"
	"github.com/pj950/live-scoring/api/models"
	"github.com/pj950/live-scoring/logging"
	"github.com/pj950/live-scoring/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTableTeams    = "ScoringTeams"
	testTableJudges   = "ScoringJudges"
	testTableCriteria = "ScoringCriteria"
	testTableRatings  = "ScoringRatings"
	testTableControl  = "ScoringControl"
	testAdminCode     = "ADMIN-1234"
)

//nolint:staticcheck
func setupCoordinatorTest(t *testing.T) *gin.Engine {
	t.Helper()
	logging.Log = logrus.New()

	// Load localstack config
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("us-east-1"),
		config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: "http://localhost:4566", HostnameImmutable: true}, nil
			}),
		),
	)
	if err != nil {
		t.Fatalf("failed to load AWS config: %v", err)
	}

	db := dynamodb.NewFromConfig(cfg)
	teamStorage := &storage.DynamoTeamStorage{Client: db, TableName: testTableTeams}
	judgeStorage := &storage.DynamoJudgeStorage{Client: db, TableName: testTableJudges}
	criterionStorage := &storage.DynamoCriterionStorage{Client: db, TableName: testTableCriteria}
	ratingStorage := &storage.DynamoRatingStorage{Client: db, TableName: testTableRatings}
	controlStorage := &storage.DynamoControlStorage{Client: db, TableName: testTableControl}

	t.Cleanup(func() {
		cleanupTable(t, db, testTableTeams)
		cleanupTable(t, db, testTableJudges)
		cleanupTable(t, db, testTableCriteria)
		cleanupTable(t, db, testTableControl)
		cleanupRatingsTable(t, db)
	})

	stateController := NewStateController(teamStorage, judgeStorage, criterionStorage, ratingStorage, controlStorage)
	accessController := NewAccessController(judgeStorage, testAdminCode)
	resultsController := NewResultsController(teamStorage, judgeStorage, criterionStorage, ratingStorage)
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.GET("/api/state", stateController.getState)
	r.POST("/api/state", stateController.dispatch)
	r.GET("/api/verify/:code", accessController.verifyAccessCode)
	r.GET("/api/results", resultsController.getResults)
	r.GET("/api/results/progress", resultsController.getProgress)
	r.GET("/api/results/export", resultsController.exportCSV)

	return r
}

func cleanupTable(t *testing.T, client *dynamodb.Client, tableName string) {
	t.Helper()
	out, err := client.Scan(context.TODO(), &dynamodb.ScanInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		t.Fatalf("cleanup scan failed for %s: %v", tableName, err)
	}
	for _, item := range out.Items {
		_, err := client.DeleteItem(context.TODO(), &dynamodb.DeleteItemInput{
			TableName: aws.String(tableName),
			Key:       map[string]types.AttributeValue{"PK": item["PK"]},
		})
		if err != nil {
			t.Fatalf("cleanup delete failed for %s: %v", tableName, err)
		}
	}
}

func cleanupRatingsTable(t *testing.T, client *dynamodb.Client) {
	t.Helper()
	out, err := client.Scan(context.TODO(), &dynamodb.ScanInput{
		TableName: aws.String(testTableRatings),
	})
	if err != nil {
		t.Fatalf("cleanup scan failed for %s: %v", testTableRatings, err)
	}
	for _, item := range out.Items {
		_, err := client.DeleteItem(context.TODO(), &dynamodb.DeleteItemInput{
			TableName: aws.String(testTableRatings),
			Key: map[string]types.AttributeValue{
				"PK": item["PK"],
				"SK": item["SK"],
			},
		})
		if err != nil {
			t.Fatalf("cleanup delete failed for %s: %v", testTableRatings, err)
		}
	}
}

func performAction(t *testing.T, router *gin.Engine, action string, payload interface{}) int {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	res := testutils.PerformRequest(router, http.MethodPost, "/api/state", models.ActionRequest{
		Action:  action,
		Payload: raw,
	}, nil)
	return res.Code
}

func fetchState(t *testing.T, router *gin.Engine) models.StateResponse {
	t.Helper()
	res := testutils.PerformRequest(router, http.MethodGet, "/api/state", nil, nil)
	require.Equal(t, http.StatusOK, res.Code, "GET /api/state failed: %s", res.Body.String())

	var state models.StateResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &state))
	return state
}

func TestAddTeam(t *testing.T) {
	router := setupCoordinatorTest(t)

	t.Run("Happy path - team shows up in the snapshot", func(t *testing.T) {
		code := performAction(t, router, models.ActionAddTeam, models.AddTeamPayload{Name: "Team Alpha"})
		require.Equal(t, http.StatusOK, code)

		state := fetchState(t, router)
		require.Len(t, state.Teams, 1)
		assert.Equal(t, "Team Alpha", state.Teams[0].Name)
		assert.NotEmpty(t, state.Teams[0].ID)
	})

	t.Run("Unhappy path - blank name", func(t *testing.T) {
		code := performAction(t, router, models.ActionAddTeam, models.AddTeamPayload{Name: "   "})
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestAddJudge(t *testing.T) {
	router := setupCoordinatorTest(t)

	t.Run("Happy path - judge gets a derived code", func(t *testing.T) {
		code := performAction(t, router, models.ActionAddJudge, models.AddJudgePayload{Name: "Foo Bar"})
		require.Equal(t, http.StatusOK, code)

		state := fetchState(t, router)
		require.Len(t, state.Judges, 1)
		assert.Equal(t, "FOOBAR-HACK", state.Judges[0].SecretID)
	})

	t.Run("Unhappy path - case and whitespace variant collides", func(t *testing.T) {
		code := performAction(t, router, models.ActionAddJudge, models.AddJudgePayload{Name: "foo  bar"})
		assert.Equal(t, http.StatusConflict, code)

		state := fetchState(t, router)
		assert.Len(t, state.Judges, 1)
	})
}

func TestAddCriterion(t *testing.T) {
	router := setupCoordinatorTest(t)

	t.Run("Happy path", func(t *testing.T) {
		code := performAction(t, router, models.ActionAddCriterion, models.AddCriterionPayload{Name: "Innovation", MaxScore: 10})
		require.Equal(t, http.StatusOK, code)

		state := fetchState(t, router)
		require.Len(t, state.Criteria, 1)
		assert.Equal(t, 10, state.Criteria[0].MaxScore)
	})

	t.Run("Unhappy path - non-positive max score", func(t *testing.T) {
		code := performAction(t, router, models.ActionAddCriterion, models.AddCriterionPayload{Name: "Design", MaxScore: 0})
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestSubmitRating(t *testing.T) {
	router := setupCoordinatorTest(t)

	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddTeam, models.AddTeamPayload{Name: "Team Alpha"}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddJudge, models.AddJudgePayload{Name: "Ana"}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddJudge, models.AddJudgePayload{Name: "Ben"}))

	state := fetchState(t, router)
	teamID := state.Teams[0].ID
	judgeAna := state.Judges[0].ID
	judgeBen := state.Judges[1].ID

	t.Run("Two judges rate the same team without conflict", func(t *testing.T) {
		code := performAction(t, router, models.ActionSubmitRating, models.SubmitRatingPayload{
			TeamID: teamID, JudgeID: judgeAna, Scores: map[string]float64{"crit": 8},
		})
		require.Equal(t, http.StatusOK, code)
		code = performAction(t, router, models.ActionSubmitRating, models.SubmitRatingPayload{
			TeamID: teamID, JudgeID: judgeBen, Scores: map[string]float64{"crit": 4},
		})
		require.Equal(t, http.StatusOK, code)

		assert.Len(t, fetchState(t, router).Ratings, 2)
	})

	t.Run("Resubmission overwrites instead of duplicating", func(t *testing.T) {
		code := performAction(t, router, models.ActionSubmitRating, models.SubmitRatingPayload{
			TeamID: teamID, JudgeID: judgeAna, Scores: map[string]float64{"crit": 9},
		})
		require.Equal(t, http.StatusOK, code)

		state := fetchState(t, router)
		require.Len(t, state.Ratings, 2)
		for _, rating := range state.Ratings {
			if rating.JudgeID == judgeAna {
				assert.Equal(t, map[string]float64{"crit": 9}, rating.Scores)
			}
		}
	})

	t.Run("Unhappy path - missing judge id", func(t *testing.T) {
		code := performAction(t, router, models.ActionSubmitRating, models.SubmitRatingPayload{
			TeamID: teamID, Scores: map[string]float64{"crit": 5},
		})
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestRemoveTeamCascades(t *testing.T) {
	router := setupCoordinatorTest(t)

	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddTeam, models.AddTeamPayload{Name: "Team Alpha"}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddJudge, models.AddJudgePayload{Name: "Ana"}))

	state := fetchState(t, router)
	teamID := state.Teams[0].ID
	judgeID := state.Judges[0].ID

	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionSetActiveTeam, models.SetActiveTeamPayload{TeamID: &teamID}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionSubmitRating, models.SubmitRatingPayload{
		TeamID: teamID, JudgeID: judgeID, Scores: map[string]float64{"crit": 7},
	}))

	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionRemoveTeam, models.RemoveTeamPayload{ID: teamID}))

	state = fetchState(t, router)
	assert.Empty(t, state.Teams)
	assert.Empty(t, state.Ratings, "ratings for the removed team must be gone")
	assert.Nil(t, state.ActiveTeamID, "active pointer must be cleared when its team is removed")

	t.Run("Removing again is an idempotent no-op", func(t *testing.T) {
		code := performAction(t, router, models.ActionRemoveTeam, models.RemoveTeamPayload{ID: teamID})
		assert.Equal(t, http.StatusOK, code)
	})
}

func TestRemoveJudgeCascades(t *testing.T) {
	router := setupCoordinatorTest(t)

	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddTeam, models.AddTeamPayload{Name: "Team Alpha"}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddJudge, models.AddJudgePayload{Name: "Ana"}))

	state := fetchState(t, router)
	teamID := state.Teams[0].ID
	judgeID := state.Judges[0].ID

	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionSubmitRating, models.SubmitRatingPayload{
		TeamID: teamID, JudgeID: judgeID, Scores: map[string]float64{"crit": 7},
	}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionRemoveJudge, models.RemoveJudgePayload{ID: judgeID}))

	state = fetchState(t, router)
	assert.Empty(t, state.Judges)
	assert.Empty(t, state.Ratings, "ratings by the removed judge must be gone")
}

func TestRemoveCriterionLeavesStaleScores(t *testing.T) {
	router := setupCoordinatorTest(t)

	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddTeam, models.AddTeamPayload{Name: "Team Alpha"}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddJudge, models.AddJudgePayload{Name: "Ana"}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddCriterion, models.AddCriterionPayload{Name: "Innovation", MaxScore: 10}))

	state := fetchState(t, router)
	teamID := state.Teams[0].ID
	judgeID := state.Judges[0].ID
	criterionID := state.Criteria[0].ID

	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionSubmitRating, models.SubmitRatingPayload{
		TeamID: teamID, JudgeID: judgeID, Scores: map[string]float64{criterionID: 8},
	}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionRemoveCriterion, models.RemoveCriterionPayload{ID: criterionID}))

	state = fetchState(t, router)
	assert.Empty(t, state.Criteria)
	require.Len(t, state.Ratings, 1)
	assert.Contains(t, state.Ratings[0].Scores, criterionID, "stale score entries are kept, just inert")
}

func TestSetLockSetup(t *testing.T) {
	router := setupCoordinatorTest(t)

	// No precondition: locking an empty setup succeeds.
	code := performAction(t, router, models.ActionSetLockSetup, models.SetLockSetupPayload{IsLocked: true})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, fetchState(t, router).IsSetupLocked)

	code = performAction(t, router, models.ActionSetLockSetup, models.SetLockSetupPayload{IsLocked: false})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, fetchState(t, router).IsSetupLocked)
}

func TestSetActiveTeam(t *testing.T) {
	router := setupCoordinatorTest(t)

	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddTeam, models.AddTeamPayload{Name: "Team Alpha"}))
	teamID := fetchState(t, router).Teams[0].ID

	code := performAction(t, router, models.ActionSetActiveTeam, models.SetActiveTeamPayload{TeamID: &teamID})
	require.Equal(t, http.StatusOK, code)

	state := fetchState(t, router)
	require.NotNil(t, state.ActiveTeamID)
	assert.Equal(t, teamID, *state.ActiveTeamID)

	t.Run("Null clears the pointer", func(t *testing.T) {
		code := performAction(t, router, models.ActionSetActiveTeam, models.SetActiveTeamPayload{TeamID: nil})
		require.Equal(t, http.StatusOK, code)
		assert.Nil(t, fetchState(t, router).ActiveTeamID)
	})
}

func TestSystemReset(t *testing.T) {
	router := setupCoordinatorTest(t)

	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddTeam, models.AddTeamPayload{Name: "Team Alpha"}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddJudge, models.AddJudgePayload{Name: "Ana"}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionAddCriterion, models.AddCriterionPayload{Name: "Innovation", MaxScore: 10}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionSetLockSetup, models.SetLockSetupPayload{IsLocked: true}))

	state := fetchState(t, router)
	teamID := state.Teams[0].ID
	judgeID := state.Judges[0].ID
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionSubmitRating, models.SubmitRatingPayload{
		TeamID: teamID, JudgeID: judgeID, Scores: map[string]float64{"crit": 5},
	}))
	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionSetActiveTeam, models.SetActiveTeamPayload{TeamID: &teamID}))

	require.Equal(t, http.StatusOK, performAction(t, router, models.ActionSystemReset, struct{}{}))

	state = fetchState(t, router)
	assert.Empty(t, state.Teams)
	assert.Empty(t, state.Judges)
	assert.Empty(t, state.Criteria)
	assert.Empty(t, state.Ratings)
	assert.Nil(t, state.ActiveTeamID)
	assert.False(t, state.IsSetupLocked)
}

func TestUnknownAction(t *testing.T) {
	router := setupCoordinatorTest(t)

	code := performAction(t, router, "NOT_AN_ACTION", struct{}{})
	assert.Equal(t, http.StatusBadRequest, code)
}
