package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pj950/live-scoring/api/models"
	"github.com/pj950/live-scoring/logging"
	"github.com/pj950/live-scoring/storage"
)

// AccessController resolves a typed access code to a view: the configured
// admin code or a judge's derived code. This is presentation-layer routing,
// not an enforcement boundary; the state API trusts any caller.
type AccessController struct {
	judgesStorage storage.JudgeStorage
	adminCode     string
}

func NewAccessController(judges storage.JudgeStorage, adminCode string) *AccessController {
	return &AccessController{
		judgesStorage: judges,
		adminCode:     adminCode,
	}
}

func (c *AccessController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api")

	group.GET("/verify/:code", c.verifyAccessCode)
}

// verifyAccessCode godoc
// @Summary Verify an access code
// @Description Matches a code against the admin code and the judges' derived codes
// @Tags access
// @Produce json
// @Param code path string true "Access code"
// @Success 200 {object} models.VerifyResponse
// @Failure 400 {object} models.ErrorResponse "Missing code"
// @Failure 404 {object} models.ErrorResponse "Code matches neither admin nor any judge"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/verify/{code} [get]
func (c *AccessController) verifyAccessCode(g *gin.Context) {
	code := models.SanitizeAccessCode(g.Param("code"))
	if code == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "code is required"})
		return
	}

	if strings.EqualFold(code, c.adminCode) {
		logging.Log.Infof("ACCESS: admin code accepted")
		g.JSON(http.StatusOK, &models.VerifyResponse{Valid: true, Role: models.RoleAdmin})
		return
	}

	// Judge codes are stored uppercased; the typed code may not be.
	judge, err := c.judgesStorage.GetByCode(g.Request.Context(), strings.ToUpper(code))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logging.Log.Warnf("ACCESS: unknown access code")
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "unknown access code"})
			return
		}
		logging.Log.Errorf("ACCESS: failed to look up code: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not verify code"})
		return
	}

	response := models.TransformJudgeFromStorage(judge)
	g.JSON(http.StatusOK, &models.VerifyResponse{
		Valid: true,
		Role:  models.RoleJudge,
		Judge: &response,
	})
}
