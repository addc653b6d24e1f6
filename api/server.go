package api

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/pj950/live-scoring/api/controllers"
	"github.com/pj950/live-scoring/api/transport"
	"github.com/pj950/live-scoring/logging"
	"github.com/pj950/live-scoring/storage"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

func (s *Server) Start() {
	r := transport.NewRouter(gin.DebugMode)

	// Create storage
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logging.Log.Errorf("failed to load AWS config: %v", err)
		panic("failed to load AWS config")
	}

	dynamoClient := dynamodb.NewFromConfig(cfg)

	teamStorage := &storage.DynamoTeamStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameTeams,
	}
	judgeStorage := &storage.DynamoJudgeStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameJudges,
	}
	criterionStorage := &storage.DynamoCriterionStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameCriteria,
	}
	ratingStorage := &storage.DynamoRatingStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameRatings,
	}
	controlStorage := &storage.DynamoControlStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameControl,
	}

	//Register controllers
	stateController := controllers.NewStateController(teamStorage, judgeStorage, criterionStorage, ratingStorage, controlStorage)
	stateController.RegisterRoutes(r)
	accessController := controllers.NewAccessController(judgeStorage, s.config.AdminCode)
	accessController.RegisterRoutes(r)
	resultsController := controllers.NewResultsController(teamStorage, judgeStorage, criterionStorage, ratingStorage)
	resultsController.RegisterRoutes(r)

	//Do not run lambda helper locally
	if os.Getenv("APP_ENV") == "local" {
		startLocal(r, s.config.Port)
	} else {
		startLambda(r)
	}
}

// StartLambda sets up for AWS Lambda
func startLambda(engine *gin.Engine) {
	ginLambda := ginadapter.NewV2(engine)

	handler := func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		logging.Log.Infof("Lambda handler triggered on path: %s", req.RawPath)
		return ginLambda.ProxyWithContext(ctx, req)
	}

	logging.Log.Info("Starting lambda")
	lambda.Start(handler)
}

// StartLocal starts a normal HTTP server on the configured port
func startLocal(engine *gin.Engine, port int) {
	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))

	if err := engine.Run(fmt.Sprintf(":%d", port)); err != nil {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}
