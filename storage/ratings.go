package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pj950/live-scoring/logging"
)

type RatingStorage interface {
	GetAll(ctx context.Context) ([]*Rating, error)
	Put(ctx context.Context, rating *Rating) error
	DeleteByTeam(ctx context.Context, teamID string) error
	DeleteByJudge(ctx context.Context, judgeID string) error
	DeleteAll(ctx context.Context) error
}

type DynamoRatingStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoRatingStorage) GetAll(ctx context.Context) ([]*Rating, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("RATING: scan failed: %v", err)
		return nil, err
	}

	var ratings []*Rating
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &ratings); err != nil {
		logging.Log.Errorf("RATING: failed to unmarshal rating list: %v", err)
		return nil, err
	}
	return ratings, nil
}

// Put upserts the rating for its (judge, team) key. The whole scores map is
// replaced in a single write, so a resubmission is last-write-wins and two
// concurrent submissions can never merge into a corrupted map.
func (s *DynamoRatingStorage) Put(ctx context.Context, rating *Rating) error {
	item, err := attributevalue.MarshalMap(rating)
	if err != nil {
		logging.Log.Errorf("RATING: failed to marshal rating: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("RATING: failed to put rating: %v", err)
		return err
	}
	return nil
}

// DeleteByTeam removes every rating submitted for the given team.
func (s *DynamoRatingStorage) DeleteByTeam(ctx context.Context, teamID string) error {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:            &s.TableName,
		FilterExpression:     aws.String("SK = :team"),
		ProjectionExpression: aws.String("PK, SK"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":team": &types.AttributeValueMemberS{Value: teamID},
		},
	})
	if err != nil {
		logging.Log.Errorf("RATING: scan by team %s failed: %v", teamID, err)
		return err
	}

	return s.deleteItems(ctx, out.Items)
}

// DeleteByJudge removes every rating submitted by the given judge.
func (s *DynamoRatingStorage) DeleteByJudge(ctx context.Context, judgeID string) error {
	out, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.TableName,
		KeyConditionExpression: aws.String("PK = :judge"),
		ProjectionExpression:   aws.String("PK, SK"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":judge": &types.AttributeValueMemberS{Value: judgeID},
		},
	})
	if err != nil {
		logging.Log.Errorf("RATING: query by judge %s failed: %v", judgeID, err)
		return err
	}

	return s.deleteItems(ctx, out.Items)
}

func (s *DynamoRatingStorage) DeleteAll(ctx context.Context) error {
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            &s.TableName,
			ExclusiveStartKey:    lastEvaluatedKey,
			ProjectionExpression: aws.String("PK, SK"),
		})
		if err != nil {
			logging.Log.Errorf("RATING: scan for delete failed: %v", err)
			return err
		}

		if err := s.deleteItems(ctx, out.Items); err != nil {
			return err
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = out.LastEvaluatedKey
	}

	return nil
}

func (s *DynamoRatingStorage) deleteItems(ctx context.Context, items []map[string]types.AttributeValue) error {
	if len(items) == 0 {
		return nil
	}

	var writeRequests []types.WriteRequest
	for _, item := range items {
		writeRequests = append(writeRequests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					"PK": item["PK"],
					"SK": item["SK"],
				},
			},
		})
	}

	for i := 0; i < len(writeRequests); i += 25 {
		end := i + 25
		if end > len(writeRequests) {
			end = len(writeRequests)
		}
		_, err := s.Client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.TableName: writeRequests[i:end],
			},
		})
		if err != nil {
			logging.Log.Errorf("RATING: batch delete failed: %v", err)
			return err
		}
		logging.Log.Infof("RATING: deleted batch of %d ratings", end-i)
	}

	return nil
}
