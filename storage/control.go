package storage

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pj950/live-scoring/logging"
)

// ControlStorage holds the singleton control record. A missing item reads
// as the zero state (unlocked, no active team).
type ControlStorage interface {
	Get(ctx context.Context) (*ControlRecord, error)
	SetLock(ctx context.Context, isLocked bool) error
	SetActiveTeam(ctx context.Context, teamID *string) error
	ClearActiveTeam(ctx context.Context, teamID string) error
	Reset(ctx context.Context) error
}

type DynamoControlStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoControlStorage) key() (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(map[string]string{"PK": ControlRecordKey})
}

func (s *DynamoControlStorage) Get(ctx context.Context) (*ControlRecord, error) {
	key, err := s.key()
	if err != nil {
		logging.Log.Errorf("CONTROL: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CONTROL: GetItem failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return &ControlRecord{PK: ControlRecordKey}, nil
	}

	var record ControlRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		logging.Log.Errorf("CONTROL: failed to unmarshal record: %v", err)
		return nil, err
	}
	return &record, nil
}

// SetLock updates only the lock flag, so it never clobbers a concurrent
// active-team change.
func (s *DynamoControlStorage) SetLock(ctx context.Context, isLocked bool) error {
	key, err := s.key()
	if err != nil {
		return err
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        &s.TableName,
		Key:              key,
		UpdateExpression: aws.String("SET IsSetupLocked = :locked"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":locked": &types.AttributeValueMemberBOOL{Value: isLocked},
		},
	})
	if err != nil {
		logging.Log.Errorf("CONTROL: failed to set lock to %t: %v", isLocked, err)
		return err
	}
	logging.Log.Infof("CONTROL: setup lock set to %t", isLocked)
	return nil
}

func (s *DynamoControlStorage) SetActiveTeam(ctx context.Context, teamID *string) error {
	key, err := s.key()
	if err != nil {
		return err
	}

	var value types.AttributeValue = &types.AttributeValueMemberNULL{Value: true}
	if teamID != nil {
		value = &types.AttributeValueMemberS{Value: *teamID}
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        &s.TableName,
		Key:              key,
		UpdateExpression: aws.String("SET ActiveTeamID = :team"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":team": value,
		},
	})
	if err != nil {
		logging.Log.Errorf("CONTROL: failed to set active team: %v", err)
		return err
	}
	return nil
}

// ClearActiveTeam nulls the pointer only if it still references the given
// team. Used by the team-delete cascade; the condition keeps it from
// clobbering a pointer that moved on in the meantime.
func (s *DynamoControlStorage) ClearActiveTeam(ctx context.Context, teamID string) error {
	key, err := s.key()
	if err != nil {
		return err
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &s.TableName,
		Key:                 key,
		UpdateExpression:    aws.String("SET ActiveTeamID = :null"),
		ConditionExpression: aws.String("ActiveTeamID = :team"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":null": &types.AttributeValueMemberNULL{Value: true},
			":team": &types.AttributeValueMemberS{Value: teamID},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			// Pointer no longer references this team, nothing to clear.
			return nil
		}
		logging.Log.Errorf("CONTROL: failed to clear active team %s: %v", teamID, err)
		return err
	}
	logging.Log.Infof("CONTROL: cleared active team %s", teamID)
	return nil
}

func (s *DynamoControlStorage) Reset(ctx context.Context) error {
	record := &ControlRecord{
		PK:            ControlRecordKey,
		IsSetupLocked: false,
		ActiveTeamID:  nil,
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		logging.Log.Errorf("CONTROL: failed to marshal reset record: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("CONTROL: failed to reset record: %v", err)
		return err
	}
	logging.Log.Info("CONTROL: record reset")
	return nil
}
