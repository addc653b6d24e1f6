package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pj950/live-scoring/logging"
)

type CriterionStorage interface {
	GetAll(ctx context.Context) ([]*Criterion, error)
	Create(ctx context.Context, criterion *Criterion) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type DynamoCriterionStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoCriterionStorage) GetAll(ctx context.Context) ([]*Criterion, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("CRITERION: scan failed: %v", err)
		return nil, err
	}

	var criteria []*Criterion
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &criteria); err != nil {
		logging.Log.Errorf("CRITERION: failed to unmarshal criterion list: %v", err)
		return nil, err
	}
	return criteria, nil
}

func (s *DynamoCriterionStorage) Create(ctx context.Context, criterion *Criterion) error {
	item, err := attributevalue.MarshalMap(criterion)
	if err != nil {
		logging.Log.Errorf("CRITERION: failed to marshal criterion: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("CRITERION: failed to create criterion: %v", err)
		return err
	}
	return nil
}

func (s *DynamoCriterionStorage) Delete(ctx context.Context, id string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("CRITERION: failed to marshal delete key for ID %s: %v", id, err)
		return err
	}

	_, err = s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CRITERION: failed to delete criterion with ID %s: %v", id, err)
		return err
	}
	logging.Log.Infof("CRITERION: deleted criterion with ID %s", id)
	return nil
}

func (s *DynamoCriterionStorage) DeleteAll(ctx context.Context) error {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("CRITERION: scan for delete failed: %v", err)
		return err
	}

	for _, item := range out.Items {
		_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: &s.TableName,
			Key:       map[string]types.AttributeValue{"PK": item["PK"]},
		})
		if err != nil {
			logging.Log.Errorf("CRITERION: failed to delete criterion during wipe: %v", err)
			return err
		}
	}
	logging.Log.Infof("CRITERION: wiped %d criteria", len(out.Items))
	return nil
}
