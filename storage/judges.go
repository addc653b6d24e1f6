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

type JudgeStorage interface {
	GetByCode(ctx context.Context, code string) (*Judge, error)
	GetAll(ctx context.Context) ([]*Judge, error)
	Create(ctx context.Context, judge *Judge) error
	DeleteByID(ctx context.Context, id string) (*Judge, error)
	DeleteAll(ctx context.Context) error
}

type DynamoJudgeStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoJudgeStorage) GetByCode(ctx context.Context, code string) (*Judge, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": code})
	if err != nil {
		logging.Log.Errorf("JUDGE: failed to marshal key for code %s: %v", code, err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("JUDGE: GetItem for code %s failed: %v", code, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var judge Judge
	if err := attributevalue.UnmarshalMap(out.Item, &judge); err != nil {
		logging.Log.Errorf("JUDGE: failed to unmarshal judge: %v", err)
		return nil, err
	}
	return &judge, nil
}

func (s *DynamoJudgeStorage) GetAll(ctx context.Context) ([]*Judge, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("JUDGE: scan failed: %v", err)
		return nil, err
	}

	var judges []*Judge
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &judges); err != nil {
		logging.Log.Errorf("JUDGE: failed to unmarshal judge list: %v", err)
		return nil, err
	}
	return judges, nil
}

// Create inserts a judge keyed by its secret code. A conditional put makes
// the code-uniqueness check atomic: two names that derive to the same code
// cannot both land.
func (s *DynamoJudgeStorage) Create(ctx context.Context, judge *Judge) error {
	item, err := attributevalue.MarshalMap(judge)
	if err != nil {
		logging.Log.Errorf("JUDGE: failed to marshal judge: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			logging.Log.Warnf("JUDGE: judge with code %s already exists", judge.SecretCode)
			return ErrCodeAlreadyExists
		}
		logging.Log.Errorf("JUDGE: failed to create judge: %v", err)
		return err
	}
	return nil
}

// DeleteByID removes the judge with the given entity id and returns the
// deleted record so callers can cascade by judge id. Deleting an unknown
// id is a no-op and returns nil.
func (s *DynamoJudgeStorage) DeleteByID(ctx context.Context, id string) (*Judge, error) {
	judges, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, judge := range judges {
		if judge.ID != id {
			continue
		}
		key, err := attributevalue.MarshalMap(map[string]string{"PK": judge.SecretCode})
		if err != nil {
			logging.Log.Errorf("JUDGE: failed to marshal delete key for ID %s: %v", id, err)
			return nil, err
		}
		_, err = s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: &s.TableName,
			Key:       key,
		})
		if err != nil {
			logging.Log.Errorf("JUDGE: failed to delete judge with ID %s: %v", id, err)
			return nil, err
		}
		logging.Log.Infof("JUDGE: deleted judge with ID %s", id)
		return judge, nil
	}

	logging.Log.Warnf("JUDGE: no judge found with ID %s", id)
	return nil, nil
}

func (s *DynamoJudgeStorage) DeleteAll(ctx context.Context) error {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("JUDGE: scan for delete failed: %v", err)
		return err
	}

	for _, item := range out.Items {
		_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: &s.TableName,
			Key:       map[string]types.AttributeValue{"PK": item["PK"]},
		})
		if err != nil {
			logging.Log.Errorf("JUDGE: failed to delete judge during wipe: %v", err)
			return err
		}
	}
	logging.Log.Infof("JUDGE: wiped %d judges", len(out.Items))
	return nil
}
