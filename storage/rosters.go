package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type VoterListStorage interface {
	Get(ctx context.Context, name string) (*VoterList, error)
	GetAll(ctx context.Context) ([]*VoterList, error)
	Create(ctx context.Context, list *VoterList) error
	Update(ctx context.Context, list *VoterList) error
	Delete(ctx context.Context, name string) error
}

type CandidateListStorage interface {
	Get(ctx context.Context, name string) (*CandidateList, error)
	GetAll(ctx context.Context) ([]*CandidateList, error)
	Create(ctx context.Context, list *CandidateList) error
	Update(ctx context.Context, list *CandidateList) error
	Delete(ctx context.Context, name string) error
}

type DynamoVoterListStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoVoterListStorage) Get(ctx context.Context, name string) (*VoterList, error) {
	item, err := getByStringKey(ctx, s.Client, s.TableName, name, "ROSTER")
	if err != nil {
		return nil, err
	}

	var list VoterList
	if err := attributevalue.UnmarshalMap(item, &list); err != nil {
		logging.Log.Errorf("ROSTER: failed to unmarshal voter list %s: %v", name, err)
		return nil, err
	}
	return &list, nil
}

func (s *DynamoVoterListStorage) GetAll(ctx context.Context) ([]*VoterList, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("ROSTER: voter list scan failed: %v", err)
		return nil, err
	}

	var lists []*VoterList
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &lists); err != nil {
		logging.Log.Errorf("ROSTER: failed to unmarshal voter lists: %v", err)
		return nil, err
	}
	return lists, nil
}

func (s *DynamoVoterListStorage) Create(ctx context.Context, list *VoterList) error {
	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC()
	}
	return putNew(ctx, s.Client, s.TableName, list, "ROSTER")
}

func (s *DynamoVoterListStorage) Update(ctx context.Context, list *VoterList) error {
	item, err := attributevalue.MarshalMap(list)
	if err != nil {
		logging.Log.Errorf("ROSTER: failed to marshal voter list: %v", err)
		return err
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("ROSTER: failed to update voter list %s: %v", list.Name, err)
		return err
	}
	return nil
}

func (s *DynamoVoterListStorage) Delete(ctx context.Context, name string) error {
	return deleteByStringKey(ctx, s.Client, s.TableName, name, "ROSTER")
}

type DynamoCandidateListStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoCandidateListStorage) Get(ctx context.Context, name string) (*CandidateList, error) {
	item, err := getByStringKey(ctx, s.Client, s.TableName, name, "ROSTER")
	if err != nil {
		return nil, err
	}

	var list CandidateList
	if err := attributevalue.UnmarshalMap(item, &list); err != nil {
		logging.Log.Errorf("ROSTER: failed to unmarshal candidate list %s: %v", name, err)
		return nil, err
	}
	return &list, nil
}

func (s *DynamoCandidateListStorage) GetAll(ctx context.Context) ([]*CandidateList, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("ROSTER: candidate list scan failed: %v", err)
		return nil, err
	}

	var lists []*CandidateList
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &lists); err != nil {
		logging.Log.Errorf("ROSTER: failed to unmarshal candidate lists: %v", err)
		return nil, err
	}
	return lists, nil
}

func (s *DynamoCandidateListStorage) Create(ctx context.Context, list *CandidateList) error {
	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC()
	}
	return putNew(ctx, s.Client, s.TableName, list, "ROSTER")
}

func (s *DynamoCandidateListStorage) Update(ctx context.Context, list *CandidateList) error {
	item, err := attributevalue.MarshalMap(list)
	if err != nil {
		logging.Log.Errorf("ROSTER: failed to marshal candidate list: %v", err)
		return err
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("ROSTER: failed to update candidate list %s: %v", list.Name, err)
		return err
	}
	return nil
}

func (s *DynamoCandidateListStorage) Delete(ctx context.Context, name string) error {
	return deleteByStringKey(ctx, s.Client, s.TableName, name, "ROSTER")
}

func getByStringKey(ctx context.Context, client *dynamodb.Client, table, pk, prefix string) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": pk})
	if err != nil {
		logging.Log.Errorf("%s: failed to marshal key: %v", prefix, err)
		return nil, err
	}

	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &table,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("%s: GetItem for %s failed: %v", prefix, pk, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrItemNotFound
	}
	return out.Item, nil
}

func putNew(ctx context.Context, client *dynamodb.Client, table string, value any, prefix string) error {
	item, err := attributevalue.MarshalMap(value)
	if err != nil {
		logging.Log.Errorf("%s: failed to marshal item: %v", prefix, err)
		return err
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &table,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrItemWithIDAlreadyExists
		}
		logging.Log.Errorf("%s: failed to create item: %v", prefix, err)
		return err
	}
	return nil
}

func deleteByStringKey(ctx context.Context, client *dynamodb.Client, table, pk, prefix string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": pk})
	if err != nil {
		logging.Log.Errorf("%s: failed to marshal delete key for %s: %v", prefix, pk, err)
		return err
	}

	_, err = client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &table,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("%s: failed to delete item %s: %v", prefix, pk, err)
		return err
	}
	return nil
}
