package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type ElectionStorage interface {
	Get(ctx context.Context, id string) (*Election, error)
	GetAll(ctx context.Context) ([]*Election, error)
	Create(ctx context.Context, election *Election) error
	Update(ctx context.Context, election *Election) error
	Delete(ctx context.Context, id string) error
	// FindDueForPopulation returns live elections whose window has opened
	// but whose working sets have not been materialized yet.
	FindDueForPopulation(ctx context.Context, now time.Time) ([]*Election, error)
	// FindDueForClose returns populated elections whose window has ended.
	FindDueForClose(ctx context.Context, now time.Time) ([]*Election, error)
}

type DynamoElectionStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoElectionStorage) Get(ctx context.Context, id string) (*Election, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("ELECTION: GetItem for %s failed: %v", id, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrItemNotFound
	}

	var election Election
	if err := attributevalue.UnmarshalMap(out.Item, &election); err != nil {
		logging.Log.Errorf("ELECTION: failed to unmarshal election: %v", err)
		return nil, err
	}
	return &election, nil
}

func (s *DynamoElectionStorage) GetAll(ctx context.Context) ([]*Election, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("ELECTION: scan failed: %v", err)
		return nil, err
	}

	var elections []*Election
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &elections); err != nil {
		logging.Log.Errorf("ELECTION: failed to unmarshal election list: %v", err)
		return nil, err
	}
	return elections, nil
}

func (s *DynamoElectionStorage) Create(ctx context.Context, election *Election) error {
	if election.CreatedAt.IsZero() {
		election.CreatedAt = time.Now().UTC()
	}
	indexElectionTimes(election)
	item, err := attributevalue.MarshalMap(election)
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to marshal election: %v", err)
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
			logging.Log.Warnf("ELECTION: election %s already exists", election.ID)
			return ErrItemWithIDAlreadyExists
		}
		logging.Log.Errorf("ELECTION: failed to create election: %v", err)
		return err
	}
	return nil
}

func (s *DynamoElectionStorage) Update(ctx context.Context, election *Election) error {
	indexElectionTimes(election)
	item, err := attributevalue.MarshalMap(election)
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to marshal updated election: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to update election %s: %v", election.ID, err)
		return err
	}
	return nil
}

func (s *DynamoElectionStorage) Delete(ctx context.Context, id string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to marshal delete key for %s: %v", id, err)
		return err
	}

	_, err = s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to delete election %s: %v", id, err)
		return err
	}
	return nil
}

func (s *DynamoElectionStorage) FindDueForPopulation(ctx context.Context, now time.Time) ([]*Election, error) {
	return s.scanWithFilter(ctx,
		"IsPopulated = :populated AND StartsAt <= :now",
		map[string]types.AttributeValue{
			":populated": &types.AttributeValueMemberBOOL{Value: false},
			":now":       &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixNano(), 10)},
		})
}

func (s *DynamoElectionStorage) FindDueForClose(ctx context.Context, now time.Time) ([]*Election, error) {
	return s.scanWithFilter(ctx,
		"IsPopulated = :populated AND EndsAt <= :now",
		map[string]types.AttributeValue{
			":populated": &types.AttributeValueMemberBOOL{Value: true},
			":now":       &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixNano(), 10)},
		})
}

// indexElectionTimes refreshes the numeric window attributes from the
// RFC3339 fields before a write. Lexicographic order over RFC3339Nano is
// not time order (trailing sub-second zeros are trimmed), so the window
// scans compare epoch nanoseconds instead.
func indexElectionTimes(election *Election) {
	election.StartsAt = election.StartTime.UnixNano()
	election.EndsAt = election.EndTime.UnixNano()
}

func (s *DynamoElectionStorage) scanWithFilter(ctx context.Context, filter string, values map[string]types.AttributeValue) ([]*Election, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 &s.TableName,
		FilterExpression:          aws.String(filter),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		logging.Log.Errorf("ELECTION: filtered scan failed: %v", err)
		return nil, err
	}

	var elections []*Election
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &elections); err != nil {
		logging.Log.Errorf("ELECTION: failed to unmarshal filtered elections: %v", err)
		return nil, err
	}
	return elections, nil
}
