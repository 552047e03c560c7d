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

// VoterSetStorage holds the materialized per-election voter working sets.
// Create is conditional so a retried materialization can never produce a
// second set for the same election. Update is conditional on the Version
// that was read and returns ErrVersionConflict when a concurrent write got
// there first; callers re-read and retry.
type VoterSetStorage interface {
	Get(ctx context.Context, electionID string) (*ElectionVoterSet, error)
	Create(ctx context.Context, set *ElectionVoterSet) error
	Update(ctx context.Context, set *ElectionVoterSet) error
	Delete(ctx context.Context, electionID string) error
}

type CandidateSetStorage interface {
	Get(ctx context.Context, electionID string) (*ElectionCandidateSet, error)
	Create(ctx context.Context, set *ElectionCandidateSet) error
	Update(ctx context.Context, set *ElectionCandidateSet) error
	Delete(ctx context.Context, electionID string) error
}

type DynamoVoterSetStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoVoterSetStorage) Get(ctx context.Context, electionID string) (*ElectionVoterSet, error) {
	item, err := getByStringKey(ctx, s.Client, s.TableName, electionID, "VOTERSET")
	if err != nil {
		return nil, err
	}

	var set ElectionVoterSet
	if err := attributevalue.UnmarshalMap(item, &set); err != nil {
		logging.Log.Errorf("VOTERSET: failed to unmarshal set for election %s: %v", electionID, err)
		return nil, err
	}
	return &set, nil
}

func (s *DynamoVoterSetStorage) Create(ctx context.Context, set *ElectionVoterSet) error {
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
	}
	return putNew(ctx, s.Client, s.TableName, set, "VOTERSET")
}

func (s *DynamoVoterSetStorage) Update(ctx context.Context, set *ElectionVoterSet) error {
	next := *set
	next.Version = set.Version + 1
	item, err := attributevalue.MarshalMap(&next)
	if err != nil {
		logging.Log.Errorf("VOTERSET: failed to marshal set: %v", err)
		return err
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("Version = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.Itoa(set.Version)},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrVersionConflict
		}
		logging.Log.Errorf("VOTERSET: failed to update set for election %s: %v", set.ElectionID, err)
		return err
	}
	set.Version = next.Version
	return nil
}

func (s *DynamoVoterSetStorage) Delete(ctx context.Context, electionID string) error {
	return deleteByStringKey(ctx, s.Client, s.TableName, electionID, "VOTERSET")
}

type DynamoCandidateSetStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoCandidateSetStorage) Get(ctx context.Context, electionID string) (*ElectionCandidateSet, error) {
	item, err := getByStringKey(ctx, s.Client, s.TableName, electionID, "CANDSET")
	if err != nil {
		return nil, err
	}

	var set ElectionCandidateSet
	if err := attributevalue.UnmarshalMap(item, &set); err != nil {
		logging.Log.Errorf("CANDSET: failed to unmarshal set for election %s: %v", electionID, err)
		return nil, err
	}
	return &set, nil
}

func (s *DynamoCandidateSetStorage) Create(ctx context.Context, set *ElectionCandidateSet) error {
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
	}
	return putNew(ctx, s.Client, s.TableName, set, "CANDSET")
}

func (s *DynamoCandidateSetStorage) Update(ctx context.Context, set *ElectionCandidateSet) error {
	next := *set
	next.Version = set.Version + 1
	item, err := attributevalue.MarshalMap(&next)
	if err != nil {
		logging.Log.Errorf("CANDSET: failed to marshal set: %v", err)
		return err
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("Version = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.Itoa(set.Version)},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrVersionConflict
		}
		logging.Log.Errorf("CANDSET: failed to update set for election %s: %v", set.ElectionID, err)
		return err
	}
	set.Version = next.Version
	return nil
}

func (s *DynamoCandidateSetStorage) Delete(ctx context.Context, electionID string) error {
	return deleteByStringKey(ctx, s.Client, s.TableName, electionID, "CANDSET")
}
