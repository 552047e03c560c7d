package storage

import (
	"context"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// VoteAuditStorage is the append-only record of cast votes. Create fails
// with ErrItemWithIDAlreadyExists when the same content hash was already
// recorded, which is what blocks duplicate submissions.
type VoteAuditStorage interface {
	Create(ctx context.Context, entry *VoteAuditEntry) error
	// Delete removes a single entry, used to release the duplicate guard
	// when a recorded vote could not be counted.
	Delete(ctx context.Context, hash string) error
	GetByElection(ctx context.Context, electionID string) ([]*VoteAuditEntry, error)
	DeleteByElection(ctx context.Context, electionID string) error
}

type DynamoVoteAuditStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoVoteAuditStorage) Create(ctx context.Context, entry *VoteAuditEntry) error {
	return putNew(ctx, s.Client, s.TableName, entry, "AUDIT")
}

func (s *DynamoVoteAuditStorage) Delete(ctx context.Context, hash string) error {
	return deleteByStringKey(ctx, s.Client, s.TableName, hash, "AUDIT")
}

func (s *DynamoVoteAuditStorage) GetByElection(ctx context.Context, electionID string) ([]*VoteAuditEntry, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &s.TableName,
		FilterExpression: aws.String("ElectionID = :election"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":election": &types.AttributeValueMemberS{Value: electionID},
		},
	})
	if err != nil {
		logging.Log.Errorf("AUDIT: scan for election %s failed: %v", electionID, err)
		return nil, err
	}

	var entries []*VoteAuditEntry
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &entries); err != nil {
		logging.Log.Errorf("AUDIT: failed to unmarshal entries: %v", err)
		return nil, err
	}
	return entries, nil
}

func (s *DynamoVoteAuditStorage) DeleteByElection(ctx context.Context, electionID string) error {
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		scanOutput, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            &s.TableName,
			ExclusiveStartKey:    lastEvaluatedKey,
			ProjectionExpression: aws.String("PK"),
			FilterExpression:     aws.String("ElectionID = :election"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":election": &types.AttributeValueMemberS{Value: electionID},
			},
		})
		if err != nil {
			logging.Log.Errorf("AUDIT: scan for delete failed: %v", err)
			return err
		}

		var writeRequests []types.WriteRequest
		for _, item := range scanOutput.Items {
			writeRequests = append(writeRequests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": item["PK"],
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
				logging.Log.Errorf("AUDIT: batch delete failed: %v", err)
				return err
			}
			logging.Log.Infof("AUDIT: deleted batch of %d entries for election %s", end-i, electionID)
		}

		if scanOutput.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = scanOutput.LastEvaluatedKey
	}

	return nil
}
