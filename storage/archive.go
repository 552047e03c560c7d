package storage

import (
	"context"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ArchiveStorage holds concluded elections. Records are write-once: Create
// is conditional and there is no update path.
type ArchiveStorage interface {
	Get(ctx context.Context, electionID string) (*ArchivedElection, error)
	GetAll(ctx context.Context) ([]*ArchivedElection, error)
	Create(ctx context.Context, archived *ArchivedElection) error
}

type DynamoArchiveStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoArchiveStorage) Get(ctx context.Context, electionID string) (*ArchivedElection, error) {
	item, err := getByStringKey(ctx, s.Client, s.TableName, electionID, "ARCHIVE")
	if err != nil {
		return nil, err
	}

	var archived ArchivedElection
	if err := attributevalue.UnmarshalMap(item, &archived); err != nil {
		logging.Log.Errorf("ARCHIVE: failed to unmarshal archived election %s: %v", electionID, err)
		return nil, err
	}
	return &archived, nil
}

func (s *DynamoArchiveStorage) GetAll(ctx context.Context) ([]*ArchivedElection, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("ARCHIVE: scan failed: %v", err)
		return nil, err
	}

	var archived []*ArchivedElection
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &archived); err != nil {
		logging.Log.Errorf("ARCHIVE: failed to unmarshal archived elections: %v", err)
		return nil, err
	}
	return archived, nil
}

func (s *DynamoArchiveStorage) Create(ctx context.Context, archived *ArchivedElection) error {
	if archived.ArchivedAt.IsZero() {
		archived.ArchivedAt = time.Now().UTC()
	}
	return putNew(ctx, s.Client, s.TableName, archived, "ARCHIVE")
}
