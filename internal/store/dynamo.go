package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
	"github.com/dbankston2409/mens-health-finder/internal/pkg/logger"
)

// Single-table key layout:
//
//	PK "CLINIC"       SK <id>      clinic profile item
//	PK "SLUG"         SK <slug>    slug marker for exact-match probes
//	PK "IMPORT_RUN"   SK <runID>   run document (JSON in Data)
const (
	pkClinic = "CLINIC"
	pkSlug   = "SLUG"
	pkRun    = "IMPORT_RUN"
)

// AWSOptions configures the AWS-backed store.
type AWSOptions struct {
	Region    string
	Profile   string
	AccessKey string
	SecretKey string
	Table     string
	Bucket    string
}

// LoadAWSConfig resolves an aws.Config from the options, preferring
// static keys, then a shared profile, then the default chain (IAM role
// on ECS).
func LoadAWSConfig(ctx context.Context, opts AWSOptions) (aws.Config, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	switch {
	case opts.AccessKey != "" && opts.SecretKey != "":
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	case opts.Profile != "":
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// dynamoAPI is the slice of the DynamoDB client the store calls.
type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoStore is the production record store.
type DynamoStore struct {
	db    dynamoAPI
	table string
}

// NewDynamoStore creates a DynamoDB-backed store.
func NewDynamoStore(cfg aws.Config, table string) *DynamoStore {
	return &DynamoStore{
		db:    dynamodb.NewFromConfig(cfg),
		table: table,
	}
}

type clinicItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	clinic.Clinic
}

type slugItem struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	ClinicID string `dynamodbav:"ClinicID"`
}

type runItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Status    string `dynamodbav:"Status"`
	Data      string `dynamodbav:"Data"`
	Timestamp string `dynamodbav:"Timestamp"`
}

// GetClinic returns the clinic by id, or nil when absent.
func (s *DynamoStore) GetClinic(ctx context.Context, id string) (*clinic.Clinic, error) {
	result, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pkClinic},
			"SK": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting clinic %s: %w", id, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item clinicItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling clinic %s: %w", id, err)
	}
	return &item.Clinic, nil
}

// QueryClinics returns clinics matching the city/state predicate.
// DynamoDB applies Limit before the filter expression, so the limit is
// enforced client-side and the query pages through the partition until
// it has enough matches or runs out of items.
func (s *DynamoStore) QueryClinics(ctx context.Context, q ClinicQuery) ([]*clinic.Clinic, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkClinic},
		},
	}

	var filters []string
	if q.City != "" {
		filters = append(filters, "City = :city")
		input.ExpressionAttributeValues[":city"] = &types.AttributeValueMemberS{Value: q.City}
	}
	if q.State != "" {
		filters = append(filters, "#st = :state")
		input.ExpressionAttributeNames = map[string]string{"#st": "State"}
		input.ExpressionAttributeValues[":state"] = &types.AttributeValueMemberS{Value: q.State}
	}
	if len(filters) > 0 {
		expr := filters[0]
		for _, f := range filters[1:] {
			expr += " AND " + f
		}
		input.FilterExpression = aws.String(expr)
	}
	var clinics []*clinic.Clinic
	for {
		result, err := s.db.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("querying clinics: %w", err)
		}
		for _, raw := range result.Items {
			var item clinicItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				logger.Warn("skipping unreadable clinic item", "error", err.Error())
				continue
			}
			c := item.Clinic
			clinics = append(clinics, &c)
			if q.Limit > 0 && len(clinics) >= q.Limit {
				return clinics, nil
			}
		}
		if len(result.LastEvaluatedKey) == 0 {
			return clinics, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// SlugExists probes the slug marker partition for an exact match.
func (s *DynamoStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	result, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pkSlug},
			"SK": &types.AttributeValueMemberS{Value: slug},
		},
	})
	if err != nil {
		return false, fmt.Errorf("probing slug %s: %w", slug, err)
	}
	return result.Item != nil, nil
}

// BatchPut writes clinics and their slug markers in one BatchWriteItem,
// retrying unprocessed items. The caller must respect MaxBatchClinics.
func (s *DynamoStore) BatchPut(ctx context.Context, clinics []*clinic.Clinic) error {
	if len(clinics) == 0 {
		return nil
	}
	if len(clinics) > MaxBatchClinics {
		return fmt.Errorf("batch of %d clinics exceeds limit of %d", len(clinics), MaxBatchClinics)
	}

	var requests []types.WriteRequest
	for _, c := range clinics {
		profile, err := attributevalue.MarshalMap(clinicItem{PK: pkClinic, SK: c.ID, Clinic: *c})
		if err != nil {
			return fmt.Errorf("marshaling clinic %s: %w", c.ID, err)
		}
		marker, err := attributevalue.MarshalMap(slugItem{PK: pkSlug, SK: c.Slug, ClinicID: c.ID})
		if err != nil {
			return fmt.Errorf("marshaling slug marker %s: %w", c.Slug, err)
		}
		requests = append(requests,
			types.WriteRequest{PutRequest: &types.PutRequest{Item: profile}},
			types.WriteRequest{PutRequest: &types.PutRequest{Item: marker}},
		)
	}

	pending := map[string][]types.WriteRequest{s.table: requests}
	for attempt := 0; len(pending[s.table]) > 0; attempt++ {
		if attempt >= 5 {
			return fmt.Errorf("batch write: %d items still unprocessed after %d attempts",
				len(pending[s.table]), attempt)
		}
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		out, err := s.db.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return fmt.Errorf("batch write: %w", err)
		}
		pending = out.UnprocessedItems
	}
	return nil
}

// UpdateClinic replaces the clinic profile item. Used by merge
// decisions; the slug marker is untouched because slugs are immutable.
func (s *DynamoStore) UpdateClinic(ctx context.Context, c *clinic.Clinic) error {
	av, err := attributevalue.MarshalMap(clinicItem{PK: pkClinic, SK: c.ID, Clinic: *c})
	if err != nil {
		return fmt.Errorf("marshaling clinic %s: %w", c.ID, err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("updating clinic %s: %w", c.ID, err)
	}
	return nil
}

// SaveRun persists the run document as JSON in the Data attribute.
func (s *DynamoStore) SaveRun(ctx context.Context, run *clinic.ImportRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling run %s: %w", run.ID, err)
	}

	av, err := attributevalue.MarshalMap(runItem{
		PK:        pkRun,
		SK:        run.ID,
		Status:    string(run.Status),
		Data:      string(data),
		Timestamp: run.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshaling run item %s: %w", run.ID, err)
	}

	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun loads a run document, or nil when absent.
func (s *DynamoStore) GetRun(ctx context.Context, id string) (*clinic.ImportRun, error) {
	result, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pkRun},
			"SK": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", id, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item runItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling run %s: %w", id, err)
	}
	var run clinic.ImportRun
	if err := json.Unmarshal([]byte(item.Data), &run); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns all runs, most recently updated first.
func (s *DynamoStore) ListRuns(ctx context.Context) ([]clinic.ImportRun, error) {
	result, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkRun},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}

	var runs []clinic.ImportRun
	for _, raw := range result.Items {
		var item runItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		var run clinic.ImportRun
		if err := json.Unmarshal([]byte(item.Data), &run); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].UpdatedAt.After(runs[j].UpdatedAt)
	})
	return runs, nil
}
