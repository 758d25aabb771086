package store

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
)

// pagedDynamo scripts Query responses page by page and records the
// inputs it saw. The other operations are unused by these tests.
type pagedDynamo struct {
	pages  []*dynamodb.QueryOutput
	inputs []*dynamodb.QueryInput
}

func (p *pagedDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	// The store mutates one input struct across pages; keep a snapshot.
	cp := *in
	p.inputs = append(p.inputs, &cp)
	if len(p.inputs) > len(p.pages) {
		return &dynamodb.QueryOutput{}, nil
	}
	return p.pages[len(p.inputs)-1], nil
}

func (p *pagedDynamo) GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{}, nil
}

func (p *pagedDynamo) PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return &dynamodb.PutItemOutput{}, nil
}

func (p *pagedDynamo) BatchWriteItem(context.Context, *dynamodb.BatchWriteItemInput, ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func clinicAttrs(t *testing.T, id, name string) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(clinicItem{
		PK: pkClinic, SK: id,
		Clinic: clinic.Clinic{ID: id, Name: name, City: "Austin", State: "TX"},
	})
	require.NoError(t, err)
	return av
}

func pageKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pkClinic},
		"SK": &types.AttributeValueMemberS{Value: id},
	}
}

func TestQueryClinicsFollowsPagination(t *testing.T) {
	// A filter expression can consume a whole page before yielding any
	// matches, so an empty first page with a continuation key must not
	// end the scan.
	db := &pagedDynamo{pages: []*dynamodb.QueryOutput{
		{LastEvaluatedKey: pageKey("cursor-1")},
		{
			Items:            []map[string]types.AttributeValue{clinicAttrs(t, "clinic-1", "Alpha Clinic")},
			LastEvaluatedKey: pageKey("cursor-2"),
		},
		{Items: []map[string]types.AttributeValue{clinicAttrs(t, "clinic-2", "Beta Clinic")}},
	}}
	s := &DynamoStore{db: db, table: "directory"}

	clinics, err := s.QueryClinics(context.Background(), ClinicQuery{City: "Austin", State: "TX", Limit: 200})
	require.NoError(t, err)

	require.Len(t, clinics, 2)
	assert.Equal(t, "clinic-1", clinics[0].ID)
	assert.Equal(t, "clinic-2", clinics[1].ID)

	require.Len(t, db.inputs, 3)
	assert.Nil(t, db.inputs[0].ExclusiveStartKey)
	assert.Equal(t, pageKey("cursor-1"), db.inputs[1].ExclusiveStartKey)
	assert.Equal(t, pageKey("cursor-2"), db.inputs[2].ExclusiveStartKey)
}

func TestQueryClinicsStopsAtLimit(t *testing.T) {
	db := &pagedDynamo{pages: []*dynamodb.QueryOutput{
		{
			Items: []map[string]types.AttributeValue{
				clinicAttrs(t, "clinic-1", "Alpha Clinic"),
				clinicAttrs(t, "clinic-2", "Beta Clinic"),
			},
			LastEvaluatedKey: pageKey("cursor-1"),
		},
	}}
	s := &DynamoStore{db: db, table: "directory"}

	clinics, err := s.QueryClinics(context.Background(), ClinicQuery{City: "Austin", Limit: 2})
	require.NoError(t, err)

	assert.Len(t, clinics, 2)
	assert.Len(t, db.inputs, 1, "limit reached, no further pages fetched")
}

func TestQueryClinicsExhaustsWithoutLimit(t *testing.T) {
	db := &pagedDynamo{pages: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{clinicAttrs(t, "clinic-1", "Alpha Clinic")},
			LastEvaluatedKey: pageKey("cursor-1"),
		},
		{Items: []map[string]types.AttributeValue{clinicAttrs(t, "clinic-2", "Beta Clinic")}},
	}}
	s := &DynamoStore{db: db, table: "directory"}

	clinics, err := s.QueryClinics(context.Background(), ClinicQuery{State: "TX"})
	require.NoError(t, err)
	assert.Len(t, clinics, 2)
	assert.Len(t, db.inputs, 2)
}
