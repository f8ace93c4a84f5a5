package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchline/internal/db"
	"launchline/internal/domain"
)

func sampleLaunch(t *testing.T, name string) domain.Launch {
	t.Helper()
	n := 0
	ids := func(prefix string) string {
		n++
		return fmt.Sprintf("%s_%s_%d", prefix, name, n)
	}
	days := 20
	deadline := "2025-01-15"
	desc := "Kitchen inspection"
	l, err := domain.NewLaunch(domain.LaunchInput{
		Name:           name,
		Location:       "Austin",
		Address:        "1 Main St",
		Type:           "restaurant",
		TargetOpenDate: "2025-06-01",
		Permits: []domain.PermitInput{{
			Type:                    domain.PermitHealth,
			Title:                   "Health Permit",
			Priority:                domain.PriorityCritical,
			EstimatedProcessingDays: &days,
			ApplicationDeadline:     &deadline,
			Description:             &desc,
		}},
	}, time.Date(2024, 12, 1, 9, 30, 15, 123456789, time.UTC), ids)
	require.NoError(t, err)
	return l
}

func sqliteStore(t *testing.T) Repository {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	store, err := NewSQLStore(conn, db.SQLite)
	require.NoError(t, err)
	return store
}

func dynamoStore(t *testing.T) Repository {
	t.Helper()
	return NewDynamoStore(newFakeDynamo(), "launchline")
}

func stores(t *testing.T) map[string]func(*testing.T) Repository {
	return map[string]func(*testing.T) Repository{
		"memory": func(*testing.T) Repository { return NewMemory() },
		"sqlite": sqliteStore,
		"dynamo": dynamoStore,
	}
}

func TestSaveAllRoundTrip(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := open(t)

			snap, err := r.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(0), snap.Version)
			assert.Empty(t, snap.Launches)

			l := sampleLaunch(t, "taco")
			v, err := r.SaveAll(ctx, 0, []domain.Launch{l})
			require.NoError(t, err)
			assert.Equal(t, int64(1), v)

			list, err := r.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, l, list[0])

			got, err := r.GetByID(ctx, l.ID)
			require.NoError(t, err)
			assert.Equal(t, l, got)

			_, err = r.GetByID(ctx, "launch_missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestSaveAllVersionConflict(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := open(t)

			v1, err := r.SaveAll(ctx, 0, []domain.Launch{sampleLaunch(t, "a")})
			require.NoError(t, err)

			_, err = r.SaveAll(ctx, 0, []domain.Launch{sampleLaunch(t, "b")})
			assert.ErrorIs(t, err, ErrVersionConflict)

			v2, err := r.SaveAll(ctx, v1, []domain.Launch{sampleLaunch(t, "a"), sampleLaunch(t, "c")})
			require.NoError(t, err)
			assert.Equal(t, v1+1, v2)

			_, err = r.SaveAll(ctx, v1, nil)
			assert.ErrorIs(t, err, ErrVersionConflict)

			snap, err := r.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, v2, snap.Version)
			assert.Len(t, snap.Launches, 2)
		})
	}
}

func TestMemoryDoesNotAliasCallers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	l := sampleLaunch(t, "alias")
	_, err := m.SaveAll(ctx, 0, []domain.Launch{l})
	require.NoError(t, err)

	l.Permits[0].InspectorNotes = append(l.Permits[0].InspectorNotes, "mutated after save")
	got, err := m.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Permits[0].InspectorNotes)

	got.Name = "changed"
	again, err := m.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "alias", again.Name)
}

func TestDecodeRestoresGrouping(t *testing.T) {
	launches, err := decodePayload([]byte(`{"launches":[{"id":"launch_1","name":"x","permits":[{"id":"permit_1","launchId":"launch_1","type":"fire","status":"approved"}]}]}`))
	require.NoError(t, err)
	require.Len(t, launches, 1)
	assert.Len(t, launches[0].PermitsByType, len(domain.PermitTypes))
	assert.Len(t, launches[0].PermitsByType[domain.PermitFire], 1)
	assert.NotNil(t, launches[0].Permits[0].InspectorNotes)

	_, err = decodePayload([]byte(`not json`))
	assert.Error(t, err)
}

func TestDynamoStoreWrapsClientErrors(t *testing.T) {
	fake := newFakeDynamo()
	fake.failWith = errors.New("throttled")
	s := NewDynamoStore(fake, "launchline")

	_, err := s.Load(context.Background())
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load", se.Op)

	_, err = s.SaveAll(context.Background(), 0, nil)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save", se.Op)
}

// fakeDynamo evaluates the two condition expressions the store issues.
type fakeDynamo struct {
	mu       sync.Mutex
	item     map[string]dynamodbtypes.AttributeValue
	failWith error
}

func newFakeDynamo() *fakeDynamo { return &fakeDynamo{} }

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	if pk, ok := in.Key["pk"].(*dynamodbtypes.AttributeValueMemberS); !ok || pk.Value != snapshotKey {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: f.item}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	conflict := &dynamodbtypes.ConditionalCheckFailedException{Message: aws.String("conditional check failed")}
	switch aws.ToString(in.ConditionExpression) {
	case "attribute_not_exists(pk)":
		if f.item != nil {
			return nil, conflict
		}
	case "version = :expected":
		if f.item == nil {
			return nil, conflict
		}
		want := in.ExpressionAttributeValues[":expected"].(*dynamodbtypes.AttributeValueMemberN).Value
		if f.item["version"].(*dynamodbtypes.AttributeValueMemberN).Value != want {
			return nil, conflict
		}
	}
	f.item = in.Item
	return &dynamodb.PutItemOutput{}, nil
}
