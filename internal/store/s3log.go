package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
)

// S3FailureLog writes the per-run failure artifact to S3 so operators
// can download the rejected rows, fix them, and retry as a smaller
// input file.
type S3FailureLog struct {
	client *s3.Client
	bucket string
}

// NewS3FailureLog creates the S3-backed failure log.
func NewS3FailureLog(cfg aws.Config, bucket string) *S3FailureLog {
	return &S3FailureLog{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}
}

func failureKey(runID string) string {
	return fmt.Sprintf("imports/%s/failures.json", runID)
}

// SaveFailures writes the failure list and returns its object key.
// An empty failure list still writes an artifact, so "no failures" is
// distinguishable from "run never finished".
func (l *S3FailureLog) SaveFailures(ctx context.Context, runID string, failures []clinic.ImportFailure) (string, error) {
	if failures == nil {
		failures = []clinic.ImportFailure{}
	}
	data, err := json.MarshalIndent(failures, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling failures: %w", err)
	}

	key := failureKey(runID)
	_, err = l.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(l.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("putting failure log %s: %w", key, err)
	}
	return key, nil
}

// GetFailures reads back a run's failure artifact.
func (l *S3FailureLog) GetFailures(ctx context.Context, runID string) ([]clinic.ImportFailure, error) {
	key := failureKey(runID)
	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting failure log %s: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading failure log %s: %w", key, err)
	}

	var failures []clinic.ImportFailure
	if err := json.Unmarshal(data, &failures); err != nil {
		return nil, fmt.Errorf("decoding failure log %s: %w", key, err)
	}
	return failures, nil
}

// FetchInput downloads an import input file from S3, for runs
// triggered with an object key instead of an uploaded file.
func (l *S3FailureLog) FetchInput(ctx context.Context, key string) ([]byte, error) {
	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting input %s: %w", key, err)
	}
	defer result.Body.Close()
	return io.ReadAll(result.Body)
}
