package fitagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3OperationLogger buffers operations and ships them to S3 on Flush, for
// runs where the local filesystem does not outlive the process.
type S3OperationLogger struct {
	bucket     string
	keyPrefix  string
	runID      string
	operations []OperationLog
	s3         *s3.Client
}

func NewS3OperationLogger(s3Client *s3.Client, bucket, keyPrefix, runID string) *S3OperationLogger {
	return &S3OperationLogger{
		bucket:     bucket,
		keyPrefix:  keyPrefix,
		runID:      runID,
		operations: make([]OperationLog, 0),
		s3:         s3Client,
	}
}

func (l *S3OperationLogger) LogOperation(op OperationLog) error {
	l.operations = append(l.operations, op)
	return nil
}

// Flush uploads the accumulated operations as one object.
func (l *S3OperationLogger) Flush(ctx context.Context) error {
	if len(l.operations) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"operation_run": map[string]any{
			"run_id":     l.runID,
			"timestamp":  time.Now(),
			"operations": l.operations,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal operation log: %w", err)
	}

	key := fmt.Sprintf("%s/%d.%s.json", l.keyPrefix, time.Now().Unix(), l.runID)
	_, err = l.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(l.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put operation log to S3: %w", err)
	}

	l.operations = l.operations[:0]
	return nil
}
