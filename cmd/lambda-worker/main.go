package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"annotation-backend/internal/bootstrap"
	"annotation-backend/internal/shared/config"
	"annotation-backend/internal/shared/metrics"
	"annotation-backend/internal/shared/telemetry"
	"annotation-backend/internal/workerproc"
)

var (
	initOnce   sync.Once
	initErr    error
	reconciler workerproc.Reconciler
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	reconciler = built.AnnotationsService
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processBatch(ctx, reconciler, event), nil
}

// processBatch reports only retryable failures; unprocessable records are
// dropped so they do not cycle through the queue.
func processBatch(ctx context.Context, r workerproc.Reconciler, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncEventsReceived()
		err := workerproc.HandleMessage(ctx, r, record.Body)
		switch {
		case err == nil:
			metrics.IncEventsProcessed()
		case workerproc.Unrecoverable(err):
			telemetry.Error("worker.event.dropped", map[string]any{
				"sqs_message_id": record.MessageId,
				"error":          err.Error(),
			})
			metrics.IncEventsDropped()
		default:
			telemetry.Error("worker.event.failed", map[string]any{
				"sqs_message_id": record.MessageId,
				"error":          err.Error(),
			})
			metrics.IncEventsFailed()
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
