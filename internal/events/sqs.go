package events

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends events to one queue.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
	logger   *zap.Logger
}

// NewSQSPublisher loads the default AWS config and creates a publisher for queueURL.
func NewSQSPublisher(ctx context.Context, queueURL string, logger *zap.Logger) (*SQSPublisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newSQSPublisher(sqs.NewFromConfig(cfg), queueURL, logger), nil
}

func newSQSPublisher(client sqsAPI, queueURL string, logger *zap.Logger) *SQSPublisher {
	return &SQSPublisher{client: client, queueURL: queueURL, logger: logger.Named("events")}
}

func (p *SQSPublisher) Publish(ctx context.Context, event Event) error {
	body, err := encode(event)
	if err != nil {
		return err
	}
	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("send SQS message: %w", err)
	}
	p.logger.Debug("event published",
		zap.String("type", event.Type),
		zap.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}

func (p *SQSPublisher) Close() error { return nil }
