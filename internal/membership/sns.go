package membership

import (
	"context"

	apperrors "mergington-activities/internal/common/errors"
)

// TopicPublisher is satisfied by *aws.SNSClient.
type TopicPublisher interface {
	Publish(ctx context.Context, message string, attrs map[string]string) (string, error)
}

// SNSPublisher forwards events to an SNS topic. eventType and activity are
// set as message attributes so subscribers can filter.
type SNSPublisher struct {
	client TopicPublisher
}

func NewSNSPublisher(client TopicPublisher) *SNSPublisher {
	return &SNSPublisher{client: client}
}

func (p *SNSPublisher) Name() string { return "sns" }

func (p *SNSPublisher) Handle(ctx context.Context, evt Event) error {
	payload, err := evt.JSON()
	if err != nil {
		return apperrors.NewEventPublishFailedError("sns", err)
	}
	_, err = p.client.Publish(ctx, string(payload), map[string]string{
		"eventType": string(evt.Type),
		"activity":  evt.Activity,
	})
	if err != nil {
		return apperrors.NewEventPublishFailedError("sns", err)
	}
	return nil
}
