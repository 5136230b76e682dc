// Package sns sends OTP text messages through AWS SNS.
package sns

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Publisher is the subset of *sns.Client used by Sender.
type Publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Sender implements notify.SMSSender.
type Sender struct {
	client Publisher
}

// NewSender loads the default AWS credential chain for region.
func NewSender(ctx context.Context, region string) (*Sender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &Sender{client: sns.NewFromConfig(awsCfg)}, nil
}

// NewWithClient wraps an existing publisher.
func NewWithClient(client Publisher) *Sender {
	return &Sender{client: client}
}

// SendOTP publishes message to each phone number as a transactional SMS.
// Every number is attempted; the joined error reports the ones that failed.
func (s *Sender) SendOTP(ctx context.Context, phones []string, senderLabel, message string) error {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if senderLabel != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(senderLabel)}
	}

	var errs []error
	for _, phone := range phones {
		_, err := s.client.Publish(ctx, &sns.PublishInput{
			PhoneNumber:       aws.String(phone),
			Message:           aws.String(message),
			MessageAttributes: attrs,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}
	return errors.Join(errs...)
}
