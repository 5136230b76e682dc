package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	inputs []*sns.PublishInput
	failOn string
}

func (f *fakePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if aws.ToString(in.PhoneNumber) == f.failOn {
		return nil, errors.New("invalid parameter")
	}
	return &sns.PublishOutput{MessageId: aws.String("m1")}, nil
}

func TestSendOTPPublishesPerNumber(t *testing.T) {
	pub := &fakePublisher{}
	s := NewWithClient(pub)

	require.NoError(t, s.SendOTP(context.Background(), []string{"+255700000001", "+255700000002"}, "SKULI", "code"))
	require.Len(t, pub.inputs, 2)
	assert.Equal(t, "code", aws.ToString(pub.inputs[0].Message))
	assert.Equal(t, "SKULI", aws.ToString(pub.inputs[0].MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestSendOTPReportsFailures(t *testing.T) {
	pub := &fakePublisher{failOn: "+2"}
	s := NewWithClient(pub)

	err := s.SendOTP(context.Background(), []string{"+1", "+2"}, "", "code")
	require.Error(t, err)
	assert.Len(t, pub.inputs, 2)
	_, hasSender := pub.inputs[0].MessageAttributes["AWS.SNS.SMS.SenderID"]
	assert.False(t, hasSender)
}
