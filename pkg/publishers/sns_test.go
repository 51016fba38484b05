package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func TestSNSPublisherSendSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{
		id:       "topic",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:us-east-1:1:flows",
		client:   client,
		log:      noopLogger{},
	}

	if err := pub.Publish(context.Background(), NewEvent(ActionCreated, "flow-9", 200)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:us-east-1:1:flows" {
		t.Fatalf("TopicArn = %s", got)
	}
	if attr := client.input.MessageAttributes["action"]; aws.ToString(attr.StringValue) != ActionCreated {
		t.Fatalf("action attribute = %#v", attr)
	}
	if !strings.Contains(aws.ToString(client.input.Message), `"action":"flow.created"`) {
		t.Fatalf("Message missing action: %s", aws.ToString(client.input.Message))
	}
}

func TestSNSPublisherSendError(t *testing.T) {
	pub := &snsPublisher{
		id:     "topic",
		client: &fakeSNSClient{err: errors.New("throttled")},
		log:    noopLogger{},
	}
	if err := pub.Publish(context.Background(), NewEvent(ActionCreated, "flow-9", 200)); err == nil {
		t.Fatalf("expected error from Publish")
	}
}
