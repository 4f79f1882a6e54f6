package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/nao1215/flightdash/internal/model"
)

// mockSNS records published messages.
type mockSNS struct {
	publishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	inputs      []*sns.PublishInput
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func testAlert() Alert {
	return Alert{
		RunID:          "run-1",
		RecordedAt:     time.Date(2026, 10, 17, 6, 30, 0, 0, time.UTC),
		MinPrice:       4519,
		Threshold:      5000,
		CurrencySymbol: "₹",
		Offer: &model.Offer{
			Airline:       "IndiGo",
			From:          "New Delhi",
			FromCode:      "DEL",
			To:            "Mumbai",
			ToCode:        "BOM",
			DepartureTime: "2026-12-20T06:00:00",
			ArrivalTime:   "2026-12-20T08:10:00",
		},
	}
}

// TestShouldAlert tests the threshold comparison.
func TestShouldAlert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		price     *int64
		threshold int64
		want      bool
	}{
		{"below threshold", model.Ptr[int64](4000), 5000, true},
		{"at threshold", model.Ptr[int64](5000), 5000, true},
		{"above threshold", model.Ptr[int64](5001), 5000, false},
		{"no price", nil, 5000, false},
		{"zero price", model.Ptr[int64](0), 5000, false},
		{"disabled threshold", model.Ptr[int64](10), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ShouldAlert(tt.price, tt.threshold); got != tt.want {
				t.Errorf("ShouldAlert() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestAlertText tests the subject and body.
func TestAlertText(t *testing.T) {
	t.Parallel()

	a := testAlert()
	if got := a.Subject(); got != "Flight price alert: ₹4,519 DEL-BOM" {
		t.Errorf("Subject() = %q", got)
	}

	msg := a.Message()
	for _, want := range []string{"₹4,519", "₹5,000", "IndiGo", "New Delhi (DEL) -> Mumbai (BOM)", "run run-1", "2026-10-17T06:30:00Z"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in message:\n%s", want, msg)
		}
	}

	a.Offer = nil
	if got := a.Subject(); got != "Flight price alert: ₹4,519" {
		t.Errorf("Subject() without offer = %q", got)
	}
}

// TestSNSNotifier tests publishing through the SNS client.
func TestSNSNotifier(t *testing.T) {
	t.Parallel()

	t.Run("publishes to the topic", func(t *testing.T) {
		t.Parallel()

		client := &mockSNS{}
		n := NewSNSNotifier(client, "arn:aws:sns:ap-south-1:123456789012:flight-alerts")
		if err := n.Notify(t.Context(), testAlert()); err != nil {
			t.Fatalf("Notify() error = %v", err)
		}
		if len(client.inputs) != 1 {
			t.Fatalf("expected 1 publish, got %d", len(client.inputs))
		}
		in := client.inputs[0]
		if aws.ToString(in.TopicArn) != "arn:aws:sns:ap-south-1:123456789012:flight-alerts" {
			t.Errorf("TopicArn = %q", aws.ToString(in.TopicArn))
		}
		if !strings.Contains(aws.ToString(in.Message), "IndiGo") {
			t.Errorf("unexpected message %q", aws.ToString(in.Message))
		}
	})

	t.Run("wraps publish errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("SNS service unavailable")
		client := &mockSNS{
			publishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
				return nil, boom
			},
		}
		err := NewSNSNotifier(client, "arn:aws:sns:us-east-1:1:t").Notify(t.Context(), testAlert())
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})
}

// TestRegionFromARN tests topic ARN parsing.
func TestRegionFromARN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arn     string
		want    string
		wantErr bool
	}{
		{"arn:aws:sns:ap-south-1:123456789012:flight-alerts", "ap-south-1", false},
		{"arn:aws:sqs:ap-south-1:123456789012:queue", "", true},
		{"arn:aws:sns::123456789012:topic", "", true},
		{"flight-alerts", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.arn, func(t *testing.T) {
			t.Parallel()

			got, err := RegionFromARN(tt.arn)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTopicARN) {
					t.Errorf("expected ErrInvalidTopicARN, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("RegionFromARN() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}
