// Package notify sends price alerts.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/flightdash/internal/model"
)

// maxSubjectLen is the SNS limit for e-mail subjects.
const maxSubjectLen = 100

// ErrInvalidTopicARN is returned for a topic ARN that is not an SNS ARN.
var ErrInvalidTopicARN = errors.New("invalid SNS topic ARN")

// Alert describes a price at or below the alert threshold.
type Alert struct {
	RunID          string
	RecordedAt     time.Time
	MinPrice       int64
	Threshold      int64
	CurrencySymbol string

	// Offer is the cheapest offer of the run, if known.
	Offer *model.Offer
}

// ShouldAlert reports whether minPrice is at or below threshold.
// A missing price or a non-positive threshold never alerts.
func ShouldAlert(minPrice *int64, threshold int64) bool {
	return minPrice != nil && *minPrice > 0 && threshold > 0 && *minPrice <= threshold
}

// Subject is a one-line description of the alert.
func (a Alert) Subject() string {
	s := "Flight price alert: " + a.price(a.MinPrice)
	if o := a.Offer; o != nil && o.FromCode != "" && o.ToCode != "" {
		s += " " + o.FromCode + "-" + o.ToCode
	}
	if len(s) > maxSubjectLen {
		s = s[:maxSubjectLen]
	}
	return s
}

// Message is the alert body.
func (a Alert) Message() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The cheapest flight is %s, at or below your threshold of %s.\n",
		a.price(a.MinPrice), a.price(a.Threshold))
	if o := a.Offer; o != nil {
		fmt.Fprintf(&sb, "\n%s, %s (%s) -> %s (%s)\n", o.Airline, o.From, o.FromCode, o.To, o.ToCode)
		fmt.Fprintf(&sb, "Departs %s, arrives %s, %d stop(s)\n", o.DepartureTime, o.ArrivalTime, o.Stops)
	}
	if !a.RecordedAt.IsZero() {
		fmt.Fprintf(&sb, "\nRecorded at %s", a.RecordedAt.Format(time.RFC3339))
		if a.RunID != "" {
			fmt.Fprintf(&sb, " (run %s)", a.RunID)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (a Alert) price(v int64) string {
	return a.CurrencySymbol + message.NewPrinter(language.English).Sprintf("%d", v)
}

// Notifier delivers alerts.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// SNSAPI is the part of the SNS client used by SNSNotifier.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes alerts to an SNS topic.
type SNSNotifier struct {
	client   SNSAPI
	topicARN string
}

// NewSNSNotifier creates a notifier publishing to topicARN with client.
func NewSNSNotifier(client SNSAPI, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

// NewSNSNotifierFromEnv creates a notifier using the default AWS
// credential chain. The region is taken from the topic ARN.
func NewSNSNotifierFromEnv(ctx context.Context, topicARN string) (*SNSNotifier, error) {
	region, err := RegionFromARN(topicARN)
	if err != nil {
		return nil, err
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return NewSNSNotifier(sns.NewFromConfig(cfg), topicARN), nil
}

// RegionFromARN extracts the region of arn:aws:sns:<region>:<account>:<topic>.
func RegionFromARN(arn string) (string, error) {
	parts := strings.Split(arn, ":")
	if len(parts) != 6 || parts[0] != "arn" || parts[2] != "sns" || parts[3] == "" || parts[5] == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopicARN, arn)
	}
	return parts[3], nil
}

// Notify publishes the alert.
func (n *SNSNotifier) Notify(ctx context.Context, alert Alert) error {
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(alert.Subject()),
		Message:  aws.String(alert.Message()),
	})
	if err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}
