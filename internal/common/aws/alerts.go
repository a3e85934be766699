// internal/common/aws/alerts.go
package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"yecs-workers/internal/common/config"
	apperrors "yecs-workers/internal/common/errors"
)

const (
	ChannelSNS = "sns"
	ChannelSES = "ses"
)

// BiasAlert describes one audit that flagged at least one group.
type BiasAlert struct {
	AuditID string `json:"auditId"`
	// FlaggedGroups maps attribute name to its flagged group values.
	FlaggedGroups map[string][]string `json:"flaggedGroups"`
	DetectedAt    time.Time           `json:"detectedAt"`
	Report        string              `json:"-"`
}

// Subject is shared by the SNS notification and the email.
func (a BiasAlert) Subject() string {
	return fmt.Sprintf("YECS bias detected in audit %s", a.AuditID)
}

func (a BiasAlert) summary() string {
	attrs := make([]string, 0, len(a.FlaggedGroups))
	for attr := range a.FlaggedGroups {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = append(parts, fmt.Sprintf("%s=[%s]", attr, strings.Join(a.FlaggedGroups[attr], ", ")))
	}
	return strings.Join(parts, "; ")
}

// AlertReceipt lists the message ids of the channels that accepted the alert.
type AlertReceipt struct {
	SNSMessageID string `json:"snsMessageId,omitempty"`
	SESMessageID string `json:"sesMessageId,omitempty"`
}

// Channels returns the names of the channels that delivered.
func (r AlertReceipt) Channels() []string {
	var out []string
	if r.SNSMessageID != "" {
		out = append(out, ChannelSNS)
	}
	if r.SESMessageID != "" {
		out = append(out, ChannelSES)
	}
	return out
}

// BiasAlerter fans a BiasAlert out to SNS and, when recipients are
// configured, to SES. Either client may be nil to disable that channel.
type BiasAlerter struct {
	publisher Publisher
	sender    EmailSender
	topicARN  string
	from      string
	to        []string
}

func NewBiasAlerter(publisher Publisher, sender EmailSender, cfg config.AlertConfig) *BiasAlerter {
	return &BiasAlerter{
		publisher: publisher,
		sender:    sender,
		topicARN:  cfg.TopicARN,
		from:      cfg.EmailFrom,
		to:        append([]string(nil), cfg.EmailTo...),
	}
}

// Send tries every configured channel. Failures are returned as
// BIAS_ALERT_FAILED errors joined together; the receipt still records the
// channels that succeeded.
func (b *BiasAlerter) Send(ctx context.Context, alert BiasAlert) (AlertReceipt, error) {
	var receipt AlertReceipt
	var errs []error

	if b.publisher != nil && b.topicARN != "" {
		id, err := b.publish(ctx, alert)
		if err != nil {
			errs = append(errs, apperrors.NewBiasAlertFailedError(ChannelSNS, err))
		}
		receipt.SNSMessageID = id
	}

	if b.sender != nil && len(b.to) > 0 {
		id, err := b.email(ctx, alert)
		if err != nil {
			errs = append(errs, apperrors.NewBiasAlertFailedError(ChannelSES, err))
		}
		receipt.SESMessageID = id
	}

	return receipt, errors.Join(errs...)
}

func (b *BiasAlerter) publish(ctx context.Context, alert BiasAlert) (string, error) {
	body, err := json.Marshal(alert)
	if err != nil {
		return "", fmt.Errorf("encode alert: %w", err)
	}

	out, err := b.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(b.topicARN),
		Subject:  awssdk.String(alert.Subject()),
		Message:  awssdk.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"auditId": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(alert.AuditID),
			},
		},
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.MessageId), nil
}

func (b *BiasAlerter) email(ctx context.Context, alert BiasAlert) (string, error) {
	text := fmt.Sprintf("Flagged groups: %s\nDetected at: %s\n\n%s",
		alert.summary(), alert.DetectedAt.UTC().Format(time.RFC3339), alert.Report)

	out, err := b.sender.SendEmail(ctx, &ses.SendEmailInput{
		Source:      awssdk.String(b.from),
		Destination: &sestypes.Destination{ToAddresses: b.to},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(alert.Subject())},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(text)},
			},
		},
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.MessageId), nil
}
