// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mailer sends transactional email. Provider "ses" delivers
// through AWS SES and "noop" only logs, which is the development default.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Mailer sends one message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // optional override, e.g. a local SES mock
}

// Config holds configuration for creating a mailer.
type Config struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// New creates a mailer from config. Unknown providers fall back to noop.
func New(cfg Config) Mailer {
	switch cfg.Provider {
	case "ses":
		awsCfg := aws.Config{
			Region: cfg.SES.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(cfg.SES.AccessKeyID, cfg.SES.SecretAccessKey, ""),
			),
		}
		client := ses.NewFromConfig(awsCfg, func(o *ses.Options) {
			if cfg.SES.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.SES.Endpoint)
			}
		})
		return &SES{client: client, fromAddress: cfg.FromAddress, fromName: cfg.FromName}
	case "noop", "":
		return Noop{}
	default:
		slog.Warn("unknown mail provider, using noop", "provider", cfg.Provider)
		return Noop{}
	}
}

// SES delivers mail through AWS SES.
type SES struct {
	client      *ses.Client
	fromAddress string
	fromName    string
}

// Send implements Mailer.
func (s *SES) Send(ctx context.Context, to, subject, html, text string) error {
	source := s.fromAddress
	if s.fromName != "" {
		source = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}
	input := &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: utf8Content(subject),
			Body:    &types.Body{},
		},
	}
	if html != "" {
		input.Message.Body.Html = utf8Content(html)
	}
	if text != "" {
		input.Message.Body.Text = utf8Content(text)
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("send email via SES: %w", err)
	}
	slog.Info("email sent", "provider", "ses", "to", to, "message_id", aws.ToString(result.MessageId))
	return nil
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

// Noop logs instead of sending.
type Noop struct{}

// Send implements Mailer.
func (Noop) Send(_ context.Context, to, subject, _, _ string) error {
	slog.Info("email not sent (noop provider)", "to", to, "subject", subject)
	return nil
}
