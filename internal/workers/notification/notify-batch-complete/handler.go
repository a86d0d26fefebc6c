// internal/workers/notification/notify-batch-complete/handler.go
package notifybatchcomplete

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commonerrors "refi-pricing-workers/internal/common/errors"
	"refi-pricing-workers/internal/common/logger"
	"refi-pricing-workers/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-batch-complete"
)

// Define interfaces for mocking
type EmailAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SMSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config       *Config
	email        EmailAPI
	sms          SMSAPI
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, email EmailAPI, sms SMSAPI, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		email:        email,
		sms:          sms,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		errorHandler: commonerrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "PARSE_ERROR").Inc()
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode(err)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	sentAt := time.Now().UTC().Format(time.RFC3339)
	notificationID := uuid.New().String()

	subject, body := buildSummary(input)

	var channels []string

	if h.config.EmailEnabled && input.RecipientEmail != "" {
		if err := h.sendEmail(ctx, input.RecipientEmail, subject, body); err != nil {
			return nil, commonerrors.NewNotificationSendError(fmt.Errorf("email to %s: %w", input.RecipientEmail, err))
		}
		channels = append(channels, "email")
	}

	if h.config.SMSEnabled && input.RecipientPhone != "" {
		if err := h.sendSMS(ctx, input.RecipientPhone, body); err != nil {
			return nil, commonerrors.NewNotificationSendError(fmt.Errorf("sms to %s: %w", input.RecipientPhone, err))
		}
		channels = append(channels, "sms")
	}

	status := StatusSent
	if len(channels) == 0 {
		status = StatusDisabled
		h.logger.Warn("no notification channel available", map[string]interface{}{
			"batchId":      input.BatchID,
			"emailEnabled": h.config.EmailEnabled,
			"smsEnabled":   h.config.SMSEnabled,
		})
	}

	h.logger.Info("batch notification processed", map[string]interface{}{
		"batchId":  input.BatchID,
		"status":   status,
		"channels": channels,
	})

	return &Output{
		NotificationID: notificationID,
		BatchID:        input.BatchID,
		Status:         status,
		Channels:       channels,
		SentAt:         sentAt,
	}, nil
}

func buildSummary(input *Input) (string, string) {
	subject := fmt.Sprintf("Refinance pricing batch %s complete", input.BatchID)

	body := fmt.Sprintf(
		"Pricing batch %s finished: %d borrowers priced, %d saving money on their monthly payment.",
		input.BatchID, input.ResultCount, input.LoansSavingMoney,
	)
	if input.FileName != "" {
		body += fmt.Sprintf(" Export file: %s.", input.FileName)
	}
	return subject, body
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.email.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.sms.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func errorCode(err error) string {
	var stdErr *commonerrors.StandardError
	if errors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
