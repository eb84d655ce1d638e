package service

import (
	"context"
	"sync"
	"time"

	"github.com/lingxijiao/backend/internal/email"
	"github.com/lingxijiao/backend/internal/metrics"
	"go.uber.org/zap"
)

// FeedbackService forwards user feedback to the operator mailbox
type FeedbackService struct {
	sender   email.Sender
	operator string
	log      *zap.Logger
	timeout  time.Duration
	inflight sync.WaitGroup
}

// NewFeedbackService creates a FeedbackService that mails operator
func NewFeedbackService(sender email.Sender, operator string, log *zap.Logger) *FeedbackService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedbackService{
		sender:   sender,
		operator: operator,
		log:      log,
		timeout:  sideEffectTimeout,
	}
}

// Submit sends feedback in the background. The caller is never told about
// delivery failures; they are logged.
func (s *FeedbackService) Submit(ctx context.Context, feedback string) {
	msg := email.FeedbackMessage(s.operator, feedback)
	sendCtx := context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(sendCtx, s.timeout)
		defer cancel()

		err := s.sender.Send(ctx, msg)
		metrics.RecordEmail(metrics.EmailFeedback, err)
		if err != nil {
			s.log.Info("Failed to send feedback", zap.Error(err))
			return
		}
		s.log.Info("Feedback sent")
	}()
}

// Wait blocks until every in-flight feedback send has finished
func (s *FeedbackService) Wait() {
	s.inflight.Wait()
}
