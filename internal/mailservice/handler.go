package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/time/rate"

	"github.com/yemun/blog/internal/commentservice"
	"github.com/yemun/blog/internal/common"
)

const (
	commentTemplate = "comment_notification.html"
	maxRetries      = 5
	baseDelay       = 500 * time.Millisecond
)

// NewMailService sends a notification to recipient for every new comment. perMinute caps the
// send rate; zero or less means unlimited.
func NewMailService(mb common.MessageConsumer, host string, port int, username, password, sender, recipient string, perMinute int, logger *slog.Logger) *MailService {
	return newMailService(mb, NewMailer(host, port, username, password, sender, NewTemplate()), recipient, perMinute, logger)
}

func newMailService(mb common.MessageConsumer, m Mailer, recipient string, perMinute int, logger MailLogger) *MailService {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:        mb,
		m:         m,
		logger:    logger,
		recipient: recipient,
		limiter:   rate.NewLimiter(limit, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SendCommentNotifications consumes comment.created events until Close is called.
func (s *MailService) SendCommentNotifications() {
	msgs, err := s.mb.Consume(common.CommentCreatedKey, common.CommentExchange, common.CommentCreatedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var event commentservice.CommentCreatedMessage
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
					msg.Ack(false)
					continue
				}

				if err := s.limiter.Wait(s.ctx); err != nil {
					msg.Nack(false, true)
					return
				}

				if s.notify(event) {
					s.logger.Info("comment notification sent", slog.String("slug", event.PostSlug), slog.String("id", event.ID))
				} else {
					s.logger.Error("could not send comment notification", slog.String("slug", event.PostSlug), slog.String("id", event.ID))
				}
				msg.Ack(false)

			case <-s.ctx.Done():
				s.logger.Info("stopping SendCommentNotifications due to context cancellation")
				return
			}
		}
	}()
}

// notify sends one notification using exponential backoff with jitter.
func (s *MailService) notify(event commentservice.CommentCreatedMessage) bool {
	payload := commentNotification{
		PostSlug:   event.PostSlug,
		AuthorName: event.AuthorName,
		Content:    event.Content,
		CreatedAt:  event.CreatedAt.Format(time.RFC1123),
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.m.send(s.recipient, payload, commentTemplate)
		if err == nil {
			return true
		}

		delay := time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
		s.logger.Info("delaying comment notification", slog.String("id", event.ID), slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return false
		}
	}

	return false
}

// Close stops the consumer and waits for an in-flight notification to finish.
func (s *MailService) Close() {
	s.cancel()
	s.wg.Wait()
}
