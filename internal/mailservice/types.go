package mailservice

import (
	"bytes"
	"context"
	"html/template"
	"sync"

	"github.com/go-mail/mail/v2"
	"golang.org/x/time/rate"

	"github.com/yemun/blog/internal/common"
)

type MailService struct {
	mb        common.MessageConsumer
	m         Mailer
	logger    MailLogger
	recipient string
	limiter   *rate.Limiter
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type MailLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

// Template renders embedded mail templates, parsing each one once.
type Template struct {
	mu     sync.Mutex
	parsed map[string]*template.Template
}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}

// commentNotification is the data rendered into comment_notification.html.
type commentNotification struct {
	PostSlug   string
	AuthorName string
	Content    string
	CreatedAt  string
}
