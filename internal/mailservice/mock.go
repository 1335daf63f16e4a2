package mailservice

import (
	"bytes"
	"errors"
	"sync"

	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/yemun/blog/internal/common"
)

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	args := m.Called(name, data)
	return args.Get(0).(*bytes.Buffer), args.Get(1).(*bytes.Buffer), args.Get(2).(*bytes.Buffer), args.Error(3)
}

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*mail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

// MockMailer records recipients and reports each send on Sent.
type MockMailer struct {
	mu         sync.Mutex
	recipients []string
	templates  []string
	failures   int
	Sent       chan string
}

func NewMockMailer(failures int) *MockMailer {
	return &MockMailer{failures: failures, Sent: make(chan string, 10)}
}

func (m *MockMailer) send(recipient string, data any, templateFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}

	m.recipients = append(m.recipients, recipient)
	m.templates = append(m.templates, templateFile)
	m.Sent <- recipient
	return nil
}

func (m *MockMailer) Recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.recipients...)
}

// MockMessageConsumer delivers Bodies once and then closes the channel.
type MockMessageConsumer struct {
	Bodies [][]byte
	mock.Mock
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	args := m.Called(key, exchange, queue)
	if err := args.Error(0); err != nil {
		return nil, err
	}

	msgsChan := make(chan amqp.Delivery)

	go func() {
		defer close(msgsChan)

		for _, body := range m.Bodies {
			msgsChan <- amqp.Delivery{Body: body}
		}
	}()

	return msgsChan, nil
}
