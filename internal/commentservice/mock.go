package commentservice

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/yemun/blog/internal/common"
)

type MockMessageProducer struct {
	mu       sync.Mutex
	messages [][]byte
	mock.Mock
}

func (m *MockMessageProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()

	args := m.Called(key, exchange)
	return args.Error(0)
}

func (m *MockMessageProducer) Messages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.messages...)
}
