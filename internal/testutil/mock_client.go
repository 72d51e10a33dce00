//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/gameroom/internal/protocol"
)

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetName(name string) {
	m.Called(name)
}

func (m *MockClient) GetRoom() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetRoom(roomID string) {
	m.Called(roomID)
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

func (m *MockClient) Close() {
	m.Called()
}

func (m *MockClient) CloseWithCode(code int, reason string) {
	m.Called(code, reason)
}

// SimpleClient 简单的 mock 客户端，不使用 testify（用于不需要断言调用的测试）
// 消息由房间协程并发写入，访问记录时走带锁的方法
type SimpleClient struct {
	ID   string
	Name string

	mu        sync.Mutex
	roomID    string
	messages  []*protocol.Message
	closed    bool
	closeCode int
}

func (m *SimpleClient) GetID() string   { return m.ID }
func (m *SimpleClient) GetName() string { return m.Name }

func (m *SimpleClient) SetName(name string) { m.Name = name }

func (m *SimpleClient) GetRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomID
}

func (m *SimpleClient) SetRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomID = roomID
}

func (m *SimpleClient) SendMessage(msg *protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *SimpleClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *SimpleClient) CloseWithCode(code int, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.closeCode = code
}

// Messages 返回已收到消息的副本
func (m *SimpleClient) Messages() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*protocol.Message(nil), m.messages...)
}

// MessagesOfType 返回指定类型的消息
func (m *SimpleClient) MessagesOfType(t protocol.MessageType) []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*protocol.Message
	for _, msg := range m.messages {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}

// LastMessage 返回最后一条消息，没有时返回 nil
func (m *SimpleClient) LastMessage() *protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

// IsClosed 连接是否已被关闭
func (m *SimpleClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// CloseCode 返回关闭码（未用关闭码关闭时为 0）
func (m *SimpleClient) CloseCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCode
}
