package protocol

import (
	"encoding/json"
	"fmt"
)

// NewMessage 组装一条带负载的消息信封，负载序列化失败时报错
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	msg := &Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化 %s 负载失败: %w", msgType, err)
	}
	msg.Payload = data
	return msg, nil
}

// MustNewMessage 组装消息；负载都是本包定义的结构体，序列化失败属于编程错误
func MustNewMessage(msgType MessageType, payload any) *Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 编码为传输字节
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode 解出消息信封，负载留给各处理器按类型解析
func Decode(data []byte) (*Message, error) {
	msg := &Message{}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ParsePayload 把消息负载解析成具体的负载结构
func ParsePayload[T any](msg *Message) (*T, error) {
	payload := new(T)
	if err := json.Unmarshal(msg.Payload, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// NewErrorMessage 按错误码生成错误消息，文本取默认文案
func NewErrorMessage(code int) *Message {
	return NewErrorMessageWithText(code, ErrorMessages[code])
}

// NewErrorMessageWithText 生成带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *Message {
	return MustNewMessage(MsgError, ErrorPayload{Code: code, Message: text})
}
