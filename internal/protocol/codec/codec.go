// Package codec 消息的创建、解析与编解码
// 文本帧使用 JSON，二进制帧使用 protobuf wire 格式的信封（字段 1 为类型，字段 2 为 JSON payload）
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/palemoky/undercover/internal/apperrors"
	"github.com/palemoky/undercover/internal/protocol"
)

// Format 帧格式
type Format int

const (
	FormatJSON Format = iota
	FormatBinary
)

const (
	fieldType    protowire.Number = 1
	fieldPayload protowire.Number = 2
)

// ErrMissingType 消息缺少类型
var ErrMissingType = errors.New("codec: message type is empty")

// NewMessage 创建一个新消息
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &protocol.Message{Type: msgType, Payload: data}, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// ParsePayload 解析消息的 Payload 到指定类型，空 payload 得到零值
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	return NewErrorMessageWithText(code, protocol.ErrorMessages[code])
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{Code: code, Message: text})
}

// NewErrorFrom 将业务错误转换为错误消息，非业务错误统一为未知错误
func NewErrorFrom(err error) *protocol.Message {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		return NewErrorMessageWithText(gameErr.Code, gameErr.Message)
	}
	return NewErrorMessage(protocol.ErrCodeUnknown)
}

// Encode 按帧格式编码消息
func Encode(format Format, msg *protocol.Message) ([]byte, error) {
	if format == FormatBinary {
		return EncodeBinary(msg)
	}
	return json.Marshal(msg)
}

// Decode 按帧格式解码消息
func Decode(format Format, data []byte) (*protocol.Message, error) {
	if format == FormatBinary {
		return DecodeBinary(data)
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, ErrMissingType
	}
	return &msg, nil
}

// EncodeBinary 编码为 protobuf wire 信封
func EncodeBinary(msg *protocol.Message) ([]byte, error) {
	if msg.Type == "" {
		return nil, ErrMissingType
	}

	buf := getBuffer()
	defer putBuffer(buf)

	b := protowire.AppendTag((*buf)[:0], fieldType, protowire.BytesType)
	b = protowire.AppendString(b, string(msg.Type))
	if len(msg.Payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, msg.Payload)
	}
	*buf = b
	return slices.Clone(b), nil
}

// DecodeBinary 解码 protobuf wire 信封，未知字段会被跳过
func DecodeBinary(data []byte) (*protocol.Message, error) {
	msg := &protocol.Message{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("codec: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldType && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return nil, fmt.Errorf("codec: bad type field: %w", protowire.ParseError(m))
			}
			msg.Type = protocol.MessageType(v)
			n = m
		case num == fieldPayload && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, fmt.Errorf("codec: bad payload field: %w", protowire.ParseError(m))
			}
			msg.Payload = slices.Clone(v)
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("codec: bad field %d: %w", num, protowire.ParseError(n))
			}
		}
		data = data[n:]
	}

	if msg.Type == "" {
		return nil, ErrMissingType
	}
	return msg, nil
}
