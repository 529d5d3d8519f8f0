package codec

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/palemoky/undercover/internal/apperrors"
	"github.com/palemoky/undercover/internal/protocol"
)

func TestNewMessage_ParsePayload(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgStartGame, protocol.StartGamePayload{
		Words:           &[2]string{"cat", "dog"},
		UndercoverCount: 1,
	})
	assert.Equal(t, protocol.MsgStartGame, msg.Type)

	payload, err := ParsePayload[protocol.StartGamePayload](msg)
	require.NoError(t, err)
	require.NotNil(t, payload.Words)
	assert.Equal(t, [2]string{"cat", "dog"}, *payload.Words)
	assert.Equal(t, 1, payload.UndercoverCount)
}

func TestParsePayload_Empty(t *testing.T) {
	t.Parallel()

	payload, err := ParsePayload[protocol.StartGamePayload](&protocol.Message{Type: protocol.MsgStartGame})
	require.NoError(t, err)
	assert.Nil(t, payload.Words)

	_, err = ParsePayload[protocol.VotePayload](&protocol.Message{Payload: json.RawMessage(`{"target_id":`)})
	assert.Error(t, err)
}

func TestNewErrorFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code int
		text string
	}{
		{"game error", apperrors.ErrSelfVote, protocol.ErrCodeSelfVote, protocol.ErrorMessages[protocol.ErrCodeSelfVote]},
		{"wrapped", fmt.Errorf("vote: %w", apperrors.ErrInvalidName), protocol.ErrCodeInvalidIdentifier, apperrors.ErrInvalidName.Message},
		{"plain error", fmt.Errorf("boom"), protocol.ErrCodeUnknown, protocol.ErrorMessages[protocol.ErrCodeUnknown]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := NewErrorFrom(tt.err)
			assert.Equal(t, protocol.MsgError, msg.Type)

			payload, err := ParsePayload[protocol.ErrorPayload](msg)
			require.NoError(t, err)
			assert.Equal(t, tt.code, payload.Code)
			assert.Equal(t, tt.text, payload.Message)
		})
	}
}

func TestEncodeDecode_BothFormats(t *testing.T) {
	t.Parallel()

	original := MustNewMessage(protocol.MsgVote, protocol.VotePayload{TargetID: "p1"})

	for _, format := range []Format{FormatJSON, FormatBinary} {
		data, err := Encode(format, original)
		require.NoError(t, err)

		decoded, err := Decode(format, data)
		require.NoError(t, err)
		if diff := cmp.Diff(original, decoded); diff != "" {
			t.Errorf("format %d mismatch (-want +got):\n%s", format, diff)
		}
	}
}

func TestEncodeBinary_WireLayout(t *testing.T) {
	t.Parallel()

	data, err := EncodeBinary(&protocol.Message{Type: protocol.MsgPing})
	require.NoError(t, err)

	want := protowire.AppendTag(nil, 1, protowire.BytesType)
	want = protowire.AppendString(want, "ping")
	assert.Equal(t, want, data)
}

func TestDecodeBinary_SkipsUnknownFields(t *testing.T) {
	t.Parallel()

	b := protowire.AppendTag(nil, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "leave_room")

	msg, err := DecodeBinary(b)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgLeaveRoom, msg.Type)
	assert.Empty(t, msg.Payload)
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	_, err := Decode(FormatJSON, []byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = Decode(FormatJSON, []byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeBinary([]byte{0x0a, 0x05, 'a'})
	assert.Error(t, err, "truncated length-delimited field")

	_, err = DecodeBinary(nil)
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = EncodeBinary(&protocol.Message{})
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestBufferPool_DropsLargeBuffers(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { putBuffer(nil) })

	big := make([]byte, 0, maxPooledBuffer+1)
	putBuffer(&big)

	buf := getBuffer()
	assert.Empty(t, *buf)
	putBuffer(buf)
}
