package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecode_SignifierOnly(t *testing.T) {
	msg, err := Decode("3")
	require.NoError(t, err)
	assert.Equal(t, AddToGameRoomQueue, msg.Signifier)
	assert.Empty(t, msg.Fields)
}

func TestDecode_WithPayload(t *testing.T) {
	msg, err := Decode("1,alice,pw1")
	require.NoError(t, err)
	assert.Equal(t, CreateAccountAttempt, msg.Signifier)
	assert.Equal(t, []string{"alice", "pw1"}, msg.Fields)
}

func TestDecode_EmptyLine(t *testing.T) {
	_, err := Decode("")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_NonNumericSignifier(t *testing.T) {
	_, err := Decode("hello,world")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_EmptyPayloadFields(t *testing.T) {
	// Trailing separators decode to empty payload fields rather than erroring;
	// the dispatcher decides whether empty fields are acceptable.
	msg, err := Decode("2,,")
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, msg.Fields)
}

func TestEncode_SignifierOnly(t *testing.T) {
	line, err := New(GameRoomStarted).Encode()
	require.NoError(t, err)
	assert.Equal(t, "5", line)
}

func TestEncode_WithPayload(t *testing.T) {
	line, err := New(LoginAttempt, "bob", "hunter2").Encode()
	require.NoError(t, err)
	assert.Equal(t, "2,bob,hunter2", line)
}

func TestEncode_RejectsSeparatorInField(t *testing.T) {
	_, err := New(CreateAccountAttempt, "al,ice", "pw").Encode()
	assert.ErrorIs(t, err, ErrBadField)
}

func TestField_Missing(t *testing.T) {
	msg := New(LoginAttempt, "bob")
	_, err := msg.Field(1)
	assert.ErrorIs(t, err, ErrMalformed)
}

// Property: any message with separator-free fields survives an
// encode/decode round trip unchanged.
func TestPropertyEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		signifier := rapid.IntRange(0, 99).Draw(t, "signifier")
		numFields := rapid.IntRange(0, 4).Draw(t, "num_fields")
		fields := make([]string, numFields)
		for i := range fields {
			fields[i] = rapid.StringMatching(`[a-zA-Z0-9_ ]{1,16}`).Draw(t, "field")
		}

		line, err := New(signifier, fields...).Encode()
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if strings.ContainsAny(line, "\r\n") {
			t.Fatalf("encoded line contains newline: %q", line)
		}

		decoded, err := Decode(line)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if decoded.Signifier != signifier {
			t.Fatalf("signifier mismatch: got %d, want %d", decoded.Signifier, signifier)
		}
		if len(decoded.Fields) != numFields {
			t.Fatalf("field count mismatch: got %d, want %d", len(decoded.Fields), numFields)
		}
		for i := range fields {
			if decoded.Fields[i] != fields[i] {
				t.Fatalf("field %d mismatch: got %q, want %q", i, decoded.Fields[i], fields[i])
			}
		}
	})
}
