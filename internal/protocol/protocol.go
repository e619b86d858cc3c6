// Package protocol defines the comma-separated wire protocol spoken between
// clients and the server. Every message is a single line whose first field is
// an integer signifier selecting the message kind; remaining fields are
// kind-specific payload strings.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FieldSeparator joins message fields on the wire. Payload fields must not
// contain it; there is no escaping in this framing.
const FieldSeparator = ","

// Client-to-server signifiers.
const (
	CreateAccountAttempt = 1
	LoginAttempt         = 2
	AddToGameRoomQueue   = 3
	TicTacToePlay        = 4
)

// Server-to-client signifiers. The vocabulary is disjoint from the client-side
// one: the same integer means different things in each direction.
const (
	CreateAccountSuccess = 1
	LoginSuccess         = 2
	CreateAccountFailure = 3
	LoginFailure         = 4
	GameRoomStarted      = 5
	OpponentPlayed       = 6
)

// ErrMalformed is returned when a line cannot be decoded into a Message.
var ErrMalformed = errors.New("malformed message")

// ErrBadField is returned when a payload field contains the field separator.
var ErrBadField = errors.New("field contains separator")

// Message is a decoded wire message.
type Message struct {
	// Signifier selects the message kind. Its meaning depends on direction.
	Signifier int
	// Fields holds the payload fields following the signifier, in order.
	Fields []string
}

// New constructs a Message from a signifier and payload fields.
func New(signifier int, fields ...string) Message {
	return Message{Signifier: signifier, Fields: fields}
}

// Decode parses a single wire line into a Message.
//
// Precondition: line should not include a trailing newline.
// Postcondition: Returns a Message, or ErrMalformed if the signifier field is
// missing or not an integer.
func Decode(line string) (Message, error) {
	parts := strings.Split(line, FieldSeparator)
	if len(parts) == 0 || parts[0] == "" {
		return Message{}, fmt.Errorf("%w: empty line", ErrMalformed)
	}

	signifier, err := strconv.Atoi(parts[0])
	if err != nil {
		return Message{}, fmt.Errorf("%w: non-numeric signifier %q", ErrMalformed, parts[0])
	}

	return Message{Signifier: signifier, Fields: parts[1:]}, nil
}

// Encode renders a Message as a single wire line without a trailing newline.
//
// Postcondition: Returns the encoded line, or ErrBadField if any payload
// field contains the field separator (the framing has no escaping).
func (m Message) Encode() (string, error) {
	for _, f := range m.Fields {
		if strings.Contains(f, FieldSeparator) {
			return "", fmt.Errorf("%w: %q", ErrBadField, f)
		}
	}
	if len(m.Fields) == 0 {
		return strconv.Itoa(m.Signifier), nil
	}
	return strconv.Itoa(m.Signifier) + FieldSeparator + strings.Join(m.Fields, FieldSeparator), nil
}

// Field returns the payload field at index i.
//
// Postcondition: Returns the field value, or ErrMalformed if the message has
// fewer than i+1 payload fields.
func (m Message) Field(i int) (string, error) {
	if i < 0 || i >= len(m.Fields) {
		return "", fmt.Errorf("%w: missing field %d (have %d)", ErrMalformed, i, len(m.Fields))
	}
	return m.Fields[i], nil
}
