package astisense

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Message names
const (
	BatchMessage = "sense.batch"
	LinesMessage = "sense.lines"
)

type Message struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewMessage() *Message {
	return &Message{}
}

func newMessage(name string, payload interface{}) (m *Message, err error) {
	// Create message
	m = NewMessage()
	m.Name = name

	// Marshal payload
	if m.Payload, err = json.Marshal(payload); err != nil {
		err = errors.Wrap(err, "astisense: marshaling payload failed")
		return
	}
	return
}

func checkName(m *Message, name string) error {
	if m.Name != name {
		return fmt.Errorf("astisense: invalid name %s, requested %s", m.Name, name)
	}
	return nil
}

func NewBatchMessage(b Batch) (*Message, error) {
	return newMessage(BatchMessage, b)
}

func ParseBatchPayload(m *Message) (b Batch, err error) {
	// Check name
	if err = checkName(m, BatchMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &b); err != nil {
		err = errors.Wrap(err, "astisense: unmarshaling failed")
	}
	return
}

func NewLinesMessage(l Lines) (*Message, error) {
	return newMessage(LinesMessage, l)
}

func ParseLinesPayload(m *Message) (l Lines, err error) {
	// Check name
	if err = checkName(m, LinesMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &l); err != nil {
		err = errors.Wrap(err, "astisense: unmarshaling failed")
	}
	return
}
