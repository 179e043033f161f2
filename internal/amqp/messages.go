package amqp

import (
	"encoding/json"
	"time"

	"ledger/internal/core"
)

// PartitionChangedMessage announces that a partition was rewritten. Consumers
// reload the partition rather than trusting any payload beyond its key.
type PartitionChangedMessage struct {
	Partition core.PartitionKey `json:"partition"`
	Operation string            `json:"operation"`
	Rows      int               `json:"rows"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewPartitionChangedMessage(key core.PartitionKey, operation string, rows int) *PartitionChangedMessage {
	return &PartitionChangedMessage{
		Partition: key,
		Operation: operation,
		Rows:      rows,
		Timestamp: time.Now().UTC(),
	}
}

func (m *PartitionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PartitionChangedMessageFromJSON(data []byte) (*PartitionChangedMessage, error) {
	var msg PartitionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
