package badger

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/shelfd/pkg/repository"
)

// Serialization Strategy
// ======================
//
// Record envelopes are stored as JSON: the catalog is small (metadata only),
// and JSON keeps the database human-inspectable and tolerant of schema
// evolution. Order-index values are raw id bytes.

// recordEnvelope wraps a file record with its catalog sequence number.
//
// The sequence number ties the record to its "o:" index entry so updates can
// keep their position and deletes can find the index key to remove.
type recordEnvelope struct {
	// Record is the stored file record
	Record *repository.FileRecord `json:"record"`

	// Seq is the descending catalog sequence assigned at first insert
	Seq uint64 `json:"seq"`
}

// marshalEnvelope serializes a record envelope for storage.
func marshalEnvelope(envelope *recordEnvelope) ([]byte, error) {
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record %s: %w", envelope.Record.ID, err)
	}
	return data, nil
}

// unmarshalEnvelope deserializes a stored record envelope.
func unmarshalEnvelope(data []byte) (*recordEnvelope, error) {
	var envelope recordEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &envelope, nil
}
