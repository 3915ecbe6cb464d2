package badger

import (
	"fmt"

	"github.com/marmos91/shelfd/pkg/repository"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize the
// catalog into logical namespaces:
//
// Data Type        Prefix   Key Format           Value Type
// =========================================================================
// File Records     "r:"     r:<fileID>           recordEnvelope (JSON)
// Catalog Order    "o:"     o:<seqHex>:<fileID>  fileID (bytes)
//
// Catalog ordering:
//
// The catalog is newest-first and Badger iterates keys in ascending order,
// so each new record is assigned a sequence number counting DOWN from
// math.MaxUint64. Encoded as fixed-width hex, a forward iteration over the
// "o:" prefix then yields records newest first without any sorting.
//
// Updates keep their original sequence number (stored in the record
// envelope), so replacing a record never changes its catalog position.

const (
	recordPrefix = "r:"
	orderPrefix  = "o:"
)

// recordKey returns the key holding a record envelope.
func recordKey(id repository.FileID) []byte {
	return []byte(recordPrefix + string(id))
}

// orderKey returns the catalog-order index key for a record.
func orderKey(seq uint64, id repository.FileID) []byte {
	return []byte(fmt.Sprintf("%s%016x:%s", orderPrefix, seq, id))
}
