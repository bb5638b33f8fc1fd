package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/litmine/core"
)

// Key prefixes for different data types. No prefix is a prefix of another.
const (
	documentPrefix        = "doc"
	documentPMIDPrefix    = "pmid"
	documentPendingPrefix = "pend"
	documentEntityPrefix  = "ent"
)

// makeDocumentKey generates a key for a document by ID.
// Format: prefix:id, big endian so iteration follows ID order
func makeDocumentKey(id core.ID) []byte {
	return appendID([]byte(documentPrefix+":"), id)
}

// makePMIDKey generates the PMID lookup key.
func makePMIDKey(pmid string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentPMIDPrefix, pmid))
}

// makePendingKey generates a key for the pending index.
// Format: prefix:id
func makePendingKey(id core.ID) []byte {
	return appendID([]byte(documentPendingPrefix+":"), id)
}

// makeEntityKey generates a composite key for the entity word index.
// Format: prefix:word\x00id
func makeEntityKey(word string, id core.ID) []byte {
	return appendID(makePartialEntityKey(word), id)
}

// makePartialEntityKey generates the prefix shared by every document
// carrying an entity word.
func makePartialEntityKey(word string) []byte {
	prefix := documentEntityPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(word)+1+8)
	buf = append(buf, prefix...)
	buf = append(buf, word...)
	return append(buf, 0)
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", processorType))
}

// appendID writes id in BigEndian order so lexicographic sort works correctly.
func appendID(buf []byte, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}
