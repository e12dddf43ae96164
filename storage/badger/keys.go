package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/storage"
)

// Key prefixes for different data types
const (
	runRecordPrefix   = "runrec"
	runProfilePrefix  = "runpro"
	runEnrichedPrefix = "runenr"
	embeddingPrefix   = "embrec"
)

// makeRunKey generates a key for a run summary by ID. Run IDs are
// timestamp strings, so lexicographic key order is chronological.
func makeRunKey(id core.RunID) []byte {
	return []byte(fmt.Sprintf("%s:%s", runRecordPrefix, id))
}

// makeProfileKey generates a composite key for one entry of a run's
// stage snapshot.
// Format: prefix:runID:stage:position
func makeProfileKey(id core.RunID, stage storage.Stage, position uint32) []byte {
	prefixBytes := makePartialProfileKey(id, stage)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 4 // 4 bytes for the position
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort preserves positions
	binary.BigEndian.PutUint32(buf[offset:], position)
	return buf
}

// makePartialProfileKey generates the prefix shared by every entry of a
// run's stage snapshot.
// Format: prefix:runID:stage:
func makePartialProfileKey(id core.RunID, stage storage.Stage) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", runProfilePrefix, id, stage))
}

// makeEnrichedKey generates a composite key for one entry of a run's
// enriched snapshot.
// Format: prefix:runID:position
func makeEnrichedKey(id core.RunID, position uint32) []byte {
	prefixBytes := makePartialEnrichedKey(id)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 4 // 4 bytes for the position
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort preserves positions
	binary.BigEndian.PutUint32(buf[offset:], position)
	return buf
}

// makePartialEnrichedKey generates the prefix shared by every entry of
// a run's enriched snapshot.
// Format: prefix:runID:
func makePartialEnrichedKey(id core.RunID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", runEnrichedPrefix, id))
}

// makeEmbeddingKey generates a key for a cached embedding by content ID.
func makeEmbeddingKey(id core.ID) []byte {
	prefix := embeddingPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for the content hash
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
