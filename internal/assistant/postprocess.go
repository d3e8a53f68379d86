package assistant

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/carsouq/assistant/internal/retrieval"
)

// maxReferencedEntries caps how many catalog entries a single response is
// attributed to.
const maxReferencedEntries = 5

// ReferencedEntryIDs returns the ids of candidates the generated text
// actually mentions. An entry counts as referenced only when both its make
// and its model appear in the text, case-insensitively. Candidate order is
// preserved.
func ReferencedEntryIDs(text string, candidates []retrieval.Candidate) []int64 {
	lower := strings.ToLower(text)

	var ids []int64
	seen := make(map[int64]bool, len(candidates))
	for _, c := range candidates {
		if seen[c.Entry.ID] {
			continue
		}
		if c.Entry.Make == "" || c.Entry.Model == "" {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(c.Entry.Make)) ||
			!strings.Contains(lower, strings.ToLower(c.Entry.Model)) {
			continue
		}
		seen[c.Entry.ID] = true
		ids = append(ids, c.Entry.ID)
		if len(ids) == maxReferencedEntries {
			break
		}
	}
	return ids
}

// MessageID derives a stable identifier for an assistant message from its
// timestamp and a short FNV hash of the text. Uniqueness within a session
// is all that matters here, not cryptographic strength.
func MessageID(ts time.Time, text string) string {
	h := fnv.New32a()
	h.Write([]byte(text))
	return fmt.Sprintf("msg_%s_%08x", ts.Format("20060102T150405"), h.Sum32())
}
