package recordid

import (
	"fmt"

	"github.com/google/uuid"
)

// Derive returns a stable UUIDv5 for a record that arrived without an id,
// keyed by the source it was read from and its position in that source.
func Derive(source string, position int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s#%d", source, position)).String()
}
