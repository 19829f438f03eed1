package intercept

import (
	"strings"

	"github.com/google/uuid"
)

// IsResourceHandle reports whether v looks like an ephemeral object handle
// minted by the host media stack: "blob:<origin>/<uuid>".
func IsResourceHandle(v string) bool {
	rest, ok := strings.CutPrefix(v, "blob:")
	if !ok {
		return false
	}
	i := strings.LastIndex(rest, "/")
	if i <= 0 {
		return false
	}
	origin, id := rest[:i], rest[i+1:]
	if origin != "null" && !strings.Contains(origin, "://") {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
