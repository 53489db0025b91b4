package xlsx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// idSuffix matches a fully numeric ID tail, tolerating leading zeros.
var idSuffix = regexp.MustCompile(`^0*(\d+)$`)

// nextID generates the next identifier for a prefix: one past the highest
// numeric suffix among existing IDs carrying that prefix, starting at 1.
// IDs from other prefixes (or with non-numeric tails) are ignored, so
// changing the prefix in settings restarts the sequence without colliding.
func nextID(prefix string, existing []string) string {
	max := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		m := idSuffix.FindStringSubmatch(id[len(prefix):])
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%04d", prefix, max+1)
}
