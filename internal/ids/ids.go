package ids

import "github.com/segmentio/ksuid"

// New returns a k-sortable unique id. Asset ids and pending-upload temp ids
// both use this so recent entries sort last lexicographically.
func New() string {
	return ksuid.New().String()
}
