package domain

import "fmt"

// CollisionPolicy decides what happens when the destination name is taken
type CollisionPolicy string

const (
	CollisionRename    CollisionPolicy = "rename"    // name_1.ext, name_2.ext, ...
	CollisionSkip      CollisionPolicy = "skip"      // fail with a name collision
	CollisionOverwrite CollisionPolicy = "overwrite" // replace the existing file
)

// ParseCollisionPolicy converts a config value; empty means rename
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case "", CollisionRename:
		return CollisionRename, nil
	case CollisionSkip, CollisionOverwrite:
		return CollisionPolicy(s), nil
	default:
		return "", fmt.Errorf("%w: unknown collision policy %q (want rename, skip or overwrite)", ErrInvalidInput, s)
	}
}
