package chipmeta

import (
	"github.com/simonhull/chipmeta/internal/types"
)

// Tags is an alias to types.Tags.
type Tags = types.Tags

// NotPresent is the value record fields hold when the file does not carry
// them.
const NotPresent = types.NotPresent
