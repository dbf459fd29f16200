package chipmeta

import (
	"github.com/simonhull/chipmeta/internal/types"
)

// AudioInfo is an alias to types.AudioInfo.
type AudioInfo = types.AudioInfo
