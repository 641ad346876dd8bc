// Package column composes one CAB with one descriptor buffer into a
// single leaf column's write and read sides (spec.md sections 4.8 and
// 4.9).
package column

import (
	"shred/internal/colfile"
	"shred/internal/types"
)

// Config fixes the shape of every CAB a Writer or Reader for one
// column will construct.
type Config struct {
	Type              types.Type
	PathDepth         uint64
	RepBits           uint64
	DefBits           uint64
	RecordCapacity    uint64
	ItemCapacityGuess uint64
	Codec             colfile.Codec
	Alignment         uint64
}
