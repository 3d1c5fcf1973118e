package snapshot

import (
	"time"

	"junction/domain/swap"
)

// FileName is the snapshot file inside a snapshot directory.
const FileName = "snapshot.bin"

type Snapshot struct {
	Seq     uint64
	Created time.Time
	State   swap.State
}
