package ledger

import "github.com/ea-systems/ledger/pkg/hashkit"

// Checkpoint is an advisory `{length, root}` audit anchor (spec.md §4.F).
// Checkpoints are derived quantities, not a trust anchor by themselves.
type Checkpoint struct {
	Length int
	Root   hashkit.Digest
}

// CheckpointWriter emits a Checkpoint whenever the log has grown by at least
// Interval entries since the last one.
type CheckpointWriter struct {
	Interval int
	lastLen  int
}

// NewCheckpointWriter returns a writer that checkpoints every interval
// appends.
func NewCheckpointWriter(interval int) *CheckpointWriter {
	return &CheckpointWriter{Interval: interval}
}

// MaybeCheckpoint emits a Checkpoint if log.Len() has grown by at least
// Interval since the last one emitted.
func (w *CheckpointWriter) MaybeCheckpoint(log *Log) (*Checkpoint, error) {
	length := log.Len()
	if length < w.lastLen+w.Interval {
		return nil, nil
	}
	root, ok, err := log.MerkleRoot()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	w.lastLen = length
	return &Checkpoint{Length: length, Root: root}, nil
}
