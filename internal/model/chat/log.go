package chat

import "iter"

// Log is an ordered, append-only transcript. The zero value is an empty log.
// It does no locking; the owner serialises access.
type Log struct {
	turns []Turn
}

// Append adds one turn at the end. Text is stored as given.
func (l *Log) Append(role Role, text string) {
	l.turns = append(l.turns, Turn{Role: role, Text: text})
}

// Len reports the number of turns.
func (l *Log) Len() int {
	return len(l.turns)
}

// Clear empties the log. Earlier snapshots keep their contents.
func (l *Log) Clear() {
	l.turns = nil
}

// Snapshot returns a restartable iterator over the turns present at the
// time of the call, in insertion order.
func (l *Log) Snapshot() iter.Seq[Turn] {
	// Append only writes past len(view) and Clear swaps the slice, so the
	// captured prefix never changes.
	view := l.turns
	return func(yield func(Turn) bool) {
		for _, turn := range view {
			if !yield(turn) {
				return
			}
		}
	}
}

// Turns returns a copy of the transcript.
func (l *Log) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}
