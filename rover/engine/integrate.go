package engine

// Integrate walks segments along a single axis starting at start. Segments
// facing axis.Positive add their moves, segments facing axis.Negative subtract
// them and all others are skipped. The coordinate is checked against
// [1, axis.Max] after every segment; the first violation stops the walk and
// returns axis.OutOfRange, even if later segments would come back in range.
func Integrate(segments []Segment, start int, axis Axis) (int, error) {
	pos := start
	for _, seg := range segments {
		switch seg.Heading {
		case axis.Positive:
			pos += seg.Moves
		case axis.Negative:
			pos -= seg.Moves
		}
		if pos < 1 || pos > axis.Max {
			return 0, axis.OutOfRange
		}
	}
	return pos, nil
}
