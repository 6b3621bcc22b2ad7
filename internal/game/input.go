// internal/game/input.go
//
// Digit buffer for lane selection.
//
// States: empty → accumulating → matched | restarted. A digit that cannot
// extend the buffer toward any lane number restarts the buffer from that
// digit alone.

package game

// selectState tracks the lane-selection buffer through one digit.
type selectState int

const (
	selEmpty selectState = iota
	selAccumulating
	selMatched
	selRestarted
)

func (s selectState) String() string {
	switch s {
	case selEmpty:
		return "empty"
	case selAccumulating:
		return "accumulating"
	case selMatched:
		return "matched"
	case selRestarted:
		return "restarted"
	}
	return "unknown"
}

// selector accumulates digits until they name a lane number.
//
// Branch order for each digit: exact match, then the width/prefix
// validity check, then a restart from the digit alone.
type selector struct {
	buf   []rune
	width int
	state selectState
}

// feed appends d and returns the index of the matched lane, or -1.
// numbers holds the decimal text of each lane number, indexed by lane.
func (s *selector) feed(d rune, numbers []string) int {
	s.buf = append(s.buf, d)
	if i := exactMatch(string(s.buf), numbers); i >= 0 {
		s.matched()
		return i
	}
	if len(s.buf) > s.width || !anyPrefix(string(s.buf), numbers) {
		s.buf = append(s.buf[:0], d)
		s.state = selRestarted
		if i := exactMatch(string(s.buf), numbers); i >= 0 {
			s.matched()
			return i
		}
		return -1
	}
	s.state = selAccumulating
	return -1
}

func (s *selector) matched() {
	s.buf = s.buf[:0]
	s.state = selMatched
}

func (s *selector) clear() {
	s.buf = s.buf[:0]
	s.state = selEmpty
}

func (s *selector) String() string { return string(s.buf) }

func exactMatch(buf string, numbers []string) int {
	for i, n := range numbers {
		if n == buf {
			return i
		}
	}
	return -1
}

func anyPrefix(buf string, numbers []string) bool {
	for _, n := range numbers {
		if len(n) >= len(buf) && n[:len(buf)] == buf {
			return true
		}
	}
	return false
}
