package ncat

import "bytes"

// Outcome is the classification of a command run.
type Outcome int

const (
	// Undetermined means that no sentinel has been seen yet.
	Undetermined Outcome = iota
	// Success means that the peer echoed the success sentinel.
	Success
	// Failure means that the peer echoed the failure sentinel.
	Failure
	// TimedOut means that the deadline passed without a sentinel.
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case TimedOut:
		return "timed out"
	default:
		return "undetermined"
	}
}

// matcher detects a trailing sentinel in a stream of chunks.
// Bytes that could be the beginning of a sentinel are held back
// until the next chunk decides whether they are output or not,
// so a sentinel split across two receives is still detected.
type matcher struct {
	tokens  map[Outcome][]byte
	longest int
	pending []byte
}

func newMatcher() *matcher {
	m := &matcher{
		tokens: map[Outcome][]byte{
			Success: []byte(SentinelSuccess),
			Failure: []byte(SentinelFail),
		},
	}

	for _, token := range m.tokens {
		if len(token) > m.longest {
			m.longest = len(token)
		}
	}

	return m
}

// Feed consumes a chunk and returns the bytes that are known to
// be output. If the stream ends with a sentinel, the sentinel is
// stripped and the matching outcome is returned.
func (m *matcher) Feed(chunk []byte) ([]byte, Outcome) {
	data := append(m.pending, chunk...)
	m.pending = nil

	for outcome, token := range m.tokens {
		if bytes.HasSuffix(data, token) {
			return data[:len(data)-len(token)], outcome
		}
	}

	keep := m.holdback(data)
	if keep > 0 {
		m.pending = append([]byte(nil), data[len(data)-keep:]...)
	}

	return data[:len(data)-keep], Undetermined
}

// Flush returns the bytes that were held back.
func (m *matcher) Flush() []byte {
	pending := m.pending
	m.pending = nil
	return pending
}

// holdback returns the length of the longest suffix of data that
// is a proper prefix of a sentinel.
func (m *matcher) holdback(data []byte) int {
	n := m.longest - 1
	if len(data) < n {
		n = len(data)
	}

	for ; n > 0; n-- {
		tail := data[len(data)-n:]
		for _, token := range m.tokens {
			if bytes.HasPrefix(token, tail) {
				return n
			}
		}
	}

	return 0
}
