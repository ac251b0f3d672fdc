package ncat

import (
	"bytes"
	"time"

	"github.com/rs/zerolog"
)

// Receiver is the read side of a connection.
type Receiver interface {
	// Poll waits until data is available or the timeout elapses.
	Poll(timeout time.Duration) (bool, error)
	// Read performs a single receive of at most max bytes.
	Read(max int) ([]byte, error)
}

// Result is the outcome of a single command run.
type Result struct {
	Output  string
	Outcome Outcome
	Elapsed time.Duration
}

// Demultiplex consumes chunks from the receiver until a sentinel
// is seen or the governor runs out of time. A transport error
// aborts the run and discards the partial result.
func Demultiplex(receiver Receiver, governor *Governor, chunkSize int, logger *zerolog.Logger) (*Result, error) {
	start := time.Now()
	m := newMatcher()
	out := new(bytes.Buffer)
	outcome := Undetermined

	for {
		remaining := governor.Remaining()
		if remaining <= 0 {
			break
		}

		ready, err := receiver.Poll(remaining)
		if err != nil {
			return nil, err
		}
		if !ready {
			break
		}

		chunk, err := receiver.Read(chunkSize)
		if err != nil {
			return nil, err
		}
		logger.Trace().Int("bytes", len(chunk)).Msg("Received chunk")

		output, classified := m.Feed(chunk)
		out.Write(output)

		if classified != Undetermined {
			logger.Debug().Stringer("outcome", classified).Msg("Detected sentinel")
			outcome = classified
			governor.Stop()
		}
	}

	if outcome == Undetermined {
		out.Write(m.Flush())
		outcome = TimedOut
	}

	return &Result{
		Output:  out.String(),
		Outcome: outcome,
		Elapsed: time.Since(start),
	}, nil
}
