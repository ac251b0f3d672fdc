package ncat

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReceiver hands out one chunk per poll and reports a
// timeout once the script is exhausted.
type scriptedReceiver struct {
	chunks []string
	err    error
	polls  []time.Duration
	reads  int
}

func (r *scriptedReceiver) Poll(timeout time.Duration) (bool, error) {
	r.polls = append(r.polls, timeout)
	if r.err != nil && len(r.chunks) == 0 {
		return false, r.err
	}
	return len(r.chunks) > 0, nil
}

func (r *scriptedReceiver) Read(max int) ([]byte, error) {
	r.reads++
	chunk := r.chunks[0]
	if len(chunk) > max {
		r.chunks[0] = chunk[max:]
		return []byte(chunk[:max]), nil
	}
	r.chunks = r.chunks[1:]
	return []byte(chunk), nil
}

func demux(t *testing.T, receiver Receiver) *Result {
	t.Helper()

	logger := zerolog.Nop()
	result, err := Demultiplex(receiver, NewGovernor(time.Minute), DefaultChunkSize, &logger)
	require.NoError(t, err)
	return result
}

func TestFrame(t *testing.T) {
	assert.Equal(t, "(echo hello) 2>&1 && echo -n SUCCESS || echo -n FAIL\n", Frame("echo hello"))
	assert.Equal(t, "(a | b; c) 2>&1 && echo -n SUCCESS || echo -n FAIL\n", Frame("a | b; c"))
}

func TestDemultiplex(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []string
		output  string
		outcome Outcome
	}{
		{"empty success", []string{"SUCCESS"}, "", Success},
		{"empty failure", []string{"FAIL"}, "", Failure},
		{"single chunk", []string{"hello\nSUCCESS"}, "hello\n", Success},
		{"multiple chunks", []string{"a\n", "b\n", "c\nFAIL"}, "a\nb\nc\n", Failure},
		{"split success", []string{"x", "SUCC", "ESS"}, "x", Success},
		{"split fail", []string{"errF", "AIL"}, "err", Failure},
		{"byte by byte", []string{"o", "k", "S", "U", "C", "C", "E", "S", "S"}, "ok", Success},
		{"sentinel mid stream", []string{"SUCCESS is near\n", "SUCCESS"}, "SUCCESS is near\n", Success},
		{"false prefix", []string{"SUCK", "SUCCESS"}, "SUCK", Success},
		{"no sentinel", []string{"still running\n"}, "still running\n", TimedOut},
		{"held back tail", []string{"FA"}, "FA", TimedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := demux(t, &scriptedReceiver{chunks: tt.chunks})

			assert.Equal(t, tt.outcome, result.Outcome)
			assert.Equal(t, tt.output, result.Output)
		})
	}
}

func TestDemultiplexStopsAfterSentinel(t *testing.T) {
	receiver := &scriptedReceiver{chunks: []string{"SUCCESS", "trailing"}}

	result := demux(t, receiver)

	assert.Equal(t, Success, result.Outcome)
	assert.Equal(t, 1, receiver.reads)
}

func TestDemultiplexChunkSize(t *testing.T) {
	receiver := &scriptedReceiver{chunks: []string{"0123456789SUCCESS"}}
	logger := zerolog.Nop()

	result, err := Demultiplex(receiver, NewGovernor(time.Minute), 4, &logger)
	require.NoError(t, err)

	assert.Equal(t, "0123456789", result.Output)
	assert.Equal(t, 5, receiver.reads)
}

func TestDemultiplexShrinksPollWindow(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	governor := newGovernor(10*time.Second, clock)

	receiver := &slowReceiver{
		scriptedReceiver: scriptedReceiver{chunks: []string{"a", "b", "SUCCESS"}},
		advance:          func() { now = now.Add(3 * time.Second) },
	}
	logger := zerolog.Nop()

	result, err := Demultiplex(receiver, governor, DefaultChunkSize, &logger)
	require.NoError(t, err)

	assert.Equal(t, Success, result.Outcome)
	assert.Equal(t, []time.Duration{10 * time.Second, 7 * time.Second, 4 * time.Second}, receiver.polls)
}

func TestDemultiplexDeadlineReached(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	governor := newGovernor(5*time.Second, clock)

	receiver := &slowReceiver{
		scriptedReceiver: scriptedReceiver{chunks: []string{"a", "b", "c", "SUCCESS"}},
		advance:          func() { now = now.Add(3 * time.Second) },
	}
	logger := zerolog.Nop()

	result, err := Demultiplex(receiver, governor, DefaultChunkSize, &logger)
	require.NoError(t, err)

	assert.Equal(t, TimedOut, result.Outcome)
	assert.Equal(t, "ab", result.Output)
}

func TestDemultiplexTransportError(t *testing.T) {
	receiver := &scriptedReceiver{err: &TransportError{Op: "poll", Err: io.EOF}}
	logger := zerolog.Nop()

	_, err := Demultiplex(receiver, NewGovernor(time.Minute), DefaultChunkSize, &logger)
	assert.True(t, errors.Is(err, io.EOF))
}

// slowReceiver advances a fake clock on every receive.
type slowReceiver struct {
	scriptedReceiver
	advance func()
}

func (r *slowReceiver) Read(max int) ([]byte, error) {
	r.advance()
	return r.scriptedReceiver.Read(max)
}

func TestGovernor(t *testing.T) {
	now := time.Unix(100, 0)
	governor := newGovernor(time.Minute, func() time.Time { return now })

	assert.Equal(t, time.Minute, governor.Remaining())
	assert.False(t, governor.Expired())

	now = now.Add(45 * time.Second)
	assert.Equal(t, 15*time.Second, governor.Remaining())

	now = now.Add(time.Minute)
	assert.Zero(t, governor.Remaining())
	assert.True(t, governor.Expired())
}

func TestGovernorStop(t *testing.T) {
	governor := NewGovernor(time.Hour)
	governor.Stop()

	assert.Zero(t, governor.Remaining())
	assert.False(t, governor.Expired())
}
