package potlink

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeADC returns values in order and repeats the last one.
type fakeADC struct {
	values []uint16
	reads  int
}

func (a *fakeADC) Get() uint16 {
	i := a.reads
	if i >= len(a.values) {
		i = len(a.values) - 1
	}
	a.reads++
	return a.values[i]
}

// recordingWriter keeps every Write call separately.
type recordingWriter struct {
	writes  [][]byte
	failAt  int // 1-based write number that fails, 0 = never
	failErr error
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	if w.failAt > 0 && len(w.writes)+1 == w.failAt {
		w.writes = append(w.writes, nil)
		return 0, w.failErr
	}
	w.writes = append(w.writes, append([]byte(nil), p...))
	return len(p), nil
}

func newTestLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", 0), &buf
}

func TestNew_Defaults(t *testing.T) {
	s := New(&fakeADC{values: []uint16{0}}, &recordingWriter{}, nil, 0)
	assert.Equal(t, DefaultInterval, s.Interval())

	s = New(&fakeADC{values: []uint16{0}}, &recordingWriter{}, nil, 5*time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, s.Interval())
}

func TestSampler_Step(t *testing.T) {
	tests := []struct {
		name  string
		value uint16
		want  string
	}{
		{"zero", 0, "0\n"},
		{"max", 65535, "65535\n"},
		{"mid", 32768, "32768\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adc := &fakeADC{values: []uint16{tt.value}}
			out := &recordingWriter{}
			logger, logs := newTestLogger()

			s := New(adc, out, logger, time.Millisecond)
			got, err := s.Step()
			require.NoError(t, err)

			assert.Equal(t, tt.value, got)
			assert.Equal(t, 1, adc.reads, "one ADC read per iteration")
			require.Len(t, out.writes, 1, "one serial write per iteration")
			assert.Equal(t, tt.want, string(out.writes[0]))
			assert.Equal(t, "Value sent: "+strings.TrimSuffix(tt.want, "\n")+"\n", logs.String())
		})
	}
}

func TestSampler_Step_NilLogger(t *testing.T) {
	out := &recordingWriter{}
	s := New(&fakeADC{values: []uint16{12}}, out, nil, time.Millisecond)

	_, err := s.Step()
	require.NoError(t, err)
	require.Len(t, out.writes, 1)
	assert.Equal(t, "12\n", string(out.writes[0]))
}

func TestSampler_Step_WriteError(t *testing.T) {
	errBroken := errors.New("uart broken")
	adc := &fakeADC{values: []uint16{321}}
	out := &recordingWriter{failAt: 1, failErr: errBroken}
	logger, logs := newTestLogger()

	s := New(adc, out, logger, time.Millisecond)
	got, err := s.Step()

	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, uint16(321), got)
	assert.Empty(t, logs.String(), "failed writes are not reported as sent")
}

func TestSampler_Run_LogMatchesTransmitted(t *testing.T) {
	values := []uint16{0, 1, 4095, 32768, 65535}
	adc := &fakeADC{values: values}
	out := &recordingWriter{failAt: len(values) + 1, failErr: errors.New("stop")}
	logger, logs := newTestLogger()

	s := New(adc, out, logger, time.Millisecond)
	err := s.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, len(values)+1, adc.reads)
	require.Len(t, out.writes, len(values)+1)

	logLines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, logLines, len(values))
	for i := range values {
		sent := strings.TrimSuffix(string(out.writes[i]), "\n")
		assert.Equal(t, "Value sent: "+sent, logLines[i])
	}
}

func TestSampler_Run_FailFast(t *testing.T) {
	errBroken := errors.New("uart broken")
	adc := &fakeADC{values: []uint16{1, 2, 3, 4}}
	out := &recordingWriter{failAt: 2, failErr: errBroken}

	s := New(adc, out, nil, time.Millisecond)
	err := s.Run(context.Background())

	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, 2, adc.reads, "loop stops at the first failed write")
	assert.Len(t, out.writes, 2)
}

func TestSampler_Run_ContextCancel(t *testing.T) {
	adc := &fakeADC{values: []uint16{5}}
	out := &recordingWriter{}

	ctx, cancel := context.WithCancel(context.Background())
	s := New(adc, out, nil, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSampler_Run_Cadence(t *testing.T) {
	const (
		iterations = 5
		interval   = 20 * time.Millisecond
	)

	adc := &fakeADC{values: []uint16{100}}
	out := &recordingWriter{failAt: iterations + 1, failErr: errors.New("stop")}
	s := New(adc, out, nil, interval)

	start := time.Now()
	err := s.Run(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	// iterations pauses happen before the failing write
	assert.GreaterOrEqual(t, elapsed, iterations*interval)
	assert.Less(t, elapsed, iterations*interval+500*time.Millisecond)
}
