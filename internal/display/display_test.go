package display

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chase3718/synth3d/internal/param"
)

func TestReadout(t *testing.T) {
	tests := []struct {
		p            param.Param
		v            float64
		title, value string
	}{
		{param.Amp, 0.5, "amp", "50%"},
		{param.FilterCutoff, 1, "cutoff", "22.05 kHz"},
		{param.FilterCutoff, 0, "cutoff", "0.00 kHz"},
		{param.FilterResonance, 0, "res", "-20"},
		{param.FilterResonance, 1, "res", "40"},
		{param.Attack, 1, "attack", "1000 ms"},
		{param.Decay, 0.25, "decay", "250 ms"},
		{param.Release, 0, "release", "0 ms"},
		{param.Sustain, 0.75, "sustain", "75%"},
	}
	for _, tt := range tests {
		title, value := Readout(tt.p, tt.v)
		if title != tt.title || value != tt.value {
			t.Fatalf("Readout(%s, %g) = %q, %q; want %q, %q", tt.p, tt.v, title, value, tt.title, tt.value)
		}
	}
}

func TestFrameEncode(t *testing.T) {
	f := Frame{Lines: [2]string{"amp", "a very long value line"}, Intensity: 1}
	got := f.Encode()
	if len(got) != 4+1+2*LineWidth+1 {
		t.Fatalf("frame length = %d", len(got))
	}
	if got[0] != SOF0 || got[1] != SOF1 || got[3] != CmdShowText {
		t.Fatalf("header = % x", got[:4])
	}
	if int(got[2]) != 1+1+2*LineWidth {
		t.Fatalf("LEN = %d", got[2])
	}
	if got[4] != 255 {
		t.Fatalf("intensity = %d", got[4])
	}
	if line := string(got[5 : 5+LineWidth]); line != "amp             " {
		t.Fatalf("line0 = %q", line)
	}
	if line := string(got[5+LineWidth : 5+2*LineWidth]); line != "a very long valu" {
		t.Fatalf("line1 = %q", line)
	}
	var cks byte
	for _, b := range got[2 : len(got)-1] {
		cks ^= b
	}
	if cks != got[len(got)-1] {
		t.Fatalf("checksum = %#x, want %#x", got[len(got)-1], cks)
	}

	dim := IntensityFrame(DimIntensity)
	want := []byte{SOF0, SOF1, 2, CmdSetIntensity, 64, 2 ^ CmdSetIntensity ^ 64}
	if !bytes.Equal(dim, want) {
		t.Fatalf("IntensityFrame = % x, want % x", dim, want)
	}
}

func TestPanelKeepsNewestFrame(t *testing.T) {
	p := NewPanel(&bytes.Buffer{}, nil)
	p.Show(param.Amp, 0.1)
	p.Show(param.Amp, 0.2)
	p.KeyPressed()
	f := <-p.mailbox
	if f.Lines != [2]string{"amp", "20%"} || f.Intensity != DimIntensity {
		t.Fatalf("mailbox frame = %v", f)
	}
	select {
	case f := <-p.mailbox:
		t.Fatalf("stale frame left: %v", f)
	default:
	}
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Len()
}

func (s *syncBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.b.Bytes()...)
}

func TestPanelRun(t *testing.T) {
	out := &syncBuffer{}
	p := NewPanel(out, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	wait := func(n int) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for out.Len() < n {
			if time.Now().After(deadline) {
				t.Fatalf("display wrote %d bytes, want %d", out.Len(), n)
			}
			time.Sleep(time.Millisecond)
		}
	}

	full := len(Frame{}.Encode())
	p.Show(param.Sustain, 0.5)
	wait(full)
	p.KeyPressed()
	wait(full + 6)

	got := out.Bytes()
	if !bytes.Equal(got[:full], (Frame{Lines: [2]string{"sustain", "50%"}, Intensity: 1}).Encode()) {
		t.Fatalf("text frame = % x", got[:full])
	}
	if !bytes.Equal(got[full:], IntensityFrame(DimIntensity)) {
		t.Fatalf("dim frame = % x", got[full:])
	}
	if p.Frame().Intensity != DimIntensity {
		t.Fatalf("current intensity = %g", p.Frame().Intensity)
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("Run = %v", err)
	}
}
