// ABOUTME: Tests for audio resampler
// ABOUTME: Tests linear interpolation resampling and chunk continuity
package resample

import (
	"testing"
)

func ramp(n, step int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i * step)
	}
	return out
}

func TestResampleFrameCounts(t *testing.T) {
	tests := []struct {
		name     string
		in, out  int
		channels int
	}{
		{"8k mono to device", 8000, 48000, 1},
		{"32k mono to device", 32000, 48000, 1},
		{"44.1k stereo to device", 44100, 48000, 2},
		{"96k stereo to device", 96000, 48000, 2},
		{"192k mono to device", 192000, 48000, 1},
		{"device rate passthrough", 48000, 48000, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const frames = 240
			r := New(tt.in, tt.out, tt.channels)
			output := make([]int32, r.OutputSamplesNeeded(frames*tt.channels))
			n := r.Resample(ramp(frames*tt.channels, 10), output)

			if n%tt.channels != 0 {
				t.Fatalf("got %d samples, not a whole number of %d-channel frames", n, tt.channels)
			}
			want := float64(frames-1) * float64(tt.out) / float64(tt.in)
			if got := float64(n / tt.channels); got < want-1 || got > want+1 {
				t.Errorf("expected about %.1f frames, got %.0f", want, got)
			}
		})
	}
}

func TestResamplePassthroughKeepsValues(t *testing.T) {
	r := New(48000, 48000, 1)
	input := ramp(100, 7)
	output := make([]int32, r.OutputSamplesNeeded(len(input)))
	n := r.Resample(input, output)

	for i := 0; i < n; i++ {
		if output[i] != input[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, input[i], output[i])
		}
	}
}

func TestResampleKeepsChannelsApart(t *testing.T) {
	r := New(32000, 48000, 2)
	input := make([]int32, 40)
	for i := 0; i < len(input); i += 2 {
		input[i] = 5000
		input[i+1] = -5000
	}

	output := make([]int32, r.OutputSamplesNeeded(len(input)))
	n := r.Resample(input, output)
	if n == 0 {
		t.Fatal("resampler produced no output")
	}
	for i := 0; i < n; i += 2 {
		if output[i] < 4990 || output[i+1] > -4990 {
			t.Fatalf("frame %d mixed channels: L=%d R=%d", i/2, output[i], output[i+1])
		}
	}
}

func TestResampleShortInput(t *testing.T) {
	r := New(32000, 48000, 2)

	if n := r.Resample(nil, make([]int32, 16)); n != 0 {
		t.Errorf("expected no output from empty input, got %d", n)
	}
	// a single frame only primes the carried state
	if n := r.Resample([]int32{10, -10}, make([]int32, 16)); n != 0 {
		t.Errorf("expected no output from one frame, got %d", n)
	}
	if n := r.Resample([]int32{20, -20, 30, -30}, make([]int32, 16)); n == 0 {
		t.Error("expected output once frames carry over")
	}
}

func TestResampleChunksMatchSingleCall(t *testing.T) {
	input := make([]int32, 400)
	for i := range input {
		input[i] = int32(i * 100)
	}

	whole := New(32000, 48000, 1)
	out := make([]int32, whole.OutputSamplesNeeded(len(input)))
	n := whole.Resample(input, out)

	chunked := New(32000, 48000, 1)
	var joined []int32
	for start := 0; start < len(input); start += 100 {
		buf := make([]int32, chunked.OutputSamplesNeeded(100))
		m := chunked.Resample(input[start:start+100], buf)
		joined = append(joined, buf[:m]...)
	}

	if len(joined) != n {
		t.Fatalf("expected %d samples from chunks, got %d", n, len(joined))
	}
	for i := 0; i < n; i++ {
		if diff := abs(int(joined[i]) - int(out[i])); diff > 1 {
			t.Fatalf("sample %d: chunked %d vs whole %d", i, joined[i], out[i])
		}
	}
}

func TestResampleRampIsMonotonic(t *testing.T) {
	r := New(8000, 48000, 1)
	var last int32 = -1
	for chunk := 0; chunk < 5; chunk++ {
		input := make([]int32, 50)
		for i := range input {
			input[i] = int32((chunk*50 + i) * 10)
		}
		out := make([]int32, r.OutputSamplesNeeded(len(input)))
		n := r.Resample(input, out)
		for i := 0; i < n; i++ {
			if out[i] < last {
				t.Fatalf("chunk %d sample %d decreased: %d < %d", chunk, i, out[i], last)
			}
			last = out[i]
		}
	}
}

func TestReset(t *testing.T) {
	r := New(44100, 48000, 2)
	r.Resample([]int32{1, 2, 3, 4, 5, 6}, make([]int32, 20))
	r.Reset()
	if r.primed || r.position != 0 {
		t.Error("expected reset to clear carried state")
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
