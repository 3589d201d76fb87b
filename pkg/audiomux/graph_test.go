package audiomux

import "testing"

func TestStartTimeSecondsPriority(t *testing.T) {
	stream := 0.209
	container := 0.5
	dts := 0.8

	cases := []struct {
		name  string
		probe TrackProbe
		want  float64
	}{
		{"prefers stream over container and dts", TrackProbe{StreamStartTime: &stream, ContainerStartTime: &container, FirstPacketDTS: &dts}, stream},
		{"prefers container over dts", TrackProbe{ContainerStartTime: &container, FirstPacketDTS: &dts}, container},
		{"falls back to dts", TrackProbe{FirstPacketDTS: &dts}, dts},
		{"zero when none present", TrackProbe{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.probe.StartTimeSeconds(); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBuildPadGraph(t *testing.T) {
	g := NewBuilder().BuildPadGraph(1203)
	expr := FilterComplex(g)
	want := "[in0]aresample=async=1,adelay=delays=1203:all=1[out]"
	if expr != want {
		t.Fatalf("got %q, want %q", expr, want)
	}
}

func TestBuildMixGraph(t *testing.T) {
	g := NewBuilder().BuildMixGraph(3, 48000)
	if len(g.Inputs) != 3 {
		t.Fatalf("expected 3 inputs, got %d", len(g.Inputs))
	}
	expr := FilterComplex(g)
	want := "[in0][in1][in2]amix=inputs=3:normalize=0,aformat=sample_fmts=s16:channel_layouts=stereo:sample_rates=48000[out]"
	if expr != want {
		t.Fatalf("got %q, want %q", expr, want)
	}
}
