package detector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gocv.io/x/gocv"
)

func TestHand_Bounds(t *testing.T) {
	t.Run("covers every landmark", func(t *testing.T) {
		hand := Hand{Points: []Point3D{
			{X: 100, Y: 50, Z: 0},
			{X: 110, Y: 60, Z: -5},
			{X: 90, Y: 70, Z: 3},
		}}

		got := hand.Bounds()
		want := image.Rect(90, 50, 110, 70)
		if got != want {
			t.Errorf("Bounds() = %v, want %v", got, want)
		}
	})

	t.Run("empty hand", func(t *testing.T) {
		var hand Hand
		if got := hand.Bounds(); !got.Empty() {
			t.Errorf("Bounds() = %v, want empty", got)
		}
	})

	t.Run("nil hand", func(t *testing.T) {
		var hand *Hand
		if got := hand.Bounds(); !got.Empty() {
			t.Errorf("Bounds() = %v, want empty", got)
		}
	})
}

func TestSwapHandedness(t *testing.T) {
	tests := map[string]string{
		"Left":  "Right",
		"Right": "Left",
		"":      "",
		"Other": "Other",
	}
	for in, want := range tests {
		if got := swapHandedness(in); got != want {
			t.Errorf("swapHandedness(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]Hand{OpenPalmHand(), OpenPalmHand()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("Close marks closed", func(t *testing.T) {
		mock := NewMockDetector()

		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
		if !mock.Closed() {
			t.Error("expected Closed() to be true")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestOpenPalmHand(t *testing.T) {
	hand := OpenPalmHand()

	if len(hand.Points) != NumLandmarks {
		t.Fatalf("expected %d landmarks, got %d", NumLandmarks, len(hand.Points))
	}

	t.Run("fingers are extended upward", func(t *testing.T) {
		pairs := [][2]int{{IndexMCP, IndexTip}, {MiddleMCP, MiddleTip}, {RingMCP, RingTip}, {PinkyMCP, PinkyTip}}
		for _, p := range pairs {
			if hand.Points[p[1]].Y >= hand.Points[p[0]].Y {
				t.Errorf("tip %d should be above MCP %d", p[1], p[0])
			}
		}
	})

	t.Run("fits a 1200x720 frame", func(t *testing.T) {
		frame := image.Rect(0, 0, 1200, 720)
		if !hand.Bounds().In(frame) {
			t.Errorf("bounds %v outside frame %v", hand.Bounds(), frame)
		}
	})
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0xff, 0xd8, 0x01, 0x02}

	if err := writeFrame(&buf, payload); err != nil {
		t.Fatalf("writeFrame() error = %v", err)
	}

	out := buf.Bytes()
	if got := binary.BigEndian.Uint32(out[:4]); got != uint32(len(payload)) {
		t.Errorf("length prefix = %d, want %d", got, len(payload))
	}
	if !bytes.Equal(out[4:], payload) {
		t.Errorf("payload = %v, want %v", out[4:], payload)
	}
}

func TestReadHands(t *testing.T) {
	t.Run("scales normalized points to pixels", func(t *testing.T) {
		line := `{"hands":[{"points":[{"x":0.5,"y":0.25,"z":-0.01},{"x":0.1,"y":1.0,"z":0}],"handedness":"Left","score":0.9}]}` + "\n"

		hands, err := readHands(bufio.NewReader(strings.NewReader(line)), 1200, 720, false)
		if err != nil {
			t.Fatalf("readHands() error = %v", err)
		}

		want := []Hand{{
			Points:     []Point3D{{X: 600, Y: 180, Z: -12}, {X: 120, Y: 720, Z: 0}},
			Handedness: "Left",
			Score:      0.9,
		}}
		if diff := cmp.Diff(want, hands); diff != "" {
			t.Errorf("readHands() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("flips handedness for mirrored frames", func(t *testing.T) {
		line := `{"hands":[{"points":[],"handedness":"Left","score":0.9}]}` + "\n"

		hands, err := readHands(bufio.NewReader(strings.NewReader(line)), 1200, 720, true)
		if err != nil {
			t.Fatalf("readHands() error = %v", err)
		}
		if hands[0].Handedness != "Right" {
			t.Errorf("handedness = %q, want Right", hands[0].Handedness)
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := readHands(bufio.NewReader(strings.NewReader(`{"hands":[]}`+"\n")), 1200, 720, true)
		if err != nil {
			t.Fatalf("readHands() error = %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("service error", func(t *testing.T) {
		_, err := readHands(bufio.NewReader(strings.NewReader(`{"error":"model missing"}`+"\n")), 1200, 720, true)
		if !errors.Is(err, ErrServiceReported) || !strings.Contains(err.Error(), "model missing") {
			t.Errorf("expected service error, got %v", err)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := readHands(bufio.NewReader(strings.NewReader("not json\n")), 1200, 720, true)
		if err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("closed stream", func(t *testing.T) {
		_, err := readHands(bufio.NewReader(strings.NewReader("")), 1200, 720, true)
		if err == nil {
			t.Error("expected read error")
		}
	})
}

func TestServiceArgs(t *testing.T) {
	got := serviceArgs(DefaultConfig())
	want := []string{
		"--max-hands", "2",
		"--min-detection-confidence", "0.5",
		"--min-tracking-confidence", "0.5",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("serviceArgs() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotate(t *testing.T) {
	frame := gocv.NewMatWithSize(720, 1200, gocv.MatTypeCV8UC3)
	defer frame.Close()

	hand := OpenPalmHand()
	Annotate(&frame, []Hand{hand})

	tip := hand.Points[IndexTip]
	pixel := frame.GetVecbAt(tip.Y, tip.X)
	if pixel[0] == 0 && pixel[1] == 0 && pixel[2] == 0 {
		t.Error("expected a landmark dot to be drawn at the index tip")
	}

	t.Run("tolerates nil and short hands", func(t *testing.T) {
		Annotate(nil, []Hand{hand})
		Annotate(&frame, []Hand{{Points: []Point3D{{X: 10, Y: 10}}}})
		Annotate(&frame, []Hand{{}})
	})
}

// newScriptedDetector runs body under /bin/sh in place of the Python helper.
// Every start appends a line to the returned starts file, which body can
// read as $STARTS.
func newScriptedDetector(t *testing.T, body string) (*MediaPipeDetector, string) {
	t.Helper()

	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}

	dir := t.TempDir()
	starts := filepath.Join(dir, "starts")
	script := filepath.Join(dir, "helper.sh")
	content := fmt.Sprintf("STARTS=%q\necho started >> \"$STARTS\"\n%s\n", starts, body)
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatalf("write helper: %v", err)
	}

	d := &MediaPipeDetector{
		config:     DefaultConfig(),
		scriptPath: script,
		python:     "/bin/sh",
	}
	t.Cleanup(func() { d.Close() })
	return d, starts
}

func countStarts(t *testing.T, path string) int {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0
		}
		t.Fatalf("read starts: %v", err)
	}
	return strings.Count(string(data), "started")
}

func TestMediaPipeDetector_HelperExits(t *testing.T) {
	d, starts := newScriptedDetector(t, "exit 0")

	frame := gocv.NewMatWithSize(16, 16, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 1; i < maxFailures; i++ {
		_, err := d.Detect(&frame)
		if err == nil {
			t.Fatalf("Detect() call %d expected error", i)
		}
		if errors.Is(err, ErrServiceFailed) {
			t.Fatalf("Detect() call %d failed permanently too early: %v", i, err)
		}
	}

	if _, err := d.Detect(&frame); !errors.Is(err, ErrServiceFailed) {
		t.Fatalf("Detect() after %d failures error = %v, want ErrServiceFailed", maxFailures, err)
	}
	if got := countStarts(t, starts); got != maxFailures {
		t.Errorf("helper started %d times, want %d", got, maxFailures)
	}

	// Stays failed without starting the helper again
	if _, err := d.Detect(&frame); !errors.Is(err, ErrServiceFailed) {
		t.Errorf("Detect() after giving up error = %v, want ErrServiceFailed", err)
	}
	if got := countStarts(t, starts); got != maxFailures {
		t.Errorf("helper started %d times after giving up, want %d", got, maxFailures)
	}
}

func TestMediaPipeDetector_RestartsHelper(t *testing.T) {
	// The first start exits at once; later starts answer three frames
	// and then drain stdin until it is closed.
	d, starts := newScriptedDetector(t, `if [ "$(grep -c started "$STARTS")" -lt 2 ]; then exit 0; fi
for i in 1 2 3; do echo '{"hands":[]}'; done
cat > /dev/null`)

	frame := gocv.NewMatWithSize(16, 16, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if _, err := d.Detect(&frame); err == nil {
		t.Fatal("first Detect() expected error from exiting helper")
	}

	for i := 0; i < 3; i++ {
		hands, err := d.Detect(&frame)
		if err != nil {
			t.Fatalf("Detect() after restart, call %d error = %v", i, err)
		}
		if len(hands) != 0 {
			t.Errorf("Detect() = %v, want no hands", hands)
		}
	}

	if got := countStarts(t, starts); got != 2 {
		t.Errorf("helper started %d times, want 2", got)
	}
	if d.failures != 0 {
		t.Errorf("failures = %d after a good frame, want 0", d.failures)
	}

	if err := d.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
