package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// serviceScript is the helper that runs the MediaPipe hand landmarker.
const serviceScript = "hand_service.py"

// maxFailures is how many consecutive frames may fail with the helper
// restarted in between before the detector gives up.
const maxFailures = 3

var (
	// ErrServiceFailed is returned once the helper has failed maxFailures
	// frames in a row. The detector stays failed after that.
	ErrServiceFailed = errors.New("mediapipe service failed")

	// ErrServiceReported wraps an error the helper reported for one frame.
	// The helper keeps running.
	ErrServiceReported = errors.New("mediapipe service error")
)

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Each frame is written to the helper's stdin as a 4-byte big-endian length
// followed by JPEG bytes; the helper answers with one JSON line holding
// normalized landmarks.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	// python overrides the interpreter lookup when set.
	python   string
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdout   *bufio.Reader
	mu       sync.Mutex
	started  bool
	failures int
	lastErr  error
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := findServiceScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("%s not found", serviceScript)
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Detect analyzes a frame and returns detected hand landmarks.
//
// When the helper cannot be started or stops answering, it is shut down and
// started again on the next call. After maxFailures consecutive failures
// Detect returns ErrServiceFailed on every call.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failures >= maxFailures {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrServiceFailed, d.failures, d.lastErr)
	}

	if frame == nil || frame.Empty() {
		return nil, nil
	}

	hands, err := d.detect(frame)
	switch {
	case err == nil:
		d.failures = 0
		return hands, nil
	case errors.Is(err, ErrServiceReported):
		return nil, err
	}

	if d.started {
		d.shutdown()
	}
	d.failures++
	d.lastErr = err
	if d.failures >= maxFailures {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrServiceFailed, d.failures, err)
	}
	return nil, err
}

func (d *MediaPipeDetector) detect(frame *gocv.Mat) ([]Hand, error) {
	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		return nil, err
	}

	return readHands(d.stdout, frame.Cols(), frame.Rows(), d.config.FlipHandedness)
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	// Use virtual environment Python if available
	pythonPath := d.python
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, append([]string{d.scriptPath}, serviceArgs(d.config)...)...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		d.cmd = nil
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

// serviceArgs renders the detector limits as helper command-line flags.
func serviceArgs(c Config) []string {
	return []string{
		"--max-hands", strconv.Itoa(c.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(c.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(c.MinTrackingConf, 'f', -1, 64),
	}
}

// writeFrame sends one length-prefixed frame to the helper.
func writeFrame(w io.Writer, data []byte) error {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := w.Write(length); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// readHands reads one JSON response line and scales it to a cols x rows frame.
func readHands(r *bufio.Reader, cols, rows int, flip bool) ([]Hand, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error,omitempty"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrServiceReported, response.Error)
	}

	if len(response.Hands) == 0 {
		return nil, nil
	}

	result := make([]Hand, len(response.Hands))
	for i, h := range response.Hands {
		result[i] = h.toHand(cols, rows, flip)
	}
	return result, nil
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
		filepath.Join(execDir, "scripts", serviceScript),
		filepath.Join(os.Getenv("HOME"), ".handstream", "scripts", serviceScript),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".handstream/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
// Coordinates are normalized: x and y to [0,1] of the frame, z on the x scale.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (h jsonHand) toHand(cols, rows int, flip bool) Hand {
	hand := Hand{
		Handedness: h.Handedness,
		Score:      h.Score,
		Points:     make([]Point3D, len(h.Points)),
	}
	if flip {
		hand.Handedness = swapHandedness(h.Handedness)
	}

	w, ht := float64(cols), float64(rows)
	for i, p := range h.Points {
		hand.Points[i] = Point3D{
			X: int(p.X * w),
			Y: int(p.Y * ht),
			Z: int(p.Z * w),
		}
	}

	return hand
}
