package transcribe

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// CommandTranscriber runs an external transcription binary and consumes its
// line-delimited JSON output: one header object with the detected language
// and audio duration, then one object per segment in spoken order.
//
//	{"detected_language":"en","audio_duration":93.4}
//	{"text":" Hello","start":0.0,"end":1.2}
//	...
type CommandTranscriber struct {
	bin string
}

// NewCommandTranscriber wraps the given binary.
func NewCommandTranscriber(bin string) *CommandTranscriber {
	return &CommandTranscriber{bin: bin}
}

type commandHeader struct {
	DetectedLanguage string  `json:"detected_language"`
	AudioDuration    float64 `json:"audio_duration"`
}

type commandSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcribe starts the binary and blocks until the header line arrives, so
// a returned stream always has its info populated.
func (t *CommandTranscriber) Transcribe(ctx context.Context, req Request) (Stream, error) {
	args := []string{"--model", req.Model, "--file", req.FilePath}
	if req.Language != "" && req.Language != AutoLanguage {
		args = append(args, "--language", req.Language)
	}
	cmd := exec.CommandContext(ctx, t.bin, args...)

	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &Error{Model: req.Model, Cause: fmt.Sprintf("open stdout: %v", err)}
	}
	if err := cmd.Start(); err != nil {
		return nil, &Error{Model: req.Model, Cause: fmt.Sprintf("start %s: %v", t.bin, err)}
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		werr := cmd.Wait()
		if werr == nil {
			werr = scanner.Err()
		}
		return nil, &Error{Model: req.Model, Cause: waitCause(werr, stderr.String())}
	}
	var header commandHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, &Error{Model: req.Model, Cause: fmt.Sprintf("decode header: %v", err)}
	}

	return &commandStream{
		model:   req.Model,
		cmd:     cmd,
		stdout:  stdout,
		scanner: scanner,
		stderr:  &stderr,
		info: StreamInfo{
			DetectedLanguage: header.DetectedLanguage,
			AudioDuration:    header.AudioDuration,
		},
	}, nil
}

type commandStream struct {
	model   string
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	scanner *bufio.Scanner
	stderr  *strings.Builder
	info    StreamInfo
	err     error
	done    bool
}

func (s *commandStream) Info() StreamInfo {
	return s.info
}

func (s *commandStream) Next() (Segment, bool) {
	if s.done {
		return Segment{}, false
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		var seg commandSegment
		if err := json.Unmarshal([]byte(line), &seg); err != nil {
			s.err = &Error{Model: s.model, Cause: fmt.Sprintf("decode segment: %v", err)}
			s.done = true
			return Segment{}, false
		}
		return Segment{Text: seg.Text, Start: seg.Start, End: seg.End}, true
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		s.err = &Error{Model: s.model, Cause: fmt.Sprintf("read output: %v", err)}
		return Segment{}, false
	}
	if err := s.cmd.Wait(); err != nil {
		s.err = &Error{Model: s.model, Cause: waitCause(err, s.stderr.String())}
	}
	return Segment{}, false
}

func (s *commandStream) Err() error {
	return s.err
}

func (s *commandStream) Close() error {
	if !s.done {
		// Abandoned mid-stream: kill the process and reap it.
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
		s.done = true
	}
	return nil
}

func waitCause(err error, stderr string) string {
	stderr = strings.TrimSpace(stderr)
	switch {
	case err != nil && stderr != "":
		return fmt.Sprintf("%v: %s", err, lastLine(stderr))
	case err != nil:
		return err.Error()
	case stderr != "":
		return lastLine(stderr)
	default:
		return "no output produced"
	}
}

func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
