package tags

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// AudioProps are the technical properties of an encoded file. These always
// come from local inspection, never from an external catalog.
type AudioProps struct {
	BitrateKbps   int
	LengthSeconds float64
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  *ffprobeFormat  `json:"format"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	BitRate   string `json:"bit_rate"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

// CheckFFprobeAvailable checks if ffprobe is available in PATH
func CheckFFprobeAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

// probeAudio runs ffprobe and extracts bitrate and duration. Stream values
// win over container values when both are present.
func probeAudio(path string) (*AudioProps, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH")
	}

	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffprobe failed: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var info ffprobeOutput
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	props := &AudioProps{}

	if info.Format != nil {
		props.LengthSeconds = parseFloat(info.Format.Duration)
		props.BitrateKbps = parseBitrate(info.Format.BitRate)
	}

	for _, stream := range info.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		if d := parseFloat(stream.Duration); d > 0 {
			props.LengthSeconds = d
		}
		if b := parseBitrate(stream.BitRate); b > 0 {
			props.BitrateKbps = b
		}
		break
	}

	return props, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseBitrate converts an ffprobe bits-per-second string to kbps
func parseBitrate(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v / 1000
}
