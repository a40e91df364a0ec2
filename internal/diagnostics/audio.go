package diagnostics

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	lfnerrors "github.com/lfn-audio/lfn-toolkit/internal/errors"
)

// AudioDevice is one capture device reported by arecord.
type AudioDevice struct {
	Card   string `json:"card"`
	Device string `json:"device"`
	Name   string `json:"name"`
}

// ParseCaptureDevices parses `arecord -l` output. Only "card N: ..., device M: ..."
// lines are kept.
//
//	card 1: USB [Zoom H6], device 0: USB Audio [USB Audio]
func ParseCaptureDevices(output string) []AudioDevice {
	var devices []AudioDevice
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "card ") {
			continue
		}
		cardPart, devicePart, ok := strings.Cut(line, ", device ")
		if !ok {
			continue
		}
		card, cardDesc, _ := strings.Cut(strings.TrimPrefix(cardPart, "card "), ":")
		device, _, _ := strings.Cut(devicePart, ":")
		devices = append(devices, AudioDevice{
			Card:   strings.TrimSpace(card),
			Device: strings.TrimSpace(device),
			Name:   bracketed(cardDesc),
		})
	}
	return devices
}

// bracketed returns the text inside the first [...] of s, or s trimmed.
func bracketed(s string) string {
	if _, rest, ok := strings.Cut(s, "["); ok {
		if name, _, ok := strings.Cut(rest, "]"); ok {
			return name
		}
	}
	return strings.TrimSpace(s)
}

// CheckAudio lists capture devices through ALSA's arecord. Other platforms
// only get an informational note. No devices is a warning: batch analysis
// works without one.
func (c *Checker) CheckAudio(ctx context.Context) Section {
	s := Section{Check: CheckAudio, Title: sectionTitle(CheckAudio)}

	goos := c.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos != "linux" {
		s.info("Capture devices", "listing is only supported on linux (running on "+goos+")")
		return s
	}

	if _, err := c.Runner.LookPath("arecord"); err != nil {
		s.warn("Capture devices", "arecord not available (install alsa-utils to list devices)")
		return s
	}

	out, err := c.Runner.Run(ctx, "arecord", "-l")
	if err != nil {
		c.Logger.Warning("arecord listing failed", "error", err)
		if lfnerrors.IsRetryable(err) {
			s.warn("Capture devices", "arecord timed out")
		} else {
			// arecord exits non-zero when there are no sound cards at all.
			s.warn("Capture devices", "arecord failed (no sound cards?)")
		}
		return s
	}

	devices := ParseCaptureDevices(string(out))
	if len(devices) == 0 {
		s.warn("Capture devices", "none found (live recording unavailable)")
		return s
	}
	s.ok("Capture devices", fmt.Sprintf("%d detected", len(devices)))
	for _, d := range devices {
		s.info(fmt.Sprintf("hw:%s,%s", d.Card, d.Device), d.Name)
	}
	return s
}
