package diagnostics

import (
	"context"
	"strings"
	"testing"
	"time"

	lfnerrors "github.com/lfn-audio/lfn-toolkit/internal/errors"
)

const arecordList = `**** List of CAPTURE Hardware Devices ****
card 0: PCH [HDA Intel PCH], device 0: ALC3246 Analog [ALC3246 Analog]
  Subdevices: 1/1
  Subdevice #0: subdevice #0
card 1: H6 [Zoom H6], device 0: USB Audio [USB Audio]
  Subdevices: 0/1
`

func TestParseCaptureDevices(t *testing.T) {
	got := ParseCaptureDevices(arecordList)
	want := []AudioDevice{
		{Card: "0", Device: "0", Name: "HDA Intel PCH"},
		{Card: "1", Device: "0", Name: "Zoom H6"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d devices, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("device %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if got := ParseCaptureDevices("**** List of CAPTURE Hardware Devices ****\n"); len(got) != 0 {
		t.Errorf("header only: got %+v", got)
	}
}

func TestCheckAudio(t *testing.T) {
	list := commandLine("arecord", []string{"-l"})
	present := map[string]string{"arecord": "/usr/bin/arecord"}

	tests := []struct {
		name       string
		goos       string
		runner     *fakeRunner
		wantStatus Status
		wantDetail string
	}{
		{
			name:       "other platform",
			goos:       "darwin",
			runner:     &fakeRunner{},
			wantStatus: StatusInfo,
			wantDetail: "only supported on linux",
		},
		{
			name:       "no arecord",
			goos:       "linux",
			runner:     &fakeRunner{},
			wantStatus: StatusWarn,
			wantDetail: "arecord not available",
		},
		{
			name:       "devices listed",
			goos:       "linux",
			runner:     &fakeRunner{paths: present, results: map[string]fakeResult{list: {out: arecordList}}},
			wantStatus: StatusOK,
			wantDetail: "2 detected",
		},
		{
			name:       "no devices",
			goos:       "linux",
			runner:     &fakeRunner{paths: present, results: map[string]fakeResult{list: {out: "**** List of CAPTURE Hardware Devices ****\n"}}},
			wantStatus: StatusWarn,
			wantDetail: "none found",
		},
		{
			name: "no sound cards",
			goos: "linux",
			runner: &fakeRunner{paths: present, results: map[string]fakeResult{
				list: {err: lfnerrors.NewProbeError("arecord", "command failed", nil)},
			}},
			wantStatus: StatusWarn,
			wantDetail: "arecord failed",
		},
		{
			name: "listing timed out",
			goos: "linux",
			runner: &fakeRunner{paths: present, results: map[string]fakeResult{
				list: {err: lfnerrors.NewTimeoutError(list, 5*time.Second)},
			}},
			wantStatus: StatusWarn,
			wantDetail: "arecord timed out",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestChecker(t, tt.runner)
			c.GOOS = tt.goos
			s := c.CheckAudio(context.Background())
			r := findResult(t, s, "Capture devices")
			if r.Status != tt.wantStatus || !strings.Contains(r.Detail, tt.wantDetail) {
				t.Errorf("result = %+v, want %v containing %q", r, tt.wantStatus, tt.wantDetail)
			}
		})
	}

	t.Run("each device is reported", func(t *testing.T) {
		c := newTestChecker(t, &fakeRunner{paths: present, results: map[string]fakeResult{list: {out: arecordList}}})
		c.GOOS = "linux"
		s := c.CheckAudio(context.Background())
		if r := findResult(t, s, "hw:1,0"); r.Detail != "Zoom H6" {
			t.Errorf("hw:1,0 = %+v", r)
		}
	})
}
