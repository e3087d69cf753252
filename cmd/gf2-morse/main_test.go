// gf2-morse
// Copyright (c) 2025 The gf2-morse Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of gf2-morse.
//
// gf2-morse is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// gf2-morse is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with gf2-morse; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gf2 "github.com/bloguetronica/gf2-morse"
	testutil "github.com/bloguetronica/gf2-morse/internal/testing"
	"github.com/bloguetronica/gf2-morse/morse"
	"github.com/bloguetronica/gf2-morse/transport/usb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	*app
	sim     *testutil.VirtualCP2130
	clock   *testutil.FakeClock
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	serials []string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ta := &testApp{
		sim:    testutil.NewVirtualCP2130(),
		clock:  testutil.NewFakeClock(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	ta.sim.SetClock(ta.clock.Now)
	ta.app = &app{
		stdout: ta.stdout,
		stderr: ta.stderr,
		open: func(serial string) (gf2.Transport, error) {
			ta.serials = append(ta.serials, serial)
			return ta.sim, nil
		},
		list: func() ([]usb.DeviceInfo, error) {
			return nil, errors.New("not expected")
		},
		sleep: ta.clock.Sleep,
	}
	return ta
}

func TestRun_SignalsMessage(t *testing.T) {
	t.Parallel()
	ta := newTestApp(t)

	code := ta.run([]string{"SOS"})

	require.Equal(t, exitSuccess, code, "stderr: %s", ta.stderr.String())
	assert.Equal(t, "Signaling message...\nSOS\nMessage signaled.\n", ta.stdout.String())
	assert.Empty(t, ta.stderr.String())
	assert.Equal(t, []string{""}, ta.serials)

	writes := ta.sim.GPIOWrites
	require.Len(t, writes, 18, "one key down and one key up per pulse")
	for i, w := range writes {
		assert.Equal(t, [2]byte{0x00, 0x40}, w.Mask, "write %d touches GPIO.3 only", i)
		down := i%2 == 0
		if down {
			assert.Equal(t, [2]byte{0x00, 0x00}, w.Data, "write %d enables the DAC", i)
		} else {
			assert.Equal(t, [2]byte{0x00, 0x40}, w.Data, "write %d disables the DAC", i)
		}
	}
	// the second S starts after S (8 units) and O (14 units)
	assert.Equal(t, 22*morse.Unit, writes[12].At)
	assert.Equal(t, 30*morse.Unit, ta.clock.Now())

	assert.Equal(t, gf2.DefaultTimeout, ta.sim.Timeout())
	assert.Equal(t, testutil.DefaultGPIO, ta.sim.GPIOState(), "DAC is left disabled")
	assert.False(t, ta.sim.IsConnected(), "device is closed")
	assert.Empty(t, ta.sim.SPIWrites, "keying never touches SPI")
}

func TestRun_Usage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: nil},
		{name: "flags only", args: []string{"--log=false"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ta := newTestApp(t)

			code := ta.run(tt.args)

			assert.Equal(t, exitUsage, code)
			assert.Equal(t, "Error: Missing argument.\n"+usageLine+"\n", ta.stderr.String())
			assert.Empty(t, ta.serials, "device is never opened")
		})
	}

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()
		ta := newTestApp(t)
		assert.Equal(t, exitUsage, ta.run([]string{"--bogus", "SOS"}))
		assert.Contains(t, ta.stderr.String(), usageLine)
	})
}

func TestRun_SerialArgument(t *testing.T) {
	t.Parallel()
	ta := newTestApp(t)

	require.Equal(t, exitSuccess, ta.run([]string{"E", "0123456789"}))
	assert.Equal(t, []string{"0123456789"}, ta.serials)
}

func TestRun_Preconditions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		want   string
		remedy string
		state  [2]byte
	}{
		{
			name:   "generator stopped",
			state:  [2]byte{0x00, testutil.GPIO2Bit | testutil.GPIO3Bit},
			want:   "Error: Waveform generator is stopped and should be running.\n",
			remedy: "Please invoke gf2-start and try again.\n",
		},
		{
			name:   "DAC enabled",
			state:  [2]byte{0x00, 0x00},
			want:   "Error: Waveform generator DAC is enabled and should be disabled.\n",
			remedy: "Please invoke gf2-dacoff and try again.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ta := newTestApp(t)
			ta.sim.SetGPIOState(tt.state)

			code := ta.run([]string{"SOS"})

			assert.Equal(t, exitFailure, code)
			assert.Equal(t, tt.want+tt.remedy, ta.stderr.String())
			assert.Empty(t, ta.stdout.String())
			assert.Zero(t, ta.sim.GPIOWriteCount())
			assert.False(t, ta.sim.IsConnected(), "device is closed")
		})
	}
}

func TestRun_TransferFailureHaltsSignaling(t *testing.T) {
	t.Parallel()
	for _, k := range []int{1, 4, 18} {
		t.Run(fmt.Sprintf("write %d", k), func(t *testing.T) {
			t.Parallel()
			ta := newTestApp(t)
			ta.sim.FailGPIOWrite(k, nil)

			code := ta.run([]string{"SOS"})

			assert.Equal(t, exitFailure, code)
			assert.Equal(t, k, ta.sim.GPIOWriteCount(), "nothing is keyed after the failure")
			assert.Equal(t,
				"Error: SetGPIO GPIO.3: failed control transfer (0x40, 0x21): injected transfer failure\n",
				ta.stderr.String())
			assert.NotContains(t, ta.stdout.String(), "Message signaled.")
		})
	}
}

func TestRun_Unplugged(t *testing.T) {
	t.Parallel()
	ta := newTestApp(t)
	ta.sleep = func(d time.Duration) {
		ta.clock.Sleep(d)
		if len(ta.clock.Sleeps()) == 3 {
			ta.sim.Unplug()
		}
	}

	code := ta.run([]string{"SOS"})

	assert.Equal(t, exitFailure, code)
	assert.Equal(t, "Error: Device disconnected.\n", ta.stderr.String())
	assert.Equal(t, 3, ta.sim.GPIOWriteCount())
}

func TestRun_StatusReadFailure(t *testing.T) {
	t.Parallel()
	ta := newTestApp(t)
	ta.sim.Unplug()

	assert.Equal(t, exitFailure, ta.run([]string{"SOS"}))
	assert.Equal(t, "Error: Device disconnected.\n", ta.stderr.String())
	assert.NotContains(t, ta.stderr.String(), "gf2-start")
}

func TestRun_OpenErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want string
	}{
		{name: "init", err: fmt.Errorf("%w: libusb_init failed", gf2.ErrInit), want: "Error: Could not initialize libusb.\n"},
		{name: "not found", err: gf2.ErrDeviceNotFound, want: "Error: Could not find device.\n"},
		{name: "busy", err: fmt.Errorf("%w: resource busy", gf2.ErrDeviceBusy), want: "Error: Device is currently unavailable.\n"},
		{name: "other", err: errors.New("claim failed"), want: "Error: claim failed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ta := newTestApp(t)
			ta.open = func(string) (gf2.Transport, error) { return nil, tt.err }

			assert.Equal(t, exitFailure, ta.run([]string{"SOS"}))
			assert.Equal(t, tt.want, ta.stderr.String())
			assert.Empty(t, ta.stdout.String())
		})
	}
}

func TestRun_List(t *testing.T) {
	t.Parallel()

	t.Run("prints serials", func(t *testing.T) {
		t.Parallel()
		ta := newTestApp(t)
		ta.list = func() ([]usb.DeviceInfo, error) {
			return []usb.DeviceInfo{{Serial: "00000001"}, {Serial: "00000002"}}, nil
		}

		assert.Equal(t, exitSuccess, ta.run([]string{"--list"}))
		assert.Equal(t, "00000001\n00000002\n", ta.stdout.String())
		assert.Empty(t, ta.serials)
	})

	t.Run("enumeration fails", func(t *testing.T) {
		t.Parallel()
		ta := newTestApp(t)
		ta.list = func() ([]usb.DeviceInfo, error) { return nil, gf2.ErrInit }

		assert.Equal(t, exitFailure, ta.run([]string{"--list"}))
		assert.Equal(t, "Error: Could not initialize libusb.\n", ta.stderr.String())
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gf2.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_ConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("serial from config", func(t *testing.T) {
		t.Parallel()
		ta := newTestApp(t)
		path := writeConfig(t, "serial: \"00001234\"\n")

		require.Equal(t, exitSuccess, ta.run([]string{"--config", path, "E"}))
		assert.Equal(t, []string{"00001234"}, ta.serials)
	})

	t.Run("argument overrides config", func(t *testing.T) {
		t.Parallel()
		ta := newTestApp(t)
		path := writeConfig(t, "serial: \"00001234\"\n")

		require.Equal(t, exitSuccess, ta.run([]string{"-c", path, "E", "00005678"}))
		assert.Equal(t, []string{"00005678"}, ta.serials)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		ta := newTestApp(t)
		path := writeConfig(t, "serial: [\n")

		assert.Equal(t, exitFailure, ta.run([]string{"--config", path, "E"}))
		assert.Contains(t, ta.stderr.String(), "failed to parse config")
		assert.Empty(t, ta.serials)
	})
}

//nolint:paralleltest // Session log state is package-level
func TestRun_SessionLog(t *testing.T) {
	ta := newTestApp(t)
	dir := t.TempDir()
	path := writeConfig(t, fmt.Sprintf("session_log: true\nlog_dir: %q\n", dir))

	require.Equal(t, exitSuccess, ta.run([]string{"--config", path, "E"}))

	matches, err := filepath.Glob(filepath.Join(dir, "gf2_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, ta.stderr.String(), "Session log: "+matches[0])

	content, err := os.ReadFile(matches[0]) //nolint:gosec // path from the test directory
	require.NoError(t, err)
	assert.Contains(t, string(content), "SetGPIO GPIO.3: control OUT 0x21")
	assert.True(t, strings.Contains(string(content), "ended ==="), "log is closed at exit")
	assert.Empty(t, gf2.GetSessionLogPath())
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		want    *config
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "all fields",
			content: "serial: \"42\"\ndebug: true\nsession_log: true\nlog_dir: /tmp\n",
			want:    &config{Serial: "42", Debug: true, SessionLog: true, LogDir: "/tmp"},
		},
		{
			name:    "empty file",
			content: "",
			want:    &config{},
		},
		{
			name:    "log dir without session log",
			content: "log_dir: /tmp\n",
			errMsg:  "session_log is disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := loadConfig(writeConfig(t, tt.content))
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}

	t.Run("no path", func(t *testing.T) {
		t.Parallel()
		cfg, err := loadConfig("")
		require.NoError(t, err)
		assert.Equal(t, &config{}, cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}
