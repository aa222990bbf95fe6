package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/edgeo-scada/modbus-commander/internal/device"
	"github.com/edgeo-scada/modbus-commander/internal/devicetest"
	"github.com/spf13/viper"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd(viper.New())
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestNoAction(t *testing.T) {
	// Nothing listens on this port, so a connection attempt would fail.
	port := strconv.Itoa(devicetest.FreePort(t))

	out, _, err := execute(t, "--ip", "127.0.0.1", "--port", port)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if strings.TrimSpace(out) != noActionMessage {
		t.Errorf("Expected %q, got %q", noActionMessage, out)
	}
}

func TestDebugDumpsOptions(t *testing.T) {
	_, errOut, err := execute(t, "-d", "--ip", "10.1.2.3", "--unit", "7")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	for _, want := range []string{"ip_address: 10.1.2.3", "unit_id: 7", "actions:\n  (none)"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("Debug output should contain %q:\n%s", want, errOut)
		}
	}
}

func TestOddWriteCoilsRejectedBeforeConnect(t *testing.T) {
	_, mem, port := startServer(t)
	mem.SetCoil(1, false)

	out, errOut, err := execute(t, "--ip", "127.0.0.1", "--port", port, "--write-coils", "1", "on", "2")
	if err == nil {
		t.Fatal("Expected an error for an odd --write-coils list")
	}
	var connErr *device.ConnectError
	if errors.As(err, &connErr) {
		t.Fatalf("Expected a parse error, got a connection error: %v", err)
	}
	if mem.Coil(1) {
		t.Error("No coil should be written")
	}
	if !strings.Contains(out+errOut, "Usage:") {
		t.Errorf("Parse errors should print usage, got:\n%s", errOut)
	}
}

func TestValidationError(t *testing.T) {
	tests := [][]string{
		{"--port", "0", "--read-coil", "1"},
		{"--unit", "0", "--read-coil", "1"},
		{"--timeout", "-1", "--read-coil", "1"},
		{"--driver", "libmodbus", "--read-coil", "1"},
		{"--output", "xml", "--read-coil", "1"},
	}

	for _, args := range tests {
		if _, _, err := execute(t, args...); err == nil {
			t.Errorf("Execute(%q): expected error", args)
		}
	}
}

func TestHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	for _, want := range []string{"--read-coil", "--write-registers", "--ip"} {
		if !strings.Contains(out, want) {
			t.Errorf("Help should mention %s", want)
		}
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("Expected version %s, got %q", version, out)
	}
}

func startServer(t *testing.T) (host string, mem *devicetest.Memory, port string) {
	t.Helper()

	mem, host, p := devicetest.StartServer(t)
	return host, mem, strconv.Itoa(p)
}

func TestEndToEnd(t *testing.T) {
	for _, driver := range []string{"goburrow", "simonvetter"} {
		t.Run(driver, func(t *testing.T) {
			host, mem, port := startServer(t)
			mem.SetCoil(5, true)

			out, _, err := execute(t,
				"--ip", host, "--port", port, "--driver", driver, "--no-color",
				"--write-registers", "0x10", "1", "2", "3",
				"--read-coil", "0",
				"--read-registers", "0x10", "3",
				"--read-coil", "5",
			)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}

			for i, want := range []uint16{1, 2, 3} {
				if got := mem.Register(uint16(16 + i)); got != want {
					t.Errorf("Register %d: expected %d, got %d", 16+i, want, got)
				}
			}

			want := strings.Join([]string{
				"=== Write Registers ===",
				"Successfully wrote 3 registers starting at 0x0010 (16):",
				"  Register 0x0010 (16): 1 (0x0001)",
				"  Register 0x0011 (17): 2 (0x0002)",
				"  Register 0x0012 (18): 3 (0x0003)",
				"=== Read Coil ===",
				"Coil 0x0000 (0): OFF (false)",
				"=== Read Registers ===",
				"Read 3 registers starting at 0x0010 (16):",
				"  Register 0x0010 (16): 1 (0x0001)",
				"  Register 0x0011 (17): 2 (0x0002)",
				"  Register 0x0012 (18): 3 (0x0003)",
				"=== Read Coil ===",
				"Coil 0x0005 (5): ON (true)",
			}, "\n") + "\n"
			if out != want {
				t.Errorf("Output mismatch:\nexpected:\n%s\ngot:\n%s", want, out)
			}
		})
	}
}

func TestEndToEndDeviceErrorContinues(t *testing.T) {
	host, _, port := startServer(t)

	out, _, err := execute(t,
		"--ip", host, "--port", port, "--no-color",
		"--read-register", strconv.Itoa(devicetest.Limit),
		"--write-coil", "3", "maybe",
		"--write-coil", "3", "on",
	)
	if err != nil {
		t.Fatalf("Per-record failures should not fail the run: %v", err)
	}
	for _, want := range []string{
		"Failed to read register 0x0400 (1024): modbus exception 0x02",
		"Invalid coil state 'maybe'",
		"Coil 0x0003 (3) = ON (SUCCESS)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output should contain %q:\n%s", want, out)
		}
	}
}

func TestEndToEndJSON(t *testing.T) {
	host, mem, port := startServer(t)
	mem.SetRegister(0, 0xBEEF)

	out, _, err := execute(t, "--ip", host, "--port", port, "-o", "json", "--read-register", "0")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var rec struct {
		Action string `json:"action"`
		Status string `json:"status"`
		Items  []struct {
			Value uint16 `json:"value"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("Invalid JSON %q: %v", out, err)
	}
	if rec.Action != "read-register" || rec.Status != "ok" || len(rec.Items) != 1 || rec.Items[0].Value != 0xBEEF {
		t.Errorf("Unexpected record: %+v", rec)
	}
}

func TestConnectionFailure(t *testing.T) {
	port := strconv.Itoa(devicetest.FreePort(t))

	out, errOut, err := execute(t, "--ip", "127.0.0.1", "--port", port, "-t", "1", "--read-coil", "0")
	var connErr *device.ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("Expected *device.ConnectError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "failed to connect to device at 127.0.0.1:"+port) {
		t.Errorf("Unexpected error text: %q", err)
	}
	if strings.Contains(out+errOut, "Usage:") {
		t.Error("Connection errors should not print usage")
	}
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	host, mem, port := startServer(t)
	mem.SetCoil(2, true)
	t.Setenv("MODBUS_IP", host)
	t.Setenv("MODBUS_PORT", port)

	out, _, err := execute(t, "--no-color", "--read-coil", "2")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out, "Coil 0x0002 (2): ON (true)") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}
