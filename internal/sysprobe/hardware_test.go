package sysprobe

import (
	"context"
	"errors"
	"testing"

	"github.com/hostprint/hostprint/internal/probe"
)

// fakeRunner returns canned output for one command.
type fakeRunner struct {
	output string
	err    error
}

// Run implements probe.Runner.
func (f *fakeRunner) Run(context.Context, string, ...string) (string, error) {
	return f.output, f.err
}

// TestProbeDMI tests DMI table reads.
func TestProbeDMI(t *testing.T) {
	t.Parallel()

	t.Run("reads identity fields and drops placeholders", func(t *testing.T) {
		t.Parallel()

		sys := t.TempDir()
		writeFixture(t, sys, "LENOVO\n", "class", "dmi", "id", "sys_vendor")
		writeFixture(t, sys, "21F8002TGE\n", "class", "dmi", "id", "product_name")
		writeFixture(t, sys, "To Be Filled By O.E.M.\n", "class", "dmi", "id", "board_vendor")

		s := probe.NewSession(probe.WithSysRoot(sys), probe.WithLogger(quietLogger()))
		defer s.Close()

		v, err := probeDMI(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if vendor, _ := v.Field("sys_vendor"); vendor.Str() != "LENOVO" {
			t.Errorf("sys_vendor = %v", vendor)
		}
		if _, ok := v.Field("board_vendor"); ok {
			t.Error("OEM placeholder must be treated as absent")
		}
	})

	t.Run("no dmi directory is unsupported", func(t *testing.T) {
		t.Parallel()

		s := probe.NewSession(probe.WithSysRoot(t.TempDir()), probe.WithLogger(quietLogger()))
		defer s.Close()

		_, err := probeDMI(context.Background(), s)
		if !errors.Is(err, probe.ErrUnsupported) {
			t.Errorf("err = %v, want ErrUnsupported", err)
		}
	})
}

// TestProbeMachineUUID tests product UUID resolution.
func TestProbeMachineUUID(t *testing.T) {
	t.Parallel()

	t.Run("reads and lowercases", func(t *testing.T) {
		t.Parallel()

		sys := t.TempDir()
		writeFixture(t, sys, "4C4C4544-0042-3510-8054-B4C04F4D3232\n", "class", "dmi", "id", "product_uuid")

		s := probe.NewSession(probe.WithSysRoot(sys), probe.WithLogger(quietLogger()))
		defer s.Close()

		v, err := probeMachineUUID(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Str() != "4c4c4544-0042-3510-8054-b4c04f4d3232" {
			t.Errorf("uuid = %q", v.Str())
		}
	})

	t.Run("fallback location", func(t *testing.T) {
		t.Parallel()

		sys := t.TempDir()
		writeFixture(t, sys, "abc-123\n", "devices", "virtual", "dmi", "id", "product_uuid")

		s := probe.NewSession(probe.WithSysRoot(sys), probe.WithLogger(quietLogger()))
		defer s.Close()

		v, err := probeMachineUUID(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Str() != "abc-123" {
			t.Errorf("uuid = %q", v.Str())
		}
	})

	t.Run("absent everywhere is unsupported", func(t *testing.T) {
		t.Parallel()

		s := probe.NewSession(probe.WithSysRoot(t.TempDir()), probe.WithLogger(quietLogger()))
		defer s.Close()

		_, err := probeMachineUUID(context.Background(), s)
		if !errors.Is(err, probe.ErrUnsupported) {
			t.Errorf("err = %v, want ErrUnsupported", err)
		}
	})
}

// TestProbeMachineID tests machine-id reads.
func TestProbeMachineID(t *testing.T) {
	t.Parallel()

	etc := t.TempDir()
	writeFixture(t, etc, "8d33a1f0b8f5462ab0c9d5e1f2a3b4c5\n", "machine-id")

	s := probe.NewSession(probe.WithEtcRoot(etc), probe.WithLogger(quietLogger()))
	defer s.Close()

	v, err := probeMachineID(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Str() != "8d33a1f0b8f5462ab0c9d5e1f2a3b4c5" {
		t.Errorf("machine-id = %q", v.Str())
	}
}

// TestProbeCPU tests cpuinfo parsing.
func TestProbeCPU(t *testing.T) {
	t.Parallel()

	const cpuinfo = `processor	: 0
vendor_id	: GenuineIntel
cpu family	: 6
model		: 154
model name	: 12th Gen Intel(R) Core(TM) i7-1260P
stepping	: 3
cpu MHz		: 2100.000
flags		: fpu vme sse2 avx avx2 aes
processor	: 1
vendor_id	: GenuineIntel
model name	: 12th Gen Intel(R) Core(TM) i7-1260P
`

	proc := t.TempDir()
	writeFixture(t, proc, cpuinfo, "cpuinfo")

	s := probe.NewSession(probe.WithProcRoot(proc), probe.WithLogger(quietLogger()))
	defer s.Close()

	v, err := probeCPU(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if vendor, _ := v.Field("vendor"); vendor.Str() != "GenuineIntel" {
		t.Errorf("vendor = %v", vendor)
	}
	if name, _ := v.Field("model_name"); name.Str() != "12th Gen Intel(R) Core(TM) i7-1260P" {
		t.Errorf("model_name = %v", name)
	}

	flags, ok := v.Field("flags")
	if !ok {
		t.Fatal("missing flags")
	}
	// Flags must come out sorted, not in cpuinfo order.
	if flags.Canonical() != `["aes","avx","avx2","fpu","sse2","vme"]` {
		t.Errorf("flags = %s", flags.Canonical())
	}

	// MHz is frequency-scaling noise and must not be captured.
	if _, ok := v.Field("cpu MHz"); ok {
		t.Error("volatile cpuinfo fields must be dropped")
	}
}

// TestProbeMemory tests MemTotal extraction.
func TestProbeMemory(t *testing.T) {
	t.Parallel()

	proc := t.TempDir()
	writeFixture(t, proc, "MemTotal:       32458392 kB\nMemFree:        12345678 kB\nMemAvailable:   22222222 kB\n", "meminfo")

	s := probe.NewSession(probe.WithProcRoot(proc), probe.WithLogger(quietLogger()))
	defer s.Close()

	v, err := probeMemory(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IntVal() != 32458392 {
		t.Errorf("memory = %d", v.IntVal())
	}
}

// TestIsVirtualInterface tests interface classification.
func TestIsVirtualInterface(t *testing.T) {
	t.Parallel()

	virtual := []string{"docker0", "br-a1b2c3", "veth12ab", "tun0", "wg0", "lo", "virbr0", "vboxnet0"}
	physical := []string{"eth0", "enp3s0", "wlan0", "wlp2s0", "eno1"}

	for _, name := range virtual {
		if !isVirtualInterface(name) {
			t.Errorf("%q should be virtual", name)
		}
	}
	for _, name := range physical {
		if isVirtualInterface(name) {
			t.Errorf("%q should be physical", name)
		}
	}
}

// TestProbeBlockDevices tests sysfs and lsblk paths.
func TestProbeBlockDevices(t *testing.T) {
	t.Parallel()

	t.Run("sysfs model and serial", func(t *testing.T) {
		t.Parallel()

		sys := t.TempDir()
		writeFixture(t, sys, "Samsung SSD 980\n", "block", "nvme0n1", "device", "model")
		writeFixture(t, sys, "S649NX0T123456\n", "block", "nvme0n1", "device", "serial")
		writeFixture(t, sys, "ignored\n", "block", "loop0", "device", "model")

		s := probe.NewSession(probe.WithSysRoot(sys), probe.WithLogger(quietLogger()))
		defer s.Close()

		v, err := probeBlockDevices(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		elems := v.Elems()
		if len(elems) != 1 {
			t.Fatalf("devices = %s, want one entry", v.Canonical())
		}
		if model, _ := elems[0].Field("model"); model.Str() != "Samsung SSD 980" {
			t.Errorf("model = %v", model)
		}
	})

	t.Run("lsblk fallback when sysfs is empty", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{output: "sda WDC_WD40EZRZ WD-WCC7K1234567\nloop0  \n"}
		s := probe.NewSession(
			probe.WithSysRoot(t.TempDir()),
			probe.WithRunner(runner),
			probe.WithLogger(quietLogger()),
		)
		defer s.Close()

		v, err := probeBlockDevices(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		elems := v.Elems()
		if len(elems) != 1 {
			t.Fatalf("devices = %s, want one entry", v.Canonical())
		}
		if serial, _ := elems[0].Field("serial"); serial.Str() != "WD-WCC7K1234567" {
			t.Errorf("serial = %v", serial)
		}
	})

	t.Run("empty everywhere yields empty list", func(t *testing.T) {
		t.Parallel()

		s := probe.NewSession(
			probe.WithSysRoot(t.TempDir()),
			probe.WithRunner(&fakeRunner{err: errors.New("lsblk not found")}),
			probe.WithLogger(quietLogger()),
		)
		defer s.Close()

		v, err := probeBlockDevices(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(v.Elems()) != 0 {
			t.Errorf("devices = %s, want empty list", v.Canonical())
		}
	})
}

// TestProbeGPU tests DRM device enumeration.
func TestProbeGPU(t *testing.T) {
	t.Parallel()

	sys := t.TempDir()
	writeFixture(t, sys, "0x8086\n", "class", "drm", "card0", "device", "vendor")
	writeFixture(t, sys, "0x46a6\n", "class", "drm", "card0", "device", "device")
	writeFixture(t, sys, "0x10de\n", "class", "drm", "card1", "device", "vendor")
	writeFixture(t, sys, "0x25a0\n", "class", "drm", "card1", "device", "device")
	// Connector entries repeat the parent and must be skipped.
	writeFixture(t, sys, "0x8086\n", "class", "drm", "card0-DP-1", "device", "vendor")

	s := probe.NewSession(probe.WithSysRoot(sys), probe.WithLogger(quietLogger()))
	defer s.Close()

	v, err := probeGPU(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v.Canonical() != `["10de:25a0","8086:46a6"]` {
		t.Errorf("gpu = %s", v.Canonical())
	}
}

// TestVolatileHardwareProbes tests battery and usage probes.
func TestVolatileHardwareProbes(t *testing.T) {
	t.Parallel()

	t.Run("battery", func(t *testing.T) {
		t.Parallel()

		sys := t.TempDir()
		writeFixture(t, sys, "73\n", "class", "power_supply", "BAT0", "capacity")
		writeFixture(t, sys, "Discharging\n", "class", "power_supply", "BAT0", "status")

		s := probe.NewSession(probe.WithSysRoot(sys), probe.WithLogger(quietLogger()))
		defer s.Close()

		v, err := probeBattery(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if capacity, _ := v.Field("capacity"); capacity.IntVal() != 73 {
			t.Errorf("capacity = %v", capacity)
		}
	})

	t.Run("no battery is unsupported", func(t *testing.T) {
		t.Parallel()

		sys := t.TempDir()
		writeFixture(t, sys, "1\n", "class", "power_supply", "AC", "online")

		s := probe.NewSession(probe.WithSysRoot(sys), probe.WithLogger(quietLogger()))
		defer s.Close()

		_, err := probeBattery(context.Background(), s)
		if !errors.Is(err, probe.ErrUnsupported) {
			t.Errorf("err = %v, want ErrUnsupported", err)
		}
	})

	t.Run("memory usage ratio", func(t *testing.T) {
		t.Parallel()

		proc := t.TempDir()
		writeFixture(t, proc, "MemTotal:  1000 kB\nMemAvailable:  250 kB\n", "meminfo")

		s := probe.NewSession(probe.WithProcRoot(proc), probe.WithLogger(quietLogger()))
		defer s.Close()

		v, err := probeMemoryUsage(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Canonical() != "0.25" {
			t.Errorf("ratio = %s", v.Canonical())
		}
	})

	t.Run("network counters", func(t *testing.T) {
		t.Parallel()

		proc := t.TempDir()
		writeFixture(t, proc, `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo:     100     1    0    0    0     0          0         0      100     1    0    0    0     0       0          0
  eth0:    5000    10    0    0    0     0          0         0     7000    12    0    0    0     0       0          0
`, "net", "dev")

		s := probe.NewSession(probe.WithProcRoot(proc), probe.WithLogger(quietLogger()))
		defer s.Close()

		v, err := probeNetworkActivity(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rx, _ := v.Field("rx_bytes"); rx.IntVal() != 5100 {
			t.Errorf("rx = %v", rx)
		}
		if tx, _ := v.Field("tx_bytes"); tx.IntVal() != 7100 {
			t.Errorf("tx = %v", tx)
		}
	})
}
