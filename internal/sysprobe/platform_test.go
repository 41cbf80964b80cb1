package sysprobe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hostprint/hostprint/internal/model"
	"github.com/hostprint/hostprint/internal/probe"
)

// quietLogger discards log output in tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFixture writes content at root/parts, creating directories.
func writeFixture(t *testing.T, root string, content string, parts ...string) {
	t.Helper()

	path := filepath.Join(append([]string{root}, parts...)...)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// TestProbeOSRelease tests os-release parsing.
func TestProbeOSRelease(t *testing.T) {
	t.Parallel()

	t.Run("parses identity fields", func(t *testing.T) {
		t.Parallel()

		etc := t.TempDir()
		writeFixture(t, etc, `NAME="Debian GNU/Linux"
ID=debian
VERSION_ID="12"
PRETTY_NAME="Debian GNU/Linux 12 (bookworm)"
# comment line
`, "os-release")

		s := probe.NewSession(probe.WithEtcRoot(etc), probe.WithLogger(quietLogger()))
		defer s.Close()

		v, err := probeOSRelease(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if id, _ := v.Field("id"); id.Str() != "debian" {
			t.Errorf("id = %v", id)
		}
		if name, _ := v.Field("name"); name.Str() != "Debian GNU/Linux" {
			t.Errorf("name = %v", name)
		}
		if ver, _ := v.Field("version_id"); ver.Str() != "12" {
			t.Errorf("version_id = %v", ver)
		}
		if _, ok := v.Field("pretty_name"); ok {
			t.Error("prose fields should be dropped")
		}
	})

	t.Run("missing file is unsupported", func(t *testing.T) {
		t.Parallel()

		s := probe.NewSession(probe.WithEtcRoot(t.TempDir()), probe.WithLogger(quietLogger()))
		defer s.Close()

		_, err := probeOSRelease(context.Background(), s)
		if !errors.Is(err, probe.ErrUnsupported) {
			t.Errorf("err = %v, want ErrUnsupported", err)
		}
	})
}

// TestProbeKernel tests kernel identity reads.
func TestProbeKernel(t *testing.T) {
	t.Parallel()

	proc := t.TempDir()
	writeFixture(t, proc, "Linux\n", "sys", "kernel", "ostype")
	writeFixture(t, proc, "6.1.0-18-amd64\n", "sys", "kernel", "osrelease")

	s := probe.NewSession(probe.WithProcRoot(proc), probe.WithLogger(quietLogger()))
	defer s.Close()

	v, err := probeKernel(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ostype, _ := v.Field("ostype"); ostype.Str() != "Linux" {
		t.Errorf("ostype = %v", ostype)
	}
	if rel, _ := v.Field("osrelease"); rel.Str() != "6.1.0-18-amd64" {
		t.Errorf("osrelease = %v", rel)
	}
}

// TestProbeArch tests runtime architecture identity.
func TestProbeArch(t *testing.T) {
	t.Parallel()

	v, err := probeArch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range []string{"goos", "goarch", "cpus", "page_size", "endianness"} {
		if _, ok := v.Field(key); !ok {
			t.Errorf("missing field %q", key)
		}
	}

	endian, _ := v.Field("endianness")
	if e := endian.Str(); e != "little" && e != "big" {
		t.Errorf("endianness = %q", e)
	}
}

// TestProbeTimezone tests zone resolution paths.
func TestProbeTimezone(t *testing.T) {
	t.Parallel()

	t.Run("etc timezone file wins", func(t *testing.T) {
		t.Parallel()

		etc := t.TempDir()
		writeFixture(t, etc, "Europe/Berlin\n", "timezone")

		s := probe.NewSession(probe.WithEtcRoot(etc), probe.WithLogger(quietLogger()))
		defer s.Close()

		v, err := probeTimezone(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Str() != "Europe/Berlin" {
			t.Errorf("timezone = %q", v.Str())
		}
	})

	t.Run("localtime symlink fallback", func(t *testing.T) {
		t.Parallel()

		etc := t.TempDir()
		if err := os.Symlink("/usr/share/zoneinfo/Asia/Tokyo", filepath.Join(etc, "localtime")); err != nil {
			t.Skipf("symlink not supported: %v", err)
		}

		s := probe.NewSession(probe.WithEtcRoot(etc), probe.WithLogger(quietLogger()))
		defer s.Close()

		v, err := probeTimezone(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Str() != "Asia/Tokyo" {
			t.Errorf("timezone = %q", v.Str())
		}
	})

	t.Run("nothing configured is unsupported", func(t *testing.T) {
		t.Parallel()

		s := probe.NewSession(probe.WithEtcRoot(t.TempDir()), probe.WithLogger(quietLogger()))
		defer s.Close()

		_, err := probeTimezone(context.Background(), s)
		if !errors.Is(err, probe.ErrUnsupported) {
			t.Errorf("err = %v, want ErrUnsupported", err)
		}
	})
}

// TestProbeMathSignature tests fixed-precision determinism.
func TestProbeMathSignature(t *testing.T) {
	t.Parallel()

	first, err := probeMathSignature(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := probeMathSignature(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.Equal(second) {
		t.Error("math signature must be reproducible on the same host")
	}

	sin, ok := first.Field("sin_1")
	if !ok {
		t.Fatal("missing sin_1")
	}
	// 'e' format with fixed mantissa digits: d.ddddddddddddddde±dd
	if len(sin.Str()) == 0 || sin.Kind() != model.KindString {
		t.Errorf("sin_1 = %v", sin)
	}
}

// TestProbeFonts tests font enumeration.
func TestProbeFonts(t *testing.T) {
	t.Parallel()

	t.Run("sorted deduplicated names", func(t *testing.T) {
		t.Parallel()

		fonts := t.TempDir()
		writeFixture(t, fonts, "", "truetype", "zzz.ttf")
		writeFixture(t, fonts, "", "opentype", "aaa.otf")
		writeFixture(t, fonts, "", "truetype", "sub", "zzz.ttf") // duplicate name
		writeFixture(t, fonts, "", "README")                     // not a font

		s := probe.NewSession(probe.WithFontDirs([]string{fonts}), probe.WithLogger(quietLogger()))
		defer s.Close()

		v, err := probeFonts(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		elems := v.Elems()
		if len(elems) != 2 {
			t.Fatalf("fonts = %v, want 2 entries", v.Canonical())
		}
		if elems[0].Str() != "aaa.otf" || elems[1].Str() != "zzz.ttf" {
			t.Errorf("fonts = %v, want sorted [aaa.otf zzz.ttf]", v.Canonical())
		}
	})

	t.Run("no font dirs is unsupported", func(t *testing.T) {
		t.Parallel()

		s := probe.NewSession(
			probe.WithFontDirs([]string{filepath.Join(t.TempDir(), "absent")}),
			probe.WithLogger(quietLogger()),
		)
		defer s.Close()

		_, err := probeFonts(context.Background(), s)
		if !errors.Is(err, probe.ErrUnsupported) {
			t.Errorf("err = %v, want ErrUnsupported", err)
		}
	})
}

// TestProbeFeatures tests feature flag detection against a fixture tree.
func TestProbeFeatures(t *testing.T) {
	t.Parallel()

	sys := t.TempDir()
	proc := t.TempDir()
	writeFixture(t, sys, "cpuset cpu io\n", "fs", "cgroup", "cgroup.controllers")
	writeFixture(t, proc, "systemd\n", "1", "comm")
	writeFixture(t, proc, "", "net", "if_inet6")

	s := probe.NewSession(
		probe.WithSysRoot(sys),
		probe.WithProcRoot(proc),
		probe.WithLogger(quietLogger()),
	)
	defer s.Close()

	v, err := probeFeatures(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	check := func(key string, want bool) {
		f, ok := v.Field(key)
		if !ok {
			t.Fatalf("missing feature %q", key)
		}
		if got := f.Canonical() == "true"; got != want {
			t.Errorf("feature %q = %v, want %v", key, got, want)
		}
	}

	check("cgroup2", true)
	check("systemd", true)
	check("ipv6", true)
	check("selinux", false)
	check("apparmor", false)
}

// TestVolatilePlatformProbes tests the load and uptime probes.
func TestVolatilePlatformProbes(t *testing.T) {
	t.Parallel()

	proc := t.TempDir()
	writeFixture(t, proc, "0.52 0.58 0.59 1/389 12345\n", "loadavg")
	writeFixture(t, proc, "351735.21 1687853.30\n", "uptime")

	s := probe.NewSession(probe.WithProcRoot(proc), probe.WithLogger(quietLogger()))
	defer s.Close()

	t.Run("load", func(t *testing.T) {
		t.Parallel()

		v, err := probeLoad(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Str() != "0.52" {
			t.Errorf("load = %q", v.Str())
		}
	})

	t.Run("uptime", func(t *testing.T) {
		t.Parallel()

		v, err := probeUptime(context.Background(), s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.IntVal() != 351735 {
			t.Errorf("uptime = %d", v.IntVal())
		}
	})
}
