package sysprobe

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/hostprint/hostprint/internal/model"
	"github.com/hostprint/hostprint/internal/probe"
	"golang.org/x/text/language"
)

// mathPrecision is the mantissa digit count for the math signature.
// Transcendental results are formatted at fixed precision so sub-ulp noise
// between runs on the same host can never destabilize the feature, while
// genuine libm differences between hosts still show.
const mathPrecision = 15

// fontExtensions are the file extensions counted as installed fonts.
var fontExtensions = map[string]bool{
	".ttf":  true,
	".otf":  true,
	".ttc":  true,
	".pfb":  true,
	".woff": true,
}

// probeOSRelease reads distribution identity from os-release. Only the
// identity fields are kept; fields like VERSION that repeat VERSION_ID in
// prose add noise without entropy.
func probeOSRelease(_ context.Context, s *probe.Session) (model.Value, error) {
	content, err := s.ReadFile(s.EtcPath("os-release"))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Value{}, fmt.Errorf("no os-release: %w", probe.ErrUnsupported)
		}
		return model.Value{}, err
	}

	parsed := parseOSRelease(content)
	fields := make(map[string]model.Value, 3)
	for _, key := range []string{"ID", "NAME", "VERSION_ID"} {
		if v, ok := parsed[key]; ok {
			fields[strings.ToLower(key)] = model.String(v)
		}
	}
	return model.Map(fields), nil
}

// parseOSRelease parses KEY=value lines, stripping optional quotes.
func parseOSRelease(content string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		out[key] = value
	}
	return out
}

// probeKernel reads the kernel type and release.
func probeKernel(_ context.Context, s *probe.Session) (model.Value, error) {
	ostype, err := s.ReadFile(s.ProcPath("sys", "kernel", "ostype"))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Value{}, fmt.Errorf("no kernel identity under proc: %w", probe.ErrUnsupported)
		}
		return model.Value{}, err
	}

	osrelease, err := s.ReadFile(s.ProcPath("sys", "kernel", "osrelease"))
	if err != nil {
		return model.Value{}, err
	}

	return model.Map(map[string]model.Value{
		"ostype":    model.String(ostype),
		"osrelease": model.String(osrelease),
	}), nil
}

// probeArch reports compile-time and runtime architecture identity.
func probeArch(context.Context, *probe.Session) (model.Value, error) {
	endian := "little"
	if binary.NativeEndian.Uint16([]byte{0x01, 0x00}) != 0x0001 {
		endian = "big"
	}

	return model.Map(map[string]model.Value{
		"goos":       model.String(runtime.GOOS),
		"goarch":     model.String(runtime.GOARCH),
		"cpus":       model.Int(int64(runtime.NumCPU())),
		"page_size":  model.Int(int64(os.Getpagesize())),
		"endianness": model.String(endian),
	}), nil
}

// probeTimezone resolves the configured zone name. The /etc/timezone file
// wins where present (Debian family); otherwise the localtime symlink's
// zoneinfo suffix is used.
func probeTimezone(_ context.Context, s *probe.Session) (model.Value, error) {
	if tz, err := s.ReadFile(s.EtcPath("timezone")); err == nil && tz != "" {
		return model.String(tz), nil
	}

	target, err := os.Readlink(s.EtcPath("localtime"))
	if err != nil {
		return model.Value{}, fmt.Errorf("no timezone configuration: %w", probe.ErrUnsupported)
	}
	if _, zone, ok := strings.Cut(target, "zoneinfo/"); ok {
		return model.String(zone), nil
	}
	return model.String(filepath.Base(target)), nil
}

// probeLocale reads the configured locale and its BCP 47 canonicalization.
// LC_ALL wins over LANG per POSIX precedence.
func probeLocale(context.Context, *probe.Session) (model.Value, error) {
	raw := os.Getenv("LC_ALL")
	if raw == "" {
		raw = os.Getenv("LANG")
	}
	if raw == "" {
		return model.Value{}, fmt.Errorf("no locale configured: %w", probe.ErrUnsupported)
	}

	fields := map[string]model.Value{
		"raw": model.String(raw),
	}

	// Strip the codeset suffix ("en_US.UTF-8" -> "en_US") before parsing.
	base, _, _ := strings.Cut(raw, ".")
	if tag, err := language.Parse(strings.ReplaceAll(base, "_", "-")); err == nil {
		fields["bcp47"] = model.String(tag.String())
	}

	return model.Map(fields), nil
}

// probeMathSignature captures libm behavior: transcendental results at
// fixed precision. Different math library builds produce measurably
// different low-order bits; the same host reproduces them exactly.
func probeMathSignature(context.Context, *probe.Session) (model.Value, error) {
	fixed := func(v float64) model.Value {
		return model.String(strconv.FormatFloat(v, 'e', mathPrecision, 64))
	}

	return model.Map(map[string]model.Value{
		"sin_1":        fixed(math.Sin(1)),
		"cos_10":       fixed(math.Cos(10)),
		"tan_huge":     fixed(math.Tan(-1e300)),
		"exp_1":        fixed(math.Exp(1)),
		"log_1000":     fixed(math.Log(1000)),
		"sqrt_2":       fixed(math.Sqrt(2)),
		"atan2_5_2":    fixed(math.Atan2(5, 2)),
		"pow_pi_e":     fixed(math.Pow(math.Pi, math.E)),
		"cbrt_100":     fixed(math.Cbrt(100)),
		"expm1_1e_10":  fixed(math.Expm1(1e-10)),
		"log1p_1e_10":  fixed(math.Log1p(1e-10)),
		"sinh_1":       fixed(math.Sinh(1)),
		"acosh_1e308":  fixed(math.Acosh(1e308)),
		"gamma_0_5":    fixed(math.Gamma(0.5)),
		"erf_1":        fixed(math.Erf(1)),
		"j0_10":        fixed(math.J0(10)),
		"remainder_pi": fixed(math.Remainder(1e10, math.Pi)),
	}), nil
}

// probeFonts lists installed font file names under the session's font
// directories, sorted and deduplicated. The list is a rendering-identity
// proxy: font sets differ per distribution and install history but stay
// fixed between sessions.
func probeFonts(ctx context.Context, s *probe.Session) (model.Value, error) {
	seen := make(map[string]bool)
	found := false

	for _, dir := range s.FontDirs() {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		found = true

		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable subtrees are skipped, not fatal
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				return nil
			}
			if fontExtensions[strings.ToLower(filepath.Ext(path))] {
				seen[d.Name()] = true
			}
			return nil
		})
		if err != nil {
			return model.Value{}, err
		}
	}

	if !found {
		return model.Value{}, fmt.Errorf("no font directories present: %w", probe.ErrUnsupported)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	return model.StringList(names...), nil
}

// probeFeatures reports kernel feature support flags. Each flag is a
// boolean: present and stable for a given kernel build and configuration.
func probeFeatures(_ context.Context, s *probe.Session) (model.Value, error) {
	exists := func(path string) model.Value {
		_, err := os.Stat(path)
		return model.Bool(err == nil)
	}

	systemd := model.Bool(false)
	if comm, err := s.ReadFile(s.ProcPath("1", "comm")); err == nil {
		systemd = model.Bool(comm == "systemd")
	}

	return model.Map(map[string]model.Value{
		"cgroup2":  exists(s.SysPath("fs", "cgroup", "cgroup.controllers")),
		"selinux":  exists(s.SysPath("fs", "selinux")),
		"apparmor": exists(s.SysPath("module", "apparmor")),
		"ipv6":     exists(s.ProcPath("net", "if_inet6")),
		"systemd":  systemd,
	}), nil
}

// probeLoad reads the one-minute load average. Volatile by definition;
// collected for run-to-run visibility, rejected from hashing.
func probeLoad(_ context.Context, s *probe.Session) (model.Value, error) {
	content, err := s.ReadFile(s.ProcPath("loadavg"))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Value{}, fmt.Errorf("no loadavg: %w", probe.ErrUnsupported)
		}
		return model.Value{}, err
	}

	fields := strings.Fields(content)
	if len(fields) == 0 {
		return model.Null(), nil
	}
	return model.String(fields[0]), nil
}

// probeUptime reads seconds since boot. Volatile.
func probeUptime(_ context.Context, s *probe.Session) (model.Value, error) {
	content, err := s.ReadFile(s.ProcPath("uptime"))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Value{}, fmt.Errorf("no uptime: %w", probe.ErrUnsupported)
		}
		return model.Value{}, err
	}

	fields := strings.Fields(content)
	if len(fields) == 0 {
		return model.Null(), nil
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return model.Value{}, fmt.Errorf("malformed uptime %q: %w", fields[0], err)
	}
	return model.Int(int64(seconds)), nil
}
