package sysprobe

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/hostprint/hostprint/internal/model"
	"github.com/hostprint/hostprint/internal/probe"
)

// dmiFields are the DMI identity files worth fingerprinting. Serial files
// are excluded here: they usually require root and are covered by the
// machine_uuid probe's fallbacks.
var dmiFields = []string{
	"sys_vendor",
	"product_name",
	"product_family",
	"board_vendor",
	"board_name",
	"chassis_type",
}

// machineUUIDLocations lists product UUID locations in preference order.
var machineUUIDLocations = []string{
	"class/dmi/id/product_uuid",
	"devices/virtual/dmi/id/product_uuid",
}

// virtualInterfacePrefixes lists interface name prefixes for virtual, VPN,
// bridge, and container interfaces. These appear and disappear as software
// is installed or connections start, so they are excluded for stability.
var virtualInterfacePrefixes = []string{
	"tun", "tap", "ipsec", "ppp", "wg",
	"docker", "br-", "veth", "virbr", "vnet", "vmnet",
	"bridge", "bond", "dummy", "lo",
	"vnic", "vboxnet",
}

// virtualBlockPrefixes lists block device names that are not physical
// disks.
var virtualBlockPrefixes = []string{"loop", "ram", "zram", "dm-", "sr", "fd", "md"}

// oemPlaceholders are vendor strings that mean "not filled in" rather than
// a real identity. Treated as absent.
var oemPlaceholders = map[string]bool{
	"to be filled by o.e.m.": true,
	"default string":         true,
	"none":                   true,
	"system product name":    true,
	"system manufacturer":    true,
	"not specified":          true,
	"unknown":                true,
}

// probeDMI reads firmware-reported identity from the DMI table.
func probeDMI(_ context.Context, s *probe.Session) (model.Value, error) {
	dir := s.SysPath("class", "dmi", "id")
	if _, err := os.Stat(dir); err != nil {
		return model.Value{}, fmt.Errorf("no dmi table: %w", probe.ErrUnsupported)
	}

	fields := make(map[string]model.Value)
	for _, name := range dmiFields {
		content, err := s.ReadFile(filepath.Join(dir, name))
		if err != nil || content == "" {
			continue
		}
		if oemPlaceholders[strings.ToLower(content)] {
			continue
		}
		fields[name] = model.String(content)
	}

	if len(fields) == 0 {
		return model.Null(), nil
	}
	return model.Map(fields), nil
}

// probeMachineUUID reads the firmware product UUID, trying each known
// location. The file is typically root-only; permission denied means the
// capability is unavailable to this process, not that the probe broke.
func probeMachineUUID(_ context.Context, s *probe.Session) (model.Value, error) {
	var lastErr error
	for _, loc := range machineUUIDLocations {
		content, err := s.ReadFile(s.SysPath(strings.Split(loc, "/")...))
		if err == nil && content != "" {
			return model.String(strings.ToLower(content)), nil
		}
		lastErr = err
	}

	if lastErr != nil && os.IsPermission(lastErr) {
		return model.Value{}, fmt.Errorf("product uuid requires elevated privileges: %w", probe.ErrUnsupported)
	}
	return model.Value{}, fmt.Errorf("no product uuid: %w", probe.ErrUnsupported)
}

// probeMachineID reads the systemd machine ID.
func probeMachineID(_ context.Context, s *probe.Session) (model.Value, error) {
	content, err := s.ReadFile(s.EtcPath("machine-id"))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Value{}, fmt.Errorf("no machine-id: %w", probe.ErrUnsupported)
		}
		return model.Value{}, err
	}
	if content == "" {
		return model.Null(), nil
	}
	return model.String(content), nil
}

// probeCPU parses CPU identity from cpuinfo. The session memo means the
// single cpuinfo read is shared with any other probe that needs it.
func probeCPU(_ context.Context, s *probe.Session) (model.Value, error) {
	content, err := s.ReadFile(s.ProcPath("cpuinfo"))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Value{}, fmt.Errorf("no cpuinfo: %w", probe.ErrUnsupported)
		}
		return model.Value{}, err
	}

	fields := parseCPUInfo(content)
	if len(fields) == 0 {
		return model.Null(), nil
	}
	return model.Map(fields), nil
}

// parseCPUInfo extracts the identity fields of the first processor entry.
// Per-core lines repeat the same identity, so the first occurrence of each
// key wins.
func parseCPUInfo(content string) map[string]model.Value {
	wanted := map[string]string{
		"vendor_id":  "vendor",
		"cpu family": "family",
		"model":      "model",
		"model name": "model_name",
		"stepping":   "stepping",
	}

	fields := make(map[string]model.Value)
	var flags []string

	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if out, ok := wanted[key]; ok {
			if _, exists := fields[out]; !exists && value != "" {
				fields[out] = model.String(value)
			}
			continue
		}
		if key == "flags" && flags == nil {
			flags = strings.Fields(value)
		}
	}

	if flags != nil {
		sort.Strings(flags)
		fields["flags"] = model.StringList(flags...)
	}

	return fields
}

// probeMemory reads installed memory in kilobytes. MemTotal is fixed for a
// given physical configuration, unlike the availability counters next to
// it.
func probeMemory(_ context.Context, s *probe.Session) (model.Value, error) {
	content, err := s.ReadFile(s.ProcPath("meminfo"))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Value{}, fmt.Errorf("no meminfo: %w", probe.ErrUnsupported)
		}
		return model.Value{}, err
	}

	total, ok := meminfoField(content, "MemTotal")
	if !ok {
		return model.Null(), nil
	}
	return model.Int(total), nil
}

// meminfoField extracts a kB-valued meminfo field.
func meminfoField(content, name string) (int64, bool) {
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != name {
			continue
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return 0, false
		}
		n, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// probeMACAddresses lists MAC addresses of physical network interfaces.
// Virtual, VPN, bridge, and container interfaces are excluded: their set
// changes with installed software, not with hardware.
func probeMACAddresses(context.Context, *probe.Session) (model.Value, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return model.Value{}, err
	}

	var macs []string
	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		if isVirtualInterface(iface.Name) {
			continue
		}
		macs = append(macs, iface.HardwareAddr.String())
	}

	sort.Strings(macs)
	return model.StringList(macs...), nil
}

// isVirtualInterface reports whether the interface name matches a known
// virtual, VPN, or bridge prefix.
func isVirtualInterface(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// probeBlockDevices lists physical block devices with model and serial.
// Sysfs is the primary source; when it yields nothing (common in
// containers), lsblk through the session runner is the fallback. Device
// names are deliberately omitted: enumeration order can renumber sdX across
// boots while model and serial stay put.
func probeBlockDevices(ctx context.Context, s *probe.Session) (model.Value, error) {
	devices := blockDevicesFromSysfs(s)
	if len(devices) == 0 {
		devices = blockDevicesFromLsblk(ctx, s)
	}

	return model.List(devices...), nil
}

// blockDevicesFromSysfs reads model and serial under /sys/block.
func blockDevicesFromSysfs(s *probe.Session) []model.Value {
	entries, err := os.ReadDir(s.SysPath("block"))
	if err != nil {
		return nil
	}

	var devices []model.Value
	for _, entry := range entries {
		if isVirtualBlockDevice(entry.Name()) {
			continue
		}

		fields := make(map[string]model.Value)
		for _, attr := range []string{"model", "serial", "wwid"} {
			content, err := s.ReadFile(s.SysPath("block", entry.Name(), "device", attr))
			if err != nil || content == "" {
				continue
			}
			fields[attr] = model.String(content)
		}
		if len(fields) > 0 {
			devices = append(devices, model.Map(fields))
		}
	}
	return devices
}

// blockDevicesFromLsblk parses `lsblk -dn -o NAME,MODEL,SERIAL` output.
func blockDevicesFromLsblk(ctx context.Context, s *probe.Session) []model.Value {
	out, err := s.Runner().Run(ctx, "lsblk", "-dn", "-o", "NAME,MODEL,SERIAL")
	if err != nil {
		return nil
	}

	var devices []model.Value
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || isVirtualBlockDevice(fields[0]) {
			continue
		}

		dev := map[string]model.Value{"model": model.String(fields[1])}
		if len(fields) >= 3 {
			dev["serial"] = model.String(fields[2])
		}
		devices = append(devices, model.Map(dev))
	}
	return devices
}

// isVirtualBlockDevice reports whether a block device name is a
// non-physical device.
func isVirtualBlockDevice(name string) bool {
	for _, prefix := range virtualBlockPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// probeGPU lists PCI vendor:device identifiers of DRM-exposed GPUs.
func probeGPU(_ context.Context, s *probe.Session) (model.Value, error) {
	entries, err := os.ReadDir(s.SysPath("class", "drm"))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Value{}, fmt.Errorf("no drm class: %w", probe.ErrUnsupported)
		}
		return model.Value{}, err
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		// Only top-level cards; card0-DP-1 style connector entries repeat
		// the parent device.
		if !strings.HasPrefix(name, "card") || strings.Contains(name, "-") {
			continue
		}

		vendor, err := s.ReadFile(s.SysPath("class", "drm", name, "device", "vendor"))
		if err != nil {
			continue
		}
		device, err := s.ReadFile(s.SysPath("class", "drm", name, "device", "device"))
		if err != nil {
			continue
		}
		seen[strings.TrimPrefix(vendor, "0x")+":"+strings.TrimPrefix(device, "0x")] = true
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return model.StringList(ids...), nil
}

// probeBattery reads battery charge state. Volatile: collected for
// visibility, rejected from hashing.
func probeBattery(_ context.Context, s *probe.Session) (model.Value, error) {
	entries, err := os.ReadDir(s.SysPath("class", "power_supply"))
	if err != nil {
		return model.Value{}, fmt.Errorf("no power supply class: %w", probe.ErrUnsupported)
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "BAT") {
			continue
		}
		capacity, err := s.ReadFile(s.SysPath("class", "power_supply", entry.Name(), "capacity"))
		if err != nil {
			continue
		}
		n, err := strconv.ParseInt(capacity, 10, 64)
		if err != nil {
			continue
		}
		status, _ := s.ReadFile(s.SysPath("class", "power_supply", entry.Name(), "status"))
		return model.Map(map[string]model.Value{
			"capacity": model.Int(n),
			"status":   model.String(status),
		}), nil
	}

	return model.Value{}, fmt.Errorf("no battery: %w", probe.ErrUnsupported)
}

// probeMemoryUsage reads the available-memory ratio. Volatile.
func probeMemoryUsage(_ context.Context, s *probe.Session) (model.Value, error) {
	content, err := s.ReadFile(s.ProcPath("meminfo"))
	if err != nil {
		return model.Value{}, fmt.Errorf("no meminfo: %w", probe.ErrUnsupported)
	}

	total, ok1 := meminfoField(content, "MemTotal")
	available, ok2 := meminfoField(content, "MemAvailable")
	if !ok1 || !ok2 || total == 0 {
		return model.Null(), nil
	}
	return model.Float(float64(available) / float64(total)), nil
}

// probeStorageUsage reads the root filesystem usage ratio. Volatile.
func probeStorageUsage(context.Context, *probe.Session) (model.Value, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs("/", &stat); err != nil {
		return model.Value{}, err
	}
	if stat.Blocks == 0 {
		return model.Null(), nil
	}
	used := float64(stat.Blocks-stat.Bfree) / float64(stat.Blocks)
	return model.Float(used), nil
}

// probeNetworkActivity sums interface byte counters. Volatile.
func probeNetworkActivity(_ context.Context, s *probe.Session) (model.Value, error) {
	content, err := s.ReadFile(s.ProcPath("net", "dev"))
	if err != nil {
		return model.Value{}, fmt.Errorf("no net dev counters: %w", probe.ErrUnsupported)
	}

	var rx, tx int64
	for _, line := range strings.Split(content, "\n") {
		_, stats, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields := strings.Fields(stats)
		if len(fields) < 9 {
			continue
		}
		if n, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
			rx += n
		}
		if n, err := strconv.ParseInt(fields[8], 10, 64); err == nil {
			tx += n
		}
	}

	return model.Map(map[string]model.Value{
		"rx_bytes": model.Int(rx),
		"tx_bytes": model.Int(tx),
	}), nil
}
