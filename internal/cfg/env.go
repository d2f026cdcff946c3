package cfg

import (
	"runtime"
	"strconv"
	"strings"
)

// Target describes the compilation target derived from a target triple.
type Target struct {
	Triple       string
	Arch         string
	Vendor       string
	OS           string
	Env          string
	Family       string
	PointerWidth int
	Endian       string
}

// Env is the set of enabled predicates.
type Env struct {
	Features map[string]bool
	Target   Target

	noTest bool
}

// NewEnv returns an environment for the given triple and enabled features.
func NewEnv(triple string, features []string) *Env {
	env := &Env{Features: make(map[string]bool, len(features)), Target: ParseTarget(triple)}
	for _, f := range features {
		env.Features[f] = true
	}
	return env
}

func (env *Env) hasFlag(key string) bool {
	switch key {
	case "test":
		return !env.noTest
	case "debug_assertions":
		return true
	case "unix", "windows":
		return env.Target.Family == key
	}
	return false
}

func (env *Env) hasPair(key, value string) bool {
	t := env.Target
	switch key {
	case "feature":
		return env.Features[value]
	case "target_os":
		return t.OS == value
	case "target_family":
		return t.Family == value
	case "target_arch":
		return t.Arch == value
	case "target_env":
		return t.Env == value
	case "target_vendor":
		return t.Vendor == value
	case "target_endian":
		return t.Endian == value
	case "target_pointer_width":
		return strconv.Itoa(t.PointerWidth) == value
	case "panic":
		return value == "unwind"
	}
	return false
}

// Enabled evaluates a list of cfg predicates, which must all hold.
// Predicates that fail to parse count as enabled so a typo never hides code.
func (env *Env) Enabled(cfgs []string) bool {
	for _, c := range cfgs {
		e, err := Parse(c)
		if err != nil {
			continue
		}
		if !e.Eval(env) {
			return false
		}
	}
	return true
}

// IsTestOnly reports whether a predicate can only hold in test builds, i.e.
// it is false once the test flag is cleared.
func (env *Env) IsTestOnly(c string) bool {
	e, err := Parse(c)
	if err != nil {
		return false
	}
	return e.Eval(env) && !e.Eval(env.withoutTest())
}

func (env *Env) withoutTest() *Env {
	return &Env{Features: env.Features, Target: env.Target, noTest: true}
}

var pointerWidths = map[string]int{
	"x86_64":      64,
	"aarch64":     64,
	"powerpc64":   64,
	"powerpc64le": 64,
	"riscv64gc":   64,
	"s390x":       64,
	"mips64":      64,
	"loongarch64": 64,
	"wasm64":      64,
	"i686":        32,
	"i586":        32,
	"arm":         32,
	"armv7":       32,
	"thumbv7em":   32,
	"riscv32imac": 32,
	"wasm32":      32,
	"mips":        32,
	"powerpc":     32,
}

var bigEndian = map[string]bool{
	"powerpc":   true,
	"powerpc64": true,
	"s390x":     true,
	"mips":      true,
	"mips64":    true,
	"sparc64":   true,
}

// ParseTarget splits a triple of the form arch-vendor-os[-env].
func ParseTarget(triple string) Target {
	parts := strings.Split(triple, "-")
	t := Target{Triple: triple, PointerWidth: 64, Endian: "little"}
	if len(parts) > 0 {
		t.Arch = parts[0]
	}
	switch len(parts) {
	case 2:
		t.OS = parts[1]
	case 3:
		t.Vendor, t.OS = parts[1], parts[2]
	default:
		if len(parts) >= 4 {
			t.Vendor, t.OS, t.Env = parts[1], parts[2], parts[3]
		}
	}

	switch t.OS {
	case "darwin":
		t.OS = "macos"
	case "unknown":
		t.OS = "none"
	}

	switch t.OS {
	case "linux", "macos", "ios", "android", "freebsd", "netbsd", "openbsd", "dragonfly", "solaris", "illumos", "fuchsia":
		t.Family = "unix"
	case "windows":
		t.Family = "windows"
	}
	if strings.HasPrefix(t.Arch, "wasm") {
		t.Family = "wasm"
	}

	if strings.HasPrefix(t.Arch, "armv7") || strings.HasPrefix(t.Arch, "thumbv") {
		t.Arch, t.PointerWidth = "arm", 32
	} else if w, ok := pointerWidths[t.Arch]; ok {
		t.PointerWidth = w
	}
	if t.Arch == "i686" || t.Arch == "i586" {
		t.Arch = "x86"
	}
	if strings.HasPrefix(t.Arch, "riscv64") {
		t.Arch = "riscv64"
	}
	if bigEndian[t.Arch] {
		t.Endian = "big"
	}
	return t
}

// HostTriple returns the triple of the machine running the tool.
func HostTriple() string {
	arch := map[string]string{
		"amd64":   "x86_64",
		"arm64":   "aarch64",
		"386":     "i686",
		"arm":     "armv7",
		"riscv64": "riscv64gc",
		"ppc64le": "powerpc64le",
		"s390x":   "s390x",
	}[runtime.GOARCH]
	if arch == "" {
		arch = runtime.GOARCH
	}

	switch runtime.GOOS {
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return arch + "-pc-windows-msvc"
	case "linux":
		if arch == "armv7" {
			return "armv7-unknown-linux-gnueabihf"
		}
		return arch + "-unknown-linux-gnu"
	}
	return arch + "-unknown-" + runtime.GOOS
}
