package adapter

import (
	"os"
	"path/filepath"
	"strings"
)

// defaultAdapters maps a target program's file extension to the external
// debug-adapter executable and arguments AdapterCommandFor returns, per
// spec.md §4.2 "the proxy selects an adapter executable based on the
// target language". The mapping is overridable via COG_DEBUG_ADAPTER_<EXT> environment
// variables so operators can point at a locally installed adapter
// without rebuilding, mirroring the env-var configuration style of
// registry/cmd/registry/main.go in the teacher.
var defaultAdapters = map[string][]string{
	".go":  {"dlv", "dap"},
	".py":  {"python3", "-m", "debugpy.adapter"},
	".js":  {"node", "--inspect-brk=0"},
	".ts":  {"node", "--inspect-brk=0"},
	".c":   {"lldb-dap"},
	".cc":  {"lldb-dap"},
	".cpp": {"lldb-dap"},
	".rs":  {"lldb-dap"},
}

// AdapterCommandFor returns the executable + args to spawn for program,
// selected by its file extension. An explicit override (non-empty)
// always wins.
func AdapterCommandFor(program string, override []string) ([]string, error) {
	if len(override) > 0 {
		return override, nil
	}
	ext := strings.ToLower(filepath.Ext(program))
	envKey := "COG_DEBUG_ADAPTER_" + strings.ToUpper(strings.TrimPrefix(ext, "."))
	if v := os.Getenv(envKey); v != "" {
		return strings.Fields(v), nil
	}
	if cmd, ok := defaultAdapters[ext]; ok {
		return append([]string(nil), cmd...), nil
	}
	return nil, errUnknownLanguage(ext)
}

type errUnknownLanguage string

func (e errUnknownLanguage) Error() string {
	return "no debug adapter registered for file extension " + string(e)
}
