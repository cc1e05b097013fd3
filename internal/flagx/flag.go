// Package flagx holds small helpers for parsing only the command-line flags
// a component owns, leaving the rest for other parsers.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// name returns the flag name of arg in single-dash form ("--pool-max=3"
// gives "-pool-max") and whether arg carried an inline value.
func name(arg string) (string, bool) {
	if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
		return "", false
	}
	n, _, inline := strings.Cut(arg, "=")
	return "-" + strings.TrimLeft(n, "-"), inline
}

// FilterArgs returns the subset of args made of allowed flags and their
// values. "-c conf.json", "-c=conf.json" and the double-dash spellings are
// recognized; a following argument that starts with "-" is never taken as
// a value. allowedFlags are given in single-dash form.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed["-"+strings.TrimLeft(f, "-")] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		n, inline := name(args[i])
		if _, ok := allowed[n]; !ok || n == "" {
			continue
		}

		filtered = append(filtered, args[i])
		if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// JSONConfigPath extracts the config file path given with -c or -config.
// An empty string means no file was requested. When both appear, the last
// one wins.
func JSONConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
