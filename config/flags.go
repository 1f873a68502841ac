package config

import "github.com/spf13/pflag"

// RegisterFlags adds the flags Load understands to f
func RegisterFlags(f *pflag.FlagSet) {
	f.StringP("configuration", "c", "", "build configuration (e.g. Debug, Release)")
	f.StringP("platform", "p", "", "build platform (e.g. AnyCPU, x64)")
	f.Bool("subfolders", true, "scan output directories recursively")
	f.StringSlice("include", nil, "include wildcard patterns (default *<binary-ext>)")
	f.StringSlice("exclude", nil, "exclude wildcard patterns")
	f.String("binary-ext", ".dll", "binary file extension")
	f.String("symbol-ext", ".pdb", "debug symbol file extension")
	f.String("link-mode", "symlink", "how to place artifacts: symlink or copy")
}
