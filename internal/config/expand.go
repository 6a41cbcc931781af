package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// ExpandPaths expands $VAR, ${VAR} and a leading ~ in every path setting.
// S3 roots are expanded too but never turned into absolute paths.
func (config *Config) ExpandPaths(lookup Lookup) error {
	if lookup == nil {
		lookup = os.Getenv
	}
	targets := []struct {
		name  string
		value *string
	}{
		{name: "wake_word.path", value: &config.WakeWord.Path},
		{name: "general.path", value: &config.General.Path},
		{name: "output.root", value: &config.Output.Root},
		{name: "statistics.cache_path", value: &config.Statistics.CachePath},
		{name: "statistics.ffprobe", value: &config.Statistics.FFProbe},
	}
	for _, target := range targets {
		expanded, err := expandPath(*target.value, lookup)
		if err != nil {
			return fmt.Errorf("%w: expand %s %q: %w", ErrConfiguration, target.name, *target.value, err)
		}
		*target.value = expanded
	}
	return nil
}

func expandPath(raw string, lookup Lookup) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home := lookup("HOME")
		if home == "" {
			resolved, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			home = resolved
		}
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	return shell.Expand(value, lookup)
}
