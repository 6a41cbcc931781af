package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "WWCORPUS_"

// Lookup resolves one environment variable. os.Getenv satisfies it.
type Lookup func(key string) string

func resolveString(key string, lookup Lookup) string {
	if lookup == nil {
		lookup = os.Getenv
	}
	return strings.TrimSpace(lookup(EnvPrefix + key))
}

func resolveBool(key string, lookup Lookup) (bool, bool, error) {
	raw := resolveString(key, lookup)
	switch strings.ToLower(raw) {
	case "":
		return false, false, nil
	case "1", "true", "yes", "on":
		return true, true, nil
	case "0", "false", "no", "off":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("%w: %s%s=%q is not a boolean", ErrConfiguration, EnvPrefix, key, raw)
	}
}

func resolveInt(key string, lookup Lookup) (int, bool, error) {
	raw := resolveString(key, lookup)
	if raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s%s=%q is not an integer", ErrConfiguration, EnvPrefix, key, raw)
	}
	return value, true, nil
}

// SplitList splits a comma separated word list. Words keep their inner and
// leading spaces so " hey" stays a word-start match; empty items are dropped.
func SplitList(raw string) []string {
	words := []string{}
	for _, word := range strings.Split(raw, ",") {
		if strings.TrimSpace(word) == "" {
			continue
		}
		words = append(words, strings.TrimRight(word, " \t"))
	}
	return words
}

// ApplyEnv overlays WWCORPUS_* variables on config.
func (config *Config) ApplyEnv(lookup Lookup) error {
	if value := resolveString("WAKE_WORD_PATH", lookup); value != "" {
		config.WakeWord.Path = value
	}
	if value := resolveString("GENERAL_PATH", lookup); value != "" {
		config.General.Path = value
	}
	if value := resolveString("OUTPUT_ROOT", lookup); value != "" {
		config.Output.Root = value
	}
	if value := resolveString("SPLIT_TYPE", lookup); value != "" {
		config.WakeWord.SplitType = value
	}
	if value := resolveString("CACHE_PATH", lookup); value != "" {
		config.Statistics.CachePath = value
	}
	if lookup == nil {
		lookup = os.Getenv
	}
	if raw := lookup(EnvPrefix + "TARGET_WORDS"); strings.TrimSpace(raw) != "" {
		config.Subsample.TargetWords = SplitList(raw)
	}

	if value, ok, err := resolveInt("FILTER_PCT", lookup); err != nil {
		return err
	} else if ok {
		config.Subsample.FilterPct = value
	}
	if value, ok, err := resolveInt("TARGET_PCT", lookup); err != nil {
		return err
	} else if ok {
		config.Subsample.TargetPct = value
	}
	if value, ok, err := resolveBool("SKIP_LENGTH", lookup); err != nil {
		return err
	} else if ok {
		config.Statistics.SkipLength = value
	}
	return nil
}
