package pipeline

import (
	"github.com/BegaDeveloper/wwcorpus/internal/audioprobe"
	"github.com/BegaDeveloper/wwcorpus/internal/config"
)

// NewProber builds the duration prober described by settings. The returned
// close function releases the duration cache, if one was opened.
func NewProber(settings config.Statistics) (audioprobe.Prober, func() error, error) {
	var prober audioprobe.Prober = audioprobe.Auto{FFProbe: audioprobe.FFProbe{Binary: settings.FFProbe}}
	if settings.CachePath == "" {
		return prober, func() error { return nil }, nil
	}
	cache, err := audioprobe.OpenCache(settings.CachePath, prober)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache.Close, nil
}
