package build

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Output directory layout:
//
//	outDir/
//	  .linkplan-cache.json   # configure stamps: "<target>-<profile>" → buildEntry
//	  build/                 # cmake binary dir
//	  include/
//	  lib/ lib64/ bin/
const cacheFile = ".linkplan-cache.json"

// buildEntry records the options of the last successful configure.
type buildEntry struct {
	Fingerprint   string    `json:"fingerprint"`
	ConfigureTime time.Time `json:"configure_time"`
}

// buildCache maps "<target>-<profile>" keys to their configure stamps.
type buildCache struct {
	Cache map[string]*buildEntry `json:"cache"`
}

func (c *buildCache) get(key string) (*buildEntry, bool) {
	entry, ok := c.Cache[key]
	return entry, ok
}

func (c *buildCache) set(key string, entry *buildEntry) {
	if c.Cache == nil {
		c.Cache = make(map[string]*buildEntry)
	}
	c.Cache[key] = entry
}

// fingerprint identifies a configure invocation by its arguments.
func fingerprint(args []string) string {
	sum := sha256.Sum256([]byte(strings.Join(args, "\x00")))
	return hex.EncodeToString(sum[:])
}

func loadCache(path string) (*buildCache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cache buildCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	return &cache, nil
}

func saveCache(path string, cache *buildCache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
