package config

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the merged configs a CachedLoader keeps.
const DefaultCacheSize = 128

// MergedCache holds merged configs. *lru.Cache[string, *MergedConfig]
// satisfies it.
type MergedCache interface {
	Get(key string) (*MergedConfig, bool)
	Add(key string, merged *MergedConfig) bool
	Remove(key string) bool
	Keys() []string
	Purge()
}

// NewLRUCache returns a bounded MergedCache. size <= 0 means DefaultCacheSize.
func NewLRUCache(size int) MergedCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *MergedConfig](size)
	if err != nil {
		// lru.New only fails on a non-positive size
		panic(err)
	}
	return c
}

// CachedLoader memoizes Loader.GetForDir per profile and local config file.
type CachedLoader struct {
	loader *Loader
	cache  MergedCache
}

// NewCachedLoader wraps loader. A nil cache gets a default LRU.
func NewCachedLoader(loader *Loader, cache MergedCache) *CachedLoader {
	if cache == nil {
		cache = NewLRUCache(0)
	}
	return &CachedLoader{loader: loader, cache: cache}
}

// GetForDir returns the merged config for an analysis root.
//
// The local file lookup is not cached, so a .codeverse.yaml created after
// the first call is picked up at once. Edits to an existing file need
// InvalidateLocalConfig.
func (cl *CachedLoader) GetForDir(dir string, global *GlobalConfig) (*MergedConfig, error) {
	local, err := cl.loader.FindLocal(dir)
	if err != nil {
		return nil, err
	}

	key := mergedKey(global.ActiveProfile, local)
	if merged, ok := cl.cache.Get(key); ok {
		return merged, nil
	}

	merged, err := cl.loader.GetForDir(dir, global)
	if err != nil {
		return nil, err
	}
	cl.cache.Add(key, merged)
	return merged, nil
}

// InvalidateLocalConfig drops every entry built from configPath,
// whichever profile it was merged with.
func (cl *CachedLoader) InvalidateLocalConfig(configPath string) {
	if configPath == "" {
		return
	}
	suffix := "|" + configPath
	for _, key := range cl.cache.Keys() {
		if strings.HasSuffix(key, suffix) {
			cl.cache.Remove(key)
		}
	}
}

// ClearCache drops all entries.
func (cl *CachedLoader) ClearCache() {
	cl.cache.Purge()
}

// mergedKey is "<profile>|<local config path>"; the path is empty when
// the tree has no local file.
func mergedKey(profile, local string) string {
	return profile + "|" + local
}
