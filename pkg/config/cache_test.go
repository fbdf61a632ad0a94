package config

import (
	"testing"
)

const cacheGlobalYAML = `
version: "1"
active_profile: "web"
profiles:
  web:
    exclude_dirs: ["vendor"]
  strict:
    exclude_dirs: ["vendor", "dist"]
    blacklist: [".*\\.min\\.js$"]
`

func newCacheFixture(t *testing.T) (*memFS, *Loader, *GlobalConfig) {
	t.Helper()
	fs := newMemFS()
	fs.homeDir = "/home/testuser"
	fs.add("/home/testuser/.codeverse/config.yaml", cacheGlobalYAML)

	loader := NewLoader(fs)
	global, err := loader.LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	return fs, loader, global
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	cache := NewLRUCache(2)
	cache.Add("a", &MergedConfig{ProfileName: "a"})
	cache.Add("b", &MergedConfig{ProfileName: "b"})
	cache.Get("a")
	cache.Add("c", &MergedConfig{ProfileName: "c"})

	if _, ok := cache.Get("b"); ok {
		t.Error("least recently used entry should be evicted")
	}
	for _, key := range []string{"a", "c"} {
		if got, ok := cache.Get(key); !ok || got.ProfileName != key {
			t.Errorf("Get(%q) = %v, %v", key, got, ok)
		}
	}
}

func TestNewLRUCacheDefaultSize(t *testing.T) {
	cache := NewLRUCache(0)
	for i := 0; i < DefaultCacheSize+1; i++ {
		cache.Add(string(rune('A'+i%64))+string(rune('a'+i/64)), &MergedConfig{})
	}
	if n := len(cache.Keys()); n != DefaultCacheSize {
		t.Errorf("len(Keys) = %d, want %d", n, DefaultCacheSize)
	}
}

func TestCachedLoaderReusesAndInvalidates(t *testing.T) {
	fs, loader, global := newCacheFixture(t)
	fs.add("/home/testuser/project/.codeverse.yaml", `exclude_dirs: ["fixtures"]`)
	cl := NewCachedLoader(loader, nil)

	first, err := cl.GetForDir("/home/testuser/project/src", global)
	if err != nil {
		t.Fatalf("GetForDir: %v", err)
	}
	if len(first.ExcludeDirs) != 2 {
		t.Errorf("ExcludeDirs = %v, want vendor and fixtures", first.ExcludeDirs)
	}

	again, err := cl.GetForDir("/home/testuser/project", global)
	if err != nil {
		t.Fatalf("GetForDir: %v", err)
	}
	if again != first {
		t.Error("second lookup under the same local file should hit the cache")
	}

	// Local file edited on disk.
	fs.add("/home/testuser/project/.codeverse.yaml", `exclude_dirs: ["fixtures", "tmp"]`)
	cl.InvalidateLocalConfig("/home/testuser/project/.codeverse.yaml")

	fresh, err := cl.GetForDir("/home/testuser/project/lib", global)
	if err != nil {
		t.Fatalf("GetForDir: %v", err)
	}
	if fresh == first {
		t.Fatal("expected a reload after invalidation")
	}
	if len(fresh.ExcludeDirs) != 3 {
		t.Errorf("ExcludeDirs = %v, want 3 entries", fresh.ExcludeDirs)
	}
}

func TestCachedLoaderInvalidateCoversAllProfiles(t *testing.T) {
	fs, loader, global := newCacheFixture(t)
	fs.add("/srv/app/.codeverse.yaml", `exclude_dirs: ["fixtures"]`)
	cl := NewCachedLoader(loader, nil)

	web, _ := cl.GetForDir("/srv/app", global)
	if err := global.Select("strict"); err != nil {
		t.Fatal(err)
	}
	strict, _ := cl.GetForDir("/srv/app", global)
	if web == strict {
		t.Fatal("profiles should not share a cache entry")
	}

	cl.InvalidateLocalConfig("/srv/app/.codeverse.yaml")
	strictAgain, _ := cl.GetForDir("/srv/app", global)
	if strictAgain == strict {
		t.Error("strict entry survived invalidation")
	}
	if err := global.Select("web"); err != nil {
		t.Fatal(err)
	}
	webAgain, _ := cl.GetForDir("/srv/app", global)
	if webAgain == web {
		t.Error("web entry survived invalidation")
	}
}

func TestCachedLoaderNoLocalConfig(t *testing.T) {
	_, loader, global := newCacheFixture(t)
	cl := NewCachedLoader(loader, nil)

	a, err := cl.GetForDir("/srv/a", global)
	if err != nil {
		t.Fatalf("GetForDir: %v", err)
	}
	b, _ := cl.GetForDir("/srv/b", global)
	if a != b {
		t.Error("trees without a local file should share the profile entry")
	}

	if err := global.Select("strict"); err != nil {
		t.Fatal(err)
	}
	strict, _ := cl.GetForDir("/srv/a", global)
	if strict == a {
		t.Error("switching profile should use a different entry")
	}
	if strict.ProfileName != "strict" {
		t.Errorf("ProfileName = %s, want strict", strict.ProfileName)
	}
}

func TestCachedLoaderSeesNewLocalFile(t *testing.T) {
	fs, loader, global := newCacheFixture(t)
	cl := NewCachedLoader(loader, nil)

	before, _ := cl.GetForDir("/srv/app", global)
	fs.add("/srv/app/.codeverse.yaml", `exclude_dirs: ["generated"]`)
	after, err := cl.GetForDir("/srv/app", global)
	if err != nil {
		t.Fatalf("GetForDir: %v", err)
	}
	if after == before {
		t.Fatal("new local file should not be served from the profile entry")
	}
	if len(after.ExcludeDirs) != 2 {
		t.Errorf("ExcludeDirs = %v, want vendor and generated", after.ExcludeDirs)
	}
}

func TestClearCache(t *testing.T) {
	cache := NewLRUCache(4)
	cl := NewCachedLoader(NewLoader(newMemFS()), cache)
	cache.Add("web|", &MergedConfig{})
	cache.Add("web|/srv/.codeverse.yaml", &MergedConfig{})

	cl.ClearCache()
	if n := len(cache.Keys()); n != 0 {
		t.Errorf("%d entries left after ClearCache", n)
	}
}
