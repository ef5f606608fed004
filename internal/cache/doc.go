// Package cache provides a small thread-safe LRU cache with a soft limit.
//
//	c := cache.New[string, []byte](8)
//	code, err := c.GetOrCreate("VsMain:vs_5_0", compile)
//
// When the cache grows past its soft limit the least recently used quarter
// of the entries is evicted. Failed creations are not cached.
package cache
