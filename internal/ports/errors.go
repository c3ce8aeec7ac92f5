package ports

import "errors"

// ErrCacheMiss is returned by CacheRepository.Get for absent keys
var ErrCacheMiss = errors.New("cache miss")
