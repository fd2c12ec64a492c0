// Package engine holds the native engine's process-wide bootstrap state:
// the configuration registry and the shared memory allocator used when no
// dedicated cache is registered.
package engine

import (
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ditgittube/gluten/pkg/logger"
)

var (
	mu        sync.RWMutex
	settings  *viper.Viper
	allocator memory.Allocator = memory.DefaultAllocator
)

// Init registers a flat string configuration mapping. Keys may use dotted
// sections ("shuffle.max_rows"); later calls replace the registry.
func Init(conf map[string]string) error {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range conf {
		v.Set(key, value)
	}

	mu.Lock()
	settings = v
	mu.Unlock()

	logger.Debug("engine configuration registered", zap.Int("keys", len(conf)))
	return nil
}

// Settings returns the configuration registry, initializing an empty one on
// first use.
func Settings() *viper.Viper {
	mu.RLock()
	v := settings
	mu.RUnlock()
	if v != nil {
		return v
	}

	mu.Lock()
	defer mu.Unlock()
	if settings == nil {
		settings = viper.New()
	}
	return settings
}

// Allocator returns the shared memory allocator. It defaults to the
// process-wide allocator singleton when no cache is registered.
func Allocator() memory.Allocator {
	mu.RLock()
	defer mu.RUnlock()
	return allocator
}

// SetAllocator registers a shared cache-backed allocator.
func SetAllocator(a memory.Allocator) {
	if a == nil {
		a = memory.DefaultAllocator
	}
	mu.Lock()
	allocator = a
	mu.Unlock()
}
