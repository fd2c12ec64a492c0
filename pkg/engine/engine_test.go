package engine

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

func TestInitAndSettings(t *testing.T) {
	require.NoError(t, Init(map[string]string{
		"shuffle.max_rows": "8192",
		"format":           "Parquet",
	}))

	v := Settings()
	require.Equal(t, 8192, v.GetInt("shuffle.max_rows"))
	require.Equal(t, "Parquet", v.GetString("format"))
	require.Empty(t, v.GetString("absent"))

	// A later Init replaces the registry.
	require.NoError(t, Init(map[string]string{"format": "Arrow"}))
	require.Equal(t, "Arrow", Settings().GetString("format"))
	require.Zero(t, Settings().GetInt("shuffle.max_rows"))
}

func TestAllocatorDefaultsAndOverride(t *testing.T) {
	require.Equal(t, memory.DefaultAllocator, Allocator())

	custom := memory.NewGoAllocator()
	SetAllocator(custom)
	require.Equal(t, memory.Allocator(custom), Allocator())

	SetAllocator(nil)
	require.Equal(t, memory.DefaultAllocator, Allocator())
}
