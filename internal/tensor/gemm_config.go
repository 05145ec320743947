package tensor

import "golang.org/x/sys/cpu"

// Tuned for the benchmark shape (256^3).
const (
	defaultTileM = 32
	defaultTileN = 32
	defaultTileK = 16

	maxTileM = 64
	maxTileN = 64
	maxTileK = 64
)

// GemmConfig holds the cache-blocking tile sizes used by MatMulTransB.
type GemmConfig struct {
	TileM int `json:"tile_m"`
	TileN int `json:"tile_n"`
	TileK int `json:"tile_k"`
}

// DefaultGemmConfig returns the untuned tile sizes.
func DefaultGemmConfig() GemmConfig {
	return GemmConfig{
		TileM: defaultTileM,
		TileN: defaultTileN,
		TileK: defaultTileK,
	}
}

// SelectGemmConfig picks tile sizes for an (m x k) * (k x n) product.
// TileK depends only on k and the CPU, so products sharing an inner
// dimension accumulate in the same order whatever m and n are.
// Wider vector units get a deeper K tile.
func SelectGemmConfig(m, k, n int) GemmConfig {
	cfg := DefaultGemmConfig()

	switch {
	case k >= 192:
		cfg.TileK = 32
	case k >= 96:
		cfg.TileK = 24
	}
	if cpu.X86.HasAVX512F && k >= 256 {
		cfg.TileK = 48
	}
	if n < cfg.TileN {
		cfg.TileN = max(n, 1)
	}
	if m < cfg.TileM {
		cfg.TileM = max(m, 1)
	}

	cfg.TileM = clampTile(cfg.TileM, maxTileM)
	cfg.TileN = clampTile(cfg.TileN, maxTileN)
	cfg.TileK = clampTile(cfg.TileK, maxTileK)

	return cfg
}

func clampTile(v, max int) int {
	if v < 1 {
		return 1
	}
	if v > max {
		return max
	}
	return v
}

// CPUFeatures reports the SIMD extensions visible to the process.
func CPUFeatures() map[string]bool {
	return map[string]bool{
		"AVX":     cpu.X86.HasAVX,
		"AVX2":    cpu.X86.HasAVX2,
		"FMA":     cpu.X86.HasFMA,
		"AVX512F": cpu.X86.HasAVX512F,
		"ASIMD":   cpu.ARM64.HasASIMD,
		"SVE":     cpu.ARM64.HasSVE,
	}
}
