package tensor

import (
	"runtime"
	"sync"
)

type gemmTask struct {
	C, A, B *Mat
	bias    []float32
	cfg     GemmConfig
	rs, re  int
	done    chan struct{}
}

type gemmPool struct {
	size      int
	tasks     chan gemmTask
	doneSlots chan chan struct{}
}

var (
	gemmWorkPool *gemmPool
	gemmPoolOnce sync.Once
)

func getGemmPool() *gemmPool {
	gemmPoolOnce.Do(func() {
		gemmWorkPool = newGemmPool()
	})
	return gemmWorkPool
}

func newGemmPool() *gemmPool {
	size := runtime.GOMAXPROCS(0)
	if size < 1 {
		size = 1
	}
	p := &gemmPool{
		size:      size,
		tasks:     make(chan gemmTask, size*2),
		doneSlots: make(chan chan struct{}, size),
	}
	for i := 0; i < size; i++ {
		p.doneSlots <- make(chan struct{}, size)
	}
	for w := 0; w < size; w++ {
		go func() {
			for task := range p.tasks {
				task.run()
				task.done <- struct{}{}
			}
		}()
	}
	return p
}

func (t *gemmTask) run() {
	transBRangeRows(t.C, t.A, t.B, t.bias, t.rs, t.re, t.cfg)
}

// dispatch splits rows [0, rows) across the pool. Each output row is computed
// by exactly one worker, and the accumulation order depends only on TileK, so
// results do not depend on the worker count.
func dispatch(task gemmTask, rows, workers int) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > rows {
		workers = rows
	}
	if workers <= 1 {
		task.rs, task.re = 0, rows
		task.run()
		return
	}
	pool := getGemmPool()
	if workers > pool.size {
		workers = pool.size
	}

	chunk := (rows + workers - 1) / workers
	done := <-pool.doneSlots
	active := 0
	for w := 0; w < workers; w++ {
		rs := w * chunk
		re := min(rs+chunk, rows)
		if rs >= re {
			break
		}
		t := task
		t.rs, t.re, t.done = rs, re, done
		pool.tasks <- t
		active++
	}
	for i := 0; i < active; i++ {
		<-done
	}
	pool.doneSlots <- done
}

// MatMulTransB computes C = A * B^T (+ bias broadcast over rows when bias is
// non-nil). B is laid out like a linear layer weight: one row per output
// column of C. Tiles come from SelectGemmConfig for the product's shape.
func MatMulTransB(C, A, B *Mat, bias []float32, workers int) {
	MatMulTransBConfig(SelectGemmConfig(A.R, A.C, B.R), C, A, B, bias, workers)
}

// MatMulTransBConfig is MatMulTransB with explicit tile sizes.
func MatMulTransBConfig(cfg GemmConfig, C, A, B *Mat, bias []float32, workers int) {
	if A.C != B.C || C.R != A.R || C.C != B.R {
		panic("gemm: dimension mismatch")
	}
	if bias != nil && len(bias) != B.R {
		panic("gemm: bias length mismatch")
	}
	if C.R == 0 || C.C == 0 {
		return
	}
	cfg.TileM = clampTile(cfg.TileM, maxTileM)
	cfg.TileN = clampTile(cfg.TileN, maxTileN)
	cfg.TileK = clampTile(cfg.TileK, maxTileK)
	dispatch(gemmTask{C: C, A: A, B: B, bias: bias, cfg: cfg}, C.R, workers)
}

// transBRangeRows computes rows [rs, re) of C block by block. Each element
// accumulates its K-tiles in ascending order.
func transBRangeRows(C, A, B *Mat, bias []float32, rs, re int, cfg GemmConfig) {
	n, k := C.C, A.C
	tm, tn, tk := cfg.TileM, cfg.TileN, cfg.TileK
	for i0 := rs; i0 < re; i0 += tm {
		iMax := min(i0+tm, re)
		for j0 := 0; j0 < n; j0 += tn {
			jMax := min(j0+tn, n)
			for i := i0; i < iMax; i++ {
				clear(C.Data[i*C.Stride+j0 : i*C.Stride+jMax])
			}
			for k0 := 0; k0 < k; k0 += tk {
				kMax := min(k0+tk, k)
				blockTransB(C, A, B, i0, iMax, j0, jMax, k0, kMax)
			}
			if bias != nil {
				for i := i0; i < iMax; i++ {
					c := C.Data[i*C.Stride+j0 : i*C.Stride+jMax]
					for j := range c {
						c[j] += bias[j0+j]
					}
				}
			}
		}
	}
}

func blockTransB(C, A, B *Mat, i0, iMax, j0, jMax, k0, kMax int) {
	for i := i0; i < iMax; i++ {
		a := A.Data[i*A.Stride+k0 : i*A.Stride+kMax]
		c := C.Data[i*C.Stride+j0 : i*C.Stride+jMax]
		for j := range c {
			b := B.Data[(j0+j)*B.Stride+k0 : (j0+j)*B.Stride+kMax]
			c[j] += Dot(a, b)
		}
	}
}
