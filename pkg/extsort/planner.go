package extsort

// MemoryProbe reports available memory in bytes; ok is false when the
// figure could not be determined.
type MemoryProbe func() (bytes uint64, ok bool)

const (
	// LargeFileThreshold is the largest input sorted as a single chunk.
	LargeFileThreshold int64 = 4 << 30
	// SmallFileThreshold is the input size below which chunks are not
	// split into sub-chunks.
	SmallFileThreshold int64 = 1 << 20
	// MemoryMultiplier divides available memory into a chunk size. A sort
	// holds the chunk's lines plus string headers, the quicksort working
	// set and merge buffers, so it needs several times the raw bytes.
	MemoryMultiplier uint64 = 5
	// FallbackChunkSize is used when available memory is unknown.
	FallbackChunkSize int64 = 2 << 30
)

// PlannerConfig parameterizes PlanChunks. Zero fields take the package
// defaults; the Force fields override the computed counts.
type PlannerConfig struct {
	LargeFileThreshold int64
	SmallFileThreshold int64
	MemoryMultiplier   uint64
	FallbackChunkSize  int64

	// SubChunks is the sub-chunk count for inputs at or above
	// SmallFileThreshold.
	SubChunks int

	ForceChunkCount int
	ForceSubChunks  int
}

// DefaultPlannerConfig returns the planner defaults.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		LargeFileThreshold: LargeFileThreshold,
		SmallFileThreshold: SmallFileThreshold,
		MemoryMultiplier:   MemoryMultiplier,
		FallbackChunkSize:  FallbackChunkSize,
		SubChunks:          defaultSubChunks(),
	}
}

func (c PlannerConfig) withDefaults() PlannerConfig {
	d := DefaultPlannerConfig()
	if c.LargeFileThreshold <= 0 {
		c.LargeFileThreshold = d.LargeFileThreshold
	}
	if c.SmallFileThreshold <= 0 {
		c.SmallFileThreshold = d.SmallFileThreshold
	}
	if c.MemoryMultiplier == 0 {
		c.MemoryMultiplier = d.MemoryMultiplier
	}
	if c.FallbackChunkSize <= 0 {
		c.FallbackChunkSize = d.FallbackChunkSize
	}
	if c.SubChunks <= 0 {
		c.SubChunks = d.SubChunks
	}
	return c
}

// Plan is the chunking decision for one input.
type Plan struct {
	ChunkCount int
	SubChunks  int

	// ChunkSize is the byte budget of one disk chunk (inputSize/ChunkCount).
	// Chunks close on the first line that reaches it.
	ChunkSize int64

	// MemoryBytes is what the probe returned; MemoryReliable is false when
	// the probe failed or was not consulted.
	MemoryBytes    uint64
	MemoryReliable bool
}

// PlanChunks decides chunk and sub-chunk counts for an input of inputSize
// bytes. It does no I/O; the probe is only called for inputs above the
// large-file threshold.
func PlanChunks(inputSize int64, probe MemoryProbe, cfg PlannerConfig) Plan {
	cfg = cfg.withDefaults()
	inputSize = max(inputSize, 0)

	var p Plan
	switch {
	case cfg.ForceChunkCount > 0:
		p.ChunkCount = cfg.ForceChunkCount
	case inputSize <= cfg.LargeFileThreshold:
		p.ChunkCount = 1
	default:
		chunkSize := cfg.FallbackChunkSize
		if probe != nil {
			if mem, ok := probe(); ok && mem > 0 {
				p.MemoryBytes, p.MemoryReliable = mem, true
				chunkSize = int64(mem / cfg.MemoryMultiplier)
			}
		}
		chunkSize = max(chunkSize, 1)
		p.ChunkCount = int(max(inputSize/chunkSize, 1))
	}

	switch {
	case cfg.ForceSubChunks > 0:
		p.SubChunks = cfg.ForceSubChunks
	case inputSize < cfg.SmallFileThreshold:
		p.SubChunks = 1
	default:
		p.SubChunks = cfg.SubChunks
	}

	p.ChunkSize = max(inputSize/int64(p.ChunkCount), 1)
	return p
}
