package matcher

// Stats reports lightweight matcher metrics.
// All fields are best-effort snapshots and may be updated concurrently.
type Stats struct {
	Version   string // policy version
	Rules     int    // destination and indicator rules, fixed schemes included
	Capacity  int    // configured cache capacity (0 for disabled cache)
	Size      int    // current number of cached decisions
	Hits      uint64 // total cache hits since construction
	Misses    uint64 // total cache misses since construction
	Evictions uint64 // total evictions since construction
}
