package store

import "github.com/c360/termgraph/rf2"

// FileStats is the per-file line accounting reported after a load.
type FileStats struct {
	Path  string    `json:"path"`
	Stats rf2.Stats `json:"stats"`
}

// LoadStats aggregates what happened during loading. Non-fatal anomalies
// (decode errors, dangling references) surface here rather than as load
// failures.
type LoadStats struct {
	ReleaseDate        string               `json:"release_date"`
	Files              map[string]FileStats `json:"files"`
	DanglingReferences int                  `json:"dangling_references"`
}

func newLoadStats() LoadStats {
	return LoadStats{Files: make(map[string]FileStats)}
}

// TotalLinesRead sums lines read across all files.
func (ls LoadStats) TotalLinesRead() int {
	total := 0
	for _, f := range ls.Files {
		total += f.Stats.LinesRead
	}
	return total
}

// TotalAccepted sums accepted records across all files.
func (ls LoadStats) TotalAccepted() int {
	total := 0
	for _, f := range ls.Files {
		total += f.Stats.RecordsAccepted
	}
	return total
}

// TotalDecodeErrors sums decode-dropped rows across all files.
func (ls LoadStats) TotalDecodeErrors() int {
	total := 0
	for _, f := range ls.Files {
		total += f.Stats.RecordsDroppedByDecodeError
	}
	return total
}
