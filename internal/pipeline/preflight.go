package pipeline

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"cinescope/internal/config"
)

// minFreeBytes is the least free space the data directory filesystem needs
// before a run will start writing canonical records and audit payloads.
const minFreeBytes = 64 << 20

// CheckResult reports the outcome of a single preflight check.
type CheckResult struct {
	Name   string
	Passed bool
	Detail string
}

// Preflight validates the environment before an enrichment run: the data
// directory must be writable with headroom, and at least one provider must
// be usable.
func Preflight(cfg *config.Config) []CheckResult {
	if cfg == nil {
		return nil
	}
	return []CheckResult{
		checkDirectoryAccess("Data directory", cfg.Paths.DataDir),
		checkDiskSpace("Disk space", cfg.Paths.DataDir),
		checkProviders(cfg),
	}
}

// PreflightOK reports whether every check passed.
func PreflightOK(results []CheckResult) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

func checkDirectoryAccess(name, path string) CheckResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return CheckResult{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func checkDiskSpace(name, path string) CheckResult {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return CheckResult{Name: name, Detail: fmt.Sprintf("%d MiB free, need %d MiB", free>>20, int64(minFreeBytes)>>20)}
	}
	return CheckResult{Name: name, Passed: true, Detail: fmt.Sprintf("%d MiB free", free>>20)}
}

func checkProviders(cfg *config.Config) CheckResult {
	const name = "Providers"
	configured := make([]string, 0, 4)
	if cfg.TMDB.APIKey != "" {
		configured = append(configured, "tmdb")
	}
	if cfg.OMDB.APIKey != "" {
		configured = append(configured, "omdb")
	}
	if cfg.DogDie.APIKey != "" {
		configured = append(configured, "dogdie")
	}
	if cfg.Wikidata.Enabled {
		configured = append(configured, "wikidata")
	}
	if len(configured) == 0 {
		return CheckResult{Name: name, Detail: "no provider configured; set at least one api key"}
	}
	if cfg.TMDB.APIKey == "" {
		return CheckResult{Name: name, Detail: "tmdb api key missing; title matching requires it"}
	}
	return CheckResult{Name: name, Passed: true, Detail: fmt.Sprintf("%d configured", len(configured))}
}
