package engine

import (
	"os"
	"sync"
)

// cwdMu is the process-wide chdir arbiter. The working directory is
// process-global state, so at most one execution may hold the "process cwd
// = session workdir" window at a time; everything else about sessions runs
// in parallel.
var cwdMu sync.Mutex

// pinCwd runs fn with the process working directory set to dir, restoring
// the previous directory afterwards no matter how fn terminates.
func pinCwd(dir string, fn func()) error {
	cwdMu.Lock()
	defer cwdMu.Unlock()
	prev, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := os.Chdir(dir); err != nil {
		return err
	}
	defer os.Chdir(prev) //nolint:errcheck
	fn()
	return nil
}
