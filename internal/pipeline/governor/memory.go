package governor

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/shirou/gopsutil/v4/process"
)

// processMemoryMB reads the resident set size of the current process.
func processMemoryMB() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / (1024 * 1024), nil
}

// reclaimMemory forces a garbage collection pass and returns freed heap to
// the OS. Invoked by the governor when usage approaches the ceiling.
func reclaimMemory() {
	runtime.GC()
	debug.FreeOSMemory()
}
