//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// maxCPUs matches CPU_SETSIZE.
const maxCPUs = 1024

type schedAffinity struct {
	cpus []int
}

func probe() (Controller, bool) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, false
	}

	cpus := make([]int, 0, set.Count())
	for cpu := 0; cpu < maxCPUs && len(cpus) < set.Count(); cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}

	if len(cpus) == 0 {
		return nil, false
	}

	return &schedAffinity{cpus: cpus}, true
}

func (s *schedAffinity) Supported() bool { return true }

func (s *schedAffinity) CPUs() []int { return s.cpus }

// Pin applies to the calling thread only; pid 0 selects it.
func (s *schedAffinity) Pin(slot int) error {
	if slot < 0 {
		return fmt.Errorf("pin slot %d: negative slot", slot)
	}

	cpu := s.cpus[slot%len(s.cpus)]

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("pin to cpu %d: %w", cpu, err)
	}

	return nil
}
