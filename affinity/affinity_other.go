//go:build !linux

package affinity

func probe() (Controller, bool) { return nil, false }
