//go:build !unix

package resources

import "time"

// cpuTime has no portable source outside unix; callers see zero CPU deltas.
func cpuTime() time.Duration { return 0 }
