package scheduler

import "github.com/tastythames/ssh-probe/internal/inventory"

// Job is one inventory target queued for collection. Name and Labels come
// from the embedded target.
type Job struct {
	inventory.Target
	Local bool
}

// JobsFromInventory turns every inventory target into a job.
func JobsFromInventory(inv *inventory.Inventory) []Job {
	jobs := make([]Job, 0, len(inv.Targets))
	for _, t := range inv.Targets {
		jobs = append(jobs, Job{Target: t, Local: t.Mode == "local"})
	}
	return jobs
}
