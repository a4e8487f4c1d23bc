package tracker

import (
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// JobArgs are the arguments of a crawl job.
type JobArgs struct {
	// Domain is the normalized name of the domain to crawl.
	Domain string `json:"domain" river:"unique"`

	maxAttempts int
}

func (args JobArgs) Kind() string { return "CrawlDomainJob" }

// InsertOpts keeps at most one unfinished crawl per domain. Completed jobs are
// left out of the unique states so a refresh can queue a new crawl.
func (args JobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
