/*
Package workers sizes goroutine pools from GOMAXPROCS.

runtime.NumCPU reports the host's CPUs even inside a container with a CPU
limit; GOMAXPROCS follows the cgroup quota. Pools sized from it avoid
oversubscribing a pod that only has two cores on a sixty-four core node.

	limit := workers.ForMixed(cfg.MaxWorkers) // initial scan
	sem := semaphore.NewWeighted(int64(workers.ForIO(cfg.MaxConcurrent)))

The multipliers are 1.0 (CPU), 2.0 (I/O) and 1.5 (mixed). Setting
INGEST_WORKERS overrides the computed count for every pool, still subject to
each caller's cap:

	env:
	- name: INGEST_WORKERS
	  value: "4"
*/
package workers
