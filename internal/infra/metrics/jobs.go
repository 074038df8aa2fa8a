package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(workerJobsTotal, mediaFilesRemovedTotal) }

var (
	workerJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_total",
			Help: "Background jobs by pool and status.",
		},
		[]string{"pool", "status"}, // 'submitted', 'dropped', 'completed', 'failed'
	)

	mediaFilesRemovedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_files_removed_total",
			Help: "Downloaded media files removed by the janitor.",
		},
	)
)

func IncWorkerJob(pool, status string) {
	workerJobsTotal.WithLabelValues(norm(pool), norm(status)).Inc()
}

func AddMediaFilesRemoved(n int) {
	mediaFilesRemovedTotal.Add(float64(n))
}
