package store

// Run queries
const (
	queryInsertRun = `
		INSERT INTO runs (id, workload, workers, chunk_size, size, parameters, status, result, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdateRun = `
		UPDATE runs SET
			workers = ?,
			status = ?,
			result = ?,
			error = ?,
			finished_at = ?
		WHERE id = ?`
)

var runColumns = []string{
	"id",
	"workload",
	"workers",
	"chunk_size",
	"size",
	"parameters",
	"status",
	"result",
	"error",
	"started_at",
	"finished_at",
}
