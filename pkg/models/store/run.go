package store

import "time"

type PipelineRun struct {
	ID          string
	VendorID    string
	TotalTasks  int
	SuccessWork int
	FailedWork  int
	FilteredOut int
	CreatedAt   time.Time
}

type MonthlyTotal struct {
	RunID           string
	MonthKey        string
	TotalNormalized float64
	RecordCount     int
}

type ReportFailure struct {
	RunID      string
	ReportType string
	RegionCode string
	Month      string
	Reason     string
}
