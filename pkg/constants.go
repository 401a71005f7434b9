package shared

const (
	ProjectID = "fitsync-project" // Can be overridden by env var in main if needed

	TopicExportRequests = "topic-export-requests"
	TopicExportProgress = "topic-export-progress"

	CollectionUsers         = "users"
	CollectionExecutions    = "executions"
	CollectionWorkouts      = "workouts"
	CollectionEquipment     = "equipment"
	CollectionUploadRecords = "upload_records"
)
