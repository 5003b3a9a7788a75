package dto

// MergeResult reports what a merge touched.
type MergeResult struct {
	KeepID         int64 `json:"keep_id"`
	DropID         int64 `json:"drop_id"`
	MovedRecords   int64 `json:"moved_records"`
	DroppedRecords int64 `json:"dropped_records"` // drop's rows at shops keep already had
	HistoryDeleted int64 `json:"history_deleted"`
	DealsDeleted   int64 `json:"deals_deleted"`
}
