package handlers

// Stable error codes returned in the ErrorResponse envelope. Generic codes
// mirror HTTP status semantics; the rest name the failed operation.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	ErrCodeCreateFailed  = "create_failed"
	ErrCodeListFailed    = "list_failed"
	ErrCodeDeleteFailed  = "delete_failed"
	ErrCodeSearchFailed  = "search_failed"
	ErrCodeChatFailed    = "chat_failed"
	ErrCodeExportFailed  = "export_failed"
	ErrCodeImportFailed  = "import_failed"
	ErrCodeRestoreFailed = "restore_failed"
	ErrCodeRepairFailed  = "repair_failed"
)
