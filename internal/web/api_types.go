package web

// Request and response bodies for the /v1 API. Field names are part of the
// wire contract and must not change.

// SessionStartRequest is the optional body of POST /v1/session/start.
type SessionStartRequest struct {
	Workdir string `json:"workdir,omitempty"`
}

// SessionStartResponse confirms session creation.
type SessionStartResponse struct {
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
	Workdir   string `json:"workdir"`
	Message   string `json:"message"`
}

// SessionInfoResponse is one session snapshot.
type SessionInfoResponse struct {
	SessionID      string  `json:"session_id"`
	CreatedAt      string  `json:"created_at"`
	ExecutionCount int     `json:"execution_count"`
	IsClosed       bool    `json:"is_closed"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	Workdir        string  `json:"workdir"`
}

// SessionListResponse lists all active sessions.
type SessionListResponse struct {
	Sessions []SessionInfoResponse `json:"sessions"`
	Total    int                   `json:"total"`
}

// ExecRequest is the body of POST /v1/session/{id}/exec. A nil Timeout means
// the session default; 0 disables the timeout for this call.
type ExecRequest struct {
	Code    string `json:"code"`
	Timeout *int   `json:"timeout,omitempty"`
}

// ExecErrorDetail carries a structured user-code error.
type ExecErrorDetail struct {
	Ename     string   `json:"ename"`
	Evalue    string   `json:"evalue"`
	Traceback []string `json:"traceback"`
}

// ExecResponse is the result of one execution. User-code failures are
// reported here with ok=false, never as an HTTP error.
type ExecResponse struct {
	OK             bool             `json:"ok"`
	Stdout         string           `json:"stdout"`
	Stderr         string           `json:"stderr"`
	ResultRepr     *string          `json:"result_repr"`
	Error          *ExecErrorDetail `json:"error"`
	TimedOut       bool             `json:"timed_out"`
	ExecutionCount int              `json:"execution_count"`
}

// VarInfoModel describes one namespace variable.
type VarInfoModel struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Repr string `json:"repr"`
}

// VarsListResponse lists all user-visible variables.
type VarsListResponse struct {
	Variables []VarInfoModel `json:"variables"`
}

// VarsGetRequest is the body of POST /v1/session/{id}/vars/get.
type VarsGetRequest struct {
	Names []string `json:"names"`
}

// VarsGetResponse maps each requested name to its descriptor, or null if
// the name is absent from the namespace.
type VarsGetResponse struct {
	Values map[string]*VarInfoModel `json:"values"`
}

// HistoryEntryModel is one retained execution record.
type HistoryEntryModel struct {
	ExecutionCount int              `json:"execution_count"`
	Code           string           `json:"code"`
	Stdout         string           `json:"stdout"`
	Stderr         string           `json:"stderr"`
	ResultRepr     *string          `json:"result_repr"`
	Error          *ExecErrorDetail `json:"error"`
	OK             bool             `json:"ok"`
}

// HistoryResponse returns the requested entries plus the total retained.
type HistoryResponse struct {
	Entries []HistoryEntryModel `json:"entries"`
	Total   int                 `json:"total"`
}

// MessageResponse is the generic status/message body.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse is the unauthenticated health snapshot.
type HealthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	Version        string `json:"version"`
	ActiveSessions int    `json:"active_sessions"`
}

// InternalErrorResponse is the structured 500 body.
type InternalErrorResponse struct {
	Detail    string   `json:"detail"`
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	Traceback []string `json:"traceback"`
}
