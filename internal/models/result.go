package models

// Save targets.
const (
	TargetLocal = "local"
	TargetCloud = "cloud"
)

// SaveResult is the value returned by every public orchestrator operation.
// Raw errors never escape to the caller: Message is the single user-facing
// string, Err keeps the typed cause for callers that want errors.Is/As.
type SaveResult struct {
	Success bool   `json:"success"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

func LocalSave() SaveResult {
	return SaveResult{Success: true, Target: TargetLocal}
}

func CloudSave() SaveResult {
	return SaveResult{Success: true, Target: TargetCloud}
}

func Failed(msg string, err error) SaveResult {
	return SaveResult{Success: false, Message: msg, Err: err}
}
