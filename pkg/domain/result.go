package domain

// ExecutorResult is what an agent executor returns for one invocation.
type ExecutorResult struct {
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// Decision is an approval outcome delivered to a waiting human gate.
type Decision struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`
}
