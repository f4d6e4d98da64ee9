package domain

import "time"

// StateType constants define the control flow behavior of a state.
const (
	// StateTypeStart is a no-op entry point.
	StateTypeStart = "start"
	// StateTypeAgent invokes a single named executor.
	StateTypeAgent = "agent"
	// StateTypeParallel fans out to multiple executors and joins all of them.
	StateTypeParallel = "parallel"
	// StateTypeHumanGate pauses until an external approval decision arrives.
	StateTypeHumanGate = "human_gate"
	// StateTypeEscalation signals an unrecoverable condition to the host.
	StateTypeEscalation = "escalation"
	// StateTypeTerminal completes the execution.
	StateTypeTerminal = "terminal"
)

// TriggerType constants identify the built-in trigger evaluators.
const (
	TriggerFileExists        = "file_exists"
	TriggerDirectoryNotEmpty = "directory_not_empty"
	TriggerImmediate         = "immediate"
	// TriggerExpression is declared in the document grammar but has no
	// runtime evaluator yet. Loading it succeeds; executing it fails.
	TriggerExpression = "expression"
)

// Workflow is the immutable definition of a state machine.
// It can be constructed structurally invalid; internal/validator detects
// broken references before execution, not the type itself.
type Workflow struct {
	Name        string     `json:"name" yaml:"name" mapstructure:"name"`
	Version     string     `json:"version,omitempty" yaml:"version,omitempty" mapstructure:"version"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Agents      []AgentRef `json:"agents,omitempty" yaml:"agents,omitempty" mapstructure:"agents"`
	States      []State    `json:"states" yaml:"states" mapstructure:"states"`
	Settings    Settings   `json:"settings,omitempty" yaml:"settings,omitempty" mapstructure:"settings"`
}

// AgentRef declares an executor the workflow intends to use.
type AgentRef struct {
	Ref   string `json:"ref" yaml:"ref" mapstructure:"ref"`
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty" mapstructure:"alias"`
}

// State is one node of the machine.
type State struct {
	ID   string `json:"id" yaml:"id" mapstructure:"id"`
	Type string `json:"type" yaml:"type" mapstructure:"type"`

	// Executor names the single step for agent states.
	Executor string `json:"executor,omitempty" yaml:"executor,omitempty" mapstructure:"executor"`
	// Executors names the fan-out steps for parallel states.
	Executors []string `json:"executors,omitempty" yaml:"executors,omitempty" mapstructure:"executors"`

	// Trigger optionally gates entry into this state.
	Trigger *Trigger `json:"trigger,omitempty" yaml:"trigger,omitempty" mapstructure:"trigger"`

	// Next is the default transition target when no condition matches.
	Next string `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`
	// Conditions are evaluated in declared order; first match wins.
	Conditions []Transition `json:"conditions,omitempty" yaml:"conditions,omitempty" mapstructure:"conditions"`

	HumanGate *HumanGate `json:"human_gate,omitempty" yaml:"human_gate,omitempty" mapstructure:"human_gate"`

	MaxIterations int           `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty" mapstructure:"max_iterations"`
	Timeout       time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// Trigger is a precondition gating entry into a state.
type Trigger struct {
	Type       string `json:"type" yaml:"type" mapstructure:"type"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty" mapstructure:"expression"`
}

// Transition is a conditional edge out of a state.
// If is an expression string; empty means "always" unless IsDefault marks
// this entry as the explicit fallback.
type Transition struct {
	If        string `json:"if,omitempty" yaml:"if,omitempty" mapstructure:"if"`
	Then      string `json:"then" yaml:"then" mapstructure:"then"`
	IsDefault bool   `json:"else,omitempty" yaml:"else,omitempty" mapstructure:"else"`
}

// HumanGate configures an approval pause.
type HumanGate struct {
	ApprovalMode string        `json:"approval_mode,omitempty" yaml:"approval_mode,omitempty" mapstructure:"approval_mode"`
	Timeout      time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
	OnApprove    string        `json:"on_approve,omitempty" yaml:"on_approve,omitempty" mapstructure:"on_approve"`
	OnReject     string        `json:"on_reject,omitempty" yaml:"on_reject,omitempty" mapstructure:"on_reject"`
	NotifyEmail  string        `json:"notify_email,omitempty" yaml:"notify_email,omitempty" mapstructure:"notify_email"`
}

// Settings holds workflow-wide execution defaults.
type Settings struct {
	DefaultTimeout       time.Duration `json:"default_timeout,omitempty" yaml:"default_timeout,omitempty" mapstructure:"default_timeout"`
	DefaultMaxIterations int           `json:"default_max_iterations,omitempty" yaml:"default_max_iterations,omitempty" mapstructure:"default_max_iterations"`
	EnableCheckpointing  bool          `json:"enable_checkpointing" yaml:"enable_checkpointing" mapstructure:"enable_checkpointing"`
	CheckpointDirectory  string        `json:"checkpoint_directory,omitempty" yaml:"checkpoint_directory,omitempty" mapstructure:"checkpoint_directory"`
}

// Defaults applied by the loader when the document omits them.
const (
	DefaultVersion             = "1.0"
	DefaultTimeout             = 30 * time.Minute
	DefaultMaxIterations       = 5
	DefaultApprovalMode        = "always_require"
	DefaultHumanGateTimeout    = 24 * time.Hour
	DefaultCheckpointDirectory = ".espalier/checkpoints"
)

// DefaultSettings returns the settings a document gets when its settings
// block is absent.
func DefaultSettings() Settings {
	return Settings{
		DefaultTimeout:       DefaultTimeout,
		DefaultMaxIterations: DefaultMaxIterations,
		EnableCheckpointing:  true,
		CheckpointDirectory:  DefaultCheckpointDirectory,
	}
}

// StateByID returns the state with the given id, or nil if absent.
func (w *Workflow) StateByID(id string) *State {
	for i := range w.States {
		if w.States[i].ID == id {
			return &w.States[i]
		}
	}
	return nil
}

// StartStateID returns the id of the entry state: the first state typed
// "start", falling back to the first declared state.
func (w *Workflow) StartStateID() string {
	for i := range w.States {
		if w.States[i].Type == StateTypeStart {
			return w.States[i].ID
		}
	}
	if len(w.States) > 0 {
		return w.States[0].ID
	}
	return ""
}

// HasTerminal reports whether any state is terminal-typed.
func (w *Workflow) HasTerminal() bool {
	for i := range w.States {
		if w.States[i].Type == StateTypeTerminal {
			return true
		}
	}
	return false
}

// AgentAliases returns the set of declared executor names (alias when set,
// otherwise ref).
func (w *Workflow) AgentAliases() map[string]bool {
	aliases := make(map[string]bool, len(w.Agents))
	for _, a := range w.Agents {
		name := a.Alias
		if name == "" {
			name = a.Ref
		}
		if name != "" {
			aliases[name] = true
		}
	}
	return aliases
}
