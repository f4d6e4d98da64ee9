package loader

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/espalier/pkg/domain"
)

// ParseError describes a document that could not be loaded.
// Line is 1-based when the underlying YAML parser reported one, 0 otherwise.
type ParseError struct {
	Msg  string
	Line int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
	}
	return "parse error: " + e.Msg
}

// Load parses a YAML workflow document into a domain.Workflow.
//
// It fails with a *ParseError on malformed syntax or a missing required
// field (workflow name, any state id). Defaults (version, settings,
// human-gate timeout) are applied here so the rest of the system never
// sees zero values for them.
func Load(data []byte) (*domain.Workflow, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Msg: err.Error(), Line: yamlErrorLine(err)}
	}
	if raw == nil {
		return nil, &ParseError{Msg: "empty document"}
	}

	wf := domain.Workflow{
		Version:  domain.DefaultVersion,
		Settings: domain.DefaultSettings(),
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &wf,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       durationHook,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}

	if err := applyDefaults(&wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// durationHook converts duration strings using the workflow grammar while
// mapstructure walks the document.
func durationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	return ParseTimeout(s)
}

func applyDefaults(wf *domain.Workflow) error {
	if strings.TrimSpace(wf.Name) == "" {
		return &ParseError{Msg: "workflow name is required"}
	}
	if wf.Version == "" {
		wf.Version = domain.DefaultVersion
	}
	if wf.Settings.DefaultTimeout == 0 {
		wf.Settings.DefaultTimeout = domain.DefaultTimeout
	}
	if wf.Settings.DefaultMaxIterations == 0 {
		wf.Settings.DefaultMaxIterations = domain.DefaultMaxIterations
	}
	if wf.Settings.CheckpointDirectory == "" {
		wf.Settings.CheckpointDirectory = domain.DefaultCheckpointDirectory
	}

	for i := range wf.States {
		state := &wf.States[i]
		if strings.TrimSpace(state.ID) == "" {
			return &ParseError{Msg: fmt.Sprintf("state %d is missing an id", i)}
		}
		state.Type = normalizeStateType(state.Type)
		if state.Trigger != nil {
			state.Trigger.Type = strings.ToLower(strings.TrimSpace(state.Trigger.Type))
		}
		if state.HumanGate != nil {
			if state.HumanGate.ApprovalMode == "" {
				state.HumanGate.ApprovalMode = domain.DefaultApprovalMode
			}
			if state.HumanGate.Timeout == 0 {
				state.HumanGate.Timeout = domain.DefaultHumanGateTimeout
			}
		}
	}
	return nil
}

func normalizeStateType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	// "end" is a documented alias for terminal.
	if t == "end" {
		return domain.StateTypeTerminal
	}
	return t
}

// yamlErrorLine extracts a line number from a yaml.v3 error when present.
func yamlErrorLine(err error) int {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		var line int
		if _, scanErr := fmt.Sscanf(typeErr.Errors[0], "line %d:", &line); scanErr == nil {
			return line
		}
	}
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
		return line
	}
	return 0
}
