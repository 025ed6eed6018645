package types

// Tool describes a callable tool and the JSON schema of its arguments.
type Tool struct {
	Name        string      `json:"name"        yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	InputSchema InputSchema `json:"inputSchema" yaml:"input_schema"`
}

// InputSchema is the JSON schema of a tool's arguments object.
type InputSchema struct {
	Type       string              `json:"type"               yaml:"type"`
	Properties map[string]Property `json:"properties"         yaml:"properties"`
	Required   []string            `json:"required,omitempty" yaml:"required,omitempty"`
}

// Property is the JSON schema of a single tool argument.
type Property struct {
	Type        string `json:"type"        yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

// ToolCall represents the arguments of a tool invocation.
type ToolCall struct {
	Arguments map[string]any `json:"arguments" yaml:"arguments"`
}

// ToolResult represents the text returned by a successful tool invocation.
type ToolResult struct {
	Text string `json:"text" yaml:"text"`
}
