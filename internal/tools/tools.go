// Package tools defines the catalogue of database tools and turns tool arguments into executor requests.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/gaussdb/gaussdb-mcp/internal/executor"
	"github.com/gaussdb/gaussdb-mcp/internal/rest/types"
)

// ErrUnknownTool is returned when calling a tool that is not in the catalogue.
var ErrUnknownTool = errors.New("Unknown tool")

// Runner executes a single request. It is implemented by *executor.Executor.
type Runner interface {
	Run(ctx context.Context, req executor.Request) (string, error)
}

// tool binds a tool definition to the operation it runs.
type tool struct {
	types.Tool

	op      executor.Operation
	request func(args map[string]any) (executor.Request, error)
}

// Catalog holds every tool and dispatches calls to a Runner.
type Catalog struct {
	runner Runner
	tools  map[string]tool
}

// NewCatalog returns the catalogue of database tools backed by runner.
func NewCatalog(runner Runner) *Catalog {
	c := &Catalog{
		runner: runner,
		tools:  make(map[string]tool, len(definitions)),
	}

	for _, t := range definitions {
		c.tools[t.Name] = t
	}

	return c
}

// List returns every tool definition, sorted by name.
func (c *Catalog) List() []types.Tool {
	list := make([]types.Tool, 0, len(c.tools))
	for _, t := range c.tools {
		list = append(list, t.Tool)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	return list
}

// Get returns the definition of the named tool.
func (c *Catalog) Get(name string) (types.Tool, error) {
	t, ok := c.tools[name]
	if !ok {
		return types.Tool{}, fmt.Errorf("%w %q", ErrUnknownTool, name)
	}

	return t.Tool, nil
}

// Call decodes args for the named tool and runs it. Argument errors are reported as validation failures of
// the tool's operation.
func (c *Catalog) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := c.tools[name]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownTool, name)
	}

	req, err := t.decode(args)
	if err != nil {
		return "", &executor.Error{Kind: executor.KindValidation, Op: t.op, Table: tableArg(args), Err: err}
	}

	return c.runner.Run(ctx, req)
}

func (t tool) decode(args map[string]any) (executor.Request, error) {
	// The argument structs are shared between tools, so undeclared arguments are caught here.
	for name := range args {
		_, ok := t.InputSchema.Properties[name]
		if !ok {
			return executor.Request{}, fmt.Errorf("Unexpected argument %q", name)
		}
	}

	for _, name := range t.InputSchema.Required {
		_, ok := args[name]
		if !ok {
			return executor.Request{}, fmt.Errorf("Missing required argument %q", name)
		}
	}

	return t.request(args)
}

// decodeArgs copies args into target, rejecting unknown arguments and mismatched types.
func decodeArgs(args map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      target,
	})
	if err != nil {
		return err
	}

	err = decoder.Decode(args)
	if err != nil {
		return fmt.Errorf("Invalid arguments: %w", err)
	}

	return nil
}

// exactValues replaces JSON numbers decoded with UseNumber by int64 when they fit, by their decimal text
// when they are integers too large for int64, and by float64 otherwise.
func exactValues(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = exactValue(v)
	}

	return out
}

func exactValue(v any) any {
	switch v := v.(type) {
	case json.Number:
		i, err := v.Int64()
		if err == nil {
			return i
		}

		if !strings.ContainsAny(v.String(), ".eE") {
			// The server casts the text to the column's numeric type.
			return v.String()
		}

		f, err := v.Float64()
		if err != nil {
			return v.String()
		}

		return f
	case map[string]any:
		return exactValues(v)
	case []any:
		out := make([]any, 0, len(v))
		for _, e := range v {
			out = append(out, exactValue(e))
		}

		return out
	}

	return v
}

// tableArg extracts a printable target for argument errors.
func tableArg(args map[string]any) string {
	for _, key := range []string{"table_name", "db_name"} {
		name, ok := args[key].(string)
		if ok {
			return name
		}
	}

	return ""
}
