package snapshot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/prompt-engine/pkg/engine"
	"github.com/entrhq/prompt-engine/pkg/types"
)

// Marshal encodes the state of e as YAML.
func Marshal(e *engine.Engine) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Save(e)); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalYAML builds the node tree for d. Strings with leading or trailing
// whitespace are written double quoted: yaml.v3 emits a bare "\n" as a
// keep-chomped block scalar that does not decode back to "\n".
func (d Document) MarshalYAML() (any, error) {
	cfg, err := valueNode(d.Config)
	if err != nil {
		return nil, err
	}
	return mappingNode(
		"kind", stringNode(d.Kind),
		"description", stringNode(d.Description),
		"examples", interactionsNode(d.Examples),
		"flow-reset-text", stringNode(d.FlowResetText),
		"dialog", interactionsNode(d.Dialog),
		"config", cfg,
	), nil
}

// mappingNode pairs keys with values; kv alternates string keys and *yaml.Node values.
func mappingNode(kv ...any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Content = append(n.Content, stringNode(kv[i].(string)), kv[i+1].(*yaml.Node))
	}
	return n
}

func stringNode(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if s != strings.TrimSpace(s) {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

func interactionsNode(list []types.Interaction) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	if len(list) == 0 {
		n.Style = yaml.FlowStyle
	}
	for _, i := range list {
		n.Content = append(n.Content, mappingNode(
			"input", stringNode(i.Input),
			"response", stringNode(i.Response),
		))
	}
	return n
}

func valueNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case string:
		return stringNode(val), nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(val)}, nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(val)}, nil
	case map[string]any:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range sortedKeys(val) {
			child, err := valueNode(val[k])
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, stringNode(k), child)
		}
		return n, nil
	}

	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return n, nil
}

// Unmarshal decodes a YAML document and loads it into e.
func Unmarshal(e *engine.Engine, data []byte) error {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &InvalidFormatError{Reason: "decode", Err: err}
	}
	return Load(e, &doc)
}

// WriteFile saves e to path. The file is written to a temporary sibling
// first and renamed into place.
func WriteFile(path string, e *engine.Engine) error {
	data, err := Marshal(e)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp snapshot file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp snapshot file: %w", err)
	}

	debugLog.Debugf("Wrote snapshot to %s (%d bytes)", path, len(data))
	return nil
}

// ReadFile loads the snapshot stored at path into e.
func ReadFile(path string, e *engine.Engine) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := Unmarshal(e, data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Open creates an engine of the kind recorded in the snapshot at path and
// loads the snapshot into it. opts are applied before loading, so they can
// supply settings a snapshot does not carry, such as the token counter.
func Open(path string, opts ...engine.Option) (*engine.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, &InvalidFormatError{Reason: "decode", Err: err})
	}
	if doc.Kind == "" {
		return nil, fmt.Errorf("%s: %w", path, invalid("missing kind"))
	}

	e, err := engine.NewOfKind(engine.Kind(doc.Kind), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, &InvalidFormatError{Reason: "kind", Err: err})
	}
	if err := Load(e, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}
