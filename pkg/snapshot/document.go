// Package snapshot saves and restores the complete state of an engine as a
// YAML document.
//
// A document looks like:
//
//	kind: chat-engine
//	description: A bot that answers questions about shapes
//	examples:
//	  - input: What is a cube?
//	    response: A solid with six square faces
//	flow-reset-text: ""
//	dialog: []
//	config:
//	  model-config:
//	    max-tokens: 1024
//	  input-prefix: 'USER:'
//	  output-prefix: 'BOT:'
//	  newline-operator: "\n"
//	  multi-turn: true
//
// Config keys are the dashed form of the engine's field names. Fields that
// are absent from config keep the engine's current values and unknown keys
// are ignored. Two keys that name the same field are an error. Only kind
// and config are required; missing examples, dialog and texts load empty.
package snapshot

import (
	"fmt"
	"sort"

	"github.com/entrhq/prompt-engine/pkg/engine"
	"github.com/entrhq/prompt-engine/pkg/logging"
	"github.com/entrhq/prompt-engine/pkg/types"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("snapshot")
	if err != nil {
		debugLog.Warnf("Failed to initialize snapshot logger, using stderr fallback: %v", err)
	}
}

// Document is the serialized form of an engine.
type Document struct {
	Kind          string              `yaml:"kind" json:"kind"`
	Description   string              `yaml:"description" json:"description"`
	Examples      []types.Interaction `yaml:"examples" json:"examples"`
	FlowResetText string              `yaml:"flow-reset-text" json:"flow-reset-text"`
	Dialog        []types.Interaction `yaml:"dialog" json:"dialog"`
	Config        map[string]any      `yaml:"config" json:"config"`
}

const (
	modelConfigField = "modelConfig"
	maxTokensField   = "maxTokens"
)

type stringField struct {
	name string
	get  func(engine.Config) string
	set  func(*engine.ConfigOverride, *string)
}

type boolField struct {
	name string
	get  func(engine.Config) bool
	set  func(*engine.ConfigOverride, *bool)
}

var stringFields = []stringField{
	{"descriptionPrefix", func(c engine.Config) string { return c.DescriptionPrefix }, func(o *engine.ConfigOverride, v *string) { o.DescriptionPrefix = v }},
	{"descriptionPostfix", func(c engine.Config) string { return c.DescriptionPostfix }, func(o *engine.ConfigOverride, v *string) { o.DescriptionPostfix = v }},
	{"inputPrefix", func(c engine.Config) string { return c.InputPrefix }, func(o *engine.ConfigOverride, v *string) { o.InputPrefix = v }},
	{"inputPostfix", func(c engine.Config) string { return c.InputPostfix }, func(o *engine.ConfigOverride, v *string) { o.InputPostfix = v }},
	{"outputPrefix", func(c engine.Config) string { return c.OutputPrefix }, func(o *engine.ConfigOverride, v *string) { o.OutputPrefix = v }},
	{"outputPostfix", func(c engine.Config) string { return c.OutputPostfix }, func(o *engine.ConfigOverride, v *string) { o.OutputPostfix = v }},
	{"newlineOperator", func(c engine.Config) string { return c.NewlineOperator }, func(o *engine.ConfigOverride, v *string) { o.NewlineOperator = v }},
}

var boolFields = []boolField{
	{"multiTurn", func(c engine.Config) bool { return c.MultiTurn }, func(o *engine.ConfigOverride, v *bool) { o.MultiTurn = v }},
	{"promptNewlineEnd", func(c engine.Config) bool { return c.PromptNewlineEnd }, func(o *engine.ConfigOverride, v *bool) { o.PromptNewlineEnd = v }},
}

// FieldNames returns the in-memory names of every config field a document
// can carry, max tokens included.
func FieldNames() []string {
	names := []string{modelConfigField, maxTokensField}
	for _, f := range stringFields {
		names = append(names, f.name)
	}
	for _, f := range boolFields {
		names = append(names, f.name)
	}
	return names
}

// Save captures the state of e.
func Save(e *engine.Engine) *Document {
	s := e.State()
	return &Document{
		Kind:          string(s.Kind),
		Description:   s.Description,
		Examples:      s.Examples,
		FlowResetText: s.FlowResetText,
		Dialog:        s.Dialog,
		Config:        encodeConfig(s.Config),
	}
}

func encodeConfig(cfg engine.Config) map[string]any {
	out := map[string]any{
		CamelToDashes(modelConfigField): map[string]any{
			CamelToDashes(maxTokensField): cfg.MaxTokens,
		},
	}
	for _, f := range stringFields {
		out[CamelToDashes(f.name)] = f.get(cfg)
	}
	for _, f := range boolFields {
		out[CamelToDashes(f.name)] = f.get(cfg)
	}
	return out
}

// Load replaces the state of e with doc. The document must carry the kind
// of e and a config mapping. On any error e is left unchanged.
func Load(e *engine.Engine, doc *Document) error {
	if doc == nil {
		return invalid("empty document")
	}
	if doc.Kind == "" {
		return invalid("missing kind")
	}
	if engine.Kind(doc.Kind) != e.Kind() {
		return invalid("kind %q cannot be loaded into a %s", doc.Kind, e.Kind())
	}
	if doc.Config == nil {
		return invalid("missing config")
	}

	override, err := decodeConfig(doc.Config)
	if err != nil {
		return err
	}
	cfg := e.Config().Merge(override)
	if err := cfg.Validate(); err != nil {
		return &InvalidFormatError{Reason: "config", Err: err}
	}

	err = e.Restore(engine.State{
		Kind:          e.Kind(),
		Description:   doc.Description,
		Examples:      doc.Examples,
		FlowResetText: doc.FlowResetText,
		Dialog:        doc.Dialog,
		Config:        cfg,
	})
	if err != nil {
		return &InvalidFormatError{Reason: "config", Err: err}
	}

	debugLog.Debugf("Loaded %s snapshot: %d examples, %d dialog turns", doc.Kind, len(doc.Examples), len(doc.Dialog))
	return nil
}

func decodeConfig(raw map[string]any) (engine.ConfigOverride, error) {
	var o engine.ConfigOverride

	strs := make(map[string]stringField, len(stringFields))
	for _, f := range stringFields {
		strs[f.name] = f
	}
	bools := make(map[string]boolField, len(boolFields))
	for _, f := range boolFields {
		bools[f.name] = f
	}

	names, err := camelNames(raw)
	if err != nil {
		return engine.ConfigOverride{}, err
	}

	var ignored []string
	for _, key := range sortedKeys(raw) {
		name, value := names[key], raw[key]

		if name == modelConfigField {
			mt, err := decodeModelConfig(key, value)
			if err != nil {
				return engine.ConfigOverride{}, err
			}
			o.MaxTokens = mt
			continue
		}
		if f, ok := strs[name]; ok {
			s, ok := value.(string)
			if !ok {
				return engine.ConfigOverride{}, invalid("config %s must be a string, got %T", key, value)
			}
			f.set(&o, &s)
			continue
		}
		if f, ok := bools[name]; ok {
			b, ok := value.(bool)
			if !ok {
				return engine.ConfigOverride{}, invalid("config %s must be a boolean, got %T", key, value)
			}
			f.set(&o, &b)
			continue
		}
		ignored = append(ignored, key)
	}

	if len(ignored) > 0 {
		sort.Strings(ignored)
		debugLog.Infof("Ignoring unknown config keys: %v", ignored)
	}
	return o, nil
}

func decodeModelConfig(key string, value any) (*int, error) {
	mc, ok := asMap(value)
	if !ok {
		return nil, invalid("config %s must be a mapping, got %T", key, value)
	}
	names, err := camelNames(mc)
	if err != nil {
		return nil, err
	}

	var maxTokens *int
	for _, k := range sortedKeys(mc) {
		if names[k] != maxTokensField {
			debugLog.Infof("Ignoring unknown config key %s.%s", key, k)
			continue
		}
		n, err := asInt(mc[k])
		if err != nil {
			return nil, invalid("config %s.%s: %v", key, k, err)
		}
		maxTokens = &n
	}
	return maxTokens, nil
}

// camelNames maps every key of m to its in-memory name. Two keys that map to
// the same name are rejected.
func camelNames(m map[string]any) (map[string]string, error) {
	names := make(map[string]string, len(m))
	owner := make(map[string]string, len(m))
	for _, key := range sortedKeys(m) {
		name := DashesToCamel(key)
		if prev, ok := owner[name]; ok {
			return nil, invalid("config keys %s and %s both map to %s", prev, key, name)
		}
		owner[name] = key
		names[key] = name
	}
	return names, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

// asInt accepts the integer shapes YAML and JSON decoders produce.
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("must be a whole number, got %v", n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("must be a number, got %T", v)
}
