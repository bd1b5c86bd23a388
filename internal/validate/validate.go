// Package validate implements the lenient, JSON-Schema-backed
// validator (component H). For a method with a registered descriptor,
// its required/optional fields and per-parameter type constraints are
// compiled into a real JSON Schema document and checked with
// santhosh-tekuri/jsonschema/v6, the same engine goadesign-goa-ai uses
// to validate tool payloads against a compiled schema. Cross-field
// rules (e.g. "chat_id+message_id OR inline_message_id") are checked
// separately, since they span multiple top-level properties rather
// than describing the shape of one.
package validate

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/compresr/bot-gateway/internal/methods"
)

// Result is the outcome of validating one invocation's parameters.
type Result struct {
	OK         bool
	Normalized map[string]any
	Details    []string
}

// Error joins Details with "; " to build the description text used in
// the failure envelope, per §4.H.
func (r Result) Error() string {
	return strings.Join(r.Details, "; ")
}

// Validate checks params against method's registered descriptor, if
// any. A method with no descriptor (or a descriptor with no schema
// fields at all) passes through unchanged for forward compatibility.
func Validate(method string, params map[string]any) Result {
	desc := methods.Lookup(method)
	if desc == nil || (len(desc.Required) == 0 && len(desc.Schemas) == 0 && len(desc.CrossField) == 0) {
		return Result{OK: true, Normalized: params}
	}

	var details []string

	schemaDoc := buildSchemaDocument(desc)
	if instanceErr := runSchema(schemaDoc, params); instanceErr != "" {
		details = append(details, instanceErr)
	}

	for _, rule := range desc.CrossField {
		if !crossFieldSatisfied(rule, params) {
			details = append(details, crossFieldMessage(rule))
		}
	}

	if len(details) > 0 {
		return Result{OK: false, Details: details}
	}
	return Result{OK: true, Normalized: params}
}

func crossFieldSatisfied(rule methods.CrossFieldRule, params map[string]any) bool {
	for _, group := range rule.AnyOf {
		satisfied := true
		for _, field := range group {
			if _, present := params[field]; !present {
				satisfied = false
				break
			}
		}
		if satisfied {
			return true
		}
	}
	return false
}

func crossFieldMessage(rule methods.CrossFieldRule) string {
	if rule.Description != "" {
		return "#: " + rule.Description
	}
	groups := make([]string, len(rule.AnyOf))
	for i, g := range rule.AnyOf {
		groups[i] = "(" + strings.Join(g, "+") + ")"
	}
	return "#: one of " + strings.Join(groups, " or ") + " is required"
}

// buildSchemaDocument renders desc into a JSON Schema document.
// additionalProperties is left unset (true) so unknown fields survive,
// per §4.H's "unknown extra fields are preserved, not rejected".
func buildSchemaDocument(desc *methods.Descriptor) map[string]any {
	properties := make(map[string]any, len(desc.Schemas))
	for name, ps := range desc.Schemas {
		properties[name] = paramSchemaToJSON(ps)
	}

	doc := map[string]any{
		"$id":        "https://gateway.internal/schemas/" + desc.Name,
		"type":       "object",
		"properties": properties,
	}
	if len(desc.Required) > 0 {
		required := make([]any, len(desc.Required))
		for i, r := range desc.Required {
			required[i] = r
		}
		doc["required"] = required
	}
	return doc
}

func paramSchemaToJSON(ps *methods.ParamSchema) map[string]any {
	out := map[string]any{}
	if ps.Type != "" {
		out["type"] = ps.Type
	}
	if len(ps.Enum) > 0 {
		enum := make([]any, len(ps.Enum))
		for i, e := range ps.Enum {
			enum[i] = e
		}
		out["enum"] = enum
	}
	if ps.Min != nil {
		out["minimum"] = *ps.Min
	}
	if ps.Max != nil {
		out["maximum"] = *ps.Max
	}
	if ps.Items != nil {
		out["items"] = paramSchemaToJSON(ps.Items)
	}
	if len(ps.Properties) > 0 {
		props := make(map[string]any, len(ps.Properties))
		for k, v := range ps.Properties {
			props[k] = paramSchemaToJSON(v)
		}
		out["properties"] = props
	}
	return out
}

// runSchema compiles doc fresh on every call (method descriptors are
// static and small; the compile cost is negligible next to the network
// round trip the pipeline is about to make) and validates instance
// against it, returning a formatted dotted-pointer message or "" on
// success.
func runSchema(doc map[string]any, instance map[string]any) string {
	id, _ := doc["$id"].(string)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, doc); err != nil {
		return fmt.Sprintf("#: internal schema error: %v", err)
	}
	schema, err := compiler.Compile(id)
	if err != nil {
		return fmt.Sprintf("#: internal schema error: %v", err)
	}

	if err := schema.Validate(instance); err != nil {
		return formatValidationError(err)
	}
	return ""
}

// formatValidationError renders a jsonschema validation failure as
// dotted-pointer messages joined by "; ". It degrades gracefully to
// err.Error() if the concrete error shape doesn't expose the causes
// this function knows how to walk.
func formatValidationError(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}

	var messages []string
	collectCauses(ve, &messages)
	if len(messages) == 0 {
		return err.Error()
	}
	return strings.Join(messages, "; ")
}

func collectCauses(ve *jsonschema.ValidationError, out *[]string) {
	if ve == nil {
		return
	}
	if len(ve.Causes) == 0 {
		loc := "#"
		if len(ve.InstanceLocation) > 0 {
			loc = "#/" + strings.Join(ve.InstanceLocation, "/")
		}
		*out = append(*out, fmt.Sprintf("%s: %v", loc, ve.ErrorKind))
		return
	}
	for _, cause := range ve.Causes {
		collectCauses(cause, out)
	}
}
