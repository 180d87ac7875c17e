// Package compose assembles validated knowledge modules and the invocation
// topic into one ordered payload. Composition is pure and total: per-module
// failures become skip records in the result, never errors.
package compose

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/knolhq/knol/pkg/invocation"
	"github.com/knolhq/knol/pkg/store"
	"github.com/knolhq/knol/pkg/validate"
)

// ArgumentsPlaceholder is replaced with the invocation topic inside included
// module content.
const ArgumentsPlaceholder = "$ARGUMENTS"

// SkipReason explains why a referenced module contributed nothing to the
// payload.
type SkipReason string

const (
	// SkipNotFound means the store holds no module for the identifier.
	SkipNotFound SkipReason = "not_found"
	// SkipInvalid means the module failed structural validation.
	SkipInvalid SkipReason = "invalid"
	// SkipDuplicate means an earlier token already included the identifier.
	SkipDuplicate SkipReason = "duplicate"
)

// Resolution pairs a reference token with its store lookup outcome. Exactly
// one of Module and Err is set; Err is a store.NotFoundError.
type Resolution struct {
	Token  invocation.ReferenceToken
	Module *store.Module
	Err    error
}

// Result is the output of one composition. IncludedModules preserves the
// first-appearance order of the reference tokens.
type Result struct {
	Payload         string                `json:"payload" yaml:"payload"`
	IncludedModules []string              `json:"includedModules" yaml:"includedModules"`
	SkippedModules  map[string]SkipReason `json:"skippedModules" yaml:"skippedModules"`
}

// Compose builds the payload from the invocation topic and the resolved
// modules, in original token order. Modules that were not found, failed
// validation, or repeat an already-included identifier are recorded in
// SkippedModules. Inclusion is strict: an invalid module contributes no
// content at all.
func Compose(inv *invocation.Invocation, resolutions []Resolution, reports map[string]validate.Report) *Result {
	result := &Result{
		IncludedModules: []string{},
		SkippedModules:  map[string]SkipReason{},
	}

	var parts []string
	if inv.Topic != "" {
		parts = append(parts, inv.Topic)
	}

	included := make(map[string]bool)
	for _, res := range resolutions {
		if res.Err != nil {
			result.SkippedModules[skippedIdentifier(res)] = SkipNotFound
			continue
		}

		id := res.Module.Identifier
		if included[id] {
			result.SkippedModules[id] = SkipDuplicate
			continue
		}

		// A module without a validation report is excluded: inclusion
		// requires a passing report.
		report, ok := reports[id]
		if !ok || !report.Valid() {
			result.SkippedModules[id] = SkipInvalid
			continue
		}

		content := strings.TrimRight(res.Module.RawContent, "\n")
		content = strings.ReplaceAll(content, ArgumentsPlaceholder, inv.Topic)
		parts = append(parts, content)
		result.IncludedModules = append(result.IncludedModules, id)
		included[id] = true
	}

	result.Payload = strings.Join(parts, "\n\n")
	return result
}

// skippedIdentifier extracts the identifier to record for a failed
// resolution, falling back to the raw token when the error carries none.
func skippedIdentifier(res Resolution) string {
	var nfe store.NotFoundError
	if errors.As(res.Err, &nfe) && nfe.Identifier != "" {
		return nfe.Identifier
	}
	return res.Token.Raw
}
