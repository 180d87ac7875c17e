package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knolhq/knol/pkg/invocation"
	"github.com/knolhq/knol/pkg/store"
	"github.com/knolhq/knol/pkg/validate"
)

func validReport(id string) validate.Report {
	return validate.Report{ModuleIdentifier: id, Status: validate.StatusValid}
}

func invalidReport(id string, missing ...string) validate.Report {
	return validate.Report{
		ModuleIdentifier: id,
		Status:           validate.StatusMissingSections,
		MissingSections:  missing,
	}
}

func resolved(raw, id, content string) Resolution {
	return Resolution{
		Token:  invocation.ReferenceToken{Raw: raw},
		Module: &store.Module{Identifier: id, RawContent: content},
	}
}

func notFound(raw, id string) Resolution {
	return Resolution{
		Token: invocation.ReferenceToken{Raw: raw},
		Err:   store.NotFoundError{Identifier: id},
	}
}

func TestCompose_TopicOnly(t *testing.T) {
	inv := &invocation.Invocation{Topic: "explain the planner"}

	result := Compose(inv, nil, nil)
	assert.Equal(t, "explain the planner", result.Payload)
	assert.Empty(t, result.IncludedModules)
	assert.Empty(t, result.SkippedModules)
}

func TestCompose_IncludesValidModulesInTokenOrder(t *testing.T) {
	inv := &invocation.Invocation{Topic: "compare engines"}
	resolutions := []Resolution{
		resolved("@b", "b", "content of b\n"),
		resolved("@a", "a", "content of a"),
		resolved("@c", "c", "content of c"),
	}
	reports := map[string]validate.Report{
		"a": validReport("a"),
		"b": validReport("b"),
		"c": validReport("c"),
	}

	result := Compose(inv, resolutions, reports)
	assert.Equal(t, []string{"b", "a", "c"}, result.IncludedModules)
	assert.Equal(t, "compare engines\n\ncontent of b\n\ncontent of a\n\ncontent of c", result.Payload)
	assert.Empty(t, result.SkippedModules)
}

func TestCompose_SkipsNotFound(t *testing.T) {
	inv := &invocation.Invocation{Topic: "summarize"}
	resolutions := []Resolution{
		notFound("@missing", "missing"),
		resolved("@intro", "intro", "intro content"),
	}
	reports := map[string]validate.Report{"intro": validReport("intro")}

	result := Compose(inv, resolutions, reports)
	assert.Equal(t, []string{"intro"}, result.IncludedModules)
	assert.Equal(t, SkipNotFound, result.SkippedModules["missing"])
	assert.NotContains(t, result.Payload, "missing")
}

func TestCompose_SkipsInvalidStrictly(t *testing.T) {
	inv := &invocation.Invocation{Topic: "review"}
	resolutions := []Resolution{
		resolved("@broken", "broken", "degraded content that must not leak"),
		resolved("@intro", "intro", "intro content"),
	}
	reports := map[string]validate.Report{
		"broken": invalidReport("broken", "Authoritative References"),
		"intro":  validReport("intro"),
	}

	result := Compose(inv, resolutions, reports)
	assert.Equal(t, []string{"intro"}, result.IncludedModules)
	assert.Equal(t, SkipInvalid, result.SkippedModules["broken"])
	assert.NotContains(t, result.Payload, "degraded content")
}

func TestCompose_FirstOccurrenceWins(t *testing.T) {
	inv := &invocation.Invocation{Topic: "Summarize"}
	resolutions := []Resolution{
		resolved("@intro", "intro", "intro content"),
		notFound("@missing", "missing"),
		resolved("@intro", "intro", "intro content"),
	}
	reports := map[string]validate.Report{"intro": validReport("intro")}

	result := Compose(inv, resolutions, reports)
	assert.Equal(t, "Summarize", inv.Topic)
	assert.Equal(t, []string{"intro"}, result.IncludedModules)
	assert.Equal(t, SkipNotFound, result.SkippedModules["missing"])
	assert.Equal(t, SkipDuplicate, result.SkippedModules["intro"])
	assert.Equal(t, "Summarize\n\nintro content", result.Payload)
}

func TestCompose_DuplicateViaDifferentTokens(t *testing.T) {
	inv := &invocation.Invocation{Topic: "t"}
	resolutions := []Resolution{
		resolved("@intro", "intro", "intro content"),
		resolved("@modules/intro.md", "intro", "intro content"),
	}
	reports := map[string]validate.Report{"intro": validReport("intro")}

	result := Compose(inv, resolutions, reports)
	assert.Equal(t, []string{"intro"}, result.IncludedModules)
	assert.Equal(t, SkipDuplicate, result.SkippedModules["intro"])
}

func TestCompose_TopicAbsent(t *testing.T) {
	inv := &invocation.Invocation{Topic: ""}
	resolutions := []Resolution{resolved("@intro", "intro", "intro content")}
	reports := map[string]validate.Report{"intro": validReport("intro")}

	result := Compose(inv, resolutions, reports)
	assert.Equal(t, "intro content", result.Payload)
}

func TestCompose_EmptyPayloadOnlyWhenNothingIncluded(t *testing.T) {
	inv := &invocation.Invocation{Topic: ""}
	resolutions := []Resolution{notFound("@missing", "missing")}

	result := Compose(inv, resolutions, nil)
	assert.Empty(t, result.Payload)
	assert.Empty(t, result.IncludedModules)
}

func TestCompose_ModuleWithoutReportIsExcluded(t *testing.T) {
	inv := &invocation.Invocation{Topic: "t"}
	resolutions := []Resolution{resolved("@intro", "intro", "intro content")}

	result := Compose(inv, resolutions, map[string]validate.Report{})
	assert.Empty(t, result.IncludedModules)
	assert.Equal(t, SkipInvalid, result.SkippedModules["intro"])
}

func TestCompose_ArgumentsPlaceholder(t *testing.T) {
	inv := &invocation.Invocation{Topic: "tune the planner"}
	resolutions := []Resolution{
		resolved("@tmpl", "tmpl", "Task: $ARGUMENTS\n\nProceed step by step."),
	}
	reports := map[string]validate.Report{"tmpl": validReport("tmpl")}

	result := Compose(inv, resolutions, reports)
	require.Len(t, result.IncludedModules, 1)
	assert.Contains(t, result.Payload, "Task: tune the planner")
	assert.NotContains(t, result.Payload, "$ARGUMENTS")
	// The topic paragraph is still always first.
	assert.True(t, len(result.Payload) >= len("tune the planner"))
	assert.Equal(t, "tune the planner", result.Payload[:len("tune the planner")])
}
