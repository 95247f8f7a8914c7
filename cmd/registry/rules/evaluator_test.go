package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequirement() map[string]interface{} {
	return map[string]interface{}{
		"name":     "pump housing",
		"status":   "approved",
		"priority": "high",
		"level":    2,
	}
}

func sampleParams() map[string]interface{} {
	return map[string]interface{}{
		"material": map[string]interface{}{
			"name":  "steel",
			"value": "steel",
			"group": "material",
		},
	}
}

func TestEvaluator_EmptyRuleIncludesEverything(t *testing.T) {
	e := NewEvaluator()
	ok, err := e.Evaluate("", sampleRequirement(), sampleParams())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, e.CacheSize(), "empty rule is never compiled")
}

func TestEvaluator_RequirementFields(t *testing.T) {
	e := NewEvaluator()

	ok, err := e.Evaluate(`req.status == "approved"`, sampleRequirement(), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Evaluate(`req.status == "draft"`, sampleRequirement(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluator_ParameterFields(t *testing.T) {
	e := NewEvaluator()

	ok, err := e.Evaluate(
		`req.status == "approved" && params.material.value == "steel"`,
		sampleRequirement(), sampleParams(),
	)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Evaluate(`params.material.value == "aluminium"`, sampleRequirement(), sampleParams())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluator_CompileErrorSurfaces(t *testing.T) {
	e := NewEvaluator()

	_, err := e.Evaluate(`req.status ==`, sampleRequirement(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation")

	assert.Error(t, e.Validate(`req.status ==`))
}

func TestEvaluator_NonBooleanRuleRejected(t *testing.T) {
	e := NewEvaluator()

	_, err := e.Evaluate(`req.name`, sampleRequirement(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boolean")
}

func TestEvaluator_CachesCompiledRules(t *testing.T) {
	e := NewEvaluator()

	require.NoError(t, e.Validate(`req.level >= 2`))
	assert.Equal(t, 1, e.CacheSize())

	// Evaluating the same rule reuses the cached program.
	ok, err := e.Evaluate(`req.level >= 2`, sampleRequirement(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, e.CacheSize())

	e.ClearCache()
	assert.Equal(t, 0, e.CacheSize())
}
