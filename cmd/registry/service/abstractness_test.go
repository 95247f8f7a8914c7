package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbstractness_NoGroupsIsConcrete(t *testing.T) {
	ctx := context.Background()
	params := newFakeParameterStore()
	svc := NewAbstractnessService(params, testLogger())

	abstract, err := svc.IsAbstract(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, abstract)
}

func TestAbstractness_SingleAlternativePerGroupIsConcrete(t *testing.T) {
	ctx := context.Background()
	params := newFakeParameterStore()
	params.counts["material"] = 1
	params.counts["voltage"] = 1
	svc := NewAbstractnessService(params, testLogger())

	abstract, err := svc.IsAbstract(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, abstract)
}

func TestAbstractness_CompetingAlternativesMakeTreeAbstract(t *testing.T) {
	ctx := context.Background()
	params := newFakeParameterStore()
	params.counts["material"] = 3
	params.counts["voltage"] = 1
	svc := NewAbstractnessService(params, testLogger())

	abstract, err := svc.IsAbstract(ctx, uuid.New())
	require.NoError(t, err)
	assert.True(t, abstract)

	groups, err := svc.UnresolvedGroups(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"material"}, groups)
}
