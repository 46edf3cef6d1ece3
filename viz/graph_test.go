// ABOUTME: Tests for GraphViz pipeline and account graphs
// ABOUTME: Renders small graphs and checks nodes and labels appear in the DOT output
package viz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
	"github.com/harperreed/dealpulse/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateStageFlowGraph(t *testing.T) {
	dot, err := GenerateStageFlowGraph(context.Background(), *sampleVelocity())
	require.NoError(t, err)

	assert.Contains(t, dot, "digraph")
	for _, stage := range models.AllStages {
		assert.Contains(t, dot, stage.String())
	}
	assert.Contains(t, dot, "win rate 50%")
	assert.Contains(t, dot, "Pipeline Flow")
}

func TestGenerateStageFlowGraphEmptyPipeline(t *testing.T) {
	dot, err := GenerateStageFlowGraph(context.Background(), scoring.PipelineVelocity{})
	require.NoError(t, err)
	assert.Contains(t, dot, "won")
	assert.Contains(t, dot, "lost")
}

func TestGenerateAccountGraph(t *testing.T) {
	customer := models.Customer{ID: uuid.New(), Name: "Acme Corp"}
	opps := []models.Opportunity{
		{ID: uuid.New(), Title: "Acme Renewal", Stage: models.StageProposal, Value: 25000, CustomerID: &customer.ID},
		{ID: uuid.New(), Title: "Walk-in", Stage: models.StageLead, Value: 500},
	}

	dot, err := GenerateAccountGraph(context.Background(), []models.Customer{customer}, opps)
	require.NoError(t, err)

	assert.Contains(t, dot, "Acme Corp")
	assert.Contains(t, dot, "Acme Renewal")
	assert.Contains(t, dot, "Unassigned")
	assert.Contains(t, dot, "->")
}
