// ABOUTME: GraphViz rendering of pipeline flow and customer accounts
// ABOUTME: Produces DOT source for stage conversion and customer-to-deal graphs
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/dealpulse/models"
	"github.com/harperreed/dealpulse/scoring"
)

// render wraps graph construction with graphviz setup and DOT output.
func render(ctx context.Context, label string, build func(*cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetLabel(label)
	graph.SetRankDir(cgraph.LRRank)

	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

// velocityColor shades a stage by its velocity score.
func velocityColor(score int) string {
	switch {
	case score >= 75:
		return "palegreen"
	case score >= 50:
		return "lightyellow"
	case score > 0:
		return "lightsalmon"
	}
	return "lightgrey"
}

// GenerateStageFlowGraph draws the open stages in order with conversion
// rates on the edges, ending in won and lost.
func GenerateStageFlowGraph(ctx context.Context, v scoring.PipelineVelocity) (string, error) {
	return render(ctx, "Pipeline Flow", func(graph *cgraph.Graph) error {
		nodes := make(map[models.Stage]*cgraph.Node)
		for _, m := range v.Stages {
			node, err := graph.CreateNodeByName(m.Stage.String())
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%d deals, %.1fd avg\n(expected %dd)", m.Stage, m.Count, m.AverageDays, m.ExpectedDays))
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor(velocityColor(m.VelocityScore))
			nodes[m.Stage] = node
		}

		won, err := graph.CreateNodeByName(models.StageWon.String())
		if err != nil {
			return fmt.Errorf("failed to create won node: %w", err)
		}
		won.SetLabel(fmt.Sprintf("won\n%d deals", v.WonCount))
		won.SetShape("doublecircle")
		won.SetStyle("filled")
		won.SetFillColor("palegreen")

		lost, err := graph.CreateNodeByName(models.StageLost.String())
		if err != nil {
			return fmt.Errorf("failed to create lost node: %w", err)
		}
		lost.SetLabel(fmt.Sprintf("lost\n%d deals", v.LostCount))
		lost.SetShape("doublecircle")
		lost.SetStyle("filled")
		lost.SetFillColor("lightpink")

		for i, m := range v.Stages {
			from, ok := nodes[m.Stage]
			if !ok {
				continue
			}
			to := won
			if i+1 < len(v.Stages) {
				if next, ok := nodes[v.Stages[i+1].Stage]; ok {
					to = next
				}
			}
			edge, err := graph.CreateEdgeByName(fmt.Sprintf("%s_next", m.Stage), from, to)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(fmt.Sprintf("%.0f%%", m.ConversionRate))
		}

		if last, ok := nodes[models.StageNegotiation]; ok {
			edge, err := graph.CreateEdgeByName("negotiation_lost", last, lost)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetStyle("dashed")
			edge.SetLabel(fmt.Sprintf("win rate %.0f%%", v.WinRate))
		}
		return nil
	})
}

// GenerateAccountGraph links each customer to its opportunities. Deals
// without a customer hang off an "Unassigned" node.
func GenerateAccountGraph(ctx context.Context, customers []models.Customer, opps []models.Opportunity) (string, error) {
	return render(ctx, "Accounts", func(graph *cgraph.Graph) error {
		customerNodes := make(map[string]*cgraph.Node)
		for _, c := range customers {
			node, err := graph.CreateNodeByName(fmt.Sprintf("customer_%s", c.ID.String()[:8]))
			if err != nil {
				return fmt.Errorf("failed to create customer node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n(Customer)", c.Name))
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor("lightblue")
			customerNodes[c.ID.String()] = node
		}

		var unassigned *cgraph.Node
		for _, opp := range opps {
			node, err := graph.CreateNodeByName(fmt.Sprintf("deal_%s", opp.ID.String()[:8]))
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n$%.0fK\n(%s)", opp.Title, opp.Value/1000, opp.Stage))
			node.SetShape("diamond")
			node.SetStyle("filled")
			switch {
			case opp.IsArchived:
				node.SetFillColor("lightgrey")
			case opp.Stage == models.StageWon:
				node.SetFillColor("palegreen")
			case opp.Stage == models.StageLost:
				node.SetFillColor("lightpink")
			default:
				node.SetFillColor("lightyellow")
			}

			var owner *cgraph.Node
			if opp.CustomerID != nil {
				owner = customerNodes[opp.CustomerID.String()]
			}
			if owner == nil {
				if unassigned == nil {
					unassigned, err = graph.CreateNodeByName("unassigned")
					if err != nil {
						return fmt.Errorf("failed to create unassigned node: %w", err)
					}
					unassigned.SetLabel("Unassigned")
					unassigned.SetShape("box")
					unassigned.SetStyle("dashed")
				}
				owner = unassigned
			}

			edge, err := graph.CreateEdgeByName("deal_with", owner, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("deal")
		}
		return nil
	})
}
