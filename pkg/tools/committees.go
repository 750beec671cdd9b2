package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/trip"
)

// QuorumDescription describes one ranked method
type QuorumDescription struct {
	Name        string              `json:"name"`
	Requires    []string            `json:"requires,omitempty"`
	Appreciates []string            `json:"appreciates,omitempty"`
	Complies    []decision.Standard `json:"complies,omitempty"`
}

// CommitteeDescription describes the methods for one quantity, most preferred first
type CommitteeDescription struct {
	Quantity string              `json:"quantity"`
	Unit     string              `json:"unit,omitempty"`
	Quorums  []QuorumDescription `json:"quorums"`
}

// DescribeCommitteesOutput is the result of describe_committees
type DescribeCommitteesOutput struct {
	Committees []CommitteeDescription `json:"committees"`
	Inputs     []string               `json:"inputs"`
	Outputs    []string               `json:"outputs"`
}

// DescribeCommitteesInput optionally narrows the result to one quantity
type DescribeCommitteesInput struct {
	Quantity string `json:"quantity,omitempty"`
}

// DescribeCommittees lists the committees of a registry. An empty quantity
// selects all of them.
func DescribeCommittees(reg *decision.Registry, quantity string) (DescribeCommitteesOutput, error) {
	names := reg.Quantities()
	if quantity != "" {
		if _, ok := reg.Committee(quantity); !ok {
			return DescribeCommitteesOutput{}, NewError(ErrInvalidInput, fmt.Sprintf("no committee for %q", quantity)).
				WithSuggestions(names...)
		}
		names = []string{quantity}
	}

	out := DescribeCommitteesOutput{
		Committees: make([]CommitteeDescription, 0, len(names)),
		Inputs:     reg.Inputs(),
		Outputs:    trip.Outputs,
	}
	for _, name := range names {
		c, _ := reg.Committee(name)
		desc := CommitteeDescription{
			Quantity: name,
			Unit:     trip.Units[name],
			Quorums:  make([]QuorumDescription, len(c.Quorums)),
		}
		for i, q := range c.Quorums {
			desc.Quorums[i] = QuorumDescription{
				Name:        q.Name,
				Requires:    q.Requires,
				Appreciates: q.Appreciates,
				Complies:    q.Complies,
			}
		}
		out.Committees = append(out.Committees, desc)
	}
	return out, nil
}

// DescribeCommitteesTool returns the tool definition for model introspection
func DescribeCommitteesTool() mcp.Tool {
	return mcp.NewTool("describe_committees",
		mcp.WithDescription("Describe how each quantity of the emission model can be computed: the ranked methods, the inputs they need and the standards they comply with"),
		mcp.WithString("quantity", mcp.Description("Only describe this quantity, e.g. fuel_efficiency")),
	)
}

// HandleDescribeCommittees implements describe_committees
func (r *Registry) HandleDescribeCommittees(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("describe_committees", func(ctx context.Context, input DescribeCommitteesInput, logger *slog.Logger) (any, error) {
		return DescribeCommittees(r.estimator.Registry(), input.Quantity)
	})(ctx, req)
}
