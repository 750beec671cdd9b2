package decision

// Source says where a resolved value came from
type Source string

// Resolution sources
const (
	SourceClient    Source = "client"
	SourceCommittee Source = "committee"
	SourceNone      Source = "none"
)

// Resolution is the provenance record for one quantity in one evaluation
type Resolution struct {
	Quantity string     `json:"quantity"`
	Value    any        `json:"value,omitempty"`
	Known    bool       `json:"known"`
	Source   Source     `json:"source"`
	Quorum   string     `json:"quorum,omitempty"`
	Complies []Standard `json:"complies,omitempty"`
	// Inputs lists the characteristics the quorum consumed, in declaration order
	Inputs []string `json:"inputs,omitempty"`
}

func clientResolution(quantity string, v any) *Resolution {
	return &Resolution{
		Quantity: quantity,
		Value:    v,
		Known:    true,
		Source:   SourceClient,
		Complies: append([]Standard(nil), KnownStandards...),
	}
}

func absentResolution(quantity string) *Resolution {
	return &Resolution{Quantity: quantity, Source: SourceNone}
}
