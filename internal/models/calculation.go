package models

// Cell is a single spreadsheet cell value as handed over by the calculation engine.
type Cell struct {
	Value interface{} `json:"value"`
}

// Input is a named input range of the evaluated model.
type Input struct {
	Ref   string   `json:"ref"`
	Value [][]Cell `json:"value"`
}

// Output is a named output range the hook is allowed to write to.
type Output struct {
	Ref   string   `json:"ref"`
	Value [][]Cell `json:"value"`
}

// CalculationRequest is the snapshot of one spreadsheet evaluation's inputs.
type CalculationRequest struct {
	RequestID string  `json:"requestId,omitempty"`
	Inputs    []Input `json:"inputs"`
}

// CalculationResponse holds the outputs of the evaluation. Hooks mutate it in place.
type CalculationResponse struct {
	Outputs []Output `json:"outputs"`
}

// FindInput returns the first input whose ref equals ref, or nil.
func (r *CalculationRequest) FindInput(ref string) *Input {
	if r == nil {
		return nil
	}
	for i := range r.Inputs {
		if r.Inputs[i].Ref == ref {
			return &r.Inputs[i]
		}
	}
	return nil
}

// FindOutput returns the first output whose ref equals ref, or nil.
func (r *CalculationResponse) FindOutput(ref string) *Output {
	if r == nil {
		return nil
	}
	for i := range r.Outputs {
		if r.Outputs[i].Ref == ref {
			return &r.Outputs[i]
		}
	}
	return nil
}

// FirstCell returns the top-left cell of the input grid.
func (in *Input) FirstCell() (Cell, bool) {
	return firstCell(in.Value)
}

// FirstCell returns the top-left cell of the output grid.
func (out *Output) FirstCell() (Cell, bool) {
	return firstCell(out.Value)
}

// SetFirstCell overwrites the top-left cell, growing an empty grid to 1x1.
func (out *Output) SetFirstCell(value interface{}) {
	if len(out.Value) == 0 {
		out.Value = [][]Cell{{}}
	}
	if len(out.Value[0]) == 0 {
		out.Value[0] = []Cell{{}}
	}
	out.Value[0][0].Value = value
}

func firstCell(grid [][]Cell) (Cell, bool) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return Cell{}, false
	}
	return grid[0][0], true
}
