// Package workbook runs hooks against .xlsx files, using the workbook's
// defined names as the named ranges of a calculation.
package workbook

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"spreadsheet-hooks/internal/hooks"
	"spreadsheet-hooks/internal/models"
)

// Defined names starting with these prefixes become inputs or outputs.
const (
	InputPrefix  = "i"
	OutputPrefix = "o"
)

// Range is a rectangular block of cells on one sheet. Coordinates are 1-based.
type Range struct {
	Sheet  string
	C1, R1 int
	C2, R2 int
}

type Workbook struct {
	file   *excelize.File
	ranges map[string]Range
	order  []string
}

// Open reads the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	wb, err := FromFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return wb, nil
}

// FromFile indexes the defined names of an already open file.
func FromFile(f *excelize.File) (*Workbook, error) {
	wb := &Workbook{
		file:   f,
		ranges: make(map[string]Range),
	}

	for _, dn := range f.GetDefinedName() {
		if !strings.HasPrefix(dn.Name, InputPrefix) && !strings.HasPrefix(dn.Name, OutputPrefix) {
			continue
		}
		if _, seen := wb.ranges[dn.Name]; seen {
			continue
		}
		rng, err := ParseReference(dn.RefersTo)
		if err != nil {
			return nil, fmt.Errorf("defined name %s: %w", dn.Name, err)
		}
		wb.ranges[dn.Name] = rng
		wb.order = append(wb.order, dn.Name)
	}
	sort.Strings(wb.order)

	return wb, nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// Envelope reads every input and output range into a calculation request
// and response.
func (w *Workbook) Envelope() (*models.CalculationRequest, *models.CalculationResponse, error) {
	req := &models.CalculationRequest{}
	resp := &models.CalculationResponse{}

	for _, name := range w.order {
		grid, err := w.readGrid(w.ranges[name])
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if strings.HasPrefix(name, InputPrefix) {
			req.Inputs = append(req.Inputs, models.Input{Ref: name, Value: grid})
		} else {
			resp.Outputs = append(resp.Outputs, models.Output{Ref: name, Value: grid})
		}
	}

	return req, resp, nil
}

// WriteOutputs writes output grids back into their ranges. Cells beyond the
// range bounds are dropped.
func (w *Workbook) WriteOutputs(resp *models.CalculationResponse) error {
	for _, out := range resp.Outputs {
		rng, ok := w.ranges[out.Ref]
		if !ok {
			continue
		}
		for r, row := range out.Value {
			if rng.R1+r > rng.R2 {
				break
			}
			for c, cell := range row {
				if rng.C1+c > rng.C2 {
					break
				}
				name, err := excelize.CoordinatesToCellName(rng.C1+c, rng.R1+r)
				if err != nil {
					return err
				}
				if err := w.file.SetCellValue(rng.Sheet, name, cell.Value); err != nil {
					return fmt.Errorf("failed to write %s!%s: %w", rng.Sheet, name, err)
				}
			}
		}
	}
	return nil
}

// Run invokes hook on the workbook's named ranges and, unless the hook
// cancels, writes the outputs back. The file is not saved.
func (w *Workbook) Run(ctx context.Context, hook hooks.AfterCalculationHook, requestID string) (*models.ActionableResponse, *models.CalculationResponse, error) {
	req, resp, err := w.Envelope()
	if err != nil {
		return nil, nil, err
	}
	req.RequestID = requestID

	verdict := hook.AfterCalculation(ctx, req, resp)
	if verdict.Cancelled() {
		return verdict, resp, nil
	}
	return verdict, resp, w.WriteOutputs(resp)
}

func (w *Workbook) Save() error {
	return w.file.Save()
}

func (w *Workbook) SaveAs(path string) error {
	return w.file.SaveAs(path)
}

// Ranges returns the indexed defined names.
func (w *Workbook) Ranges() map[string]Range {
	out := make(map[string]Range, len(w.ranges))
	for k, v := range w.ranges {
		out[k] = v
	}
	return out
}

func (w *Workbook) readGrid(rng Range) ([][]models.Cell, error) {
	grid := make([][]models.Cell, 0, rng.R2-rng.R1+1)
	for r := rng.R1; r <= rng.R2; r++ {
		row := make([]models.Cell, 0, rng.C2-rng.C1+1)
		for c := rng.C1; c <= rng.C2; c++ {
			name, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return nil, err
			}
			// Raw values keep long card numbers out of scientific notation.
			v, err := w.file.GetCellValue(rng.Sheet, name, excelize.Options{RawCellValue: true})
			if err != nil {
				return nil, err
			}
			var cell models.Cell
			if v != "" {
				cell.Value = v
			}
			row = append(row, cell)
		}
		grid = append(grid, row)
	}
	return grid, nil
}

// ParseReference parses 'Sheet 1'!$A$1:$B$2 or Sheet1!A1 into a Range.
func ParseReference(ref string) (Range, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "=")
	idx := strings.LastIndex(ref, "!")
	if idx <= 0 {
		return Range{}, fmt.Errorf("reference %q has no sheet", ref)
	}
	if strings.Contains(ref[idx+1:], ",") {
		return Range{}, fmt.Errorf("reference %q spans multiple areas", ref)
	}

	sheet := strings.Trim(ref[:idx], "'")
	cells := strings.Split(strings.ReplaceAll(ref[idx+1:], "$", ""), ":")
	if len(cells) > 2 {
		return Range{}, fmt.Errorf("reference %q is not a range", ref)
	}

	c1, r1, err := excelize.CellNameToCoordinates(cells[0])
	if err != nil {
		return Range{}, err
	}
	c2, r2 := c1, r1
	if len(cells) == 2 {
		if c2, r2, err = excelize.CellNameToCoordinates(cells[1]); err != nil {
			return Range{}, err
		}
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}

	return Range{Sheet: sheet, C1: c1, R1: r1, C2: c2, R2: r2}, nil
}
