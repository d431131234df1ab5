package paymentcharge

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"spreadsheet-hooks/internal/common/errors"
	"spreadsheet-hooks/internal/models"
)

// extractInput resolves every required ref before anything else happens. All
// missing refs are reported together; an empty grid counts as missing.
func extractInput(req *models.CalculationRequest, resp *models.CalculationResponse) (*Input, *models.Output, error) {
	cells := make(map[string]models.Cell, len(RequiredInputRefs))
	var missing []string

	for _, ref := range RequiredInputRefs {
		in := req.FindInput(ref)
		if in == nil {
			missing = append(missing, ref)
			continue
		}
		cell, ok := in.FirstCell()
		if !ok {
			missing = append(missing, ref)
			continue
		}
		cells[ref] = cell
	}

	out := resp.FindOutput(RefResponse)
	if out == nil {
		missing = append(missing, RefResponse)
	}

	if len(missing) > 0 {
		return nil, nil, errors.NewFieldNotFoundError(missing)
	}

	var invalid []string
	var details []string
	parseInt := func(ref string) int64 {
		n, err := cellInt(cells[ref].Value)
		if err != nil {
			invalid = append(invalid, ref)
			details = append(details, fmt.Sprintf("%s: %v", ref, err))
		}
		return n
	}

	year := parseInt(RefYear)
	month := parseInt(RefMonth)
	amount := parseInt(RefAmount)

	if len(invalid) > 0 {
		return nil, nil, errors.NewInvalidFieldValueError(invalid, strings.Join(details, "; "))
	}

	input := &Input{
		Name:        cellText(cells[RefName].Value) + " " + cellText(cells[RefSurname].Value),
		CardNumber:  stripWhitespace(cellText(cells[RefCardNumber].Value)),
		ExpYear:     int(year),
		ExpMonth:    int(month),
		CVC:         cellText(cells[RefCVC].Value),
		Amount:      amount,
		Description: cellText(cells[RefDesc].Value),
	}

	return input, out, nil
}

// cellText renders a cell value as the engine would display it.
// Integral numbers print without a fractional part.
func cellText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e18 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// cellInt parses a base-10 integer, ignoring surrounding whitespace.
func cellInt(v interface{}) (int64, error) {
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) || math.Abs(val) >= 1e18 {
			return 0, fmt.Errorf("%v is not an integer", val)
		}
		return int64(val), nil
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value %v", val)
	}
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// lastFour is the only part of a card number that may appear in logs.
func lastFour(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}
