// Package spreadsheet converts cafes to and from .xlsx workbooks.
//
// The first sheet row is a header. Columns, in order:
//
//	name, location, map_url, img_url, seats, coffee_price,
//	has_toilet, has_wifi, has_sockets, can_take_calls
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"cafefinder/model"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Sheet1"

var Header = []string{
	"name", "location", "map_url", "img_url", "seats", "coffee_price",
	"has_toilet", "has_wifi", "has_sockets", "can_take_calls",
}

var ErrEmptySheet = errors.New("spreadsheet has no data rows")

// RowError describes a skipped row; Row is the 1-based sheet row number.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

type row struct {
	Name        string `validate:"required,max=250"`
	Location    string `validate:"required,max=250"`
	MapURL      string `validate:"required,url,max=500"`
	ImgURL      string `validate:"required,imageref,max=500"`
	Seats       string `validate:"required,max=250"`
	CoffeePrice string `validate:"required,max=250"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := model.RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// ReadCafes parses the workbook in r. Invalid rows and repeated names are skipped
// and reported; the returned cafes have no owner set.
func ReadCafes(r io.Reader) ([]model.Cafe, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", SheetName, err)
	}
	if len(rows) < 2 {
		return nil, nil, ErrEmptySheet
	}

	var (
		cafes   []model.Cafe
		skipped []RowError
		seen    = map[string]int{}
	)
	for i, cells := range rows[1:] {
		rowNum := i + 2
		if blank(cells) {
			continue
		}

		cafe, err := parseRow(cells)
		if err != nil {
			skipped = append(skipped, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}

		key := strings.ToLower(cafe.Name)
		if first, dup := seen[key]; dup {
			skipped = append(skipped, RowError{Row: rowNum, Reason: fmt.Sprintf("duplicate of row %d", first)})
			continue
		}
		seen[key] = rowNum
		cafes = append(cafes, cafe)
	}
	return cafes, skipped, nil
}

func parseRow(cells []string) (model.Cafe, error) {
	r := row{
		Name:        cell(cells, 0),
		Location:    cell(cells, 1),
		MapURL:      cell(cells, 2),
		ImgURL:      cell(cells, 3),
		Seats:       cell(cells, 4),
		CoffeePrice: cell(cells, 5),
	}
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return model.Cafe{}, fmt.Errorf("%s failed %q check", Header[fieldColumn(verrs[0].Field())], verrs[0].Tag())
		}
		return model.Cafe{}, err
	}

	flags := make([]bool, 4)
	for i := range flags {
		v, err := parseBool(cell(cells, 6+i))
		if err != nil {
			return model.Cafe{}, fmt.Errorf("%s: %w", Header[6+i], err)
		}
		flags[i] = v
	}

	return model.Cafe{
		Name:         r.Name,
		Location:     r.Location,
		MapURL:       r.MapURL,
		ImgURL:       r.ImgURL,
		Seats:        r.Seats,
		CoffeePrice:  r.CoffeePrice,
		HasToilet:    flags[0],
		HasWifi:      flags[1],
		HasSockets:   flags[2],
		CanTakeCalls: flags[3],
	}, nil
}

// WriteCafes writes cafes to w as a workbook in the layout ReadCafes accepts.
func WriteCafes(w io.Writer, cafes []model.Cafe) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, c := range cafes {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			c.Name, c.Location, c.MapURL, c.ImgURL, c.Seats, c.CoffeePrice,
			yesNo(c.HasToilet), yesNo(c.HasWifi), yesNo(c.HasSockets), yesNo(c.CanTakeCalls),
		}
		if err := f.SetSheetRow(SheetName, cellName, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "no", "n", "false", "0":
		return false, nil
	case "yes", "y", "true", "1":
		return true, nil
	}
	return false, fmt.Errorf("%q is not yes or no", s)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func fieldColumn(field string) int {
	switch field {
	case "Name":
		return 0
	case "Location":
		return 1
	case "MapURL":
		return 2
	case "ImgURL":
		return 3
	case "Seats":
		return 4
	default:
		return 5
	}
}
