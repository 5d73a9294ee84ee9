package excel

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/vrfjury/config"
	"github.com/vechain/vrfjury/types"

	"github.com/xuri/excelize/v2"
)

type Candidate struct {
	Address thor.Address
	Name    string
	Network string
}

// PanelRow is one selection round as exported to the Panels sheet.
type PanelRow struct {
	Round      uint64
	RequestID  types.RequestID
	Panel      types.Panel
	SelectedAt time.Time
}

// ParseCandidatesFromXLSX reads the Candidates sheet (Address | Name |
// Network). Rows for another network, duplicates and rows with an invalid
// address are skipped. An empty network keeps every row.
func ParseCandidatesFromXLSX(filePath, network string) ([]Candidate, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf(config.ErrFailedToOpenRoster, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("Failed to close Excel file", "error", err)
		}
	}()

	rows, err := f.GetRows(config.CandidatesSheet)
	if err != nil {
		return nil, fmt.Errorf(config.ErrFailedToReadRosterRows, err)
	}

	if len(rows) == 0 {
		return nil, errors.New(config.ErrEmptyRoster)
	}

	candidates := make([]Candidate, 0, len(rows)-1)
	seen := make(map[thor.Address]bool)

	for i, row := range rows {
		if i == 0 {
			continue
		}

		if len(row) < 1 || strings.TrimSpace(row[0]) == "" {
			slog.Warn("Row has no candidate address", "row", i+1)
			continue
		}

		addr, err := thor.ParseAddress(strings.TrimSpace(row[0]))
		if err != nil {
			slog.Warn("Failed to parse candidate address", "row", i+1, "value", row[0], "error", err)
			continue
		}

		c := Candidate{Address: addr}
		if len(row) > 1 {
			c.Name = row[1]
		}
		if len(row) > 2 {
			c.Network = strings.TrimSpace(row[2])
		}

		if network != "" && c.Network != "" && !strings.EqualFold(c.Network, network) {
			continue
		}
		if seen[addr] {
			slog.Warn("Duplicate candidate address", "row", i+1, "address", addr)
			continue
		}
		seen[addr] = true
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// WriteCandidatesXLSX writes a roster that ParseCandidatesFromXLSX can read.
func WriteCandidatesXLSX(filePath string, candidates []Candidate) error {
	rows := make([][]any, 0, len(candidates)+1)
	rows = append(rows, []any{"Address", "Name", "Network"})
	for _, c := range candidates {
		rows = append(rows, []any{c.Address.String(), c.Name, c.Network})
	}
	return writeSheet(filePath, config.CandidatesSheet, rows)
}

// WritePanelsXLSX writes one row per juror: Round | Request | Position |
// Juror | Selected At.
func WritePanelsXLSX(filePath string, panels []PanelRow) error {
	rows := make([][]any, 0, len(panels)*3+1)
	rows = append(rows, []any{"Round", "Request", "Position", "Juror", "Selected At"})
	for _, p := range panels {
		for pos, juror := range p.Panel {
			rows = append(rows, []any{p.Round, uint64(p.RequestID), pos + 1, juror.String(), p.SelectedAt.UTC().Format(time.RFC3339)})
		}
	}
	return writeSheet(filePath, config.PanelsSheet, rows)
}

func writeSheet(filePath, sheet string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("Failed to close Excel file", "error", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save %s: %w", filePath, err)
	}
	return nil
}
