// Package report exports a test-taker's progress as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mth101/cbt/internal/grading"
	"github.com/mth101/cbt/internal/progress"
	"github.com/mth101/cbt/internal/store"
)

// Sheet names in the exported workbook.
const (
	SheetProgress = "Progress"
	SheetTopics   = "Topics"
	SheetHistory  = "History"
)

const timeFormat = "2006-01-02 15:04:05"

// Input is everything the workbook is built from.
type Input struct {
	Profile store.Profile
	Record  progress.Record
	History []grading.Result
}

// WriteXLSX renders in as a workbook and writes it to w.
func WriteXLSX(w io.Writer, in Input) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetProgress); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetTopics, SheetHistory} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create %s sheet: %w", name, err)
		}
	}

	if err := writeProgress(f, in); err != nil {
		return err
	}
	if err := writeTopics(f, in.Record); err != nil {
		return err
	}
	if err := writeHistory(f, in.History); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeProgress(f *excelize.File, in Input) error {
	rows := [][]any{
		{"Name", in.Profile.Name},
		{"Department", in.Profile.Department},
		{"Complete", yesNo(in.Record.Complete())},
		{},
		{"Stage", "Title", "Difficulty", "Status", "Correct", "Wrong", "Total", "Percentage", "Required", "Graded At"},
	}
	for _, s := range in.Record.Slots {
		row := []any{s.Stage.Number, s.Stage.Title, s.Stage.Difficulty.DisplayName(), s.Status().String()}
		if r := s.Result; r != nil {
			row = append(row, r.Correct, r.Wrong, r.Total, r.Percentage)
		} else {
			row = append(row, "", "", "", "")
		}
		row = append(row, s.Stage.RequirementLabel(), gradedAt(s.Result))
		rows = append(rows, row)
	}
	return writeRows(f, SheetProgress, rows)
}

func writeTopics(f *excelize.File, rec progress.Record) error {
	rows := [][]any{{"Stage", "Topic", "Correct", "Total", "Percentage"}}
	for _, s := range rec.Slots {
		if s.Result == nil {
			continue
		}
		for _, name := range s.Result.TopicNames() {
			ts := s.Result.Topics[name]
			rows = append(rows, []any{s.Stage.Number, name, ts.Correct, ts.Total, ts.Percent()})
		}
	}
	return writeRows(f, SheetTopics, rows)
}

func writeHistory(f *excelize.File, history []grading.Result) error {
	rows := [][]any{{"Graded At", "Stage", "Correct", "Wrong", "Total", "Percentage", "Result", "Attempt ID"}}
	for _, r := range history {
		verdict := "Fail"
		if r.Passed {
			verdict = "Pass"
		}
		rows = append(rows, []any{gradedAt(&r), r.Stage, r.Correct, r.Wrong, r.Total, r.Percentage, verdict, r.AttemptID})
	}
	return writeRows(f, SheetHistory, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func gradedAt(r *grading.Result) string {
	if r == nil || r.Timestamp.IsZero() {
		return ""
	}
	return r.Timestamp.In(time.Local).Format(timeFormat)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
