package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"interview_backend/internal/services/dto"
)

const (
	SummarySheet = "Summary"
	RankedSheet  = "Ranked Candidates"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var rankedHeaders = []string{
	"Rank", "Candidate ID", "Candidate", "Experience (years)",
	"Required (50)", "Preferred (20)", "Experience (30)", "Final %",
	"Matched Required", "Missing Required", "Matched Preferred",
}

// RankedMatchesToXLSX writes the ranking view of one job as a workbook with a
// summary sheet and one row per ranked candidate.
func RankedMatchesToXLSX(w io.Writer, ranked *dto.RankedMatchesResponse, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(RankedSheet); err != nil {
		return err
	}

	if err := writeSummarySheet(f, ranked, generatedAt); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeRankedSheet(f, ranked.Candidates); err != nil {
		return fmt.Errorf("failed to create ranked candidates sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// FileName is the download name for a job's ranking export.
func FileName(jobID uint) string {
	return fmt.Sprintf("job_%d_ranked_matches.xlsx", jobID)
}

func writeSummarySheet(f *excelize.File, ranked *dto.RankedMatchesResponse, generatedAt time.Time) error {
	f.SetColWidth(SummarySheet, "A", "A", 25)
	f.SetColWidth(SummarySheet, "B", "B", 50)

	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rows := [][2]any{
		{"Job ID:", ranked.JobID},
		{"Job Title:", ranked.JobTitle},
		{"Company:", ranked.CompanyName},
		{"Total Candidates:", ranked.TotalCandidates},
		{"Generated:", generatedAt.UTC().Format("2006-01-02 15:04:05")},
	}
	if len(ranked.Candidates) > 0 {
		top := ranked.Candidates[0]
		rows = append(rows,
			[2]any{"Top Candidate:", top.CandidateName},
			[2]any{"Top Score:", top.MatchScores.FinalMatchPercentage},
		)
	}

	for i, r := range rows {
		row := i + 1
		label := fmt.Sprintf("A%d", row)
		if err := f.SetCellValue(SummarySheet, label, r[0]); err != nil {
			return err
		}
		f.SetCellStyle(SummarySheet, label, label, labelStyle)
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), r[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeRankedSheet(f *excelize.File, candidates []dto.RankedCandidate) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	for col, header := range rankedHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(RankedSheet, cell, header)
		f.SetCellStyle(RankedSheet, cell, cell, headerStyle)
	}
	f.SetColWidth(RankedSheet, "C", "C", 25)
	f.SetColWidth(RankedSheet, "I", "K", 35)

	for i, c := range candidates {
		values := []any{
			c.Rank,
			c.CandidateID,
			c.CandidateName,
			c.ExperienceYears,
			c.MatchScores.RequiredSkillsScore,
			c.MatchScores.PreferredSkillsScore,
			c.MatchScores.ExperienceScore,
			c.MatchScores.FinalMatchPercentage,
			strings.Join(c.MatchedRequiredSkills, ", "),
			strings.Join(c.MissingRequiredSkills, ", "),
			strings.Join(c.MatchedPreferredSkills, ", "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RankedSheet, cell, &values); err != nil {
			return err
		}
	}

	// Keep the header visible while scrolling
	return f.SetPanes(RankedSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
