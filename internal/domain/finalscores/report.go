package finalscores

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// WriteRankingReport renders the ranking as a one-table PDF.
func WriteRankingReport(w io.Writer, ranking Ranking) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Ranking %s", ranking.Period), false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Performance ranking %s", ranking.Period))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", ranking.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	widths := []float64{14, 62, 44, 24, 24, 18}
	headers := []string{"Rank", "Name", "Department", "Score", "Grade", "Final"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, entry := range ranking.Entries {
		name := entry.Name
		if name == "" {
			name = entry.SubjectID
		}
		final := ""
		if entry.IsFinal {
			final = "yes"
		}
		cells := []string{
			fmt.Sprintf("%d", entry.Rank),
			name,
			entry.Department,
			fmt.Sprintf("%.2f", entry.FinalScore),
			entry.Grade,
			final,
		}
		for i, cell := range cells {
			align := "L"
			if i == 0 || i == 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(ranking.Entries) == 0 {
		pdf.Cell(0, 8, "No final scores for this period.")
	}

	return pdf.Output(w)
}

// ArchiveRankingReport stores an already rendered report under dir and returns
// the file path. With a configured sealer the archive is encrypted and suffixed ".enc".
func ArchiveRankingReport(dir, tenantID, period string, pdf []byte, sealer Sealer) (string, error) {
	target := filepath.Join(dir, tenantID)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(target, fmt.Sprintf("ranking-%s.pdf", period))
	if sealer == nil || !sealer.Configured() {
		if err := os.WriteFile(filePath, pdf, 0o644); err != nil {
			return "", err
		}
		return filePath, nil
	}

	sealed, err := sealer.Seal(pdf)
	if err != nil {
		return "", err
	}
	filePath += ".enc"
	if err := os.WriteFile(filePath, sealed, 0o600); err != nil {
		return "", err
	}
	return filePath, nil
}
