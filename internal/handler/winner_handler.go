package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/handler/dto"
	"github.com/yourusername/sweeps-api/internal/service"
)

// WinnerHandler serves winner selection, tracking and export.
type WinnerHandler struct {
	winnerService *service.WinnerService
	entryService  *service.EntryService
}

// NewWinnerHandler creates a new winner handler.
func NewWinnerHandler(winnerService *service.WinnerService, entryService *service.EntryService) *WinnerHandler {
	return &WinnerHandler{
		winnerService: winnerService,
		entryService:  entryService,
	}
}

// SelectWinners handles POST /api/contests/:id/winners/select (admin).
func (h *WinnerHandler) SelectWinners(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	winners, err := h.winnerService.SelectWinners(contestID, actorFromContext(c))
	if err != nil {
		handleContestError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"winners": h.winnerResponses(contestID, winners),
		"total":   len(winners),
	})
}

// Reselect handles POST /api/contests/:id/winners/:position/reselect (admin).
func (h *WinnerHandler) Reselect(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	position := c.MustGet("position").(uint)

	winner, err := h.winnerService.Reselect(contestID, int(position), actorFromContext(c))
	if err != nil {
		handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewWinnerResponse(winner, h.entryFor(contestID, winner.EntryID)))
}

// MarkNotified handles POST /api/contests/:id/winners/:position/notify.
func (h *WinnerHandler) MarkNotified(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	position := c.MustGet("position").(uint)

	if err := h.winnerService.MarkNotified(contestID, int(position), actorFromContext(c)); err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Winner marked as notified"})
}

// MarkClaimed handles POST /api/contests/:id/winners/:position/claim.
func (h *WinnerHandler) MarkClaimed(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	position := c.MustGet("position").(uint)

	if err := h.winnerService.MarkClaimed(contestID, int(position), actorFromContext(c)); err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prize marked as claimed"})
}

// ListWinners handles GET /api/contests/:id/winners.
func (h *WinnerHandler) ListWinners(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	winners, err := h.winnerService.ListWinners(contestID)
	if err != nil {
		handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"winners": h.winnerResponses(contestID, winners),
		"total":   len(winners),
	})
}

// ExportWinners handles GET /api/contests/:id/winners/export?format=csv|xlsx.
// Phones are masked — the export is meant for publication.
func (h *WinnerHandler) ExportWinners(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	format := c.DefaultQuery("format", "csv")

	winners, err := h.winnerService.ListWinners(contestID)
	if err != nil {
		handleContestError(c, err)
		return
	}
	entries := h.entriesByID(contestID)

	filename := fmt.Sprintf("contest_%d_winners_%s", contestID, time.Now().Format("2006-01-02"))
	switch format {
	case "xlsx":
		h.exportWinnersXLSX(c, winners, entries, filename)
	default:
		h.exportWinnersCSV(c, winners, entries, filename)
	}
}

// winnerResponses resolves entries so responses carry masked phones.
func (h *WinnerHandler) winnerResponses(contestID uint, winners []entity.ContestWinner) []*dto.WinnerResponse {
	entries := h.entriesByID(contestID)
	out := make([]*dto.WinnerResponse, len(winners))
	for i := range winners {
		out[i] = dto.NewWinnerResponse(&winners[i], entries[winners[i].EntryID])
	}
	return out
}

func (h *WinnerHandler) entriesByID(contestID uint) map[uint]*entity.Entry {
	entries, err := h.entryService.ListEntries(contestID)
	if err != nil {
		log.Printf("[WinnerHandler] Failed to resolve entries for contest #%d: %v", contestID, err)
		return nil
	}
	byID := make(map[uint]*entity.Entry, len(entries))
	for i := range entries {
		byID[entries[i].ID] = &entries[i]
	}
	return byID
}

func (h *WinnerHandler) entryFor(contestID, entryID uint) *entity.Entry {
	return h.entriesByID(contestID)[entryID]
}

// exportWinnersCSV writes the winner list as CSV with proper escaping.
func (h *WinnerHandler) exportWinnersCSV(c *gin.Context, winners []entity.ContestWinner, entries map[uint]*entity.Entry, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM so Excel renders UTF-8 correctly.
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Position", "Phone", "Prize", "Selected At", "Notified At", "Claimed At"})
	for _, w := range winners {
		phone := ""
		if e := entries[w.EntryID]; e != nil {
			phone = e.MaskedPhone()
		}
		writer.Write([]string{
			strconv.Itoa(w.Position),
			sanitizeForExcel(phone),
			sanitizeForExcel(w.Prize),
			w.SelectedAt.Format(time.RFC3339),
			formatOptionalTime(w.NotifiedAt),
			formatOptionalTime(w.ClaimedAt),
		})
	}
}

// exportWinnersXLSX writes the winner list as an Excel file via StreamWriter.
func (h *WinnerHandler) exportWinnersXLSX(c *gin.Context, winners []entity.ContestWinner, entries map[uint]*entity.Entry, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Winners"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[WinnerHandler] Failed to create StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Position", "Phone", "Prize", "Selected At", "Notified At", "Claimed At"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[WinnerHandler] Failed to write headers: %v", err)
	}

	for i, w := range winners {
		rowNum := i + 2
		cell := fmt.Sprintf("A%d", rowNum)

		phone := ""
		if e := entries[w.EntryID]; e != nil {
			phone = e.MaskedPhone()
		}
		row := []interface{}{
			w.Position,
			sanitizeForExcel(phone),
			sanitizeForExcel(w.Prize),
			w.SelectedAt.Format(time.RFC3339),
			formatOptionalTime(w.NotifiedAt),
			formatOptionalTime(w.ClaimedAt),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[WinnerHandler] Failed to write row %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[WinnerHandler] StreamWriter flush failed: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[WinnerHandler] Failed to write Excel response: %v", err)
	}
}

// sanitizeForExcel guards against formula injection in Excel/CSV exports.
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Characters that start a formula in Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
