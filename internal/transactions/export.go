package transactions

import (
	"fmt"
	"time"

	"onay-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{"Tip", "Fiş No", "Açıklama", "Cari", "Tutar", "Para Birimi", "Tarih", "Durum"}

var statusLabels = map[string]string{
	"pending":   "Bekliyor",
	"approved":  "Onaylandı",
	"rejected":  "Reddedildi",
	"analyzing": "İncelemede",
}

// ExportHandler: filtrelenmiş işlem listesini xlsx olarak indirir
func ExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		rows, err := listTransactions(c, userID)
		if err != nil {
			return err
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := f.GetSheetName(0)
		for i, h := range exportHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for i := range rows {
			resp := toResponse(&rows[i])
			values := []any{
				resp.TypeLabel,
				resp.DocumentNo,
				resp.Description,
				resp.Counterparty,
				resp.Amount.InexactFloat64(),
				resp.Currency,
				resp.TransactionDate,
				statusLabels[resp.Status],
			}
			for j, v := range values {
				cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		fileName := fmt.Sprintf("islemler_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
		return c.Send(buf.Bytes())
	}
}
