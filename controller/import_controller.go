package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"cafefinder/logging"
	"cafefinder/metrics"
	"cafefinder/repository"
	"cafefinder/spreadsheet"
	"cafefinder/utils"

	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxSkippedFlashes = 5
)

func (h *CafeController) ImportCafes(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		render(c, http.StatusOK, "import.html", gin.H{"title": "Import cafes", "columns": spreadsheet.Header})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.AddFlash(c, utils.FlashDanger, "Please choose an .xlsx file to import.")
		c.Redirect(http.StatusFound, "/import-cafes")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		serverError(c, "failed to open uploaded workbook", err)
		return
	}
	defer file.Close()

	cafes, skipped, err := spreadsheet.ReadCafes(file)
	if err != nil {
		logging.FromContext(c).WithError(err).Info("rejected cafe import")
		utils.AddFlash(c, utils.FlashDanger, "The file could not be read as an .xlsx workbook with cafe rows.")
		c.Redirect(http.StatusFound, "/import-cafes")
		return
	}
	for i, s := range skipped {
		if i == maxSkippedFlashes {
			utils.AddFlash(c, utils.FlashInfo, fmt.Sprintf("... and %d more rows skipped.", len(skipped)-i))
			break
		}
		utils.AddFlash(c, utils.FlashInfo, "Skipped "+s.Error())
	}
	if len(cafes) == 0 {
		utils.AddFlash(c, utils.FlashDanger, "No valid rows found.")
		c.Redirect(http.StatusFound, "/import-cafes")
		return
	}

	userID, _ := utils.CurrentUserID(c)
	for i := range cafes {
		cafes[i].OwnerID = userID
	}

	if err := h.cafes.CreateBatch(c.Request.Context(), cafes); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.AddFlash(c, utils.FlashDanger, "At least one cafe in the file already exists. Nothing was imported.")
			c.Redirect(http.StatusFound, "/import-cafes")
			return
		}
		serverError(c, "failed to import cafes", err)
		return
	}

	metrics.CafeChanged("import", len(cafes))
	logging.FromContext(c).WithField("count", len(cafes)).Info("cafes imported")
	utils.AddFlash(c, utils.FlashSuccess, fmt.Sprintf("Imported %d cafes.", len(cafes)))
	c.Redirect(http.StatusFound, "/")
}

func (h *CafeController) ExportCafes(c *gin.Context) {
	cafes, err := h.cafes.List(c.Request.Context())
	if err != nil {
		serverError(c, "failed to list cafes", err)
		return
	}

	filename := fmt.Sprintf("cafes-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := spreadsheet.WriteCafes(c.Writer, cafes); err != nil {
		_ = c.Error(err)
		logging.FromContext(c).WithError(err).Error("failed to write cafe export")
	}
}
