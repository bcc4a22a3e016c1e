package handlers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
)

// MaxImportFileSize caps the uploaded workbook and image bundle.
const MaxImportFileSize = 25 << 20

type ImportHandler struct {
	orchestrator *catalog.Orchestrator
	logger       *logrus.Logger
}

func NewImportHandler(orchestrator *catalog.Orchestrator, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{orchestrator: orchestrator, logger: logger}
}

// GetImportTemplate downloads the Excel import template
// @Summary Download product import template
// @Tags import
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /products/import/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	h.generateXLSXTemplate(c, models.ProductImportTemplate())
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	// Style for header row
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Style for required columns
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Write header row only (no sample data)
	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		// Set column width
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	// Add Instructions sheet
	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")

	f.SetCellValue("Instructions", "A3", "HOW ROWS BECOME PRODUCTS:")
	f.SetCellValue("Instructions", "A4", "- Rows with the same productName (case-insensitive) form one product.")
	f.SetCellValue("Instructions", "A5", "- For variant products set hasVariants=TRUE and give every row a colorName; rows with the same colorName become sizes of that variant.")
	f.SetCellValue("Instructions", "A6", "- Categories must already exist: mainCategory is a root category name, subCategory must live under it.")
	f.SetCellValue("Instructions", "A7", "- Image columns name files inside the ZIP bundle uploaded next to this sheet.")

	f.SetCellValue("Instructions", "A9", "DIMENSION PRICING:")
	f.SetCellValue("Instructions", "A10", `- Dynamic: [{"1*1*1":"250"}] - one formula record, price per unit volume.`)
	f.SetCellValue("Instructions", "A11", `- Static: [{"10*10*5":{"price":"300","stock":"20","bulkPricing":[]}}] - one entry per size.`)
	f.SetCellValue("Instructions", "A12", "- Dimension pricing and variants cannot be combined on the same product.")

	f.SetCellValue("Instructions", "A14", "Column Definitions:")
	f.SetCellValue("Instructions", "A15", "Column")
	f.SetCellValue("Instructions", "B15", "Description")
	f.SetCellValue("Instructions", "C15", "Required")
	f.SetCellValue("Instructions", "D15", "Type")
	f.SetCellValue("Instructions", "E15", "Example")

	for i, col := range template.Columns {
		row := i + 16
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	// Set active sheet to Products
	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")

	f.Write(c.Writer)
}

// ImportProducts runs the bulk import: an Excel workbook plus an optional ZIP
// image bundle. Partial failure still answers 200 with the per-product ledger;
// only a batch-level hard failure (bad file, no rows) answers 4xx.
// POST /api/v1/products/import
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)

	workbook, bundle, ok := h.openUploads(c)
	if !ok {
		return
	}
	defer workbook.Close()
	if bundle != nil {
		defer bundle.Close()
	}

	input := catalog.BatchInput{
		TenantID: tenantID,
		ActorID:  userID,
		Workbook: workbook,
	}
	if bundle != nil {
		input.Bundle = bundle
	}

	result, err := h.orchestrator.Import(c.Request.Context(), input)
	if err != nil {
		h.respondHardFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// OverrideProducts replaces existing products wholesale from a corrected
// workbook. Targets are selected by ID and matched to sheet groups by name.
// POST /api/v1/products/import/override
func (h *ImportHandler) OverrideProducts(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)

	rawIDs := c.PostForm("productIds")
	if rawIDs == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "productIds form field is required")
		return
	}
	targetIDs, err := parseTargetIDs(rawIDs)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	workbook, bundle, ok := h.openUploads(c)
	if !ok {
		return
	}
	defer workbook.Close()
	if bundle != nil {
		defer bundle.Close()
	}

	input := catalog.BatchInput{
		TenantID: tenantID,
		ActorID:  userID,
		Workbook: workbook,
	}
	if bundle != nil {
		input.Bundle = bundle
	}

	result, err := h.orchestrator.Override(c.Request.Context(), input, targetIDs)
	if err != nil {
		h.respondHardFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// openUploads pulls the workbook ("file") and optional image bundle
// ("images") out of the multipart form. Replies itself on failure.
func (h *ImportHandler) openUploads(c *gin.Context) (multipart.File, multipart.File, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "Please upload an Excel file")
		return nil, nil, false
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		file.Close()
		respondError(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", "Only .xlsx workbooks are supported")
		return nil, nil, false
	}
	if header.Size > MaxImportFileSize {
		file.Close()
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Workbook exceeds the upload limit")
		return nil, nil, false
	}

	bundle, bundleHeader, err := c.Request.FormFile("images")
	if err != nil {
		return file, nil, true
	}
	if bundleHeader.Size > MaxImportFileSize {
		file.Close()
		bundle.Close()
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Image bundle exceeds the upload limit")
		return nil, nil, false
	}
	return file, bundle, true
}

func (h *ImportHandler) respondHardFailure(c *gin.Context, err error) {
	h.logger.WithField("component", "import").WithError(err).Warn("Batch import aborted")
	if catalog.IsHardFailure(err) {
		c.JSON(http.StatusBadRequest, models.BatchImportResult{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	respondCatalogError(c, err)
}

// parseTargetIDs accepts either a JSON array or a comma-separated list.
func parseTargetIDs(raw string) ([]uuid.UUID, error) {
	var parts []string
	if strings.HasPrefix(strings.TrimSpace(raw), "[") {
		if err := json.Unmarshal([]byte(raw), &parts); err != nil {
			return nil, fmt.Errorf("invalid productIds: %w", err)
		}
	} else {
		parts = strings.Split(raw, ",")
	}

	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("invalid product ID %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("productIds is empty")
	}
	return ids, nil
}
