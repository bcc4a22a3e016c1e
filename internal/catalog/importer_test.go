package catalog

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"storefront-service/internal/models"
)

// buildWorkbook renders an in-memory xlsx with the given header row and
// data rows on a "Products" sheet.
func buildWorkbook(t *testing.T, headers []string, rows [][]string) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Products"))

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Products", cell, header))
	}
	for r, dataRow := range rows {
		for c, value := range dataRow {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Products", cell, value))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

type orchestratorFixture struct {
	categories *fakeCategoryStore
	products   *fakeProductStore
	assets     *fakeAssetStore
	progress   *progressRecorder
	orch       *Orchestrator
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	categories := newFakeCategoryStore()
	kitchen := categories.add("Kitchen", nil)
	categories.add("Cookware", &kitchen.ID)

	products := newFakeProductStore()
	assets := &fakeAssetStore{}
	progress := &progressRecorder{}

	logger := testLogger()
	resolver := NewResolver(assets, logger)
	tree := NewTreeService(categories, products, resolver, logger)
	assembler := NewAssembler(tree, resolver, logger)
	orch := NewOrchestrator(assembler, products, resolver, progress, logger)

	return &orchestratorFixture{
		categories: categories,
		products:   products,
		assets:     assets,
		progress:   progress,
		orch:       orch,
	}
}

var standardHeaders = []string{"Product Name *", "Main Category *", "Sub Category", "Has Variants", "Price", "Stock"}

func TestImport_DuplicateRowsCollapseToOneProduct(t *testing.T) {
	f := newOrchestratorFixture(t)
	workbook := buildWorkbook(t, standardHeaders, [][]string{
		{"Mug", "Kitchen", "", "false", "100", "5"},
		{"Mug", "Kitchen", "", "false", "100", "5"},
	})

	result, err := f.orch.Import(context.Background(), BatchInput{TenantID: "t1", Workbook: workbook})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Results.Successful, 1)
	success := result.Results.Successful[0]
	assert.Equal(t, "Mug", success.ProductName)
	assert.Equal(t, 2, success.RowsProcessed)
	assert.Equal(t, "Kitchen", success.CategoryPath)
	assert.Equal(t, 1, result.Results.SuccessCount)
	assert.Zero(t, result.Results.FailCount)
	assert.Equal(t, 1, result.Results.TotalProcessed)
	assert.Len(t, f.products.products, 1)
}

func TestImport_FailureIsolation(t *testing.T) {
	f := newOrchestratorFixture(t)
	workbook := buildWorkbook(t, standardHeaders, [][]string{
		{"Broken", "NoSuchCategory", "", "false", "100", "5"},
		{"Mug", "Kitchen", "", "false", "100", "5"},
		{"", "Kitchen", "", "false", "1", "1"},
	})

	result, err := f.orch.Import(context.Background(), BatchInput{TenantID: "t1", Workbook: workbook})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Results.SuccessCount)
	assert.Equal(t, 2, result.Results.FailCount)
	assert.Equal(t, 3, result.Results.TotalProcessed)

	var reasons []string
	for _, failed := range result.Results.Failed {
		reasons = append(reasons, failed.Error)
	}
	assert.Contains(t, reasons, "Missing product name")
	assert.Contains(t, reasons[1], "Main category not found: NoSuchCategory")

	// The good product landed despite its neighbors failing.
	created, err := f.products.FindByName(context.Background(), "t1", "Mug")
	require.NoError(t, err)
	require.NotNil(t, created)
}

func TestImport_ExistingProductsAreSurfacedNotSkippedSilently(t *testing.T) {
	f := newOrchestratorFixture(t)
	existing := &models.Product{Name: "Mug", CategoryPath: "Kitchen", TenantID: "t1"}
	require.NoError(t, f.products.Create(context.Background(), "t1", existing))

	workbook := buildWorkbook(t, standardHeaders, [][]string{
		{"mug", "Kitchen", "", "false", "100", "5"},
		{"Bowl", "Kitchen", "", "false", "50", "2"},
	})

	result, err := f.orch.Import(context.Background(), BatchInput{TenantID: "t1", Workbook: workbook})
	require.NoError(t, err)

	require.Len(t, result.ExistingProducts, 1)
	assert.Equal(t, existing.ID.String(), result.ExistingProducts[0].ProductID)
	assert.Equal(t, "Mug", result.ExistingProducts[0].Name)
	assert.Equal(t, 1, result.Results.SuccessCount)
	assert.Len(t, f.products.products, 2)
}

func TestImport_ProgressEmittedPerProduct(t *testing.T) {
	f := newOrchestratorFixture(t)
	workbook := buildWorkbook(t, standardHeaders, [][]string{
		{"Mug", "Kitchen", "", "false", "100", "5"},
		{"Bowl", "NoSuchCategory", "", "false", "50", "2"},
	})

	_, err := f.orch.Import(context.Background(), BatchInput{TenantID: "t1", Workbook: workbook})
	require.NoError(t, err)

	require.Len(t, f.progress.snapshots, 2)
	assert.Equal(t, models.ImportProgress{Processed: 1, Total: 2, SuccessCount: 1}, f.progress.snapshots[0])
	assert.Equal(t, models.ImportProgress{Processed: 2, Total: 2, SuccessCount: 1, FailCount: 1}, f.progress.snapshots[1])
}

func TestImport_PersistErrorLandsInLedger(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.products.createErr = assert.AnError
	workbook := buildWorkbook(t, standardHeaders, [][]string{
		{"Mug", "Kitchen", "", "false", "100", "5"},
	})

	result, err := f.orch.Import(context.Background(), BatchInput{TenantID: "t1", Workbook: workbook})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Results.FailCount)
	require.Len(t, result.Results.Failed, 1)
	assert.Equal(t, "Mug", result.Results.Failed[0].ProductName)
	assert.Equal(t, []int{2}, result.Results.Failed[0].RowsAffected)
}

func TestImport_EmptyWorkbookIsHardFailure(t *testing.T) {
	f := newOrchestratorFixture(t)
	workbook := buildWorkbook(t, standardHeaders, nil)

	_, err := f.orch.Import(context.Background(), BatchInput{TenantID: "t1", Workbook: workbook})
	require.Error(t, err)
	assert.True(t, IsHardFailure(err))
}

func TestImport_CorruptBundleIsHardFailure(t *testing.T) {
	f := newOrchestratorFixture(t)
	workbook := buildWorkbook(t, standardHeaders, [][]string{
		{"Mug", "Kitchen", "", "false", "100", "5"},
	})

	_, err := f.orch.Import(context.Background(), BatchInput{
		TenantID: "t1",
		Workbook: workbook,
		Bundle:   bytes.NewReader([]byte("not a zip archive")),
	})
	require.Error(t, err)
	assert.True(t, IsHardFailure(err))
}

func TestImport_TempDirRemovedOnBothPaths(t *testing.T) {
	f := newOrchestratorFixture(t)

	before := countTempBatchDirs(t)

	workbook := buildWorkbook(t, standardHeaders, [][]string{
		{"Mug", "Kitchen", "", "false", "100", "5"},
	})
	_, err := f.orch.Import(context.Background(), BatchInput{TenantID: "t1", Workbook: workbook})
	require.NoError(t, err)

	_, err = f.orch.Import(context.Background(), BatchInput{
		TenantID: "t1",
		Workbook: buildWorkbook(t, standardHeaders, nil),
	})
	require.Error(t, err)

	assert.Equal(t, before, countTempBatchDirs(t))
}

func countTempBatchDirs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(os.TempDir())
	require.NoError(t, err)
	count := 0
	for _, entry := range entries {
		if entry.IsDir() && len(entry.Name()) > 13 && entry.Name()[:13] == "catalog-batch" {
			count++
		}
	}
	return count
}

func TestOverride_ReplacesAndReportsMissingGroups(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	oldImage := "https://cdn.test/upload/v1/products/old-mug.jpg"
	price := 80.0
	mug := &models.Product{Name: "Mug", TenantID: "t1", CategoryPath: "Old Path", MainImage: &oldImage, Price: &price}
	bowl := &models.Product{Name: "Bowl", TenantID: "t1"}
	require.NoError(t, f.products.Create(ctx, "t1", mug))
	require.NoError(t, f.products.Create(ctx, "t1", bowl))

	workbook := buildWorkbook(t, standardHeaders, [][]string{
		{"Mug", "Kitchen", "Cookware", "false", "120", "7"},
	})

	result, err := f.orch.Override(ctx, BatchInput{TenantID: "t1", Workbook: workbook}, []uuid.UUID{mug.ID, bowl.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Results.SuccessCount)
	assert.Equal(t, 1, result.Results.FailCount)
	require.Len(t, result.Results.Failed, 1)
	assert.Equal(t, "Bowl", result.Results.Failed[0].ProductName)
	assert.Equal(t, "Product data not found in Excel", result.Results.Failed[0].Error)

	replaced, err := f.products.GetByID(ctx, "t1", mug.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen > Cookware", replaced.CategoryPath)
	assert.Equal(t, 120.0, *replaced.Price)
}

func TestOverride_UnknownTargetProduct(t *testing.T) {
	f := newOrchestratorFixture(t)
	workbook := buildWorkbook(t, standardHeaders, [][]string{
		{"Mug", "Kitchen", "", "false", "120", "7"},
	})

	ghost := uuid.New()
	result, err := f.orch.Override(context.Background(), BatchInput{TenantID: "t1", Workbook: workbook}, []uuid.UUID{ghost})
	require.NoError(t, err)

	require.Len(t, result.Results.Failed, 1)
	assert.Contains(t, result.Results.Failed[0].Error, "Product not found")
}

func TestOverride_KeptImagesAreNotDeleted(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	oldImage := "https://cdn.test/upload/v1/products/old-mug.jpg"
	price := 80.0
	mug := &models.Product{Name: "Mug", TenantID: "t1", MainImage: &oldImage, Price: &price}
	require.NoError(t, f.products.Create(ctx, "t1", mug))

	// The replacement references no images, so no distinct new image was
	// produced and the old one must survive.
	workbook := buildWorkbook(t, standardHeaders, [][]string{
		{"Mug", "Kitchen", "", "false", "120", "7"},
	})
	_, err := f.orch.Override(ctx, BatchInput{TenantID: "t1", Workbook: workbook}, []uuid.UUID{mug.ID})
	require.NoError(t, err)

	assert.Empty(t, f.assets.destroyed)
}
