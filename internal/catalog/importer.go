package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
)

// Orchestrator drives a bulk import or override batch:
// extract bundle, parse workbook, group rows, then per product
// validate, upload assets and persist, with each product isolated so
// one failure never takes down the rest of the batch.
type Orchestrator struct {
	assembler *Assembler
	products  ProductStore
	assets    *Resolver
	progress  ProgressSink
	logger    *logrus.Entry

	// AssetFolder is the remote folder uploads land in.
	AssetFolder string
}

func NewOrchestrator(assembler *Assembler, products ProductStore, assets *Resolver, progress ProgressSink, logger *logrus.Logger) *Orchestrator {
	if progress == nil {
		progress = NopProgress{}
	}
	return &Orchestrator{
		assembler:   assembler,
		products:    products,
		assets:      assets,
		progress:    progress,
		logger:      logger.WithField("component", "import-orchestrator"),
		AssetFolder: "products",
	}
}

// BatchInput is one uploaded batch: the workbook plus an optional ZIP
// image bundle.
type BatchInput struct {
	TenantID string
	ActorID  string
	Workbook io.Reader
	// Bundle is the ZIP archive of referenced images; nil when the sheet
	// references no local files.
	Bundle io.Reader
}

// Import creates new products from the batch. Groups whose name already
// matches an existing product are excluded from creation and surfaced in
// ExistingProducts for manual conflict resolution.
func (o *Orchestrator) Import(ctx context.Context, in BatchInput) (*models.BatchImportResult, error) {
	return o.run(ctx, in, nil)
}

// Override replaces the products in targetIDs with their sheet groups,
// matched by case-insensitive name. Images no longer referenced by the
// replacement document are deleted best effort.
func (o *Orchestrator) Override(ctx context.Context, in BatchInput, targetIDs []uuid.UUID) (*models.BatchImportResult, error) {
	if len(targetIDs) == 0 {
		return nil, hardFailure("override", fmt.Errorf("no target products given"))
	}
	return o.run(ctx, in, targetIDs)
}

func (o *Orchestrator) run(ctx context.Context, in BatchInput, overrideIDs []uuid.UUID) (*models.BatchImportResult, error) {
	tempDir, err := os.MkdirTemp("", "catalog-batch-*")
	if err != nil {
		return nil, hardFailure("extracting", err)
	}
	// The temp dir goes away on every exit path, including panics
	// escaping per-product recovery.
	defer os.RemoveAll(tempDir)

	bundle, err := o.prepareBundle(in.Bundle, tempDir)
	if err != nil {
		return nil, hardFailure("extracting", err)
	}

	rows, err := ParseWorkbook(in.Workbook)
	if err != nil {
		return nil, hardFailure("parsing", err)
	}

	grouping := GroupRows(rows)
	if len(grouping.Groups) == 0 && len(grouping.Failed) == 0 {
		return nil, hardFailure("grouping", fmt.Errorf("no product rows found"))
	}

	result := &models.BatchImportResult{Success: true}
	result.Results.Failed = append(result.Results.Failed, grouping.Failed...)

	if overrideIDs == nil {
		o.runImport(ctx, in.TenantID, grouping.Groups, bundle, result)
	} else {
		o.runOverride(ctx, in.TenantID, grouping.Groups, overrideIDs, bundle, result)
	}

	res := &result.Results
	res.TotalProcessed = res.SuccessCount + res.FailCount
	result.Message = fmt.Sprintf("Processed %d products: %d succeeded, %d failed",
		res.TotalProcessed, res.SuccessCount, res.FailCount)
	return result, nil
}

func (o *Orchestrator) prepareBundle(archive io.Reader, tempDir string) (*Bundle, error) {
	if archive == nil {
		return &Bundle{}, nil
	}

	zipPath := filepath.Join(tempDir, "bundle.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, archive); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	extractRoot := filepath.Join(tempDir, "images")
	if err := os.MkdirAll(extractRoot, 0o755); err != nil {
		return nil, err
	}
	return ExtractZip(zipPath, extractRoot)
}

func (o *Orchestrator) runImport(ctx context.Context, tenantID string, groups []*ProductGroup, bundle *Bundle, result *models.BatchImportResult) {
	result.Results.FailCount = len(result.Results.Failed)

	// Probe for name collisions up front so existing products are
	// reported instead of silently skipped.
	var pending []*ProductGroup
	for _, group := range groups {
		existing, err := o.products.FindByName(ctx, tenantID, group.Name)
		if err != nil {
			o.recordFailure(result, group, err)
			continue
		}
		if existing != nil {
			result.ExistingProducts = append(result.ExistingProducts, describeExisting(existing))
			continue
		}
		pending = append(pending, group)
	}

	total := len(pending) + result.Results.FailCount

	for _, group := range pending {
		o.processOne(ctx, tenantID, group, bundle, result, func(product *models.Product) error {
			return o.products.Create(ctx, tenantID, product)
		})
		o.emitProgress(ctx, tenantID, result, total)
	}
}

func (o *Orchestrator) runOverride(ctx context.Context, tenantID string, groups []*ProductGroup, targetIDs []uuid.UUID, bundle *Bundle, result *models.BatchImportResult) {
	byName := make(map[string]*ProductGroup, len(groups))
	for _, group := range groups {
		byName[strings.ToLower(group.Name)] = group
	}

	result.Results.FailCount = len(result.Results.Failed)
	total := len(targetIDs) + result.Results.FailCount

	for _, targetID := range targetIDs {
		existing, err := o.products.GetByID(ctx, tenantID, targetID)
		if err != nil {
			result.Results.Failed = append(result.Results.Failed, models.FailedProduct{
				ProductName: targetID.String(),
				Error:       "Product not found: " + targetID.String(),
			})
			result.Results.FailCount++
			o.emitProgress(ctx, tenantID, result, total)
			continue
		}

		group, ok := byName[strings.ToLower(existing.Name)]
		if !ok {
			result.Results.Failed = append(result.Results.Failed, models.FailedProduct{
				ProductName: existing.Name,
				Error:       "Product data not found in Excel",
			})
			result.Results.FailCount++
			o.emitProgress(ctx, tenantID, result, total)
			continue
		}

		oldImages := existing.ImageURLs()
		o.processOne(ctx, tenantID, group, bundle, result, func(product *models.Product) error {
			product.ID = existing.ID
			product.CreatedAt = existing.CreatedAt
			product.CreatedBy = existing.CreatedBy
			if err := o.products.Replace(ctx, tenantID, product); err != nil {
				return err
			}
			o.removeOrphanedImages(ctx, oldImages, product.ImageURLs())
			return nil
		})
		o.emitProgress(ctx, tenantID, result, total)
	}
}

// processOne assembles and persists a single product group. A panic while
// processing is converted into a ledger entry so the batch keeps going.
func (o *Orchestrator) processOne(ctx context.Context, tenantID string, group *ProductGroup, bundle *Bundle, result *models.BatchImportResult, persist func(*models.Product) error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{
				"tenant_id": tenantID,
				"product":   group.Name,
			}).Errorf("Panic while processing product: %v", r)
			o.recordFailure(result, group, fmt.Errorf("internal error: %v", r))
		}
	}()

	product, err := o.assembler.Assemble(ctx, tenantID, group, bundle, o.AssetFolder)
	if err != nil {
		o.recordFailure(result, group, err)
		return
	}
	if err := persist(product); err != nil {
		o.recordFailure(result, group, err)
		return
	}

	result.Results.Successful = append(result.Results.Successful, models.SuccessfulProduct{
		ProductName:   product.Name,
		ProductID:     product.ID.String(),
		CategoryPath:  product.CategoryPath,
		VariantsCount: len(product.Variants),
		RowsProcessed: len(group.Rows),
	})
	result.Results.SuccessCount++
	result.Results.Warnings = append(result.Results.Warnings, group.Warnings...)
}

func (o *Orchestrator) recordFailure(result *models.BatchImportResult, group *ProductGroup, err error) {
	result.Results.Failed = append(result.Results.Failed, models.FailedProduct{
		ProductName:  group.Name,
		Error:        err.Error(),
		RowsAffected: group.RowNumbers(),
	})
	result.Results.FailCount++
}

// removeOrphanedImages deletes old images that no new image replaced.
// An old URL carried over into the new document is still live and kept.
func (o *Orchestrator) removeOrphanedImages(ctx context.Context, oldURLs, newURLs []string) {
	if len(newURLs) == 0 {
		return
	}
	live := make(map[string]bool, len(newURLs))
	for _, url := range newURLs {
		live[url] = true
	}
	for _, url := range oldURLs {
		if url != "" && !live[url] {
			o.assets.Remove(ctx, url)
		}
	}
}

func (o *Orchestrator) emitProgress(ctx context.Context, tenantID string, result *models.BatchImportResult, total int) {
	o.progress.EmitProgress(ctx, tenantID, models.ImportProgress{
		Processed:    result.Results.SuccessCount + result.Results.FailCount,
		Total:        total,
		SuccessCount: result.Results.SuccessCount,
		FailCount:    result.Results.FailCount,
	})
}

func describeExisting(p *models.Product) models.ExistingProduct {
	image := ""
	if p.MainImage != nil {
		image = *p.MainImage
	}
	return models.ExistingProduct{
		ProductID:     p.ID.String(),
		Name:          p.Name,
		Image:         image,
		CategoryPath:  p.CategoryPath,
		HasVariants:   p.HasVariants,
		VariantsCount: len(p.Variants),
	}
}
