package catalog

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeCategoryStore is an in-memory CategoryStore.
type fakeCategoryStore struct {
	categories map[uuid.UUID]*models.Category
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{categories: make(map[uuid.UUID]*models.Category)}
}

func (f *fakeCategoryStore) add(name string, parentID *uuid.UUID) *models.Category {
	cat := &models.Category{ID: uuid.New(), TenantID: "t1", Name: name, ParentID: parentID, IsActive: true}
	f.categories[cat.ID] = cat
	return cat
}

func (f *fakeCategoryStore) ByID(_ context.Context, _ string, id uuid.UUID) (*models.Category, error) {
	cat, ok := f.categories[id]
	if !ok {
		return nil, notFoundf("category %s", id)
	}
	return cat, nil
}

func (f *fakeCategoryStore) ByName(_ context.Context, _ string, name string, rootOnly bool) (*models.Category, error) {
	for _, cat := range f.categories {
		if !strings.EqualFold(cat.Name, name) {
			continue
		}
		if rootOnly && cat.ParentID != nil {
			continue
		}
		return cat, nil
	}
	return nil, notFoundf("category %q", name)
}

func (f *fakeCategoryStore) Children(_ context.Context, _ string, parentID uuid.UUID) ([]models.Category, error) {
	var out []models.Category
	for _, cat := range f.categories {
		if cat.ParentID != nil && *cat.ParentID == parentID {
			out = append(out, *cat)
		}
	}
	return out, nil
}

func (f *fakeCategoryStore) ListByIDs(_ context.Context, _ string, ids []uuid.UUID) ([]models.Category, error) {
	var out []models.Category
	for _, id := range ids {
		if cat, ok := f.categories[id]; ok {
			out = append(out, *cat)
		}
	}
	return out, nil
}

func (f *fakeCategoryStore) DeleteByIDs(_ context.Context, _ string, ids []uuid.UUID) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := f.categories[id]; ok {
			delete(f.categories, id)
			deleted++
		}
	}
	return deleted, nil
}

// fakeProductStore is an in-memory ProductStore.
type fakeProductStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
	// createErr fails the next Create when set.
	createErr error
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[uuid.UUID]*models.Product)}
}

func (f *fakeProductStore) FindByName(_ context.Context, _ string, name string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductStore) GetByID(_ context.Context, _ string, id uuid.UUID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, notFoundf("product %s", id)
	}
	return p, nil
}

func (f *fakeProductStore) Create(_ context.Context, _ string, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductStore) Replace(_ context.Context, _ string, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[product.ID]; !ok {
		return notFoundf("product %s", product.ID)
	}
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductStore) DeleteByCategoryIDs(_ context.Context, _ string, ids []uuid.UUID) ([]string, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	match := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		match[id] = true
	}
	var urls []string
	var count int64
	for id, p := range f.products {
		if match[p.MainCategoryID] || (p.SubCategoryID != nil && match[*p.SubCategoryID]) {
			urls = append(urls, p.ImageURLs()...)
			delete(f.products, id)
			count++
		}
	}
	return urls, count, nil
}

// fakeAssetStore records uploads and destroys in memory.
type fakeAssetStore struct {
	mu        sync.Mutex
	uploaded  []string
	destroyed []string
	uploadErr error
}

func (f *fakeAssetStore) Upload(_ context.Context, _ io.Reader, filename, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	url := "https://cdn.test/upload/v1/" + folder + "/" + stem + filepath.Ext(filename)
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeAssetStore) Destroy(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

func (f *fakeAssetStore) Duplicate(_ context.Context, url, folder string) (string, error) {
	return url + "-copy", nil
}

// progressRecorder captures emitted progress snapshots.
type progressRecorder struct {
	mu        sync.Mutex
	snapshots []models.ImportProgress
}

func (p *progressRecorder) EmitProgress(_ context.Context, _ string, progress models.ImportProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, progress)
}
