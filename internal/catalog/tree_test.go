package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/models"
)

// buildTestTree returns Kitchen > Cookware > Pans plus a sibling root.
func buildTestTree() (*fakeCategoryStore, *models.Category, *models.Category, *models.Category) {
	store := newFakeCategoryStore()
	kitchen := store.add("Kitchen", nil)
	cookware := store.add("Cookware", &kitchen.ID)
	pans := store.add("Pans", &cookware.ID)
	store.add("Garden", nil)
	return store, kitchen, cookware, pans
}

func newTestTree(store *fakeCategoryStore, products *fakeProductStore, assets *fakeAssetStore) *TreeService {
	var resolver *Resolver
	if assets != nil {
		resolver = NewResolver(assets, testLogger())
	}
	if products == nil {
		products = newFakeProductStore()
	}
	return NewTreeService(store, products, resolver, testLogger())
}

func TestBuildPath_RootFirstOrder(t *testing.T) {
	store, kitchen, _, pans := buildTestTree()
	tree := newTestTree(store, nil, nil)

	path, err := tree.BuildPath(context.Background(), "t1", pans.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen > Cookware > Pans", path)

	path, err = tree.BuildPath(context.Background(), "t1", kitchen.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", path)
}

func TestBuildPath_BrokenChainFails(t *testing.T) {
	store := newFakeCategoryStore()
	missing := uuid.New()
	orphan := store.add("Orphan", &missing)
	tree := newTestTree(store, nil, nil)

	_, err := tree.BuildPath(context.Background(), "t1", orphan.ID)
	require.Error(t, err)
	assert.True(t, isNotFound(err))
}

func TestBuildPath_CycleTerminates(t *testing.T) {
	store := newFakeCategoryStore()
	a := store.add("A", nil)
	b := store.add("B", &a.ID)
	a.ParentID = &b.ID // corrupt the chain into a cycle
	tree := newTestTree(store, nil, nil)

	path, err := tree.BuildPath(context.Background(), "t1", b.ID)
	require.NoError(t, err)
	assert.Equal(t, "A > B", path)
}

func TestIsDescendantOf_Reflexive(t *testing.T) {
	store, kitchen, _, _ := buildTestTree()
	tree := newTestTree(store, nil, nil)

	ok, err := tree.IsDescendantOf(context.Background(), "t1", kitchen.ID, kitchen.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsDescendantOf_DeepAndNegative(t *testing.T) {
	store, kitchen, cookware, pans := buildTestTree()
	tree := newTestTree(store, nil, nil)
	ctx := context.Background()

	ok, err := tree.IsDescendantOf(ctx, "t1", pans.ID, kitchen.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tree.IsDescendantOf(ctx, "t1", kitchen.ID, pans.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	garden, err := store.ByName(ctx, "t1", "Garden", true)
	require.NoError(t, err)
	ok, err = tree.IsDescendantOf(ctx, "t1", cookware.ID, garden.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsDescendantOf_MissingNodeIsFalse(t *testing.T) {
	store, kitchen, _, _ := buildTestTree()
	tree := newTestTree(store, nil, nil)

	ok, err := tree.IsDescendantOf(context.Background(), "t1", uuid.New(), kitchen.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCollectDescendantIDs_IncludesRoot(t *testing.T) {
	store, kitchen, cookware, pans := buildTestTree()
	tree := newTestTree(store, nil, nil)

	ids, err := tree.CollectDescendantIDs(context.Background(), "t1", kitchen.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{kitchen.ID, cookware.ID, pans.ID}, ids)
}

func TestResolveByName_RootOnly(t *testing.T) {
	store, _, cookware, _ := buildTestTree()
	tree := newTestTree(store, nil, nil)
	ctx := context.Background()

	// Cookware is not a root, so the root-only lookup misses it.
	_, err := tree.ResolveByName(ctx, "t1", "cookware", true)
	require.Error(t, err)

	found, err := tree.ResolveByName(ctx, "t1", "COOKWARE", false)
	require.NoError(t, err)
	assert.Equal(t, cookware.ID, found.ID)
}

func TestDeleteCascade_RemovesSubtreeProductsAndImages(t *testing.T) {
	store, kitchen, cookware, pans := buildTestTree()
	products := newFakeProductStore()
	assets := &fakeAssetStore{}
	tree := newTestTree(store, products, assets)
	ctx := context.Background()

	img := "https://cdn.test/upload/v1/products/pan.jpg"
	catImg := "https://cdn.test/upload/v1/categories/cookware.jpg"
	cookware.ImageURL = &catImg
	require.NoError(t, products.Create(ctx, "t1", &models.Product{
		Name:           "Pan",
		MainCategoryID: kitchen.ID,
		SubCategoryID:  &pans.ID,
		MainImage:      &img,
	}))

	result, err := tree.DeleteCascade(ctx, "t1", kitchen.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.CategoriesDeleted)
	assert.Equal(t, 1, result.ProductsDeleted)
	assert.Equal(t, 2, result.ImagesRemoved)
	// The unrelated Garden root must survive the cascade.
	require.Len(t, store.categories, 1)
	for _, remaining := range store.categories {
		assert.Equal(t, "Garden", remaining.Name)
	}
	assert.Empty(t, products.products)
	assert.ElementsMatch(t, []string{"products/pan", "categories/cookware"}, assets.destroyed)
}

func TestDeleteCascade_UnknownCategory(t *testing.T) {
	store, _, _, _ := buildTestTree()
	tree := newTestTree(store, nil, &fakeAssetStore{})

	_, err := tree.DeleteCascade(context.Background(), "t1", uuid.New())
	require.Error(t, err)
	assert.True(t, isNotFound(err))
}

func TestBuildTree_PathsAndOrphans(t *testing.T) {
	store, kitchen, cookware, pans := buildTestTree()
	missing := uuid.New()
	orphan := store.add("Orphan", &missing)
	tree := newTestTree(store, nil, nil)

	var flat []models.Category
	for _, cat := range store.categories {
		flat = append(flat, *cat)
	}
	roots := tree.BuildTree(flat)

	byName := make(map[string]*models.CategoryTreeNode)
	var walk func(nodes []*models.CategoryTreeNode)
	walk = func(nodes []*models.CategoryTreeNode) {
		for _, node := range nodes {
			byName[node.Category.Name] = node
			walk(node.Children)
		}
	}
	walk(roots)

	assert.Len(t, roots, 3) // Kitchen, Garden, promoted Orphan
	assert.Equal(t, "Kitchen", byName[kitchen.Name].Path)
	assert.Equal(t, "Kitchen > Cookware", byName[cookware.Name].Path)
	assert.Equal(t, "Kitchen > Cookware > Pans", byName[pans.Name].Path)
	assert.Equal(t, "Orphan", byName[orphan.Name].Path)
}
