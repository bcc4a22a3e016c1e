package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
)

// maxTreeDepth bounds upward walks so a corrupted parent chain can never
// spin forever even if the visited set is somehow defeated.
const maxTreeDepth = 64

// TreeService answers structural questions about the category tree.
// All traversals are iterative with a visited set, so cyclic parent
// links terminate instead of recursing without bound.
type TreeService struct {
	store    CategoryStore
	products ProductStore
	assets   *Resolver
	logger   *logrus.Entry
}

func NewTreeService(store CategoryStore, products ProductStore, assets *Resolver, logger *logrus.Logger) *TreeService {
	return &TreeService{
		store:    store,
		products: products,
		assets:   assets,
		logger:   logger.WithField("component", "category-tree"),
	}
}

// ResolveByName finds a category by case-insensitive name. Main categories
// must resolve among roots only; sub categories may live anywhere.
func (s *TreeService) ResolveByName(ctx context.Context, tenantID, name string, rootOnly bool) (*models.Category, error) {
	return s.store.ByName(ctx, tenantID, strings.TrimSpace(name), rootOnly)
}

// BuildPath walks from id up to the root and returns the display path,
// e.g. "Kitchen > Cookware > Pans".
func (s *TreeService) BuildPath(ctx context.Context, tenantID string, id uuid.UUID) (string, error) {
	var names []string
	visited := make(map[uuid.UUID]bool)

	current := id
	for depth := 0; depth < maxTreeDepth; depth++ {
		if visited[current] {
			s.logger.WithField("category_id", current).Warn("Cycle detected in category parent chain")
			break
		}
		visited[current] = true

		cat, err := s.store.ByID(ctx, tenantID, current)
		if err != nil {
			return "", err
		}
		names = append(names, cat.Name)
		if cat.ParentID == nil {
			break
		}
		current = *cat.ParentID
	}

	// Collected leaf-first; reverse into root-first order.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " > "), nil
}

// IsDescendantOf reports whether candidate sits under ancestor. A category
// counts as its own descendant. Walks terminate on a missing or cyclic
// parent link and report false rather than erroring.
func (s *TreeService) IsDescendantOf(ctx context.Context, tenantID string, candidate, ancestor uuid.UUID) (bool, error) {
	if candidate == ancestor {
		return true, nil
	}

	visited := make(map[uuid.UUID]bool)
	current := candidate
	for depth := 0; depth < maxTreeDepth; depth++ {
		if visited[current] {
			return false, nil
		}
		visited[current] = true

		cat, err := s.store.ByID(ctx, tenantID, current)
		if err != nil {
			if isNotFound(err) {
				return false, nil
			}
			return false, err
		}
		if cat.ParentID == nil {
			return false, nil
		}
		if *cat.ParentID == ancestor {
			return true, nil
		}
		current = *cat.ParentID
	}
	return false, nil
}

// CollectDescendantIDs returns id plus every category underneath it,
// breadth first.
func (s *TreeService) CollectDescendantIDs(ctx context.Context, tenantID string, id uuid.UUID) ([]uuid.UUID, error) {
	var result []uuid.UUID
	visited := make(map[uuid.UUID]bool)

	queue := []uuid.UUID{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		result = append(result, current)

		children, err := s.store.Children(ctx, tenantID, current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			queue = append(queue, child.ID)
		}
	}
	return result, nil
}

// BuildTree assembles the full category forest for a tenant from a flat
// listing, attaching a display path to every node. Orphans whose parent is
// missing are promoted to roots so the tree never silently drops data.
func (s *TreeService) BuildTree(categories []models.Category) []*models.CategoryTreeNode {
	nodes := make(map[uuid.UUID]*models.CategoryTreeNode, len(categories))
	for i := range categories {
		cat := categories[i]
		nodes[cat.ID] = &models.CategoryTreeNode{Category: cat}
	}

	var roots []*models.CategoryTreeNode
	for _, node := range nodes {
		if node.Category.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*node.Category.ParentID]
		if !ok || parent == node {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	// Iterative path assignment; a work stack instead of recursion.
	type frame struct {
		node *models.CategoryTreeNode
		path string
	}
	stack := make([]frame, 0, len(roots))
	for _, root := range roots {
		stack = append(stack, frame{node: root, path: root.Category.Name})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f.node.Path = f.path
		for _, child := range f.node.Children {
			stack = append(stack, frame{node: child, path: f.path + " > " + child.Category.Name})
		}
	}
	return roots
}

// CascadeResult summarizes a subtree deletion.
type CascadeResult struct {
	CategoriesDeleted int64
	ProductsDeleted   int
	ImagesRemoved     int
}

// DeleteCascade removes the category, its whole subtree, every product
// referencing any of those categories, and the remote images of both the
// categories and the products. Image removal is best effort: a failed
// destroy is logged and never blocks the delete.
func (s *TreeService) DeleteCascade(ctx context.Context, tenantID string, id uuid.UUID) (*CascadeResult, error) {
	ids, err := s.CollectDescendantIDs(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	categories, err := s.store.ListByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, notFoundf("category %s", id)
	}

	imageURLs, productCount, err := s.products.DeleteByCategoryIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	for _, cat := range categories {
		if cat.ImageURL != nil && *cat.ImageURL != "" {
			imageURLs = append(imageURLs, *cat.ImageURL)
		}
	}

	deleted, err := s.store.DeleteByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	removed := 0
	if s.assets != nil {
		for _, url := range imageURLs {
			if s.assets.Remove(ctx, url) {
				removed++
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"root_id":    id,
		"categories": deleted,
		"images":     removed,
	}).Info("Category subtree deleted")

	return &CascadeResult{
		CategoriesDeleted: deleted,
		ProductsDeleted:   int(productCount),
		ImagesRemoved:     removed,
	}, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
