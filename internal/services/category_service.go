package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/storage"
)

// CategoryInput is the category form.
type CategoryInput struct {
	Name  string
	Color string
	Icon  string
}

func (in CategoryInput) category(userID, id string) (core.Category, error) {
	c := core.Category{
		ID:     id,
		UserID: userID,
		Name:   strings.TrimSpace(in.Name),
		Color:  strings.ToUpper(strings.TrimSpace(in.Color)),
		Icon:   strings.TrimSpace(in.Icon),
	}
	v := core.ValidationErrors{}
	if c.Name == "" || len([]rune(c.Name)) > core.MaxCategoryNameLength {
		v.AddErr("name", core.ErrInvalidName)
	}
	if !core.IsHexColor(c.Color) {
		v.AddErr("color", core.ErrInvalidColor)
	}
	return c, v.Err()
}

type CategoryService struct {
	store storage.CategoryStore
	Clock Clock
}

func NewCategoryService(store storage.CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// List returns the user's categories, defaults first.
func (s *CategoryService) List(ctx context.Context, userID string) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *CategoryService) Get(ctx context.Context, userID, id string) (core.Category, error) {
	return s.store.GetCategory(ctx, userID, id)
}

func (s *CategoryService) Create(ctx context.Context, userID string, in CategoryInput) (core.Category, error) {
	c, err := in.category(userID, core.NewID())
	if err != nil {
		return core.Category{}, err
	}
	c.CreatedAt = s.Clock.now()
	if err := s.store.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return core.Category{}, ErrDuplicateCategory
		}
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category created", "user_id", userID, "category_id", c.ID)
	return c, nil
}

// Update changes name, color and icon. Defaults may be renamed.
func (s *CategoryService) Update(ctx context.Context, userID, id string, in CategoryInput) (core.Category, error) {
	existing, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	c, err := in.category(userID, id)
	if err != nil {
		return core.Category{}, err
	}
	c.IsDefault = existing.IsDefault
	c.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return core.Category{}, ErrDuplicateCategory
		}
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// Delete removes a custom category. A category that still has expenses or
// budgets is only removed when reassignTo names another of the user's
// categories; its rows move there first.
func (s *CategoryService) Delete(ctx context.Context, userID, id, reassignTo string) error {
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if c.IsDefault {
		return ErrDefaultCategory
	}

	if reassignTo != "" {
		if reassignTo == id {
			return ErrInvalidReassign
		}
		if _, err := s.store.GetCategory(ctx, userID, reassignTo); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrInvalidReassign
			}
			return err
		}
	} else {
		expenses, budgets, err := s.store.CategoryUsage(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("category usage: %w", err)
		}
		if expenses > 0 || budgets > 0 {
			return ErrCategoryInUse
		}
	}

	if err := s.store.DeleteCategory(ctx, userID, id, reassignTo); err != nil {
		if errors.Is(err, storage.ErrInUse) {
			return ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	slog.InfoContext(ctx, "Category deleted", "user_id", userID, "category_id", id, "reassigned_to", reassignTo)
	return nil
}
