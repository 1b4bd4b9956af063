package http

import (
	"net/http"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/services"
)

type categoriesView struct {
	Categories []core.Category
	// Palette offers preset colors in the form.
	Palette []string
}

var categoryPalette = []string{
	"#EF4444", "#F59E0B", "#10B981", "#06B6D4", "#3B82F6",
	"#6366F1", "#8B5CF6", "#EC4899", "#6B7280",
}

func (s *Server) categoriesView(r *http.Request) (categoriesView, error) {
	cats, err := s.svc.Categories.List(r.Context(), userID(r))
	if err != nil {
		return categoriesView{}, err
	}
	return categoriesView{Categories: cats, Palette: categoryPalette}, nil
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	v, err := s.categoriesView(r)
	if err != nil {
		s.internalError(w, r, err, "list_categories")
		return
	}
	s.render(w, r, http.StatusOK, "categories", pageData{Title: "Categories", Nav: "categories", View: v})
}

func categoryInput(r *http.Request) services.CategoryInput {
	return services.CategoryInput{
		Name:  formValue(r, "name"),
		Color: formValue(r, "color"),
		Icon:  formValue(r, "icon"),
	}
}

func (s *Server) categoryFormFailed(w http.ResponseWriter, r *http.Request, block string, err error, operation string) {
	v, verr := s.categoriesView(r)
	if verr != nil {
		s.internalError(w, r, verr, operation)
		return
	}
	s.formFailed(w, r, "categories", block, pageData{Title: "Categories", Nav: "categories", View: v}, err, operation)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	uid := userID(r)
	c, err := s.svc.Categories.Create(r.Context(), uid, categoryInput(r))
	if err != nil {
		s.categoryFormFailed(w, r, "category-form", err, "create_category")
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentCategory).InfoContext(r.Context(), "Category created",
		log.FieldUserID, uid,
		log.FieldCategoryID, c.ID)

	resp := NewHTMXResponse().
		TriggerCategoriesChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Category " + c.Name + " created.")
	succeeded(w, r, resp, "/categories")
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	uid := userID(r)
	id := r.PathValue("id")
	if _, err := s.svc.Categories.Update(r.Context(), uid, id, categoryInput(r)); err != nil {
		r.Form.Set("edit_id", id)
		s.categoryFormFailed(w, r, "category-list", err, "update_category")
		return
	}
	// Names and colors appear in every cached view.
	s.svc.Reports.Invalidate(uid)

	resp := NewHTMXResponse().
		TriggerCategoriesChanged().
		TriggerSuccessNotification("Category updated.")
	succeeded(w, r, resp, "/categories")
}

// handleDeleteCategory removes a category. A category in use needs a
// reassign_to target; without one the list is re-rendered asking for it.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	uid := userID(r)
	id := r.PathValue("id")
	reassignTo := formValue(r, "reassign_to")
	if err := s.svc.Categories.Delete(r.Context(), uid, id, reassignTo); err != nil {
		r.Form.Set("delete_id", id)
		s.categoryFormFailed(w, r, "category-list", err, "delete_category")
		return
	}
	s.svc.Reports.Invalidate(uid)

	msg := "Category deleted."
	if reassignTo != "" {
		msg = "Category deleted and its expenses reassigned."
	}
	resp := NewHTMXResponse().
		TriggerCategoriesChanged().
		TriggerSuccessNotification(msg)
	succeeded(w, r, resp, "/categories")
}
