package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/diner/app/services"
	"github.com/shashiranjanraj/diner/pkg/response"
)

// multipart overhead allowed on top of the image itself
const uploadSlack = 1 << 20

type MenuController struct {
	service *services.MenuService
}

func NewMenuController(service *services.MenuService) *MenuController {
	return &MenuController{service: service}
}

// Index handles GET /v1/menu.
func (c *MenuController) Index(w http.ResponseWriter, r *http.Request) {
	items, err := c.service.List(r.Context())
	if err != nil {
		fail(w, r, err, "Error fetching menu items")
		return
	}
	response.Success(w, items)
}

// Store handles POST /v1/admin/menu.
func (c *MenuController) Store(w http.ResponseWriter, r *http.Request) {
	var in services.CreateMenuItemInput
	if !decode(w, r, &in) {
		return
	}

	item, err := c.service.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err, "Error creating menu item")
		return
	}
	response.Created(w, item)
}

// Update handles PUT /v1/admin/menu/{id}.
func (c *MenuController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "menu item ID")
	if !ok {
		return
	}
	var in services.UpdateMenuItemInput
	if !decode(w, r, &in) {
		return
	}

	item, err := c.service.Update(r.Context(), id, in)
	if err != nil {
		fail(w, r, err, "Error updating menu item")
		return
	}
	response.Success(w, item)
}

// Destroy handles DELETE /v1/admin/menu/{id}.
func (c *MenuController) Destroy(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "menu item ID")
	if !ok {
		return
	}

	item, err := c.service.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Error deleting menu item")
		return
	}
	response.Success(w, map[string]interface{}{
		"message":         "Menu item deleted successfully",
		"deletedMenuItem": item,
	})
}

// UploadImage handles POST /v1/admin/menu/{id}/image (multipart field "image").
func (c *MenuController) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "menu item ID")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+uploadSlack)
	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		msg := "The image field is required."
		if errors.As(err, &maxErr) {
			msg = "The image may not be greater than 5 MB."
		}
		response.ValidationError(w, map[string]string{"image": msg})
		return
	}
	defer file.Close()

	item, err := c.service.UploadImage(r.Context(), id, services.ImageUpload{Filename: header.Filename, Body: file})
	if err != nil {
		fail(w, r, err, "Error uploading menu image")
		return
	}
	response.Success(w, item)
}
