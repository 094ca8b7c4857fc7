package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/bazaar/app/services"
	appctx "github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type ProductController struct {
	catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// Store handles POST /api/products (multipart, file field "image").
func (pc *ProductController) Store(c *appctx.Context) {
	if !c.ParseMultipart() {
		return
	}
	file, header, err := c.FormFile("image")
	if err != nil {
		c.Error(http.StatusBadRequest, "invalid image upload")
		return
	}

	in := services.NewProductInput{
		Title:       c.FormValue("title"),
		Price:       c.FormValue("price"),
		Description: c.FormValue("description"),
		Condition:   c.FormValue("condition"),
		Location:    c.FormValue("location"),
		SellerPhone: c.FormValue("sellerPhone"),
	}
	if file != nil {
		defer file.Close()
		in.Image = file
		in.Filename = header.Filename
	}

	product, err := pc.catalog.Create(c.Context(), in)
	if err != nil {
		fail(c, err, internalError)
		return
	}

	c.JSON(http.StatusCreated, map[string]any{
		"message": "Product saved successfully",
		"product": product,
	})
}

// Index handles GET /api/products?search=.
func (pc *ProductController) Index(c *appctx.Context) {
	products, err := pc.catalog.List(c.Context(), c.Query("search"))
	if err != nil {
		fail(c, err, internalError)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Show handles GET /api/products/{id}.
func (pc *ProductController) Show(c *appctx.Context) {
	product, err := pc.catalog.Get(c.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, internalError)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Destroy handles DELETE /api/products/{id}.
func (pc *ProductController) Destroy(c *appctx.Context) {
	if err := pc.catalog.Delete(c.Context(), c.Param("id")); err != nil {
		fail(c, err, internalError)
		return
	}
	c.Message(http.StatusOK, "Product deleted successfully")
}
