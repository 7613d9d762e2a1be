package handlers

import (
	"net/http"
	"order_manager/internal/models"
	"order_manager/internal/repository"
	"order_manager/internal/services"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

type categoryResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type variantResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type productResponse struct {
	ID          uint              `json:"id"`
	CategoryID  uint              `json:"category_id"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	IsActive    bool              `json:"is_active"`
	Variants    []variantResponse `json:"variants"`
}

func newCategoryResponse(category *models.Category) categoryResponse {
	return categoryResponse{ID: category.ID, Name: category.Name, Description: category.Description}
}

func newVariantResponse(variant *models.ProductVariant) variantResponse {
	return variantResponse{ID: variant.ID, Name: variant.Name, Price: variant.Price.StringFixed(2)}
}

func newProductResponse(product *models.Product) productResponse {
	variants := make([]variantResponse, 0, len(product.Variants))
	for i := range product.Variants {
		variants = append(variants, newVariantResponse(&product.Variants[i]))
	}
	return productResponse{
		ID:          product.ID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Description: product.Description,
		IsActive:    product.IsActive,
		Variants:    variants,
	}
}

// Categories

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response := make([]categoryResponse, 0, len(categories))
	for i := range categories {
		response = append(response, newCategoryResponse(&categories[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	category, err := h.catalogService.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(category))
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req services.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}
	category, err := h.catalogService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCategoryResponse(category))
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req services.CategoryPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}
	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(category))
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Products

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter := repository.ProductFilter{ActiveOnly: true}
	if raw := c.Query("category_id"); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondBadRequest(c, "invalid category_id")
			return
		}
		categoryID := uint(value)
		filter.CategoryID = &categoryID
	}
	if raw := c.Query("active_only"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			respondBadRequest(c, "invalid active_only")
			return
		}
		filter.ActiveOnly = value
	}

	products, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	response := make([]productResponse, 0, len(products))
	for i := range products {
		response = append(response, newProductResponse(&products[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponse(product))
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}
	product, err := h.catalogService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newProductResponse(product))
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req services.ProductPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}
	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponse(product))
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Variants

func (h *CatalogHandler) CreateVariant(c *gin.Context) {
	productID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req services.VariantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}
	variant, err := h.catalogService.CreateVariant(c.Request.Context(), productID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newVariantResponse(variant))
}

func (h *CatalogHandler) UpdateVariant(c *gin.Context) {
	productID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	variantID, ok := uintParam(c, "variant_id")
	if !ok {
		return
	}
	var req services.VariantPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}
	variant, err := h.catalogService.UpdateVariant(c.Request.Context(), productID, variantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newVariantResponse(variant))
}

func (h *CatalogHandler) DeleteVariant(c *gin.Context) {
	productID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	variantID, ok := uintParam(c, "variant_id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteVariant(c.Request.Context(), productID, variantID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
