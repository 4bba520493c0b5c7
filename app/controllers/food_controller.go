package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mealgrid/mealgrid/app/services"
	"github.com/mealgrid/mealgrid/pkg/bind"
	"github.com/mealgrid/mealgrid/pkg/middleware"
	"github.com/mealgrid/mealgrid/pkg/response"
)

// maxImageMemory caps how much of the multipart form is held in memory.
const maxImageMemory = 10 << 20 // 10 MB

// FoodController serves catalog management (admin) and catalog reads and
// purchases (public / user).
type FoodController struct {
	foods    *services.FoodService
	payments *services.PaymentService
}

func NewFoodController(foods *services.FoodService, payments *services.PaymentService) *FoodController {
	return &FoodController{foods: foods, payments: payments}
}

// Create handles the multipart create form: title, description, price
// fields plus an image file part.
func (c *FoodController) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageMemory); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	in := services.FoodInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       price,
	}

	var img *services.ImageUpload
	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		img = &services.ImageUpload{
			Filename: header.Filename,
			MIME:     header.Header.Get("Content-Type"),
			Content:  file,
		}
	}

	food, err := c.foods.Create(r.Context(), middleware.PrincipalID(r.Context()), in, img)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.CreatedMessage(w, "Food created successfully", map[string]any{"food": food})
}

func (c *FoodController) Update(w http.ResponseWriter, r *http.Request) {
	var in services.FoodInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	food, err := c.foods.Update(r.Context(), middleware.PrincipalID(r.Context()), chi.URLParam(r, "foodId"), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.SuccessMessage(w, "Food updated successfully", map[string]any{"food": food})
}

func (c *FoodController) Delete(w http.ResponseWriter, r *http.Request) {
	err := c.foods.Delete(r.Context(), middleware.PrincipalID(r.Context()), chi.URLParam(r, "foodId"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.SuccessMessage(w, "Food deleted successfully", nil)
}

func (c *FoodController) Index(w http.ResponseWriter, r *http.Request) {
	foods, err := c.foods.All(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, map[string]any{"foods": foods})
}

func (c *FoodController) Show(w http.ResponseWriter, r *http.Request) {
	food, err := c.foods.Detail(r.Context(), chi.URLParam(r, "foodId"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, map[string]any{"food": food})
}

// Buy creates a payment intent for the food and returns its client
// secret so the frontend can confirm the card payment.
func (c *FoodController) Buy(w http.ResponseWriter, r *http.Request) {
	food, intent, err := c.payments.Buy(r.Context(), middleware.PrincipalID(r.Context()), chi.URLParam(r, "foodId"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.SuccessMessage(w, "Food purchased successfully", map[string]any{
		"food":         food,
		"clientSecret": intent.ClientSecret,
	})
}
