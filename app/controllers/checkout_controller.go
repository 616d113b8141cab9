package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/diner/app/services"
	"github.com/shashiranjanraj/diner/pkg/response"
)

type CheckoutController struct {
	service *services.CheckoutService
}

func NewCheckoutController(service *services.CheckoutService) *CheckoutController {
	return &CheckoutController{service: service}
}

// Initiate handles POST /v1/initiate-checkout.
func (c *CheckoutController) Initiate(w http.ResponseWriter, r *http.Request) {
	var in services.InitiateCheckoutInput
	if !decode(w, r, &in) {
		return
	}

	res, err := c.service.InitiateCheckout(r.Context(), uint(*in.OrderID))
	if err != nil {
		fail(w, r, err, "Error initiating checkout")
		return
	}
	response.Success(w, res)
}
