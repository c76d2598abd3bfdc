package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"anti-food-waste-backend/pkg/config"
	"anti-food-waste-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

const openFoodFactsBaseURL = "https://world.openfoodfacts.org"

// ExternalHandler proxies product lookups to the Open Food Facts API so the
// frontend never talks to it directly.
type ExternalHandler struct {
	config *config.Config
	client *http.Client
}

// NewExternalHandler creates an external products handler
func NewExternalHandler(cfg *config.Config) *ExternalHandler {
	return &ExternalHandler{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type offProduct struct {
	Code        string `json:"code"`
	ProductName string `json:"product_name"`
	Brands      string `json:"brands"`
	Categories  string `json:"categories"`
	ImageURL    string `json:"image_url"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}

type offProductResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

func (h *ExternalHandler) fetchJSON(rawURL string, out interface{}) error {
	resp, err := h.client.Get(rawURL)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// SearchProducts handles GET /api/products/search?q=
func (h *ExternalHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		utils.WriteBadRequestResponse(w, "Search query required")
		return
	}

	searchURL := fmt.Sprintf(
		"%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=10",
		openFoodFactsBaseURL, url.QueryEscape(query),
	)

	var result offSearchResponse
	if err := h.fetchJSON(searchURL, &result); err != nil {
		fmt.Printf("[error] product search failed for q=%q: %v\n", query, err)
		utils.WriteInternalServerErrorResponse(w, "Product search failed")
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"products": result.Products})
}

// GetProductByBarcode handles GET /api/products/barcode/{code}
func (h *ExternalHandler) GetProductByBarcode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		utils.WriteBadRequestResponse(w, "Barcode required")
		return
	}

	productURL := fmt.Sprintf("%s/api/v0/product/%s.json", openFoodFactsBaseURL, url.PathEscape(code))

	var result offProductResponse
	if err := h.fetchJSON(productURL, &result); err != nil {
		fmt.Printf("[error] barcode lookup failed for code=%q: %v\n", code, err)
		utils.WriteInternalServerErrorResponse(w, "Product lookup failed")
		return
	}

	if result.Status != 1 {
		utils.WriteNotFoundResponse(w, "Product not found")
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"product": result.Product})
}
