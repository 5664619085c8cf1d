package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vbonduro/nutriscan/internal/analysis"
	"github.com/vbonduro/nutriscan/internal/domain"
)

const defaultBaseURL = "https://api.nal.usda.gov"

// Food is one FoodData Central record.
type Food struct {
	FDCID       int64             `json:"fdcId"`
	Description string            `json:"description"`
	Nutrients   []domain.Nutrient `json:"nutrients"`
}

type searchResponse struct {
	Foods []struct {
		FDCID       int64  `json:"fdcId"`
		Description string `json:"description"`
	} `json:"foods"`
}

type foodResponse struct {
	FDCID         int64  `json:"fdcId"`
	Description   string `json:"description"`
	FoodNutrients []struct {
		Amount   *float64 `json:"amount"`
		Name     string   `json:"name"`
		UnitName string   `json:"unitName"`
		Nutrient *struct {
			Name     string `json:"name"`
			UnitName string `json:"unitName"`
		} `json:"nutrient"`
	} `json:"foodNutrients"`
}

// Client looks foods up in USDA FoodData Central.
type Client struct {
	apiKey  string
	client  *http.Client
	baseURL string
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		baseURL: defaultBaseURL,
	}
}

// WithBaseURL points the client at a different API host.
func (c *Client) WithBaseURL(baseURL string) *Client {
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// Lookup searches for label, takes the first hit and fetches its nutrient
// list. Every error is an *analysis.Failure.
func (c *Client) Lookup(ctx context.Context, label string) (*Food, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", label)

	var search searchResponse
	status, err := c.getJSON(ctx, c.baseURL+"/fdc/v1/foods/search?"+q.Encode(), &search)
	if err != nil {
		return nil, networkFailure(err)
	}
	if !ok(status) {
		return nil, analysis.Fail(analysis.KindSearchAPIError, analysis.MsgSearchAPIError)
	}
	if len(search.Foods) == 0 {
		return nil, analysis.Fail(analysis.KindFoodNotFound, analysis.MsgFoodNotFound(label))
	}

	fdcID := search.Foods[0].FDCID
	q = url.Values{}
	q.Set("api_key", c.apiKey)

	var detail foodResponse
	endpoint := c.baseURL + "/fdc/v1/food/" + strconv.FormatInt(fdcID, 10) + "?" + q.Encode()
	status, err = c.getJSON(ctx, endpoint, &detail)
	if err != nil {
		return nil, networkFailure(err)
	}
	if !ok(status) {
		return nil, analysis.Fail(analysis.KindNutrientAPIError, analysis.MsgNutrientAPIError)
	}
	if len(detail.FoodNutrients) == 0 {
		return nil, analysis.Fail(analysis.KindNoNutritionData, analysis.MsgNoNutritionData(label))
	}

	food := &Food{
		FDCID:       fdcID,
		Description: detail.Description,
		Nutrients:   make([]domain.Nutrient, 0, len(detail.FoodNutrients)),
	}
	for _, n := range detail.FoodNutrients {
		nutrient := domain.Nutrient{Name: n.Name, Amount: n.Amount, Unit: n.UnitName}
		if n.Nutrient != nil {
			if n.Nutrient.Name != "" {
				nutrient.Name = n.Nutrient.Name
			}
			if n.Nutrient.UnitName != "" {
				nutrient.Unit = n.Nutrient.UnitName
			}
		}
		food.Nutrients = append(food.Nutrients, nutrient)
	}
	return food, nil
}

// getJSON decodes the body into out only on a 2xx status.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call fdc: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close fdc response body", "error", err)
		}
	}()

	if !ok(resp.StatusCode) {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func ok(status int) bool {
	return status >= 200 && status <= 299
}

func networkFailure(err error) error {
	return &analysis.Failure{
		Kind:    analysis.KindNetworkError,
		Message: analysis.MsgNetworkError,
		Cause:   err,
	}
}
