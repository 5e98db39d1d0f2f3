package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
	gocache "github.com/patrickmn/go-cache"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxRetries     = 5
	baseRetryDelay        = 500 * time.Millisecond

	// Локация фулфилмента магазина меняется редко, кэшируем ее надолго
	locationCacheTTL     = 30 * time.Minute
	locationCacheCleanup = 10 * time.Minute
)

// ShopifyGateway реализует GatewayPort поверх Admin GraphQL API.
// Экземпляр не привязан к конкретному магазину: параметры подключения
// передаются в каждый вызов.
type ShopifyGateway struct {
	httpClient    *http.Client
	logger        interfaces.LoggerPort
	locationCache *gocache.Cache
	maxRetries    int
}

// NewShopifyGateway создает новый шлюз к Admin API
func NewShopifyGateway(logger interfaces.LoggerPort) *ShopifyGateway {
	return &ShopifyGateway{
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		logger:        logger,
		locationCache: gocache.New(locationCacheTTL, locationCacheCleanup),
		maxRetries:    defaultMaxRetries,
	}
}

// graphQLRequest — тело POST-запроса к GraphQL endpoint'у
type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphQLError — ошибка верхнего уровня GraphQL-ответа
type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// graphQLResponse — конверт GraphQL-ответа
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (r *graphQLResponse) throttled() bool {
	for _, e := range r.Errors {
		if e.Extensions.Code == "THROTTLED" {
			return true
		}
	}
	return false
}

func (r *graphQLResponse) errorsToError() error {
	if len(r.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		messages = append(messages, e.Message)
	}
	return fmt.Errorf("graphql errors: %s", strings.Join(messages, "; "))
}

// execute выполняет один GraphQL-запрос с повторами при троттлинге.
// HTTP 429 и ошибки с кодом THROTTLED повторяются с экспоненциальной
// задержкой; Retry-After из ответа имеет приоритет над вычисленной задержкой.
func (g *ShopifyGateway) execute(ctx context.Context, store dto.StoreConnection, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal graphql request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			if err := g.wait(ctx, attempt, lastErr); err != nil {
				return err
			}
		}

		resp, retryAfter, err := g.doRequest(ctx, store, body)
		if err != nil {
			lastErr = err
			if retryAfter >= 0 {
				// Троттлинг транспортного уровня, пробуем еще раз
				continue
			}
			return err
		}

		if resp.throttled() {
			lastErr = resp.errorsToError()
			g.logger.WarnWithContext(ctx, "shopify api throttled",
				interfaces.LogField{Key: "store", Value: store.Domain},
				interfaces.LogField{Key: "attempt", Value: attempt + 1},
			)
			continue
		}

		if err := resp.errorsToError(); err != nil {
			return err
		}

		if out != nil {
			if err := json.Unmarshal(resp.Data, out); err != nil {
				return fmt.Errorf("failed to unmarshal graphql response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("request retries exhausted: %w", lastErr)
}

// doRequest выполняет один HTTP-запрос. Второе возвращаемое значение —
// подсказка Retry-After в секундах: неотрицательное значение означает,
// что запрос можно повторить.
func (g *ShopifyGateway) doRequest(ctx context.Context, store dto.StoreConnection, body []byte) (*graphQLResponse, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, store.EndpointURL(), bytes.NewReader(body))
	if err != nil {
		return nil, -1, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", store.AccessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, -1, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, -1, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 0
		if v, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			retryAfter = v
		}
		return nil, retryAfter, fmt.Errorf("rate limited: status %d", resp.StatusCode)
	}

	if resp.StatusCode >= 300 {
		return nil, -1, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(raw, &gqlResp); err != nil {
		return nil, -1, fmt.Errorf("failed to parse graphql response: %w", err)
	}

	return &gqlResp, -1, nil
}

// wait выдерживает паузу перед повтором с экспоненциальным ростом
func (g *ShopifyGateway) wait(ctx context.Context, attempt int, lastErr error) error {
	delay := baseRetryDelay * time.Duration(1<<uint(attempt-1))
	if delay > 10*time.Second {
		delay = 10 * time.Second
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		if lastErr != nil {
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
