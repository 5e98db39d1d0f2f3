package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/athebyme/shopsync-service/internal/domain/models"
	"github.com/athebyme/shopsync-service/internal/utils"
	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
	"github.com/athebyme/shopsync-service/pkg/tx"
	pkgutils "github.com/athebyme/shopsync-service/pkg/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogStorageInterface определяет интерфейс взаимодействия с хранилищем PostgreSQL
type CatalogStorageInterface interface {
	// Catalog методы
	GetProduct(ctx context.Context, productID string, tenantID string) (*models.SourceProduct, error)
	ListPendingProducts(ctx context.Context, tenantID string, page, pageSize int) ([]*models.SourceProduct, int, error)

	// StoreConnection методы
	GetStoreConnection(ctx context.Context, tenantID string) (*dto.StoreConnection, error)

	// Sync методы
	UpdateSyncStatus(ctx context.Context, productID, tenantID, status, shopifyProductID string) error
	SaveSyncHistory(ctx context.Context, tenantID string, result *models.PushResult) error
	GetLastSyncResult(ctx context.Context, productID, tenantID string) (*models.PushResult, error)
}

type CatalogStoragePort interface {
	CatalogStorageInterface

	// Транзакционные методы и Close
	interfaces.StoragePort
}

// CatalogStorage реализация CatalogStoragePort для PostgreSQL
type CatalogStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage создает новый экземпляр CatalogStorage
func NewPostgresStorage(ctx context.Context, connectionString string) (*CatalogStorage, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &CatalogStorage{
		pool: pool,
	}, nil
}

func NewPostgresStorageWithPool(ctx context.Context, pool *pgxpool.Pool) (*CatalogStorage, error) {
	if pool == nil {
		return nil, errors.New("pool is nil")
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &CatalogStorage{
		pool: pool,
	}, nil
}

// Close закрывает соединение с БД
func (r *CatalogStorage) Close() error {
	r.pool.Close()
	return nil
}

// BeginTx начинает новую транзакцию
func (r *CatalogStorage) BeginTx(ctx context.Context) (context.Context, error) {
	txConn, err := r.pool.Begin(ctx)
	if err != nil {
		return ctx, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx.WithTx(ctx, txConn), nil
}

// CommitTx фиксирует транзакцию
func (r *CatalogStorage) CommitTx(ctx context.Context) error {
	txConn, ok := tx.GetTxFromContext(ctx)
	if !ok {
		return errors.New("no transaction in context")
	}
	return txConn.Commit(ctx)
}

// RollbackTx откатывает транзакцию
func (r *CatalogStorage) RollbackTx(ctx context.Context) error {
	txConn, ok := tx.GetTxFromContext(ctx)
	if !ok {
		return errors.New("no transaction in context")
	}
	return txConn.Rollback(ctx)
}

type executor interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// getExecutor возвращает исполнителя запросов (транзакцию из контекста или пул)
func (r *CatalogStorage) getExecutor(ctx context.Context) executor {
	if txFromCtx, ok := tx.GetTxFromContext(ctx); ok {
		return txFromCtx
	}
	return r.pool
}

// GetProduct возвращает запись каталога по идентификатору.
// Данные товара хранятся одним jsonb-документом в колонке base_data.
func (r *CatalogStorage) GetProduct(ctx context.Context, productID string, tenantID string) (*models.SourceProduct, error) {
	query := `
		SELECT base_data
		FROM products
		WHERE id = $1 AND tenant_id = $2
	`

	var baseData []byte
	err := r.getExecutor(ctx).QueryRow(ctx, query, productID, tenantID).Scan(&baseData)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	var product models.SourceProduct
	if err := json.Unmarshal(baseData, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product data: %w", err)
	}
	product.ID = productID
	product.TenantID = tenantID

	return &product, nil
}

// ListPendingProducts возвращает страницу записей каталога, ожидающих выгрузки,
// и общее число таких записей
func (r *CatalogStorage) ListPendingProducts(ctx context.Context, tenantID string, page, pageSize int) ([]*models.SourceProduct, int, error) {
	pagination := pkgutils.NewPagination(page, pageSize)

	countQuery := `
		SELECT COUNT(*)
		FROM products
		WHERE tenant_id = $1 AND sync_status = $2
	`

	var total int
	err := r.getExecutor(ctx).QueryRow(ctx, countQuery, tenantID, models.SyncStatusPending).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count pending products: %w", err)
	}

	query := `
		SELECT id, base_data
		FROM products
		WHERE tenant_id = $1 AND sync_status = $2
		ORDER BY updated_at ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.getExecutor(ctx).Query(ctx, query, tenantID, models.SyncStatusPending, pagination.GetLimit(), pagination.GetOffset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pending products: %w", err)
	}
	defer rows.Close()

	var products []*models.SourceProduct
	for rows.Next() {
		var (
			id       string
			baseData []byte
		)
		if err := rows.Scan(&id, &baseData); err != nil {
			return nil, 0, fmt.Errorf("failed to scan product row: %w", err)
		}

		var product models.SourceProduct
		if err := json.Unmarshal(baseData, &product); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal product data: %w", err)
		}
		product.ID = id
		product.TenantID = tenantID
		products = append(products, &product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate product rows: %w", err)
	}

	return products, total, nil
}

// GetStoreConnection возвращает параметры подключения к магазину арендатора
func (r *CatalogStorage) GetStoreConnection(ctx context.Context, tenantID string) (*dto.StoreConnection, error) {
	query := `
		SELECT domain, access_token, api_version
		FROM store_connections
		WHERE tenant_id = $1
	`

	var conn dto.StoreConnection
	err := r.getExecutor(ctx).QueryRow(ctx, query, tenantID).Scan(&conn.Domain, &conn.AccessToken, &conn.APIVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.ErrStoreNotConfigured
		}
		return nil, fmt.Errorf("failed to get store connection: %w", err)
	}

	return &conn, nil
}

// UpdateSyncStatus записывает итог выгрузки в запись каталога
func (r *CatalogStorage) UpdateSyncStatus(ctx context.Context, productID, tenantID, status, shopifyProductID string) error {
	query := `
		UPDATE products
		SET sync_status = $3,
		    shopify_product_id = NULLIF($4, ''),
		    synced_at = $5,
		    updated_at = $5
		WHERE id = $1 AND tenant_id = $2
	`

	commandTag, err := r.getExecutor(ctx).Exec(ctx, query, productID, tenantID, status, shopifyProductID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return utils.ErrProductNotFound
	}

	return nil
}

// SaveSyncHistory сохраняет полный результат выгрузки в историю синхронизаций
func (r *CatalogStorage) SaveSyncHistory(ctx context.Context, tenantID string, result *models.PushResult) error {
	resultData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal push result: %w", err)
	}

	query := `
		INSERT INTO sync_history (id, product_id, tenant_id, success, shopify_product_id, result, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`

	_, err = r.getExecutor(ctx).Exec(ctx, query,
		uuid.New().String(),
		result.ProductID,
		tenantID,
		result.Success,
		result.ShopifyProductID,
		resultData,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save sync history: %w", err)
	}

	return nil
}

// GetLastSyncResult возвращает последний сохраненный результат выгрузки товара
func (r *CatalogStorage) GetLastSyncResult(ctx context.Context, productID, tenantID string) (*models.PushResult, error) {
	query := `
		SELECT result
		FROM sync_history
		WHERE product_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var resultData []byte
	err := r.getExecutor(ctx).QueryRow(ctx, query, productID, tenantID).Scan(&resultData)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get last sync result: %w", err)
	}

	var result models.PushResult
	if err := json.Unmarshal(resultData, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal push result: %w", err)
	}

	return &result, nil
}
