package tx

import (
	"context"
	"fmt"

	"github.com/athebyme/shopsync-service/pkg/interfaces"
	"github.com/jackc/pgx/v5"
)

// txKey - ключ для хранения транзакции в контексте. Используем приватный тип, чтобы избежать коллизий.
type txKeyType struct{}

var txKey = txKeyType{}

// TxManager управляет жизненным циклом транзакций БД.
type TxManager interface {
	// Do выполняет переданную функцию `fn` внутри транзакции.
	// Если `fn` возвращает ошибку, транзакция откатывается (Rollback).
	// Если `fn` завершается успешно (возвращает nil), транзакция фиксируется (Commit).
	// Контекст, передаваемый в `fn`, будет содержать саму транзакцию.
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// txManager - реализация TxManager поверх транзакционных методов хранилища.
type txManager struct {
	storage interfaces.StoragePort
	logger  interfaces.LoggerPort
}

// NewTxManager создает новый менеджер транзакций.
func NewTxManager(storage interfaces.StoragePort, logger interfaces.LoggerPort) TxManager {
	return &txManager{storage: storage, logger: logger}
}

// Do реализует метод интерфейса TxManager.
func (m *txManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, err := m.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(txCtx); err != nil {
		if rollbackErr := m.storage.RollbackTx(txCtx); rollbackErr != nil {
			m.logger.WarnWithContext(ctx, "Ошибка отката транзакции",
				interfaces.LogField{Key: "rollback_error", Value: rollbackErr.Error()},
				interfaces.LogField{Key: "original_error", Value: err.Error()},
			)
		}
		return err
	}

	if err := m.storage.CommitTx(txCtx); err != nil {
		if rollbackErr := m.storage.RollbackTx(txCtx); rollbackErr != nil {
			m.logger.WarnWithContext(ctx, "Ошибка отката транзакции после неудачного коммита",
				interfaces.LogField{Key: "rollback_error", Value: rollbackErr.Error()},
			)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithTx кладет транзакцию в контекст. Используется реализациями StoragePort
// в методе BeginTx.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetTxFromContext извлекает транзакцию из контекста.
// Используется репозиториями, чтобы выполнять запросы внутри блока fn,
// переданного в TxManager.Do.
func GetTxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok
}
