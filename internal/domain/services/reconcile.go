package services

import (
	"github.com/athebyme/shopsync-service/internal/domain/models"
	"github.com/athebyme/shopsync-service/pkg/dto"
)

// Сверка вариантов и опций: чистые вычисления без обращений к шлюзу.
//
// При создании карточки товара с опциями платформа сама материализует один
// вариант из ПЕРВОГО объявленного значения каждого измерения опций. Поэтому
// перед явным созданием вариантов (шаг 3) нужно вычислить, какой дескриптор
// уже создан неявно, и исключить его из запроса.

// firstOptionValues возвращает первое объявленное значение каждого измерения опций
func firstOptionValues(options []models.ProductOption) []string {
	firsts := make([]string, 0, len(options))
	for _, opt := range options {
		if len(opt.Values) > 0 {
			firsts = append(firsts, opt.Values[0])
		} else {
			firsts = append(firsts, "")
		}
	}
	return firsts
}

// isAutoCreated сообщает, совпадает ли дескриптор с автоматически созданным
// вариантом: каждое заполненное значение опции равно первому значению
// соответствующего измерения
func isAutoCreated(v models.VariantDescriptor, firsts []string) bool {
	values := v.OptionValues()
	if len(values) == 0 || len(values) > len(firsts) {
		return false
	}

	for i, val := range values {
		if val != firsts[i] {
			return false
		}
	}
	return true
}

// SplitAutoCreated вычисляет, какие дескрипторы вариантов требуют явного
// создания на шаге 3, и позицию автоматически созданного варианта среди
// исходных дескрипторов.
//
// Возвращает (toCreate, autoIndex):
//   - toCreate — дескрипторы для явного создания, в исходном порядке;
//   - autoIndex — позиция дескриптора, который платформа создала неявно
//     на шаге 1, или -1, если ни один дескриптор не совпал с первыми
//     значениями опций.
//
// Товары с нулем или одним вариантом не требуют явного создания вообще:
// единственный дескриптор (если есть) считается автоматически созданным.
func SplitAutoCreated(options []models.ProductOption, variants []models.VariantDescriptor) ([]models.VariantDescriptor, int) {
	if len(variants) == 0 {
		return nil, -1
	}
	if len(variants) == 1 {
		return nil, 0
	}

	firsts := firstOptionValues(options)

	autoIndex := -1
	for i, v := range variants {
		if isAutoCreated(v, firsts) {
			autoIndex = i
			break
		}
	}

	if autoIndex == -1 {
		// Ни одна комбинация не совпала с первыми значениями:
		// создаем явно все дескрипторы, а автоматический вариант
		// будет вытеснен платформой при пакетном создании
		return variants, -1
	}

	toCreate := make([]models.VariantDescriptor, 0, len(variants)-1)
	for i, v := range variants {
		if i != autoIndex {
			toCreate = append(toCreate, v)
		}
	}
	return toCreate, autoIndex
}

// MergeVariantInfos восстанавливает соответствие один-к-одному между
// исходными дескрипторами и созданными вариантами: автоматически созданный
// вариант вставляется на свою исходную позицию среди явно созданных.
//
// Жесткий инвариант для шагов 4 и 5: длина и порядок результата совпадают
// с длиной и порядком исходных дескрипторов.
func MergeVariantInfos(auto dto.VariantInfo, autoIndex int, created []dto.VariantInfo) []dto.VariantInfo {
	if autoIndex < 0 {
		return created
	}

	merged := make([]dto.VariantInfo, 0, len(created)+1)
	merged = append(merged, created[:autoIndex]...)
	merged = append(merged, auto)
	merged = append(merged, created[autoIndex:]...)
	return merged
}
