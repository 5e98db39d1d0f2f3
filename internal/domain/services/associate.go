package services

import (
	"strings"

	"github.com/athebyme/shopsync-service/pkg/dto"
)

// Сопоставление вариантов и медиа: эвристическое соединение двух независимо
// созданных коллекций, у которых на момент создания нет общего идентификатора.
// Стратегия сопоставления вынесена в предикат, чтобы ее можно было заменить,
// не трогая оркестратор.

// MediaMatchFunc — предикат соответствия значения опции варианта записи о медиа
type MediaMatchFunc func(optionValue string, media dto.MediaRecord) bool

// MatchByAltSubstring — стратегия по умолчанию: регистронезависимое вхождение
// значения опции в описательный текст (alt) медиафайла
func MatchByAltSubstring(optionValue string, media dto.MediaRecord) bool {
	if optionValue == "" || media.Alt == "" {
		return false
	}
	return strings.Contains(strings.ToLower(media.Alt), strings.ToLower(optionValue))
}

// AssociateVariantMediaFunc сопоставляет варианты с готовыми медиафайлами
// по переданному предикату. Для каждого варианта побеждает первое совпадение;
// вариант без совпадений остается без изображения. Записи в нетерминальном
// или сбойном статусе не участвуют в сопоставлении.
func AssociateVariantMediaFunc(variants []dto.VariantInfo, media []dto.MediaRecord, match MediaMatchFunc) map[string]string {
	result := make(map[string]string)

	for _, v := range variants {
		if v.Option1 == "" {
			continue
		}
		for _, m := range media {
			if m.Status != dto.MediaStatusReady {
				continue
			}
			if match(v.Option1, m) {
				result[v.ID] = m.ID
				break
			}
		}
	}

	return result
}

// AssociateVariantMedia — сопоставление со стратегией по умолчанию
func AssociateVariantMedia(variants []dto.VariantInfo, media []dto.MediaRecord) map[string]string {
	return AssociateVariantMediaFunc(variants, media, MatchByAltSubstring)
}
