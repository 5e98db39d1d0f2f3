package services

import (
	"testing"

	"github.com/athebyme/shopsync-service/internal/domain/models"
	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/stretchr/testify/require"
)

func colorSizeOptions() []models.ProductOption {
	return []models.ProductOption{
		{Name: "Color", Values: []string{"Red", "Blue"}},
		{Name: "Size", Values: []string{"S", "M"}},
	}
}

func TestSplitAutoCreatedZeroVariants(t *testing.T) {
	t.Parallel()

	toCreate, autoIndex := SplitAutoCreated(nil, nil)
	require.Nil(t, toCreate)
	require.Equal(t, -1, autoIndex)
}

func TestSplitAutoCreatedSingleVariant(t *testing.T) {
	t.Parallel()

	variants := []models.VariantDescriptor{
		{Option1: "Red", Price: "10.00"},
	}

	toCreate, autoIndex := SplitAutoCreated(colorSizeOptions(), variants)
	require.Nil(t, toCreate)
	require.Equal(t, 0, autoIndex)
}

func TestSplitAutoCreatedExcludesFirstCombination(t *testing.T) {
	t.Parallel()

	variants := []models.VariantDescriptor{
		{Option1: "Red", Option2: "S", Price: "10.00"},
		{Option1: "Red", Option2: "M", Price: "11.00"},
		{Option1: "Blue", Option2: "S", Price: "12.00"},
		{Option1: "Blue", Option2: "M", Price: "13.00"},
	}

	toCreate, autoIndex := SplitAutoCreated(colorSizeOptions(), variants)
	require.Equal(t, 0, autoIndex)
	require.Len(t, toCreate, 3)
	for _, v := range toCreate {
		require.False(t, v.Option1 == "Red" && v.Option2 == "S",
			"автоматически созданная комбинация не должна создаваться явно")
	}
}

func TestSplitAutoCreatedAutoVariantInMiddle(t *testing.T) {
	t.Parallel()

	variants := []models.VariantDescriptor{
		{Option1: "Blue", Option2: "M", Price: "13.00"},
		{Option1: "Red", Option2: "S", Price: "10.00"},
		{Option1: "Blue", Option2: "S", Price: "12.00"},
	}

	toCreate, autoIndex := SplitAutoCreated(colorSizeOptions(), variants)
	require.Equal(t, 1, autoIndex)
	require.Len(t, toCreate, 2)
	require.Equal(t, "Blue", toCreate[0].Option1)
	require.Equal(t, "M", toCreate[0].Option2)
	require.Equal(t, "Blue", toCreate[1].Option1)
	require.Equal(t, "S", toCreate[1].Option2)
}

func TestSplitAutoCreatedNoMatchCreatesAll(t *testing.T) {
	t.Parallel()

	// Ни один дескриптор не совпадает с первыми значениями (Red, S)
	variants := []models.VariantDescriptor{
		{Option1: "Blue", Option2: "S", Price: "12.00"},
		{Option1: "Blue", Option2: "M", Price: "13.00"},
	}

	toCreate, autoIndex := SplitAutoCreated(colorSizeOptions(), variants)
	require.Equal(t, -1, autoIndex)
	require.Len(t, toCreate, 2)
}

func TestMergeVariantInfosRestoresOrder(t *testing.T) {
	t.Parallel()

	auto := dto.VariantInfo{ID: "auto", Option1: "Red"}
	created := []dto.VariantInfo{
		{ID: "v1", Option1: "Blue"},
		{ID: "v2", Option1: "Green"},
	}

	merged := MergeVariantInfos(auto, 1, created)
	require.Len(t, merged, 3)
	require.Equal(t, "v1", merged[0].ID)
	require.Equal(t, "auto", merged[1].ID)
	require.Equal(t, "v2", merged[2].ID)
}

func TestMergeVariantInfosAutoFirst(t *testing.T) {
	t.Parallel()

	auto := dto.VariantInfo{ID: "auto"}
	created := []dto.VariantInfo{{ID: "v1"}, {ID: "v2"}, {ID: "v3"}}

	merged := MergeVariantInfos(auto, 0, created)
	require.Equal(t, []string{"auto", "v1", "v2", "v3"}, variantIDs(merged))
}

func TestMergeVariantInfosAutoLast(t *testing.T) {
	t.Parallel()

	auto := dto.VariantInfo{ID: "auto"}
	created := []dto.VariantInfo{{ID: "v1"}, {ID: "v2"}}

	merged := MergeVariantInfos(auto, 2, created)
	require.Equal(t, []string{"v1", "v2", "auto"}, variantIDs(merged))
}

func TestMergeVariantInfosWithoutAuto(t *testing.T) {
	t.Parallel()

	created := []dto.VariantInfo{{ID: "v1"}, {ID: "v2"}}

	merged := MergeVariantInfos(dto.VariantInfo{ID: "auto"}, -1, created)
	require.Equal(t, created, merged)
}

// Инвариант шагов сверки и остатков: результат слияния соответствует
// исходным дескрипторам один к одному по длине и порядку
func TestSplitAndMergePreserveDescriptorOrder(t *testing.T) {
	t.Parallel()

	variants := []models.VariantDescriptor{
		{Option1: "Blue", Option2: "M"},
		{Option1: "Red", Option2: "S"}, // автоматически созданный
		{Option1: "Red", Option2: "M"},
		{Option1: "Blue", Option2: "S"},
	}

	toCreate, autoIndex := SplitAutoCreated(colorSizeOptions(), variants)
	require.Equal(t, 1, autoIndex)

	created := make([]dto.VariantInfo, 0, len(toCreate))
	for i, v := range toCreate {
		created = append(created, dto.VariantInfo{
			ID:      "created-" + string(rune('1'+i)),
			Option1: v.Option1,
		})
	}

	merged := MergeVariantInfos(dto.VariantInfo{ID: "auto", Option1: "Red"}, autoIndex, created)
	require.Len(t, merged, len(variants))
	for i, v := range variants {
		require.Equal(t, v.Option1, merged[i].Option1,
			"вариант %d должен соответствовать исходному дескриптору", i)
	}
}
