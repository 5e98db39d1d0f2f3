package services

import (
	"testing"

	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/stretchr/testify/require"
)

func TestAssociateVariantMediaMatchesByAltSubstring(t *testing.T) {
	t.Parallel()

	variants := []dto.VariantInfo{
		{ID: "v1", Option1: "Red"},
		{ID: "v2", Option1: "Blue"},
	}
	media := []dto.MediaRecord{
		{ID: "m1", Status: dto.MediaStatusReady, Alt: "T-shirt blue front"},
		{ID: "m2", Status: dto.MediaStatusReady, Alt: "T-shirt RED back"},
	}

	result := AssociateVariantMedia(variants, media)
	require.Equal(t, "m2", result["v1"], "регистр не должен влиять на сопоставление")
	require.Equal(t, "m1", result["v2"])
}

func TestAssociateVariantMediaFirstMatchWins(t *testing.T) {
	t.Parallel()

	variants := []dto.VariantInfo{{ID: "v1", Option1: "Red"}}
	media := []dto.MediaRecord{
		{ID: "m1", Status: dto.MediaStatusReady, Alt: "red front"},
		{ID: "m2", Status: dto.MediaStatusReady, Alt: "red back"},
	}

	result := AssociateVariantMedia(variants, media)
	require.Equal(t, "m1", result["v1"])
}

func TestAssociateVariantMediaIgnoresNotReady(t *testing.T) {
	t.Parallel()

	variants := []dto.VariantInfo{{ID: "v1", Option1: "Red"}}
	media := []dto.MediaRecord{
		{ID: "m1", Status: dto.MediaStatusProcessing, Alt: "red front"},
		{ID: "m2", Status: dto.MediaStatusFailed, Alt: "red back"},
	}

	result := AssociateVariantMedia(variants, media)
	require.Empty(t, result)
}

func TestAssociateVariantMediaNoMatchLeavesVariantWithoutImage(t *testing.T) {
	t.Parallel()

	variants := []dto.VariantInfo{
		{ID: "v1", Option1: "Green"},
		{ID: "v2"}, // без значения опции
	}
	media := []dto.MediaRecord{
		{ID: "m1", Status: dto.MediaStatusReady, Alt: "red front"},
	}

	result := AssociateVariantMedia(variants, media)
	require.NotContains(t, result, "v1")
	require.NotContains(t, result, "v2")
}

func TestAssociateVariantMediaCustomPredicate(t *testing.T) {
	t.Parallel()

	variants := []dto.VariantInfo{{ID: "v1", Option1: "42"}}
	media := []dto.MediaRecord{
		{ID: "m1", Status: dto.MediaStatusReady, Alt: "size-42"},
	}

	exact := func(optionValue string, m dto.MediaRecord) bool {
		return m.Alt == "size-"+optionValue
	}

	result := AssociateVariantMediaFunc(variants, media, exact)
	require.Equal(t, "m1", result["v1"])
}
