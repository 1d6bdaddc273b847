package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
)

func TestTransformCategory(t *testing.T) {
	tr := NewCategoryTransformer(testLogger())

	got := tr.Transform(models.SourceCategoryRow{
		EntityID:       42,
		ParentEntityID: 2,
		URLKey:         s("gold-coins"),
		Name:           s("Gold Coins"),
		Description:    s("All gold coins."),
		MetaTitle:      s("Gold Coins For Sale"),
		Position:       3,
		IsActive:       s("1"),
	})

	assert.Equal(t, "gold-coins_2_42", got.Category.Code)
	assert.Equal(t, 3, got.Category.Sort)
	assert.False(t, got.Category.IsHidden)
	assert.Equal(t, int64(42), got.SourceEntityID)
	assert.Equal(t, int64(2), got.ParentEntityID)
	assert.Equal(t, "Gold Coins", got.Translation.Title)
	assert.Equal(t, "gold-coins", got.Translation.Slug)
	require.NotNil(t, got.Translation.Description)
	assert.Equal(t, "All gold coins.", *got.Translation.Description)
}

func TestTransformCategoryWithoutURLKey(t *testing.T) {
	tr := NewCategoryTransformer(testLogger())

	got := tr.Transform(models.SourceCategoryRow{
		EntityID:       43,
		ParentEntityID: 2,
		Name:           s("Hidden Bin"),
		IsActive:       s("0"),
	})

	assert.Equal(t, "category-_2_43", got.Category.Code)
	assert.True(t, got.Category.IsHidden)
	assert.Equal(t, "hidden-bin", got.Translation.Slug)
}

func TestTransformContent(t *testing.T) {
	tr := NewContentTransformer(testLogger())

	got := tr.Transform(models.SourceContentRow{
		PageID:     9,
		Identifier: "about-us",
		Title:      s("About Us"),
		Content:    s("<p>We sell coins.</p>"),
		IsActive:   s("1"),
	})

	assert.Equal(t, "about-us", got.Content.Code)
	assert.True(t, got.Content.IsActive)
	assert.Equal(t, "About Us", got.Translation.Title)
	assert.Equal(t, "about-us", got.Translation.Slug)
	require.NotNil(t, got.Translation.Body)
}

func TestTransformContentFallsBackToHeading(t *testing.T) {
	tr := NewContentTransformer(testLogger())

	got := tr.Transform(models.SourceContentRow{
		PageID:         10,
		Identifier:     "faq",
		ContentHeading: s("Frequently Asked Questions"),
		IsActive:       s("0"),
	})

	assert.Equal(t, "Frequently Asked Questions", got.Translation.Title)
	assert.False(t, got.Content.IsActive)
}
