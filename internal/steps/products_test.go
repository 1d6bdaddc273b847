package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
)

func pos(v int) *int { return &v }

func TestSortGalleryPositionOneLeadsOverUnpositioned(t *testing.T) {
	gallery := []models.SourceMediaGalleryRow{
		{ValueID: 9, EntityID: 1, Value: "/n/o/no-store-value.jpg"},
		{ValueID: 3, EntityID: 1, Value: "/b/a/back.jpg", Position: pos(2)},
		{ValueID: 2, EntityID: 1, Value: "/f/r/front.jpg", Position: pos(1)},
	}

	sortGallery(gallery)

	assert.Equal(t, "/f/r/front.jpg", gallery[0].Value, "the position-1 image must lead")
	assert.Equal(t, "/b/a/back.jpg", gallery[1].Value)
	assert.Equal(t, "/n/o/no-store-value.jpg", gallery[2].Value, "unpositioned images sort last")
}

func TestSortGalleryBreaksTiesByValueID(t *testing.T) {
	gallery := []models.SourceMediaGalleryRow{
		{ValueID: 7, EntityID: 1, Value: "/l/a/later.jpg", Position: pos(1)},
		{ValueID: 4, EntityID: 1, Value: "/e/a/earlier.jpg", Position: pos(1)},
		{ValueID: 6, EntityID: 1, Value: "/n/2/nopos-later.jpg"},
		{ValueID: 5, EntityID: 1, Value: "/n/1/nopos-earlier.jpg"},
	}

	sortGallery(gallery)

	assert.Equal(t, "/e/a/earlier.jpg", gallery[0].Value)
	assert.Equal(t, "/l/a/later.jpg", gallery[1].Value)
	assert.Equal(t, "/n/1/nopos-earlier.jpg", gallery[2].Value)
	assert.Equal(t, "/n/2/nopos-later.jpg", gallery[3].Value)
}
