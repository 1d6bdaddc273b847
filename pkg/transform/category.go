package transform

import (
	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/refdata"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/slug"
)

// TransformedCategory is the output of the category transformer. The
// translation is attached to the category row once its id is known.
type TransformedCategory struct {
	Category       models.Category
	Translation    models.CategoryTranslation
	SourceEntityID int64
	ParentEntityID int64
}

// CategoryTransformer derives target category rows from source rows.
type CategoryTransformer struct {
	logger ectologger.Logger
}

func NewCategoryTransformer(logger ectologger.Logger) *CategoryTransformer {
	return &CategoryTransformer{logger: logger}
}

// Transform produces the target category record for one source row. The
// category code encodes the source identity and is the idempotence key.
func (t *CategoryTransformer) Transform(row models.SourceCategoryRow) *TransformedCategory {
	urlKey := deref(row.URLKey)
	name := firstNonEmpty(deref(row.Name), urlKey)

	category := models.Category{
		Code:     refdata.EncodeCategoryCode(urlKey, row.ParentEntityID, row.EntityID),
		Sort:     row.Position,
		IsHidden: deref(row.IsActive) != "1",
	}

	translation := models.CategoryTranslation{
		Title:           name,
		Slug:            slug.Make(firstNonEmpty(urlKey, name)),
		Description:     strPtr(deref(row.Description)),
		MetaTitle:       strPtr(deref(row.MetaTitle)),
		MetaDescription: strPtr(deref(row.MetaDescription)),
		MetaKeywords:    strPtr(deref(row.MetaKeywords)),
	}

	return &TransformedCategory{
		Category:       category,
		Translation:    translation,
		SourceEntityID: row.EntityID,
		ParentEntityID: row.ParentEntityID,
	}
}
