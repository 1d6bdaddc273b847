package transform

import (
	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/slug"
)

// TransformedContent is the output of the content transformer.
type TransformedContent struct {
	Content     models.Content
	Translation models.ContentTranslation
}

// ContentTransformer derives target editorial pages from source CMS pages.
type ContentTransformer struct {
	logger ectologger.Logger
}

func NewContentTransformer(logger ectologger.Logger) *ContentTransformer {
	return &ContentTransformer{logger: logger}
}

// Transform produces the target content record for one source page. The
// source page identifier is the idempotence key.
func (t *ContentTransformer) Transform(row models.SourceContentRow) *TransformedContent {
	title := firstNonEmpty(deref(row.Title), deref(row.ContentHeading), row.Identifier)

	content := models.Content{
		Code:     row.Identifier,
		IsActive: deref(row.IsActive) == "1",
	}

	translation := models.ContentTranslation{
		Title:           title,
		Slug:            slug.Make(firstNonEmpty(row.Identifier, title)),
		Body:            strPtr(deref(row.Content)),
		MetaTitle:       strPtr(deref(row.MetaTitle)),
		MetaDescription: strPtr(deref(row.MetaDescription)),
		MetaKeywords:    strPtr(deref(row.MetaKeywords)),
	}

	return &TransformedContent{
		Content:     content,
		Translation: translation,
	}
}
