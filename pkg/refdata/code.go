package refdata

import (
	"fmt"
	"strconv"
	"strings"
)

// categoryCodeFallback prefixes codes for source categories with no url key.
const categoryCodeFallback = "category-"

// EncodeCategoryCode builds the unique category code from the source
// category's url key and identity. The source entity id is always the last
// underscore-separated segment so it can be decoded back out.
func EncodeCategoryCode(urlKey string, parentEntityID, entityID int64) string {
	prefix := urlKey
	if prefix == "" {
		prefix = categoryCodeFallback
	}
	return fmt.Sprintf("%s_%d_%d", prefix, parentEntityID, entityID)
}

// DecodeCategoryCode extracts the source entity id from a category code.
func DecodeCategoryCode(code string) (int64, bool) {
	_, entityID, ok := DecodeCategoryCodeFull(code)
	return entityID, ok
}

// DecodeCategoryCodeFull extracts both the parent entity id and the entity
// id from a category code. The url key prefix may itself contain
// underscores, so segments are taken from the right.
func DecodeCategoryCodeFull(code string) (parentEntityID, entityID int64, ok bool) {
	last := strings.LastIndex(code, "_")
	if last < 0 || last == len(code)-1 {
		return 0, 0, false
	}
	entityID, err := strconv.ParseInt(code[last+1:], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	prev := strings.LastIndex(code[:last], "_")
	if prev < 0 {
		return 0, 0, false
	}
	parentEntityID, err = strconv.ParseInt(code[prev+1:last], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return parentEntityID, entityID, true
}
