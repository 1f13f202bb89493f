package utils

import (
	"strconv"
	"strings"
)

const (
	CategoryListCacheKey = "categories:list:v1"
	ProductsCachePrefix  = "products:"
)

func BuildProductsPageCacheKey(limit int, cursor string) string {
	return ProductsCachePrefix + "page:v1:limit=" + strconv.Itoa(limit) + ":cursor=" + strings.TrimSpace(cursor)
}
