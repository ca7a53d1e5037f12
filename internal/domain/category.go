package domain

// MiscCategoryName is the guaranteed fallback category. Links from a
// deleted or otherwise orphaned category are reassigned to it.
const MiscCategoryName = "기타"

// Category groups links for display.
type Category struct {
	// ID is the unique identifier, generated on creation.
	ID string `json:"id"`

	// Name is the display name. The misc fallback is matched by name.
	Name string `json:"name"`

	// Color is a hex color string, ex: #4CAF50.
	Color string `json:"color"`

	// Icon is a glyph or emoji string.
	Icon string `json:"icon"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// SortOrder defines ascending display order. Values need not be
	// contiguous; ties keep insertion order.
	SortOrder int `json:"sortOrder"`

	// CreatedAt / UpdatedAt are ISO-8601 timestamps.
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// CategorySeed is a category without identity or timestamps, used for
// default seeding and creation requests.
type CategorySeed struct {
	Name        string
	Color       string
	Icon        string
	Description string
	SortOrder   int
}

// DefaultCategories are seeded when the store holds no category list.
// The last entry is the misc fallback.
var DefaultCategories = []CategorySeed{
	{Name: "즐겨찾기", Color: "#FFD700", Icon: "⭐", Description: "자주 방문하는 사이트들", SortOrder: 0},
	{Name: "읽을거리", Color: "#4CAF50", Icon: "📚", Description: "나중에 읽을 기사와 문서들", SortOrder: 1},
	{Name: "쇼핑", Color: "#FF9800", Icon: "🛍️", Description: "쇼핑 사이트와 상품 링크", SortOrder: 2},
	{Name: "업무", Color: "#2196F3", Icon: "💼", Description: "업무 관련 링크와 자료", SortOrder: 3},
	{Name: MiscCategoryName, Color: "#9E9E9E", Icon: "📎", Description: "분류되지 않은 링크들", SortOrder: 4},
}

// MiscCategorySeed returns the fallback category seed with the given
// sort order, used when the misc category has to be recreated.
func MiscCategorySeed(sortOrder int) CategorySeed {
	return CategorySeed{
		Name:        MiscCategoryName,
		Color:       "#9E9E9E",
		Icon:        "📎",
		Description: "분류되지 않은 링크들",
		SortOrder:   sortOrder,
	}
}
