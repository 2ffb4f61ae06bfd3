package search

import "strings"

// PlaceholderImage replaces missing or broken product images.
const PlaceholderImage = "/static/placeholder.svg"

// ImageSrc is the URL to display for a product image. Missing URLs use the
// placeholder; broken ones are swapped by the page on load errors.
func ImageSrc(url string) string {
	if strings.TrimSpace(url) == "" {
		return PlaceholderImage
	}
	return url
}

// Badge is a coloured retailer label.
type Badge struct {
	Label string
	Color string
}

var badgeColors = map[string]string{
	"rokomari": "#16a34a",
	"wafilife": "#0891b2",
	"batighor": "#dc2626",
}

// DefaultBadgeColor is used for unknown retailers.
const DefaultBadgeColor = "#f97316"

// SourceBadge returns the badge for a retailer name, matched case-insensitively.
func SourceBadge(source string) Badge {
	color, ok := badgeColors[strings.ToLower(strings.TrimSpace(source))]
	if !ok {
		color = DefaultBadgeColor
	}
	return Badge{Label: source, Color: color}
}
