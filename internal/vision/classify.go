// Package vision runs object detection over the lake's image store and
// classifies each image from its detected labels.
package vision

// Category is the derived image category.
type Category string

// Image categories. Every label set maps to exactly one of the first four;
// CategoryDetectionError marks images whose detection call failed.
const (
	CategoryPromotional    Category = "promotional"     // person and product
	CategoryProductDisplay Category = "product_display" // product, no person
	CategoryLifestyle      Category = "lifestyle"       // person, no product
	CategoryOther          Category = "other"           // neither
	CategoryDetectionError Category = "detection_error"
)

// productLabels are the detector labels counted as products.
var productLabels = map[string]bool{
	"bottle":     true,
	"cup":        true,
	"wine glass": true,
	"vase":       true,
}

// Classify maps a detection label list to a category. The rule works on the
// set of distinct labels; order and duplicates are irrelevant.
func Classify(labels []string) Category {
	hasPerson := false
	hasProduct := false
	for _, label := range labels {
		if label == "person" {
			hasPerson = true
		}
		if productLabels[label] {
			hasProduct = true
		}
	}

	switch {
	case hasPerson && hasProduct:
		return CategoryPromotional
	case hasProduct:
		return CategoryProductDisplay
	case hasPerson:
		return CategoryLifestyle
	default:
		return CategoryOther
	}
}
