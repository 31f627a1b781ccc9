package models

// ImageDetection is one row of the image classification output: what was
// detected in a single image and which category the label set maps to.
//
// MessageID is parsed from the image filename (the part before the first
// underscore) and is best-effort only: it is stored as text and never
// validated or joined against Message.MessageID.
type ImageDetection struct {
	MessageID       string  `json:"message_id"`
	Channel         string  `json:"channel"`
	ImageName       string  `json:"image_name"`
	DetectedObjects string  `json:"detected_objects"` // comma-joined labels in detection order, duplicates kept
	ConfidenceScore float64 `json:"confidence_score"` // max confidence across boxes, 0 when nothing detected
	ImageCategory   string  `json:"image_category"`
}
