// Package lake manages the file-based raw data lake: one JSON partition file
// per (date, channel), a per-date manifest, and the image store.
package lake

import "path/filepath"

// PartitionDir returns the partition directory for one calendar date.
// The path is a pure function of its inputs and always ends with dateStr.
func PartitionDir(basePath, dateStr string) string {
	return filepath.Join(basePath, "raw", "telegram_messages", dateStr)
}

// ChannelFile returns the path of a channel's message file for a date.
func ChannelFile(basePath, dateStr, channelName string) string {
	return filepath.Join(PartitionDir(basePath, dateStr), channelName+".json")
}

// ManifestFile returns the path of the per-date manifest.
func ManifestFile(basePath, dateStr string) string {
	return filepath.Join(PartitionDir(basePath, dateStr), manifestName)
}

// ImagesDir returns the root of the image store.
func ImagesDir(basePath string) string {
	return filepath.Join(basePath, "raw", "images")
}

// ChannelImagesDir returns the image directory for one channel.
func ChannelImagesDir(basePath, channelName string) string {
	return filepath.Join(ImagesDir(basePath), channelName)
}

// DetectionsFile returns the path of the image classification output.
func DetectionsFile(basePath string) string {
	return filepath.Join(basePath, "raw", "image_detections.csv")
}

// manifestName is reserved within a partition and never treated as a
// channel message file.
const manifestName = "_manifest.json"
