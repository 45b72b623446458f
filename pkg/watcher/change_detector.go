package watcher

import (
	"path"
	"strings"

	"github.com/ritzau/assetd/pkg/pubsub"
)

// styleOnlyExts are extensions browsers can swap without reloading the page.
var styleOnlyExts = map[string]bool{
	".css": true,
	".map": true,
}

// Classify decides how clients should react to a change batch: stylesheet
// and source map edits are applied in place, anything else reloads the page.
func Classify(event ChangeEvent) string {
	if len(event.Paths) == 0 {
		return pubsub.EventReload
	}

	sawStyle := false
	for _, p := range event.Paths {
		ext := strings.ToLower(path.Ext(p))
		if !styleOnlyExts[ext] {
			return pubsub.EventReload
		}
		if ext == ".css" {
			sawStyle = true
		}
	}
	if !sawStyle {
		// A lone source map change has nothing to swap.
		return pubsub.EventReload
	}
	return pubsub.EventStyle
}

// Relay publishes debounced changes on pubsub.AssetsTopic until events closes.
func Relay(events <-chan ChangeEvent, pub pubsub.Publisher) {
	for event := range events {
		change := pubsub.AssetChange{
			Source: event.Source,
			Paths:  event.Paths,
			At:     event.Timestamp,
		}
		if err := pub.Publish(pubsub.AssetsTopic, Classify(event), change); err != nil {
			return
		}
	}
}
