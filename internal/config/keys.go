package config

import "fmt"

// Redis key layout shared between the store, the activity recorder and the worker.

// ActivityQueue is the Redis list drained by the activity worker.
const ActivityQueue = "activity_events_queue"

// CollectionChannel returns the pub/sub channel carrying change events
// for a document collection. Live queries subscribe to it.
func CollectionChannel(collection string) string {
	return fmt.Sprintf("docs:changed:%s", collection)
}
