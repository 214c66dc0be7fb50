package outbox

// Event is the domain event envelope written to the outbox table. The Kafka
// topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types published by the scheduling service.
const (
	EventSchedulingCreated  = "scheduling.created.v1"
	EventCalendarSyncFailed = "scheduling.calendar_sync.failed.v1"
)
