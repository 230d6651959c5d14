package bus

const (
	TopicEvents = "subwatch.events"
)

const (
	DomainTypePollSucceeded   = "poll.succeeded"
	DomainTypePollFailed      = "poll.failed"
	DomainTypeFragmentFetched = "fragment.fetched"
	DomainTypeRelaySent       = "relay.sent"
)
