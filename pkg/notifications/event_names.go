package notifications

type EventName string

// Add more event names here and to below function as needed
const (
	VersionPublished  EventName = "version-published"
	VersionDeleted    EventName = "version-deleted"
	VersionFlagsSet   EventName = "version-flags-set"
	VersionDownloaded EventName = "version-downloaded"
)

func (d EventName) String() string {
	switch d {
	case VersionPublished:
		return "version-published"
	case VersionDeleted:
		return "version-deleted"
	case VersionFlagsSet:
		return "version-flags-set"
	case VersionDownloaded:
		return "version-downloaded"
	// Add more cases here when expanding EventName Enum above
	default:
		return ""
	}
}
