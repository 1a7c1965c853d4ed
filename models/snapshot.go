package models

// SnapshotCounts is the counts-only view pushed when content is suppressed.
type SnapshotCounts struct {
	TotalNotifications  int64 `json:"total_notifications"`
	ReadNotifications   int64 `json:"read_notifications"`
	UnreadNotifications int64 `json:"unread_notifications"`
}

// Snapshot is a user's notification view at one point in time.
type Snapshot struct {
	SnapshotCounts
	Notifications []Notification `json:"notifications"`
	Page          int            `json:"page"`
	PageSize      int            `json:"page_size"`

	withContent bool
}

func NewSnapshot(total, read int64) *Snapshot {
	return &Snapshot{SnapshotCounts: SnapshotCounts{
		TotalNotifications:  total,
		ReadNotifications:   read,
		UnreadNotifications: total - read,
	}}
}

// SetNotifications attaches a page of notifications. A nil page is stored
// as an empty one.
func (s *Snapshot) SetNotifications(page []Notification, pageNumber, pageSize int) {
	if page == nil {
		page = []Notification{}
	}
	s.Notifications = page
	s.Page = pageNumber
	s.PageSize = pageSize
	s.withContent = true
}

func (s *Snapshot) HasContent() bool {
	return s.withContent
}

// Payload is what goes on the wire: the full snapshot, or only the counts
// when no page was attached.
func (s *Snapshot) Payload() interface{} {
	if s.withContent {
		return s
	}
	return s.SnapshotCounts
}
