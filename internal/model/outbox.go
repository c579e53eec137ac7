package model

// Outbox topics published by the service.
const (
	TopicLinkClicked        = "link.clicked"
	TopicProfilePlanChanged = "profile.plan_changed"
)
