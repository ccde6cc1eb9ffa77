package socket

// Broadcaster publishes service events to connected clients. Users receive
// events addressed to them and to the organizations they joined on connect.
type Broadcaster struct {
	hub *Hub
}

func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// UserRoom is the room every client of a user is placed in.
func UserRoom(userID string) string {
	return "user:" + userID
}

// OrganizationRoom carries events of one organization.
func OrganizationRoom(organizationID string) string {
	return "organization:" + organizationID
}

func (b *Broadcaster) PublishToUser(userID, event string, payload map[string]interface{}) {
	b.hub.SendToUser(userID, MessageType(event), payload)
}

func (b *Broadcaster) PublishToOrganization(organizationID, event string, payload map[string]interface{}) {
	b.hub.SendToRoom(OrganizationRoom(organizationID), MessageType(event), payload)
}
