package models

// AllModels returns every persisted model for auto-migration
func AllModels() []interface{} {
	return []interface{}{
		&Account{},
		&Course{},
		&Enrollment{},
		&Certificate{},
		&Conversation{},
		&ConversationParticipant{},
		&Message{},
		&Feedback{},
		&ContactMessage{},
		&Notification{},
		&NotificationRead{},
	}
}
