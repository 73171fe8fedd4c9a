package api

import "mentorlink/internal/models"

type SendMessageRequest struct {
	RecipientID string              `json:"recipientId"`
	Content     string              `json:"content"`
	MessageType models.MessageType  `json:"messageType"`
	Attachments []models.Attachment `json:"attachments"`
}

// ArchiveRequest defaults to archiving when Archived is absent.
type ArchiveRequest struct {
	Archived *bool `json:"archived"`
}

type SubmitMentorshipRequest struct {
	Message string `json:"message"`
}
