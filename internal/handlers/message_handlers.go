package handlers

import (
	"net/http"
	"time"

	"mentorlink/internal/api"
	"mentorlink/internal/messaging"
	"mentorlink/internal/utils"

	"github.com/gorilla/mux"
)

// HandleSendMessage handles POST /api/messages
func (s *Server) HandleSendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		senderID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var req api.SendMessageRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		sent, err := s.Messaging.Send(ctx, messaging.SendInput{
			SenderID:    senderID,
			RecipientID: req.RecipientID,
			Content:     req.Content,
			MessageType: req.MessageType,
			Attachments: req.Attachments,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, api.SendMessageResponse{
			Success:        true,
			Message:        api.NewSentMessageView(sent),
			ConversationID: sent.Conversation.ID,
		})
	}
}

// HandleListConversations handles GET /api/messages/conversations
func (s *Server) HandleListConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		summaries, err := s.Messaging.ListConversations(ctx, accountID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		views := api.NewConversationViews(summaries)
		writeJSON(w, http.StatusOK, api.ConversationsResponse{Conversations: views, Count: len(views)})
	}
}

// HandleGetThread handles GET /api/messages/{recipientId}?limit=&before=
func (s *Server) HandleGetThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		limit, err := queryInt(r, "limit", messaging.DefaultThreadLimit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var before *time.Time
		if raw := r.URL.Query().Get("before"); raw != "" {
			t, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				s.writeError(w, r, utils.NewValidationError("before must be an RFC 3339 timestamp"))
				return
			}
			before = &t
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		thread, err := s.Messaging.Thread(ctx, accountID, mux.Vars(r)["recipientId"], limit, before)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		views := api.NewMessageViews(thread.Messages, thread.Accounts)
		writeJSON(w, http.StatusOK, api.ThreadResponse{Messages: views, Count: len(views), HasMore: thread.HasMore})
	}
}

// HandleMarkRead handles PUT /api/messages/mark-read/{recipientId}
func (s *Server) HandleMarkRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readerID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		count, err := s.Messaging.MarkRead(ctx, readerID, mux.Vars(r)["recipientId"])
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, api.MarkReadResponse{
			Success:     true,
			Message:     "Messages marked as read",
			MarkedCount: count,
		})
	}
}

// HandleDeleteMessage handles DELETE /api/messages/{messageId}
func (s *Server) HandleDeleteMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		msg, err := s.Messaging.Delete(ctx, accountID, mux.Vars(r)["messageId"])
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, api.DeleteMessageResponse{
			Success:   true,
			Message:   "Message deleted",
			DeletedBy: msg.DeletedBy.IDs(),
			IsDeleted: msg.IsDeleted,
		})
	}
}

// HandleUnreadCount handles GET /api/messages/unread-count
func (s *Server) HandleUnreadCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		total, err := s.Messaging.UnreadCount(ctx, accountID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, api.UnreadCountResponse{UnreadCount: total})
	}
}

// HandleSearchMessages handles GET /api/messages/search?q=
func (s *Server) HandleSearchMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		result, err := s.Messaging.Search(ctx, accountID, r.URL.Query().Get("q"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		views := api.NewMessageViews(result.Messages, result.Accounts)
		writeJSON(w, http.StatusOK, api.SearchResponse{Messages: views, Count: len(views)})
	}
}

// HandleArchiveConversation handles PUT /api/messages/conversations/{recipientId}/archive
func (s *Server) HandleArchiveConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		archived := true
		if r.ContentLength != 0 {
			var req api.ArchiveRequest
			if err := decodeJSON(r, &req); err != nil {
				s.writeError(w, r, err)
				return
			}
			if req.Archived != nil {
				archived = *req.Archived
			}
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		if err := s.Messaging.Archive(ctx, accountID, mux.Vars(r)["recipientId"], archived); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, api.ArchiveResponse{Success: true, Archived: archived})
	}
}
