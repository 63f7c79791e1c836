// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecomhub/ecomhub/internal/forms"
	"github.com/ecomhub/ecomhub/internal/middleware"
	"github.com/ecomhub/ecomhub/internal/render"
	"github.com/ecomhub/ecomhub/internal/service"
	"github.com/ecomhub/ecomhub/internal/store"
)

// MessageHandler handles private messaging between users.
type MessageHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService) *MessageHandler {
	return &MessageHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: events,
	}
}

// canAccess reports whether the user may view or delete the message.
// Permitted iff the user is the sender or the receiver.
func canAccess(userID int64, msg store.Message) bool {
	return userID == msg.SenderID || userID == msg.ReceiverID
}

// Inbox renders the paginated list of received messages.
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	page := pageParam(r)

	total, err := h.queries.CountInbox(r.Context(), user.ID)
	if err != nil {
		logAndInternalError(w, "failed to count inbox", "error", err)
		return
	}

	messages, err := h.queries.ListInbox(r.Context(), store.ListInboxParams{
		ReceiverID: user.ID,
		Limit:      listPageSize,
		Offset:     int64((page - 1) * listPageSize),
	})
	if err != nil {
		logAndInternalError(w, "failed to list inbox", "error", err)
		return
	}

	unread, err := h.queries.CountUnreadInbox(r.Context(), user.ID)
	if err != nil {
		logAndInternalError(w, "failed to count unread", "error", err)
		return
	}

	data := map[string]any{
		"Messages":    messages,
		"UnreadCount": unread,
		"Pagination":  buildPagination(page, total, listPageSize, RouteMessageInbox, nil),
	}

	if err := h.renderer.Render(w, r, "messages/inbox", baseData(r, "Inbox", data)); err != nil {
		logAndInternalError(w, "failed to render inbox", "error", err)
	}
}

// Sent renders the paginated list of sent messages.
func (h *MessageHandler) Sent(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	page := pageParam(r)

	total, err := h.queries.CountSent(r.Context(), user.ID)
	if err != nil {
		logAndInternalError(w, "failed to count sent messages", "error", err)
		return
	}

	messages, err := h.queries.ListSent(r.Context(), store.ListSentParams{
		SenderID: user.ID,
		Limit:    listPageSize,
		Offset:   int64((page - 1) * listPageSize),
	})
	if err != nil {
		logAndInternalError(w, "failed to list sent messages", "error", err)
		return
	}

	data := map[string]any{
		"Messages":   messages,
		"Pagination": buildPagination(page, total, listPageSize, RouteMessageSent, nil),
	}

	if err := h.renderer.Render(w, r, "messages/sent", baseData(r, "Sent", data)); err != nil {
		logAndInternalError(w, "failed to render sent messages", "error", err)
	}
}

// Detail renders a single message. Only the sender or the receiver may view
// it; the first view by the receiver marks it read, repeat views are no-ops.
func (h *MessageHandler) Detail(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.requireAccessibleMessage(w, r)
	if !ok {
		return
	}
	user := middleware.GetUser(r)

	if user.ID == msg.ReceiverID && !msg.Read {
		if err := h.queries.MarkMessageRead(r.Context(), msg.ID); err != nil {
			logAndInternalError(w, "failed to mark message read", "error", err, "message_id", msg.ID)
			return
		}
		msg.Read = true
	}

	sender, err := h.queries.GetUserByID(r.Context(), msg.SenderID)
	if err != nil {
		logAndInternalError(w, "failed to get sender", "error", err, "message_id", msg.ID)
		return
	}
	receiver, err := h.queries.GetUserByID(r.Context(), msg.ReceiverID)
	if err != nil {
		logAndInternalError(w, "failed to get receiver", "error", err, "message_id", msg.ID)
		return
	}

	data := map[string]any{
		"Message":  msg,
		"Sender":   sender,
		"Receiver": receiver,
	}

	if err := h.renderer.Render(w, r, "messages/detail", baseData(r, msg.Subject, data)); err != nil {
		logAndInternalError(w, "failed to render message", "error", err, "message_id", msg.ID)
	}
}

// ComposeForm renders the message composition form. The recipient choices
// exclude the sender.
func (h *MessageHandler) ComposeForm(w http.ResponseWriter, r *http.Request) {
	h.renderComposeForm(w, r, &forms.MessageForm{Errors: make(forms.Errors)})
}

// Compose handles sending a message.
func (h *MessageHandler) Compose(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if !parseFormOrRedirect(w, r, h.renderer, RouteMessageCompose) {
		return
	}

	form := forms.ParseMessageForm(r)
	valid := form.Validate()

	// Sending to yourself is rejected even if the form value was forged
	if form.ReceiverID == user.ID {
		form.Errors.Add("receiver", "You cannot send a message to yourself.")
		valid = false
	}
	if valid {
		if _, err := h.queries.GetUserByID(r.Context(), form.ReceiverID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				form.Errors.Add("receiver", "Unknown recipient.")
				valid = false
			} else {
				logAndInternalError(w, "failed to get recipient", "error", err)
				return
			}
		}
	}

	if !valid {
		h.renderComposeForm(w, r, form)
		return
	}

	msg, err := h.queries.CreateMessage(r.Context(), store.CreateMessageParams{
		SenderID:   user.ID,
		ReceiverID: form.ReceiverID,
		Subject:    form.Subject,
		Content:    form.Content,
		SentAt:     time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create message", "error", err)
		return
	}

	userID := user.ID
	_ = h.eventService.LogMessageEvent(r.Context(), store.EventLevelInfo,
		fmt.Sprintf("Message sent: %s", msg.Subject), &userID, r.RemoteAddr,
		map[string]any{"message_id": msg.ID, "receiver_id": msg.ReceiverID})

	flashSuccess(w, r, h.renderer, RouteMessageInbox, "Message sent")
}

// DeleteConfirm renders the delete confirmation page for a message.
func (h *MessageHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.requireAccessibleMessage(w, r)
	if !ok {
		return
	}

	data := map[string]any{"Message": msg}
	if err := h.renderer.Render(w, r, "messages/delete", baseData(r, "Delete Message", data)); err != nil {
		logAndInternalError(w, "failed to render delete confirmation", "error", err)
	}
}

// Delete handles message deletion by the sender or receiver.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.requireAccessibleMessage(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteMessage(r.Context(), msg.ID); err != nil {
		logAndInternalError(w, "failed to delete message", "error", err, "message_id", msg.ID)
		return
	}

	userID := middleware.GetUserID(r)
	_ = h.eventService.LogMessageEvent(r.Context(), store.EventLevelInfo,
		fmt.Sprintf("Message deleted: %s", msg.Subject), &userID, r.RemoteAddr,
		map[string]any{"message_id": msg.ID})

	flashSuccess(w, r, h.renderer, RouteMessageInbox, "Message deleted")
}

// requireAccessibleMessage fetches the message named in the URL and checks
// that the current user is its sender or receiver. Missing messages get a
// 404, everyone else's a 403.
func (h *MessageHandler) requireAccessibleMessage(w http.ResponseWriter, r *http.Request) (store.Message, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return store.Message{}, false
	}

	msg, err := h.queries.GetMessageByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return store.Message{}, false
		}
		logAndInternalError(w, "failed to get message", "error", err, "message_id", id)
		return store.Message{}, false
	}

	if !canAccess(middleware.GetUserID(r), msg) {
		forbidden(w)
		return store.Message{}, false
	}

	return msg, true
}

// renderComposeForm renders the compose form with the recipient choices.
func (h *MessageHandler) renderComposeForm(w http.ResponseWriter, r *http.Request, form *forms.MessageForm) {
	user := middleware.GetUser(r)

	recipients, err := h.queries.ListUsersExcept(r.Context(), user.ID)
	if err != nil {
		logAndInternalError(w, "failed to list recipients", "error", err)
		return
	}

	data := map[string]any{
		"Form":       form,
		"Recipients": recipients,
	}

	if err := h.renderer.Render(w, r, "messages/compose", baseData(r, "Compose Message", data)); err != nil {
		logAndInternalError(w, "failed to render compose form", "error", err)
	}
}
