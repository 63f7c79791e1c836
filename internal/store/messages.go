// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const messageColumns = `id, sender_id, receiver_id, subject, content, sent_at, read`

func scanMessageRow(row *sql.Row) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Subject, &m.Content, &m.SentAt, &m.Read)
	return m, err
}

// CreateMessageParams holds parameters for CreateMessage.
type CreateMessageParams struct {
	SenderID   int64
	ReceiverID int64
	Subject    string
	Content    string
	SentAt     time.Time
}

// CreateMessage inserts a private message, unread, and returns it.
func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (Message, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, subject, content, sent_at, read)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		arg.SenderID, arg.ReceiverID, arg.Subject, arg.Content, arg.SentAt)
	if err != nil {
		return Message{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Message{}, err
	}
	return q.GetMessageByID(ctx, id)
}

// GetMessageByID fetches a message by ID.
func (q *Queries) GetMessageByID(ctx context.Context, id int64) (Message, error) {
	return scanMessageRow(q.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id))
}

// ListMessages returns every message, oldest first.
func (q *Queries) ListMessages(ctx context.Context) ([]Message, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Subject, &m.Content,
			&m.SentAt, &m.Read); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MessageWithNames pairs a message with both participants' usernames.
type MessageWithNames struct {
	Message
	SenderName   string
	ReceiverName string
}

func scanMessagesWithNames(rows *sql.Rows) ([]MessageWithNames, error) {
	defer rows.Close()
	var msgs []MessageWithNames
	for rows.Next() {
		var m MessageWithNames
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Subject, &m.Content,
			&m.SentAt, &m.Read, &m.SenderName, &m.ReceiverName); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ListInboxParams holds parameters for ListInbox.
type ListInboxParams struct {
	ReceiverID int64
	Limit      int64
	Offset     int64
}

// ListInbox returns messages received by a user, newest first.
func (q *Queries) ListInbox(ctx context.Context, arg ListInboxParams) ([]MessageWithNames, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT m.id, m.sender_id, m.receiver_id, m.subject, m.content, m.sent_at, m.read,
		        s.username, r.username
		 FROM messages m
		 JOIN users s ON s.id = m.sender_id
		 JOIN users r ON r.id = m.receiver_id
		 WHERE m.receiver_id = ?
		 ORDER BY m.sent_at DESC, m.id DESC LIMIT ? OFFSET ?`,
		arg.ReceiverID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanMessagesWithNames(rows)
}

// CountInbox returns the number of messages received by a user.
func (q *Queries) CountInbox(ctx context.Context, receiverID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = ?`, receiverID).Scan(&n)
	return n, err
}

// CountUnreadInbox returns the number of unread messages received by a user.
func (q *Queries) CountUnreadInbox(ctx context.Context, receiverID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = ? AND read = 0`, receiverID).Scan(&n)
	return n, err
}

// ListSentParams holds parameters for ListSent.
type ListSentParams struct {
	SenderID int64
	Limit    int64
	Offset   int64
}

// ListSent returns messages sent by a user, newest first.
func (q *Queries) ListSent(ctx context.Context, arg ListSentParams) ([]MessageWithNames, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT m.id, m.sender_id, m.receiver_id, m.subject, m.content, m.sent_at, m.read,
		        s.username, r.username
		 FROM messages m
		 JOIN users s ON s.id = m.sender_id
		 JOIN users r ON r.id = m.receiver_id
		 WHERE m.sender_id = ?
		 ORDER BY m.sent_at DESC, m.id DESC LIMIT ? OFFSET ?`,
		arg.SenderID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanMessagesWithNames(rows)
}

// CountSent returns the number of messages sent by a user.
func (q *Queries) CountSent(ctx context.Context, senderID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE sender_id = ?`, senderID).Scan(&n)
	return n, err
}

// MarkMessageRead flags a message as read. Calling it on an already
// read message is a no-op.
func (q *Queries) MarkMessageRead(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE messages SET read = 1 WHERE id = ?`, id)
	return err
}

// DeleteMessage removes a message.
func (q *Queries) DeleteMessage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	return err
}
