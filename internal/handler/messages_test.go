// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func messageURL(id int64) string {
	return fmt.Sprintf("/messages/%d/", id)
}

func TestMessageDetail_ThirdPartyForbidden(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice", false)
	bob := app.createUser("bob", false)
	app.createUser("mallory", false)
	msg := app.sendMessage(alice.ID, bob.ID, "Private Subject")

	app.login("mallory")
	resp := app.get(messageURL(msg.ID))
	assertStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()
}

func TestMessageDetail_ReceiverViewMarksRead(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice", false)
	bob := app.createUser("bob", false)
	msg := app.sendMessage(alice.ID, bob.ID, "Hello Bob")

	app.login("bob")
	resp := app.get(messageURL(msg.ID))
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	stored, err := app.queries.GetMessageByID(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("GetMessageByID: %v", err)
	}
	if !stored.Read {
		t.Error("message not marked read after receiver viewed it")
	}

	// A second view stays read.
	resp = app.get(messageURL(msg.ID))
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	stored, err = app.queries.GetMessageByID(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("GetMessageByID: %v", err)
	}
	if !stored.Read {
		t.Error("message flipped back to unread")
	}
}

func TestMessageDetail_SenderViewDoesNotMarkRead(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice", false)
	bob := app.createUser("bob", false)
	msg := app.sendMessage(alice.ID, bob.ID, "Sent Mail")

	app.login("alice")
	resp := app.get(messageURL(msg.ID))
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	stored, err := app.queries.GetMessageByID(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("GetMessageByID: %v", err)
	}
	if stored.Read {
		t.Error("sender viewing the message must not mark it read")
	}
}

func TestMessageInbox_ListsReceivedWithUnreadCount(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice", false)
	bob := app.createUser("bob", false)
	app.sendMessage(alice.ID, bob.ID, "First Note")
	app.sendMessage(alice.ID, bob.ID, "Second Note")
	app.sendMessage(bob.ID, alice.ID, "Reply From Bob")

	app.login("bob")
	resp := app.get(RouteMessageInbox)
	assertStatus(t, resp, http.StatusOK)
	body := readBody(t, resp)

	if !strings.Contains(body, "First Note") || !strings.Contains(body, "Second Note") {
		t.Error("received messages missing from inbox")
	}
	if strings.Contains(body, "Reply From Bob") {
		t.Error("sent message appears in inbox")
	}
	if !strings.Contains(body, "2 unread") {
		t.Error("unread count missing")
	}
}

func TestMessageCompose_CreatesMessage(t *testing.T) {
	app := newTestApp(t)
	app.createUser("alice", false)
	bob := app.createUser("bob", false)

	app.login("alice")
	resp := app.postForm(RouteMessageCompose, url.Values{
		"receiver": {formatID(bob.ID)},
		"subject":  {"Meeting Tomorrow"},
		"content":  {"Can we sync at ten?"},
	})
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	count, err := app.queries.CountInbox(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("CountInbox: %v", err)
	}
	if count != 1 {
		t.Errorf("bob has %d inbox messages; want 1", count)
	}
}

func TestMessageCompose_SelfSendRejected(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice", false)

	app.login("alice")
	resp := app.postForm(RouteMessageCompose, url.Values{
		"receiver": {formatID(alice.ID)},
		"subject":  {"Note to self"},
		"content":  {"This should not go through."},
	})
	assertStatus(t, resp, http.StatusOK)
	body := readBody(t, resp)

	if !strings.Contains(body, "You cannot send a message to yourself.") {
		t.Error("self-send error missing")
	}

	count, err := app.queries.CountInbox(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("CountInbox: %v", err)
	}
	if count != 0 {
		t.Error("self-addressed message was persisted")
	}
}

func TestMessageCompose_RecipientChoicesExcludeSelf(t *testing.T) {
	app := newTestApp(t)
	app.createUser("alice", false)
	app.createUser("bob", false)

	app.login("alice")
	resp := app.get(RouteMessageCompose)
	assertStatus(t, resp, http.StatusOK)
	body := readBody(t, resp)

	if !strings.Contains(body, ">bob<") {
		t.Error("other users missing from recipient choices")
	}
	if strings.Contains(body, ">alice<") {
		t.Error("current user offered as a recipient")
	}
}

func TestMessageDelete_ByParticipant(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice", false)
	bob := app.createUser("bob", false)
	msg := app.sendMessage(alice.ID, bob.ID, "Disposable")

	app.login("bob")
	resp := app.postForm(messageURL(msg.ID)+"delete/", url.Values{})
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	if _, err := app.queries.GetMessageByID(context.Background(), msg.ID); err == nil {
		t.Error("message should be deleted")
	}
}

func TestMessageDelete_ThirdPartyForbidden(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice", false)
	bob := app.createUser("bob", false)
	app.createUser("mallory", false)
	msg := app.sendMessage(alice.ID, bob.ID, "Keep Out")

	app.login("mallory")
	resp := app.postForm(messageURL(msg.ID)+"delete/", url.Values{})
	assertStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	if _, err := app.queries.GetMessageByID(context.Background(), msg.ID); err != nil {
		t.Error("message should still exist")
	}
}

func TestMessageDetail_UnknownIDNotFound(t *testing.T) {
	app := newTestApp(t)
	app.createUser("alice", false)

	app.login("alice")
	resp := app.get("/messages/9999/")
	assertStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}
