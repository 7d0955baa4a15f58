package core

import (
	"context"
	"fmt"
	"log/slog"

	"LectureBot/bot/chat"
	"LectureBot/entity"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/ws"
)

const msgBlacklistedRemoved = "🚫 تمت إزالة %s لأنه في القائمة السوداء."

// OnMessage counts group activity and routes the message to the conversation engine.
func (c *Core) OnMessage(ctx context.Context, msg chat.IncomingMessage) {
	if msg.FromMe {
		return
	}
	log := c.log.With(slog.String("chat", msg.ChatID), slog.String("user", msg.ActorID()))

	kind := "private"
	if msg.IsGroup {
		kind = "group"
		if err := c.repo.IncrementMessageCount(ctx, msg.ChatID, chat.UserKey(msg.ActorID())); err != nil {
			log.With(sl.Err(err)).Warn("increment message count")
		}
	}
	if c.metrics != nil {
		c.metrics.MessageReceived(kind)
	}

	handled, err := c.engine.Route(ctx, c.messenger, msg)
	if err != nil {
		log.With(sl.Err(err)).Error("route message")
		return
	}
	if handled {
		log.Debug("message handled")
	}
}

type membershipEvent struct {
	GroupID string   `json:"group_id"`
	Users   []string `json:"users"`
}

// OnGroupJoin records joins and removes blacklisted users again.
func (c *Core) OnGroupJoin(ctx context.Context, groupID string, userIDs []string) {
	c.metricEvent()
	for _, id := range userIDs {
		key := chat.UserKey(id)
		log := c.log.With(slog.String("group", groupID), slog.String("user", key))

		c.recordMembership(ctx, groupID, key, entity.MemberJoined)

		blocked, err := c.repo.IsBlacklisted(ctx, key)
		if err != nil {
			log.With(sl.Err(err)).Error("check blacklist")
			continue
		}
		if !blocked {
			continue
		}
		if c.groups == nil {
			log.Warn("blacklisted user joined, no group manager")
			continue
		}
		if err = c.groups.RemoveParticipant(ctx, groupID, "+"+key); err != nil {
			log.With(sl.Err(err)).Error("remove blacklisted user")
			continue
		}
		log.Info("blacklisted user removed")
		if c.messenger != nil {
			if err = c.messenger.SendText(ctx, groupID, fmt.Sprintf(msgBlacklistedRemoved, "+"+key)); err != nil {
				log.With(sl.Err(err)).Warn("send removal notice")
			}
		}
	}
	c.broadcast(ws.EventGroupJoin, membershipEvent{GroupID: groupID, Users: userIDs})
}

// OnGroupLeave blacklists users who left and records the leave.
func (c *Core) OnGroupLeave(ctx context.Context, groupID string, userIDs []string) {
	c.metricEvent()
	for _, id := range userIDs {
		key := chat.UserKey(id)
		c.recordMembership(ctx, groupID, key, entity.MemberLeft)
		if err := c.repo.AddToBlacklist(ctx, key); err != nil {
			c.log.With(sl.Err(err), slog.String("user", key)).Error("add to blacklist")
		}
	}
	c.broadcast(ws.EventGroupLeave, membershipEvent{GroupID: groupID, Users: userIDs})
}

func (c *Core) OnAdminChanged(_ context.Context, groupID string, userIDs []string, promoted bool) {
	c.metricEvent()
	c.log.Info("group admins changed",
		slog.String("group", groupID),
		slog.Any("users", userIDs),
		slog.Bool("promoted", promoted),
	)
	c.broadcast(ws.EventAdminChanged, map[string]any{
		"group_id": groupID,
		"users":    userIDs,
		"promoted": promoted,
	})
}

// Notify forwards transport lifecycle events (QR code, connected, ...) to the feed.
func (c *Core) Notify(eventType string, data any) {
	c.broadcast(eventType, data)
}

func (c *Core) LectureUploaded(l entity.Lecture) {
	c.log.Info("lecture uploaded", slog.String("id", l.ID), slog.String("subject", l.SubjectName))
	c.broadcast(ws.EventLectureUpload, l)
}

func (c *Core) recordMembership(ctx context.Context, groupID, userKey string, action entity.MembershipAction) {
	err := c.repo.RecordMembership(ctx, entity.MembershipEvent{
		GroupID: groupID,
		UserID:  userKey,
		Action:  action,
		At:      c.now(),
	})
	if err != nil {
		c.log.With(sl.Err(err), slog.String("group", groupID)).Error("record membership")
	}
}

func (c *Core) metricEvent() {
	if c.metrics != nil {
		c.metrics.MessageReceived("event")
	}
}
