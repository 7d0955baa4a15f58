package commands

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"

	"LectureBot/bot/chat"
	"LectureBot/entity"
	"LectureBot/internal/lib/sl"
)

const (
	CmdAsk      = "!ask"
	CmdIntent   = "!نية"
	CmdLectures = "!المحاضرات"
	CmdLogin    = "!دخول"
	CmdHelp     = "!مساعدة"
)

// maxListed caps the lectures printed by CmdLectures.
const maxListed = 30

// Assistant answers questions with the generative model.
type Assistant interface {
	Ask(ctx context.Context, question string) (string, error)
	ClassifyIntent(ctx context.Context, text string) (entity.Intent, error)
}

type Store interface {
	ListLectures(ctx context.Context, filter entity.LectureFilter) ([]entity.Lecture, error)
	AddDeveloper(ctx context.Context, userID string) error
}

type Module struct {
	ai       Assistant
	store    Store
	auth     chat.Authorizer
	password string
	log      *slog.Logger
}

func New(ai Assistant, store Store, auth chat.Authorizer, password string, log *slog.Logger) *Module {
	return &Module{
		ai:       ai,
		store:    store,
		auth:     auth,
		password: password,
		log:      log.With(sl.Module("commands")),
	}
}

// Register adds the one-shot commands. CmdHelp lists the table it is registered in.
func (m *Module) Register(engine *chat.ChatEngine) {
	table := engine.Commands()
	table.Register(chat.Command{Name: CmdAsk, Aliases: []string{"!سؤال"}, Description: "اسأل المساعد الذكي", Handler: m.ask})
	table.Register(chat.Command{Name: CmdIntent, Description: "تحليل نية الرسالة", Handler: m.intent})
	table.Register(chat.Command{Name: CmdLectures, Description: "عرض المحاضرات المحفوظة", Handler: m.lectures})
	table.Register(chat.Command{Name: CmdLogin, Description: "تسجيل الدخول كمطور", Handler: m.login})
	table.Register(chat.Command{Name: CmdHelp, Aliases: []string{"!help"}, Description: "قائمة الأوامر", Handler: m.help(table)})
}

func (m *Module) ask(ctx context.Context, ms chat.Messenger, msg chat.IncomingMessage, question string) error {
	if question == "" {
		return ms.SendText(ctx, msg.ChatID, MsgAskEmpty)
	}
	answer, err := m.ai.Ask(ctx, question)
	if err != nil {
		m.log.Error("ai answer", slog.String("user_id", msg.ActorID()), sl.Err(err))
		return ms.SendText(ctx, msg.ChatID, MsgAIUnavailable)
	}
	return ms.SendText(ctx, msg.ChatID, answer)
}

func (m *Module) intent(ctx context.Context, ms chat.Messenger, msg chat.IncomingMessage, text string) error {
	if text == "" {
		return ms.SendText(ctx, msg.ChatID, MsgIntentEmpty)
	}
	intent, err := m.ai.ClassifyIntent(ctx, text)
	if err != nil {
		m.log.Error("ai intent", slog.String("user_id", msg.ActorID()), sl.Err(err))
		return ms.SendText(ctx, msg.ChatID, MsgAIUnavailable)
	}
	return ms.SendText(ctx, msg.ChatID, FormatIntent(intent))
}

// FormatIntent renders a classification result.
func FormatIntent(intent entity.Intent) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧭 النية: %s\n", intent.Intent))
	sb.WriteString(fmt.Sprintf("الثقة: %.2f", intent.Confidence))
	if intent.Subject != "" {
		sb.WriteString(fmt.Sprintf("\nالمادة: %s", intent.Subject))
	}
	if intent.LectureNumber != "" {
		sb.WriteString(fmt.Sprintf("\nرقم المحاضرة: %s", intent.LectureNumber))
	}
	if intent.Fallback {
		sb.WriteString("\n" + MsgIntentFallback)
	}
	return sb.String()
}

func (m *Module) lectures(ctx context.Context, ms chat.Messenger, msg chat.IncomingMessage, query string) error {
	list, err := m.store.ListLectures(ctx, entity.LectureFilter{Query: query})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return ms.SendText(ctx, msg.ChatID, MsgNoLectures)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📚 المحاضرات (%d):", len(list)))
	for i, l := range list {
		if i == maxListed {
			sb.WriteString(fmt.Sprintf("\n… و%d أخرى", len(list)-maxListed))
			break
		}
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, l.Label()))
	}
	return ms.SendText(ctx, msg.ChatID, sb.String())
}

func (m *Module) login(ctx context.Context, ms chat.Messenger, msg chat.IncomingMessage, password string) error {
	userID := msg.ActorID()
	if password == "" || subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) != 1 {
		m.log.Warn("developer login rejected", slog.String("user_id", userID))
		return ms.SendText(ctx, msg.ChatID, MsgWrongPassword)
	}
	if err := m.store.AddDeveloper(ctx, chat.UserKey(userID)); err != nil {
		return err
	}
	m.log.Info("developer added", slog.String("user_id", userID))
	return ms.SendText(ctx, msg.ChatID, MsgLoggedIn)
}

func (m *Module) help(table *chat.CommandTable) chat.CommandFunc {
	return func(ctx context.Context, ms chat.Messenger, msg chat.IncomingMessage, _ string) error {
		admin := m.auth != nil && m.auth.IsAdmin(ctx, msg.ActorID())
		var sb strings.Builder
		sb.WriteString(MsgHelpHeader)
		for _, cmd := range table.List() {
			if cmd.Access == chat.AccessAdmin && !admin {
				continue
			}
			sb.WriteString(fmt.Sprintf("\n%s - %s", cmd.Name, cmd.Description))
		}
		return ms.SendText(ctx, msg.ChatID, sb.String())
	}
}
