package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"remindbot/internal/reminder"
	kit "remindbot/internal/transport"
	logx "remindbot/pkg/logx"
	"remindbot/pkg/tgui"
)

const (
	actionDone   = "done_"
	actionSnooze = "snooze_"
)

func (a *App) handleUpdate(ctx context.Context, up kit.Update) {
	switch up.Kind {
	case kit.UpdateMessage:
		if up.Message != nil {
			a.handleMessage(ctx, up.Message)
		}
	case kit.UpdateCallback:
		if up.Callback != nil {
			a.handleCallback(ctx, up.Callback)
		}
	}
}

func (a *App) handleMessage(ctx context.Context, m *kit.Message) {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		a.handleCommand(ctx, m, text)
		return
	}

	task, err := a.svc.Submit(ctx, m.ChatID, text)
	switch {
	case errors.Is(err, reminder.ErrNoTimeExpression):
		a.send(ctx, m.ChatID, tgui.New().
			Line("❌ I can't find a time in that.").
			Line("Try: 'through 2 hours' or 'tomorrow at 10:00'").
			Build())
	case err != nil:
		a.log.Error("submit failed", logx.Int64("owner_id", m.ChatID), logx.Err(err))
		a.send(ctx, m.ChatID, tgui.New().Line("⚠️ Something went wrong, reminder not saved.").Build())
	default:
		a.send(ctx, m.ChatID, tgui.New().
			Title("✅", "Saved!").
			KV("Task", task.Description).
			KV("In", formatRemaining(task.Remaining(time.Now()))).
			Build())
	}
}

func (a *App) handleCommand(ctx context.Context, m *kit.Message, text string) {
	cmd := strings.ToLower(strings.Fields(text)[0])
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	switch cmd {
	case "/start":
		a.send(ctx, m.ChatID, welcomeMessage(m.FromUsername))
	case "/help":
		a.send(ctx, m.ChatID, helpMessage())
	case "/list":
		a.handleList(ctx, m.ChatID)
	default:
		a.send(ctx, m.ChatID, tgui.New().Line("Unknown command. See /help").Build())
	}
}

func (a *App) handleList(ctx context.Context, ownerID int64) {
	views, err := a.svc.ListActive(ctx, ownerID)
	if err != nil {
		a.log.Error("list failed", logx.Int64("owner_id", ownerID), logx.Err(err))
		a.send(ctx, ownerID, tgui.New().Line("⚠️ Couldn't load your reminders.").Build())
		return
	}
	if len(views) == 0 {
		a.send(ctx, ownerID, tgui.New().Line("📭 You have no reminders").Build())
		return
	}

	b := tgui.New().Title("📋", "Your reminders").Blank()
	for i, v := range views {
		status := "⏳ pending"
		if v.Task.Completed {
			status = "✅ done"
		}
		b.Line(fmt.Sprintf("%d. %s", i+1, v.Task.Description))
		b.Line("   🕐 in " + formatRemaining(v.Remaining) + " — " + status)
	}
	a.send(ctx, ownerID, b.Build())
}

func (a *App) handleCallback(ctx context.Context, cb *kit.Callback) {
	var (
		msg tgui.Message
		ack string
	)
	switch {
	case strings.HasPrefix(cb.Data, actionDone):
		task, err := a.svc.Complete(ctx, cb.ChatID, strings.TrimPrefix(cb.Data, actionDone))
		if err != nil {
			ack = "Task not found"
			break
		}
		ack = "Done!"
		msg = tgui.New().Title("✅", "Task completed").Line(task.Description).Build()
	case strings.HasPrefix(cb.Data, actionSnooze):
		task, err := a.svc.Snooze(ctx, cb.ChatID, strings.TrimPrefix(cb.Data, actionSnooze))
		if err != nil {
			ack = "Task not found"
			break
		}
		ack = "Snoozed"
		msg = tgui.New().Title("⏰", "I'll remind you in 1 hour").Line(task.Description).Build()
	default:
		ack = "Unknown action"
	}

	if err := a.adapter.AnswerCallback(ctx, cb.ID, ack); err != nil {
		a.log.Debug("callback answer failed", logx.Err(err))
	}
	if msg.Text == "" {
		return
	}
	ref := kit.MessageRef{ChatID: cb.ChatID, MessageID: cb.MessageID}
	if err := a.adapter.EditText(ctx, ref, msg.Text, msg.Opt); err != nil {
		a.log.Warn("notification edit failed", logx.Int64("owner_id", cb.ChatID), logx.Err(err))
	}
}

// deliver is the scheduler's fire callback: it renders the notification with
// the done/snooze controls and sends it, rate limited.
func (a *App) deliver(task *reminder.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	kb := tgui.NewInline()
	kb.Row(
		tgui.Btn("✅ Done", actionDone+task.ID),
		tgui.Btn("🔄 Snooze 1h", actionSnooze+task.ID),
	)
	msg := tgui.New().
		Title("🔔", "Reminder!").
		Blank().
		Line(task.Description).
		Inline(kb).
		Build()

	a.send(ctx, task.OwnerID, msg)
	a.log.Info("reminder delivered", logx.String("task_id", task.ID), logx.Int64("owner_id", task.OwnerID))
}

func (a *App) send(ctx context.Context, chatID int64, msg tgui.Message) {
	if err := a.limiter.Wait(ctx); err != nil {
		a.log.Warn("send rate wait aborted", logx.Err(err))
		return
	}
	if _, err := a.adapter.SendText(ctx, kit.ChatTarget{ChatID: chatID}, msg.Text, msg.Opt); err != nil {
		a.log.Warn("send failed", logx.Int64("owner_id", chatID), logx.Err(err))
	}
}

func welcomeMessage(username string) tgui.Message {
	name := strings.TrimSpace(username)
	greeting := "Hi! 👋"
	if name != "" {
		greeting = "Hi, " + name + "! 👋"
	}
	return tgui.New().
		Line(greeting).
		Blank().
		Line("I'm a reminder bot. Write me a task and a time:").
		Line("• \"call mom through 2 hours\"").
		Line("• \"through 30 minutes\"").
		Line("• \"tomorrow at 10:00\"").
		Blank().
		Line("/list — all reminders").
		Line("/help — help").
		Build()
}

func helpMessage() tgui.Message {
	return tgui.New().
		Title("📋", "How to add a reminder").
		Line("• \"do homework through 2 hours\"").
		Line("• \"check mail through 30 minutes\"").
		Line("• \"tomorrow at 18:00 call mom\"").
		Line("• \"at 07:30\" — next occurrence of that time").
		Line("• \"15\" — in 15 minutes").
		Build()
}

func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", h, m)
}
