// Package bot is the Telegram surface of the agent: it renders the daily
// checklist, drives toggles through the checklist service and doubles as the
// foreground-activity source for the reconciler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mariastapazzol/sanare/internal/model"
	"github.com/mariastapazzol/sanare/internal/service"
)

const (
	cbCheckPrefix   = "check:"
	cbUncheckPrefix = "uncheck:"
	cbSkipPrefix    = "skip:"
	cbUnskipPrefix  = "unskip:"
	cbResetConfirm  = "reset:yes"
	cbResetCancel   = "reset:no"
)

const (
	menuLabelToday  = "📋 Hoje"
	menuLabelReload = "🔄 Recarregar"
	menuLabelItems  = "🗂 Itens"
	menuLabelReset  = "♻️ Reiniciar o dia"
	btnConfirm      = "✅ Confirmar"
	btnCancel       = "↩️ Cancelar"
	iconPending     = "🟢"
	iconChecked     = "✅"
	iconSkipped     = "🚫"
	iconMedication  = "💊"
	iconReminder    = "⏰"
)

// Bot wires Telegram updates to the checklist engine.
type Bot struct {
	api       *tgbotapi.BotAPI
	checklist *service.ChecklistService
	stock     *service.StockService
	items     *service.ItemService
	chatID    int64

	mu         sync.Mutex
	foreground func()
}

func New(api *tgbotapi.BotAPI, checklist *service.ChecklistService, stock *service.StockService, items *service.ItemService, chatID int64) *Bot {
	return &Bot{
		api:       api,
		checklist: checklist,
		stock:     stock,
		items:     items,
		chatID:    chatID,
	}
}

// OnForeground registers fn to run on every incoming update. For this agent,
// the user talking to the bot is the "application came to foreground" signal.
func (b *Bot) OnForeground(fn func()) (cancel func()) {
	b.mu.Lock()
	b.foreground = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		b.foreground = nil
		b.mu.Unlock()
	}
}

func (b *Bot) signalForeground() {
	b.mu.Lock()
	fn := b.foreground
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.signalForeground()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if b.chatID != 0 && msg.Chat.ID != b.chatID {
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch text {
	case "/start", "/ajuda":
		b.sendText(msg.Chat.ID, "Olá! Eu acompanho seus medicamentos e lembretes do dia.\n"+
			"Use o menu abaixo para ver e marcar a lista de hoje.\n\n"+
			"Para cadastrar:\n"+
			"/remedio 08:00,20:00 Paracetamol\n"+
			"/lembrete 07:30 Caminhada\n"+
			"/apagar <id> remove um item")
	case "/hoje", menuLabelToday:
		b.sendChecklist(msg.Chat.ID)
	case "/recarregar", menuLabelReload:
		if err := b.checklist.Reload(ctx); err != nil {
			log.Printf("[warn] manual reload: %v", err)
			b.sendText(msg.Chat.ID, "Não consegui atualizar a lista agora. Tente novamente.")
			return
		}
		b.sendChecklist(msg.Chat.ID)
	case "/itens", menuLabelItems:
		b.sendItems(ctx, msg.Chat.ID)
	case "/reiniciar", menuLabelReset:
		b.sendResetConfirmation(msg.Chat.ID)
	default:
		switch {
		case strings.HasPrefix(text, "/remedio "):
			b.createItem(ctx, msg.Chat.ID, model.KindMedication, strings.TrimPrefix(text, "/remedio "))
		case strings.HasPrefix(text, "/lembrete "):
			b.createItem(ctx, msg.Chat.ID, model.KindReminder, strings.TrimPrefix(text, "/lembrete "))
		case strings.HasPrefix(text, "/apagar "):
			b.deleteItem(ctx, msg.Chat.ID, strings.TrimPrefix(text, "/apagar "))
		default:
			b.sendText(msg.Chat.ID, "Não entendi. Use o menu abaixo ou /ajuda.")
		}
	}
}

func (b *Bot) createItem(ctx context.Context, chatID int64, kind model.ItemKind, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		b.sendText(chatID, "Informe os horários e o nome. Ex.: 08:00,20:00 Paracetamol")
		return
	}

	input := service.ItemInput{
		Kind:  kind,
		Name:  strings.Join(fields[1:], " "),
		Times: strings.Split(fields[0], ","),
	}
	item, err := b.items.CreateItem(ctx, input)
	if err != nil {
		log.Printf("[warn] create item: %v", err)
		b.sendText(chatID, "Não consegui criar o item. Confira os horários (HH:MM).")
		return
	}
	b.sendText(chatID, fmt.Sprintf("Criado: %s (id %d).", item.Name, item.ID))
	b.sendChecklist(chatID)
}

func (b *Bot) deleteItem(ctx context.Context, chatID int64, args string) {
	id, err := strconv.ParseUint(strings.TrimSpace(args), 10, 32)
	if err != nil {
		b.sendText(chatID, "Informe o id do item. Ex.: /apagar 3 (veja os ids em 🗂 Itens)")
		return
	}
	if err := b.items.DeleteItem(ctx, uint(id)); err != nil {
		log.Printf("[warn] delete item %d: %v", id, err)
		b.sendText(chatID, "Não consegui apagar esse item.")
		return
	}
	b.sendText(chatID, "Item apagado.")
	b.sendChecklist(chatID)
}

func (b *Bot) sendItems(ctx context.Context, chatID int64) {
	items, err := b.items.List(ctx)
	if err != nil {
		log.Printf("[warn] list items: %v", err)
		b.sendText(chatID, "Não consegui carregar os itens.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🗂 <b>Itens cadastrados</b>\n\n")
	if len(items) == 0 {
		sb.WriteString("— nenhum item. Use /remedio ou /lembrete para cadastrar.")
	}
	for _, item := range items {
		icon := iconReminder
		if item.Kind == model.KindMedication {
			icon = iconMedication
		}
		sb.WriteString(fmt.Sprintf("%s <b>%s</b> — %s (id %d)\n",
			icon, html.EscapeString(strings.TrimSpace(item.Name)), strings.Join(item.Times, ", "), item.ID))
		if item.Kind == model.KindMedication && item.DoseUnits > 0 {
			sb.WriteString(fmt.Sprintf("   📦 estoque: %d (dose: %d)\n", item.StockUnits, item.DoseUnits))
		}
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(sb.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = menuKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("[warn] send items: %v", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if b.chatID != 0 && cb.Message != nil && cb.Message.Chat.ID != b.chatID {
		return
	}

	var toast string
	switch {
	case strings.HasPrefix(cb.Data, cbCheckPrefix):
		toast = b.toggleChecked(ctx, strings.TrimPrefix(cb.Data, cbCheckPrefix), true)
	case strings.HasPrefix(cb.Data, cbUncheckPrefix):
		toast = b.toggleChecked(ctx, strings.TrimPrefix(cb.Data, cbUncheckPrefix), false)
	case strings.HasPrefix(cb.Data, cbSkipPrefix):
		toast = b.toggleInactive(ctx, strings.TrimPrefix(cb.Data, cbSkipPrefix), true)
	case strings.HasPrefix(cb.Data, cbUnskipPrefix):
		toast = b.toggleInactive(ctx, strings.TrimPrefix(cb.Data, cbUnskipPrefix), false)
	case cb.Data == cbResetConfirm:
		if err := b.checklist.ResetDay(ctx); err != nil {
			log.Printf("[warn] reset day: %v", err)
			toast = "Não consegui reiniciar o dia."
		} else {
			toast = "Dia reiniciado."
		}
	case cb.Data == cbResetCancel:
		toast = "Cancelado."
	}

	callback := tgbotapi.NewCallback(cb.ID, toast)
	if _, err := b.api.Request(callback); err != nil {
		log.Printf("[warn] answer callback: %v", err)
	}

	if cb.Message != nil {
		b.refreshChecklist(cb.Message.Chat.ID, cb.Message.MessageID)
	}
}

// toggleChecked settles a done/undone toggle and keeps stock in step: one
// dose is consumed on check and returned on uncheck, only after the toggle
// itself persisted.
func (b *Bot) toggleChecked(ctx context.Context, entryID string, value bool) string {
	entry, ok := b.checklist.Entry(entryID)
	if !ok {
		return "Item não encontrado. A lista foi atualizada."
	}

	if err := b.checklist.SetChecked(ctx, entryID, value); err != nil {
		if errors.Is(err, service.ErrInsufficientStock) {
			return "Estoque insuficiente para a dose. Ajuste o estoque do medicamento."
		}
		log.Printf("[warn] toggle checked %s: %v", entryID, err)
		return "Não foi possível salvar. Tente novamente."
	}

	if entry.Kind == model.KindMedication {
		var err error
		switch {
		case value && !entry.Checked:
			err = b.stock.Consume(ctx, entry.ItemID)
		case !value && entry.Checked:
			err = b.stock.Restore(ctx, entry.ItemID)
		}
		if err != nil {
			log.Printf("[warn] adjust stock for item %d: %v", entry.ItemID, err)
		}
	}

	if value {
		return "Marcado como feito."
	}
	return "Desmarcado."
}

func (b *Bot) toggleInactive(ctx context.Context, entryID string, value bool) string {
	if err := b.checklist.SetInactive(ctx, entryID, value); err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			return "Item não encontrado. A lista foi atualizada."
		}
		log.Printf("[warn] toggle inactive %s: %v", entryID, err)
		return "Não foi possível salvar. Tente novamente."
	}
	if value {
		return "Pulado por hoje."
	}
	return "Reativado."
}

func (b *Bot) sendChecklist(chatID int64) {
	text, keyboard := b.renderChecklist()
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	} else {
		msg.ReplyMarkup = menuKeyboard()
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("[warn] send checklist: %v", err)
	}
}

// refreshChecklist rewrites an already-sent checklist message in place after
// a toggle settles.
func (b *Bot) refreshChecklist(chatID int64, messageID int) {
	text, keyboard := b.renderChecklist()
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = keyboard
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("[warn] refresh checklist: %v", err)
	}
}

func (b *Bot) renderChecklist() (string, *tgbotapi.InlineKeyboardMarkup) {
	entries := b.checklist.Entries()
	day := b.checklist.DayKey()

	var sb strings.Builder
	sb.WriteString("📋 <b>Lista de hoje</b>\n")
	sb.WriteString(fmt.Sprintf("🗓 %s\n\n", day))

	if len(entries) == 0 {
		sb.WriteString("— nada agendado para hoje")
		return sb.String(), nil
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, e := range entries {
		sb.WriteString(formatEntry(e))
		rows = append(rows, entryButtons(e))
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return strings.TrimSpace(sb.String()), &keyboard
}

func formatEntry(e service.Entry) string {
	state := iconPending
	switch {
	case e.Checked:
		state = iconChecked
	case e.Inactive:
		state = iconSkipped
	}

	kind := iconReminder
	if e.Kind == model.KindMedication {
		kind = iconMedication
	}

	return fmt.Sprintf("%s %s <b>%s</b> %s\n", state, e.Time, html.EscapeString(strings.TrimSpace(e.Name)), kind)
}

func entryButtons(e service.Entry) []tgbotapi.InlineKeyboardButton {
	label := fmt.Sprintf("%s %s", e.Time, e.Name)
	switch {
	case e.Checked:
		return []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("↩️ "+label, cbUncheckPrefix+e.ID),
		}
	case e.Inactive:
		return []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("↩️ "+label, cbUnskipPrefix+e.ID),
		}
	default:
		return []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("✅ "+label, cbCheckPrefix+e.ID),
			tgbotapi.NewInlineKeyboardButtonData("🚫", cbSkipPrefix+e.ID),
		}
	}
}

func (b *Bot) sendResetConfirmation(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Reiniciar o dia apaga todas as marcações de hoje. Confirmar?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnConfirm, cbResetConfirm),
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbResetCancel),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("[warn] send reset confirmation: %v", err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = menuKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("[warn] send message: %v", err)
	}
}

func menuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelReload),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelItems),
			tgbotapi.NewKeyboardButton(menuLabelReset),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}
