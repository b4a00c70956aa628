package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	ErrClosed         = errors.New("bot has closed")
	ErrSessionExpired = errors.New("session has expired")
	ErrAlreadyStarted = errors.New("bot already started")
)

var botKeyboard = tgbotapi.NewInlineKeyboardMarkup(
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("MC", "MC"),
		tgbotapi.NewInlineKeyboardButtonData("MR", "MR"),
		tgbotapi.NewInlineKeyboardButtonData("MS", "MS"),
		tgbotapi.NewInlineKeyboardButtonData("M+", "M+"),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("AC", "AC"),
		tgbotapi.NewInlineKeyboardButtonData("C", "C"),
		tgbotapi.NewInlineKeyboardButtonData("⌫", "<"),
		tgbotapi.NewInlineKeyboardButtonData("÷", "/"),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("7", "7"),
		tgbotapi.NewInlineKeyboardButtonData("8", "8"),
		tgbotapi.NewInlineKeyboardButtonData("9", "9"),
		tgbotapi.NewInlineKeyboardButtonData("×", "*"),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("4", "4"),
		tgbotapi.NewInlineKeyboardButtonData("5", "5"),
		tgbotapi.NewInlineKeyboardButtonData("6", "6"),
		tgbotapi.NewInlineKeyboardButtonData("-", "-"),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("1", "1"),
		tgbotapi.NewInlineKeyboardButtonData("2", "2"),
		tgbotapi.NewInlineKeyboardButtonData("3", "3"),
		tgbotapi.NewInlineKeyboardButtonData("+", "+"),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("±", "T"),
		tgbotapi.NewInlineKeyboardButtonData("0", "0"),
		tgbotapi.NewInlineKeyboardButtonData(".", "."),
		tgbotapi.NewInlineKeyboardButtonData("=", "="),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("√", "S"),
		tgbotapi.NewInlineKeyboardButtonData("1/x", "I"),
		tgbotapi.NewInlineKeyboardButtonData("%", "%"),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("digits -", "P-"),
		tgbotapi.NewInlineKeyboardButtonData("digits +", "P+"),
	),
)

type Bot struct {
	sessions   *Memcached[*Session]
	api        *tgbotapi.BotAPI
	config     *Config
	welcome    string
	help       string
	isStarted  atomic.Bool
	inShutdown atomic.Bool
	isDone     chan struct{}
	logger     *log.Logger
}

func LoadBot(config *Config, sessions *Memcached[*Session], logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.Telegram.Token)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:      api,
		config:   config,
		logger:   logger,
		isDone:   make(chan struct{}),
		sessions: sessions,
		welcome: fmt.Sprintf(
			"%s%s %s of inactivity.",
			"Welcome! Type /open to get started.\n",
			"Note: the session expires after",
			config.SessionTTL,
		),
		help: strings.Join([]string{
			"Help:",
			"/start - welcome message.",
			"/open - open new session.",
			fmt.Sprintf("/precision N - show N digits after the point (0-%d).", config.MaxPrecision),
			"/help - send this message.",
		}, "\n"),
	}, nil
}

func (b *Bot) Run() error {
	if b.isStarted.Load() {
		return ErrAlreadyStarted
	}
	b.isStarted.Store(true)
	defer close(b.isDone)

	updateConfig := tgbotapi.NewUpdate(b.config.Telegram.Offset)
	updateConfig.Timeout = b.config.Telegram.Timeout
	updates := b.api.GetUpdatesChan(updateConfig)

	for update := range updates {
		if b.inShutdown.Load() && b.sessions.IsEmpty() {
			continue
		}

		if update.CallbackQuery != nil {
			if err := b.handleCallback(update.CallbackQuery); err != nil {
				b.logger.Printf("failed to handle callback, error: %v", err)
				continue
			}
		}

		if update.Message == nil {
			continue
		}

		if err := b.handleCommand(update.Message); err != nil {
			b.logger.Printf("failed to send message, error: %v", err)
		}
	}

	return ErrClosed
}

func sessionKey(chatID, userID int64) string {
	return fmt.Sprintf("%d_%d", chatID, userID)
}

func (b *Bot) createMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return nil
}

func (b *Bot) createKeyboard(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = botKeyboard

	_, err := b.api.Send(msg)
	if err != nil {
		return err
	}
	return nil
}

func (b *Bot) updateKeyboard(callback *tgbotapi.CallbackQuery, text string) error {
	if text == callback.Message.Text {
		return nil
	}

	edit := tgbotapi.NewEditMessageText(
		callback.Message.Chat.ID,
		callback.Message.MessageID,
		text,
	)
	edit.ReplyMarkup = &botKeyboard

	if _, err := b.api.Send(edit); err != nil {
		return err
	}
	return nil
}

func (b *Bot) handleCommand(command *tgbotapi.Message) error {
	if command.From == nil {
		return nil
	}
	key := sessionKey(command.Chat.ID, command.From.ID)

	switch command.Command() {
	case "start":
		return b.createMessage(command.Chat.ID, b.welcome)
	case "help":
		return b.createMessage(command.Chat.ID, b.help)
	case "open":
		if _, ok := b.sessions.Get(key); ok {
			return b.createMessage(
				command.Chat.ID,
				"Your session is not expired!",
			)
		}

		session := NewSession(b.config.Precision, b.config.MaxPrecision, b.logger)
		if !b.sessions.Set(key, session) {
			return b.createMessage(command.Chat.ID, "The bot is shutting down, try again later.")
		}

		err := b.createKeyboard(command.Chat.ID, session.Display())
		if err != nil {
			b.sessions.Delete(key)
		}
		return err
	case "precision":
		session, ok := b.sessions.Get(key)
		if !ok {
			return b.createMessage(command.Chat.ID, "Your session has expired, please /open a new one.")
		}

		precision, err := strconv.ParseUint(strings.TrimSpace(command.CommandArguments()), 10, 32)
		if err == nil {
			err = session.SetPrecision(uint(precision))
		}
		if err != nil {
			return b.createMessage(command.Chat.ID, fmt.Sprintf("Usage: /precision N with N from 0 to %d.", b.config.MaxPrecision))
		}

		b.sessions.Set(key, session)
		return b.createKeyboard(command.Chat.ID, session.Display())
	default:
		return b.createMessage(command.Chat.ID, "Unknown command. Try /help")
	}
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		return err
	}
	if callback.Message == nil {
		return ErrUnsupported
	}

	key := sessionKey(callback.Message.Chat.ID, callback.From.ID)

	session, ok := b.sessions.Get(key)
	if !ok {
		err := b.updateKeyboard(
			callback,
			"Your session has expired, please /open a new one.",
		)

		if err != nil {
			return err
		}
		return ErrSessionExpired
	}

	if err := session.Press(callback.Data); err != nil {
		return fmt.Errorf("key %q: %w", callback.Data, err)
	}

	err := b.updateKeyboard(callback, session.Display())
	if err == nil {
		b.sessions.Set(key, session)
	}
	return err
}

// Shutdown stops receiving updates and waits for the update loop to exit.
// Sessions are drained by their store.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.inShutdown.Store(true)
	b.api.StopReceivingUpdates()

	select {
	case <-b.isDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
