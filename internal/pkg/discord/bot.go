package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/config"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/ledger"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/verification"
)

const (
	CommandName        = "paypal"
	CommandDescription = "Verify your paypal purchase."
	EmailOption        = "email"
)

// Verifier is implemented by *verification.Service.
type Verifier interface {
	Verify(ctx context.Context, email string, id verification.Identity) (verification.Result, error)
}

type interactionSession interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot registers the slash command and routes its invocations to the verifier.
type Bot struct {
	session       *discordgo.Session
	verifier      Verifier
	guildIDs      []string
	appearOffline bool
	timeout       time.Duration
}

// NewSession creates a gateway session for a bot token.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return s, nil
}

func NewBot(session *discordgo.Session, verifier Verifier, cfg config.DiscordConfig, timeout time.Duration) *Bot {
	return &Bot{
		session:       session,
		verifier:      verifier,
		guildIDs:      cfg.GuildIDs,
		appearOffline: cfg.AppearOffline,
		timeout:       timeout,
	}
}

// Command is the /paypal definition registered in every configured guild.
func Command() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        CommandName,
		Description: CommandDescription,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        EmailOption,
				Description: "The email address used for the PayPal purchase.",
				Required:    true,
			},
		},
	}
}

// Start opens the gateway connection and registers the command per guild.
func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}

	appID := b.session.State.User.ID
	for _, guildID := range b.guildIDs {
		if _, err := b.session.ApplicationCommandCreate(appID, guildID, Command()); err != nil {
			return fmt.Errorf("register /%s in guild %s: %w", CommandName, guildID, err)
		}
		log.Infof("[Discord] Registered /%s in guild %s", CommandName, guildID)
	}
	return nil
}

func (b *Bot) Stop() error {
	log.Info("[Discord] Closing gateway connection")
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Infof("[Discord] Logged in as %s#%s", r.User.Username, r.User.Discriminator)
	if !b.appearOffline {
		return
	}
	if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{Status: string(discordgo.StatusInvisible)}); err != nil {
		log.Warnf("[Discord] Failed to set invisible presence: %v", err)
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.ApplicationCommandData().Name != CommandName {
		return
	}

	ctx := context.Background()
	if b.timeout > 0 {
		var cancel context.CancelFunc
		// Leave room for the final edit on top of the search budget.
		ctx, cancel = context.WithTimeout(ctx, b.timeout+30*time.Second)
		defer cancel()
	}
	b.handleVerify(ctx, s, i.Interaction)
}

func (b *Bot) handleVerify(ctx context.Context, s interactionSession, i *discordgo.Interaction) {
	id, ok := identityOf(i)
	if !ok {
		respondEphemeral(s, i, "This command can only be used inside a server.")
		return
	}

	email := emailOf(i.ApplicationCommandData())
	log.Infof("[Discord] %s ran /%s in guild %s", id, CommandName, id.GuildID)

	// The reconciliation outlasts the three second reply deadline.
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		log.Errorf("[Discord] Failed to defer response for %s: %v", id, err)
		return
	}

	res, err := b.verifier.Verify(ctx, email, id)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrWrite):
		log.Errorf("[Discord] %s was granted the role but the email was not recorded: %v", id, err)
	default:
		log.Errorf("[Discord] Verification for %s failed: %v", id, err)
	}

	msg := res.Message()
	if _, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &msg}); err != nil {
		log.Errorf("[Discord] Failed to send result to %s: %v", id, err)
	}
}

func respondEphemeral(s interactionSession, i *discordgo.Interaction, msg string) {
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("[Discord] Failed to respond: %v", err)
	}
}

func identityOf(i *discordgo.Interaction) (verification.Identity, bool) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return verification.Identity{}, false
	}
	return verification.Identity{
		GuildID: i.GuildID,
		UserID:  i.Member.User.ID,
		Name:    i.Member.User.Username,
	}, true
}

func emailOf(data discordgo.ApplicationCommandInteractionData) string {
	for _, opt := range data.Options {
		if opt.Name == EmailOption && opt.Type == discordgo.ApplicationCommandOptionString {
			return strings.TrimSpace(opt.StringValue())
		}
	}
	return ""
}
