package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/verification"
)

// ErrRoleNotFound is returned when the guild has no role with the configured name.
var ErrRoleNotFound = errors.New("discord: role not found")

// Session is the part of *discordgo.Session the role granter needs.
type Session interface {
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// RoleGranter resolves the configured role by name in each guild and caches
// the id, since role names are what operators configure.
type RoleGranter struct {
	session  Session
	roleName string

	mu      sync.Mutex
	roleIDs map[string]string
}

var _ verification.RoleGranter = (*RoleGranter)(nil)

func NewRoleGranter(session Session, roleName string) *RoleGranter {
	return &RoleGranter{
		session:  session,
		roleName: roleName,
		roleIDs:  make(map[string]string),
	}
}

func (g *RoleGranter) HasRole(ctx context.Context, id verification.Identity) (bool, error) {
	roleID, err := g.roleID(ctx, id.GuildID)
	if err != nil {
		return false, err
	}

	m, err := g.session.GuildMember(id.GuildID, id.UserID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("fetch member %s: %w", id.UserID, err)
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true, nil
		}
	}
	return false, nil
}

func (g *RoleGranter) GrantRole(ctx context.Context, id verification.Identity) error {
	roleID, err := g.roleID(ctx, id.GuildID)
	if err != nil {
		return err
	}
	if err := g.session.GuildMemberRoleAdd(id.GuildID, id.UserID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add role %s to %s: %w", g.roleName, id.UserID, err)
	}
	return nil
}

func (g *RoleGranter) roleID(ctx context.Context, guildID string) (string, error) {
	g.mu.Lock()
	cached, ok := g.roleIDs[guildID]
	g.mu.Unlock()
	if ok {
		return cached, nil
	}

	roles, err := g.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("list roles of guild %s: %w", guildID, err)
	}
	for _, r := range roles {
		if r.Name == g.roleName {
			g.mu.Lock()
			g.roleIDs[guildID] = r.ID
			g.mu.Unlock()
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q in guild %s", ErrRoleNotFound, g.roleName, guildID)
}
