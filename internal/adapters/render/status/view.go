package status

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

type RenderOptions struct {
	Now       time.Time
	WrittenAt time.Time
	Stale     bool
	Provider  domain.ProviderID
}

func renderView(accounts []domain.ProviderAccount, health domain.JwtHealthReport, opts RenderOptions, s styles) string {
	header := s.header.Render(headerLine(len(accounts), opts))
	if opts.Stale {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, " ", s.warning.Render("[stale]"))
	}

	lines := []string{
		s.title.Render("Provider Accounts"),
		header,
	}

	if len(accounts) == 0 {
		lines = append(lines, s.empty.Render("No accounts in the directory."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, provider := range providerOrder(accounts) {
		lines = append(lines, s.section.Render(renderProvider(provider, accounts, s)))
	}

	if !health.Healthy() {
		lines = append(lines, s.section.Render(renderHealth(health, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func headerLine(count int, opts RenderOptions) string {
	scope := "all providers"
	if opts.Provider != "" {
		scope = string(opts.Provider)
	}

	header := fmt.Sprintf("accounts: %d · scope: %s", count, scope)
	if !opts.WrittenAt.IsZero() {
		header += fmt.Sprintf(" · synced %s", formatAge(opts.WrittenAt, opts.Now))
	}
	return header
}

func renderProvider(provider domain.ProviderID, accounts []domain.ProviderAccount, s styles) string {
	parts := []string{s.provider.Render(string(provider))}

	for _, account := range accounts {
		if account.Provider != provider {
			continue
		}
		parts = append(parts, renderAccount(account, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderAccount(account domain.ProviderAccount, s styles) string {
	segments := []string{
		"  " + statusBadge(account.Status, s),
		" ",
		s.account.Render(account.DisplayName()),
	}

	if line := creditLine(account, s); line != "" {
		segments = append(segments, "  ", line)
	}

	for _, badge := range tokenBadges(account, s) {
		segments = append(segments, " ", badge)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, segments...)
}

func statusBadge(status domain.AccountStatus, s styles) string {
	label := fmt.Sprintf("[%s]", status)

	switch status {
	case domain.StatusActive:
		return s.badgeOK.Render(label)
	case domain.StatusExhausted, domain.StatusRateLimited:
		return s.badgeWarn.Render(label)
	case domain.StatusError:
		return s.badgeError.Render(label)
	default:
		return s.badgeFaint.Render(label)
	}
}

func creditLine(account domain.ProviderAccount, s styles) string {
	if len(account.Credits) == 0 {
		return ""
	}

	kinds := make([]string, 0, len(account.Credits))
	for kind := range account.Credits {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts,
			s.creditKey.Render(kind+":")+s.creditVal.Render(formatCredits(account.Credits[kind])))
	}

	return strings.Join(parts, " ")
}

func tokenBadges(account domain.ProviderAccount, s styles) []string {
	var badges []string
	if !account.HasToken {
		badges = append(badges, s.warning.Render("[no token]"))
	} else if account.TokenExpired {
		badges = append(badges, s.warning.Render("[token expired]"))
	}
	if !account.HasCookies {
		badges = append(badges, s.badgeFaint.Render("[no cookies]"))
	}
	return badges
}

func renderHealth(health domain.JwtHealthReport, s styles) string {
	parts := []string{s.warning.Render("Token health degraded")}

	if len(health.Missing) > 0 {
		parts = append(parts, s.detail.Render(fmt.Sprintf("  missing token: %s", joinIDs(health.Missing))))
	}
	if len(health.Expired) > 0 {
		parts = append(parts, s.detail.Render(fmt.Sprintf("  expired token: %s", joinIDs(health.Expired))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func providerOrder(accounts []domain.ProviderAccount) []domain.ProviderID {
	seen := make(map[domain.ProviderID]struct{})
	var order []domain.ProviderID
	for _, account := range accounts {
		if _, ok := seen[account.Provider]; ok {
			continue
		}
		seen[account.Provider] = struct{}{}
		order = append(order, account.Provider)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return order
}

func formatCredits(value float64) string {
	if value == math.Trunc(value) {
		return fmt.Sprintf("%.0f", value)
	}
	return fmt.Sprintf("%.2f", value)
}

func formatAge(writtenAt, now time.Time) string {
	if now.IsZero() || !writtenAt.Before(now) {
		return "just now"
	}

	age := now.Sub(writtenAt)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	}
}

func joinIDs(ids []domain.AccountID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, string(id))
	}
	return strings.Join(parts, ", ")
}
