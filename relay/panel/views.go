package panel

import (
	"fmt"
	"strings"
	"time"
)

// PanelText renders the control panel header with the current availability.
func (c *Console) PanelText() string {
	status := "active"
	if !c.flag.Active() {
		status = "paused"
	}
	now := c.clock()
	return fmt.Sprintf(
		"Control panel\n%s\nStatus: %s",
		now.Format("02.01.2006 15:04:05"),
		status,
	)
}

// AdminListText renders the current super-admin and admin lists.
func (c *Console) AdminListText() string {
	snap := c.access.Snapshot()
	var b strings.Builder
	b.WriteString("Admins\n\nSuper-admins:\n")
	writeIDs(&b, snap.SuperAdmins)
	b.WriteString("\nAdmins:\n")
	writeIDs(&b, snap.Admins)
	return b.String()
}

// BlacklistText renders the current blacklist.
func (c *Console) BlacklistText() string {
	snap := c.access.Snapshot()
	var b strings.Builder
	b.WriteString("Blacklist\n\n")
	writeIDs(&b, snap.Blacklist)
	return b.String()
}

// StatsText renders the usage stats screen.
func (c *Console) StatsText() string {
	snap := c.usage.Snapshot()
	supers, admins, blacklisted := c.access.Counts()

	avg := 0.0
	if snap.Users > 0 {
		avg = float64(snap.Messages) / float64(snap.Users)
	}

	return fmt.Sprintf(
		"Stats\n\nUsers: %d\nAdmins: %d (+%d super)\nBlacklisted: %d\nMessages relayed: %d\nAvg per user: %.1f\nUptime: %s",
		snap.Users,
		admins,
		supers,
		blacklisted,
		snap.Messages,
		avg,
		formatUptime(snap.Uptime),
	)
}

func writeIDs(b *strings.Builder, ids []int64) {
	if len(ids) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, id := range ids {
		fmt.Fprintf(b, "  %d\n", id)
	}
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
