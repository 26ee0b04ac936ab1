package tickets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const historyPageSize = 100

// ExportTranscript renders the full channel history oldest-first as
// "author: content" lines and persists it keyed by channel id. Returns the
// written file path. Runs to completion or fails; there is no partial file
// left behind on error.
func (m *Manager) ExportTranscript(channelID string) (string, error) {
	lines, err := m.collectHistory(channelID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch channel history: %w", err)
	}

	if err := os.MkdirAll(m.transcriptDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}
	path := filepath.Join(m.transcriptDir, channelID+".txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}

// TranscriptPath returns where a channel's transcript lives, whether or
// not one has been written yet.
func (m *Manager) TranscriptPath(channelID string) string {
	return filepath.Join(m.transcriptDir, channelID+".txt")
}

func (m *Manager) collectHistory(channelID string) ([]string, error) {
	var lines []string
	beforeID := ""
	for {
		messages, err := m.gw.ChannelMessages(channelID, historyPageSize, beforeID, "", "")
		if err != nil {
			return nil, err
		}
		if len(messages) == 0 {
			break
		}
		// Pages arrive newest-first; prepend each rendered page so the
		// final document reads oldest-first.
		page := make([]string, 0, len(messages))
		for i := len(messages) - 1; i >= 0; i-- {
			page = append(page, renderMessage(messages[i]))
		}
		lines = append(page, lines...)

		beforeID = messages[len(messages)-1].ID
		if len(messages) < historyPageSize {
			break
		}
	}
	return lines, nil
}

func renderMessage(m *discordgo.Message) string {
	author := "unknown"
	if m.Author != nil {
		author = m.Author.Username
	}
	parts := []string{}
	if m.Content != "" {
		parts = append(parts, m.Content)
	}
	for _, a := range m.Attachments {
		parts = append(parts, fmt.Sprintf("[attachment: %s]", a.Filename))
	}
	for range m.Embeds {
		parts = append(parts, "[embed]")
	}
	if len(parts) == 0 {
		parts = append(parts, "[no content]")
	}
	return fmt.Sprintf("%s: %s", author, strings.Join(parts, " "))
}
