// Package sink forwards flattened registration rows to the external
// spreadsheet webhook. The column ordering is a fixed contract with that
// system and must not change.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/musicengine/auth-server-go/internal/model"
)

type Sink interface {
	Append(ctx context.Context, reg *model.Registration) error
}

type SpreadsheetSink struct {
	url    string
	client *http.Client
}

func NewSpreadsheetSink(url string, timeout time.Duration) *SpreadsheetSink {
	return &SpreadsheetSink{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Append posts one row to the webhook. Row shape mirrors the sheet columns:
// timestamp, work fields, first writer, first publisher, files, then the
// complete writer/publisher lists as JSON.
func (s *SpreadsheetSink) Append(ctx context.Context, reg *model.Registration) error {
	writersJSON, err := json.Marshal(reg.Writers)
	if err != nil {
		return fmt.Errorf("marshal writers: %w", err)
	}
	publishersJSON, err := json.Marshal(reg.Publishers)
	if err != nil {
		return fmt.Errorf("marshal publishers: %w", err)
	}

	row := []any{
		reg.CreatedAt.Format(time.RFC3339),
		reg.Title,
		reg.WorkType,
		reg.ISWC,
		reg.ISRC,
		reg.Duration,
		reg.Description,
		strings.Join(reg.Territories, ", "),
		reg.PrimaryArtist,
		strings.Join(reg.FeaturedArtists, ", "),
		reg.LabelName,
	}
	row = append(row, firstParty(reg.Writers, true)...)
	row = append(row, firstParty(reg.Publishers, false)...)
	row = append(row,
		reg.Files.Audio,
		reg.Files.Artwork,
		reg.Files.Lyrics,
		string(writersJSON),
		string(publishersJSON),
	)

	payload, err := json.Marshal(map[string]any{
		"work_id": reg.WorkID,
		"row":     row,
	})
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sink request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to sink: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sink returned status %d", resp.StatusCode)
	}
	return nil
}

// firstParty flattens the first writer or publisher into its column slots.
// Writers carry a role column, publishers do not.
func firstParty(parties []model.Writer, withRole bool) []any {
	cols := 4
	if withRole {
		cols = 5
	}

	out := make([]any, 0, cols)
	if len(parties) == 0 {
		for i := 0; i < cols; i++ {
			out = append(out, "")
		}
		return out
	}

	p := parties[0]
	out = append(out, p.Name, p.IPI, p.ISNI, p.Share.String())
	if withRole {
		out = append(out, p.Role)
	}
	return out
}
