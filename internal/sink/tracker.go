package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/edugrade/codegrader/internal/grading"
)

const (
	trackerAPIVersion  = "2022-06-28"
	trackerDefaultBase = "https://api.notion.com"
	trackerNoteLimit   = 1900

	// defaultNotesTemplate renders the Notes property; placeholders are
	// substituted from the report's property mapping.
	defaultNotesTemplate = "{{ai_feedback}}"
)

// TrackerConfig holds credentials for the external grade-tracking store.
// When any required field is empty the sink silently skips delivery, so
// local runs work without tracker credentials.
type TrackerConfig struct {
	BaseURL            string
	APIKey             string
	GradesDatabaseID   string
	StudentsDatabaseID string
	GradeTopicID       string
	NotesTemplate      string
	HTTPClient         *http.Client
}

// TrackerSink writes grading reports into a Notion-style tracking database:
// the student row is resolved by email, then a grade page is created with
// the report's properties substituted in.
type TrackerSink struct {
	cfg    TrackerConfig
	client *http.Client
	logger zerolog.Logger
}

// NewTrackerSink constructs the tracking-store sink.
func NewTrackerSink(cfg TrackerConfig, logger zerolog.Logger) *TrackerSink {
	if cfg.BaseURL == "" {
		cfg.BaseURL = trackerDefaultBase
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &TrackerSink{
		cfg:    cfg,
		client: client,
		logger: logger.With().Str("component", "tracker_sink").Logger(),
	}
}

func (s *TrackerSink) configured() bool {
	return s.cfg.APIKey != "" && s.cfg.GradesDatabaseID != "" && s.cfg.StudentsDatabaseID != ""
}

// Publish creates a grade row in the tracking store. A failed student lookup
// is logged and skipped rather than failing the grading run.
func (s *TrackerSink) Publish(ctx context.Context, report *grading.GradingReport, studentEmail string) error {
	if !s.configured() {
		s.logger.Debug().Msg("tracker not configured, skipping delivery")
		return nil
	}

	studentPageID, err := s.resolveStudent(ctx, studentEmail)
	if err != nil {
		return fmt.Errorf("resolve student: %w", err)
	}
	if studentPageID == "" {
		s.logger.Warn().Str("student_email", studentEmail).Msg("student not found in tracking store, skipping delivery")
		return nil
	}

	template := s.cfg.NotesTemplate
	if template == "" {
		template = defaultNotesTemplate
	}
	notes := truncateNotes(substituteProperties(template, report.Properties()))

	properties := map[string]interface{}{
		"Name": map[string]interface{}{
			"title": []map[string]interface{}{{"text": map[string]string{"content": report.AssignmentName}}},
		},
		"Student": map[string]interface{}{
			"relation": []map[string]string{{"id": studentPageID}},
		},
		"Date": map[string]interface{}{
			"date": map[string]string{"start": report.GeneratedAt.Format(time.RFC3339)},
		},
		"Total": map[string]interface{}{"number": report.PointsPossible},
		"Score": map[string]interface{}{"number": report.PointsEarned},
		"Notes": map[string]interface{}{
			"rich_text": []map[string]interface{}{{"text": map[string]string{"content": notes}}},
		},
	}
	if s.cfg.GradeTopicID != "" {
		properties["Grade Topic"] = map[string]interface{}{
			"relation": []map[string]string{{"id": s.cfg.GradeTopicID}},
		}
	}

	payload := map[string]interface{}{
		"parent":     map[string]string{"database_id": s.cfg.GradesDatabaseID},
		"properties": properties,
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := s.post(ctx, "/v1/pages", payload, &created); err != nil {
		return fmt.Errorf("create grade page: %w", err)
	}

	s.logger.Info().Str("run_id", report.RunID).Str("page_id", created.ID).Msg("grade recorded in tracking store")
	return nil
}

// resolveStudent pages through the students database looking for a row whose
// Email property matches.
func (s *TrackerSink) resolveStudent(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", nil
	}

	type queryResponse struct {
		Results []struct {
			ID         string `json:"id"`
			Properties struct {
				Email struct {
					Email string `json:"email"`
				} `json:"Email"`
			} `json:"properties"`
		} `json:"results"`
		HasMore    bool   `json:"has_more"`
		NextCursor string `json:"next_cursor"`
	}

	path := fmt.Sprintf("/v1/databases/%s/query", s.cfg.StudentsDatabaseID)
	cursor := ""
	for {
		body := map[string]interface{}{}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		var resp queryResponse
		if err := s.post(ctx, path, body, &resp); err != nil {
			return "", err
		}

		for _, page := range resp.Results {
			if strings.EqualFold(page.Properties.Email.Email, email) {
				return page.ID, nil
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return "", nil
		}
		cursor = resp.NextCursor
	}
}

// truncateNotes caps the Notes property at the tracking store's rich-text
// limit, cutting on a rune boundary so no multi-byte character is split.
func truncateNotes(notes string) string {
	if len(notes) <= trackerNoteLimit {
		return notes
	}

	cut := trackerNoteLimit
	for cut > 0 && !utf8.RuneStart(notes[cut]) {
		cut--
	}
	return notes[:cut]
}

// substituteProperties replaces {{key}} placeholders with the report's
// property values.
func substituteProperties(template string, properties map[string]string) string {
	for key, value := range properties {
		template = strings.ReplaceAll(template, "{{"+key+"}}", value)
	}
	return template
}

func (s *TrackerSink) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Notion-Version", trackerAPIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("tracking store returned status %d", resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
