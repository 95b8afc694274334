package records

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GitHubStore keeps records as JSON files in a git repository through the
// GitHub contents API, which makes a free serverless backend: no database,
// history for free. Each save is one commit.
type GitHubStore struct {
	token  string
	repo   string // "owner/name"
	branch string
	path   string // directory inside the repo
	base   string // API root, overridable in tests
	client *http.Client
}

// NewGitHubStore builds the store. repo is "owner/name"; branch and path
// default to "main" and "records".
func NewGitHubStore(token, repo, branch, path string) *GitHubStore {
	if branch == "" {
		branch = "main"
	}
	if path == "" {
		path = "records"
	}
	return &GitHubStore{
		token:  token,
		repo:   repo,
		branch: branch,
		path:   strings.Trim(path, "/"),
		base:   "https://api.github.com",
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type githubFile struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

type githubPut struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

func (s *GitHubStore) Load(ctx context.Context, roomID string) (*Record, error) {
	file, err := s.fetch(ctx, roomID)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("records: decode %s: %w", roomID, err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("records: decode %s: %w", roomID, err)
	}
	return &rec, nil
}

func (s *GitHubStore) Save(ctx context.Context, rec *Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("records: encode %s: %w", rec.RoomID, err)
	}

	// The API needs the current blob sha to update an existing file.
	sha := ""
	if existing, err := s.fetch(ctx, rec.RoomID); err == nil {
		sha = existing.SHA
	} else if err != ErrNotFound {
		return err
	}

	body, _ := json.Marshal(githubPut{
		Message: fmt.Sprintf("update scores for room %s", rec.RoomID),
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  s.branch,
		SHA:     sha,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.fileURL(rec.RoomID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("records: save %s: %w", rec.RoomID, err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("records: save %s: %w", rec.RoomID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("records: save %s: github returned %s", rec.RoomID, resp.Status)
	}
	return nil
}

func (s *GitHubStore) Close() error { return nil }

func (s *GitHubStore) fetch(ctx context.Context, roomID string) (*githubFile, error) {
	url := s.fileURL(roomID) + "?ref=" + s.branch
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("records: load %s: %w", roomID, err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("records: load %s: %w", roomID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("records: load %s: github returned %s", roomID, resp.Status)
	}
	var file githubFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("records: load %s: %w", roomID, err)
	}
	return &file, nil
}

func (s *GitHubStore) fileURL(roomID string) string {
	return fmt.Sprintf("%s/repos/%s/contents/%s/%s.json", s.base, s.repo, s.path, safeName(roomID))
}

func (s *GitHubStore) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}
