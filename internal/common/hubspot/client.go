// Package hubspot is a minimal client for the CRM operations the intake
// handler needs: contact create/update, private file upload, and note
// creation with a contact association.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ClientOptions carries the contract details owned by the CRM vendor. The
// association type code and endpoint paths are configuration, never derived.
type ClientOptions struct {
	AccessToken       string
	BaseURL           string
	Timeout           time.Duration
	AssociationTypeID int
	UploadFolderPath  string
}

type Client struct {
	accessToken       string
	baseURL           string
	associationTypeID int
	uploadFolderPath  string
	httpClient        *http.Client
}

// ContactProperties is the flat property set written to a contact. Every key
// the intake form maps must be present on every write, so a later update can
// clear a previously-set value.
type ContactProperties map[string]string

// ConflictError reports a uniqueness-conflict response (HTTP 409) from the
// contact create endpoint, carrying the vendor's free-text message.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("contact conflict: %s", e.Message)
}

type errorResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
}

func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		accessToken:       opts.AccessToken,
		baseURL:           opts.BaseURL,
		associationTypeID: opts.AssociationTypeID,
		uploadFolderPath:  opts.UploadFolderPath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateContact creates a contact and returns its ID. A uniqueness conflict
// on the email property is returned as *ConflictError so the caller can
// resolve the existing record.
func (c *Client) CreateContact(ctx context.Context, props ContactProperties) (string, error) {
	url := fmt.Sprintf("%s/crm/v3/objects/contacts", c.baseURL)

	payload := map[string]interface{}{
		"properties": props,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal contact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return "", &ConflictError{Message: string(body)}
		}
		return "", &ConflictError{Message: errResp.Message}
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to create contact (status %d): %s", resp.StatusCode, string(body))
	}

	var createResp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &createResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if createResp.ID == "" {
		return "", fmt.Errorf("no contact id in response")
	}

	return createResp.ID, nil
}

// UpdateContact applies a partial replace of the named properties against an
// existing contact ID.
func (c *Client) UpdateContact(ctx context.Context, contactID string, props ContactProperties) error {
	url := fmt.Sprintf("%s/crm/v3/objects/contacts/%s", c.baseURL, contactID)

	payload := map[string]interface{}{
		"properties": props,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal contact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to update contact (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// UploadFile uploads a file with private visibility into the configured
// folder and returns the file ID.
func (c *Client) UploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	url := fmt.Sprintf("%s/files/v3/files", c.baseURL)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file data: %w", err)
	}

	if err := writer.WriteField("options", `{"access":"PRIVATE"}`); err != nil {
		return "", fmt.Errorf("failed to write options field: %w", err)
	}
	if err := writer.WriteField("folderPath", c.uploadFolderPath); err != nil {
		return "", fmt.Errorf("failed to write folderPath field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to upload file (status %d): %s", resp.StatusCode, string(body))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &uploadResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if uploadResp.ID == "" {
		return "", fmt.Errorf("no file id in response")
	}

	return uploadResp.ID, nil
}

// CreateNote creates a note with the given attachment IDs and associates it
// to exactly one contact via the configured association type code.
func (c *Client) CreateNote(ctx context.Context, contactID, noteBody string, attachmentIDs []string) (string, error) {
	url := fmt.Sprintf("%s/crm/v3/objects/notes", c.baseURL)

	payload := map[string]interface{}{
		"properties": map[string]string{
			"hs_note_body":      noteBody,
			"hs_attachment_ids": joinIDs(attachmentIDs),
			"hs_timestamp":      strconv.FormatInt(time.Now().UTC().UnixMilli(), 10),
		},
		"associations": []map[string]interface{}{
			{
				"to": map[string]string{"id": contactID},
				"types": []map[string]interface{}{
					{
						"associationCategory": "HUBSPOT_DEFINED",
						"associationTypeId":   c.associationTypeID,
					},
				},
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal note: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to create note (status %d): %s", resp.StatusCode, string(body))
	}

	var noteResp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &noteResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return noteResp.ID, nil
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ";")
}
