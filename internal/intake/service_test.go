package intake

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/hubspot"
	"lead-intake/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fake CRM Implementation
// ==========================

type fakeCRM struct {
	createFn func(props hubspot.ContactProperties) (string, error)
	updateFn func(contactID string, props hubspot.ContactProperties) error
	uploadFn func(filename string, data []byte) (string, error)
	noteFn   func(contactID string, attachmentIDs []string) (string, error)

	createCalls     int
	updateCalls     int
	uploadCalls     int
	noteCalls       int
	createdProps    []hubspot.ContactProperties
	updatedIDs      []string
	updatedProps    []hubspot.ContactProperties
	uploadedNames   []string
	noteAttachments [][]string
}

func (f *fakeCRM) CreateContact(ctx context.Context, props hubspot.ContactProperties) (string, error) {
	f.createCalls++
	f.createdProps = append(f.createdProps, props)
	if f.createFn != nil {
		return f.createFn(props)
	}
	return "new-1", nil
}

func (f *fakeCRM) UpdateContact(ctx context.Context, contactID string, props hubspot.ContactProperties) error {
	f.updateCalls++
	f.updatedIDs = append(f.updatedIDs, contactID)
	f.updatedProps = append(f.updatedProps, props)
	if f.updateFn != nil {
		return f.updateFn(contactID, props)
	}
	return nil
}

func (f *fakeCRM) UploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	f.uploadCalls++
	f.uploadedNames = append(f.uploadedNames, filename)
	if f.uploadFn != nil {
		return f.uploadFn(filename, data)
	}
	return fmt.Sprintf("file-%d", f.uploadCalls), nil
}

func (f *fakeCRM) CreateNote(ctx context.Context, contactID, noteBody string, attachmentIDs []string) (string, error) {
	f.noteCalls++
	f.noteAttachments = append(f.noteAttachments, attachmentIDs)
	if f.noteFn != nil {
		return f.noteFn(contactID, attachmentIDs)
	}
	return "note-1", nil
}

// ==========================
// Test Helpers
// ==========================

func newTestService(crm CRMClient) *Service {
	return NewService(ServiceDependencies{
		Logger: logger.NewNoOpLogger(),
		CRM:    crm,
	}, DefaultConfig())
}

func validSubmission() *Submission {
	return &Submission{
		ContactName:      "Jane Doe",
		Email:            "jane@example.com",
		Phone:            "+447700900000",
		ServiceName:      "Little Steps Nursery",
		Position:         "Director",
		ServiceType:      "day-nursery",
		StudentCount:     "26-50",
		IndicativeBudget: "10k-25k",
		AgeGroup:         "2-3",
		Phase:            []string{"exploring"},
		AdditionalInfo:   "Interested in a spring start.",
	}
}

func photoDataURL(content string) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

// ==========================
// Create-or-Update Protocol
// ==========================

func TestService_NewEmail_CreatesOnce(t *testing.T) {
	crm := &fakeCRM{
		createFn: func(props hubspot.ContactProperties) (string, error) {
			return "777", nil
		},
	}
	service := newTestService(crm)

	result, err := service.Execute(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "777", result.ContactID)
	assert.Equal(t, 1, crm.createCalls)
	assert.Equal(t, 0, crm.updateCalls)
}

func TestService_ExistingEmail_UpdatesParsedID(t *testing.T) {
	crm := &fakeCRM{
		createFn: func(props hubspot.ContactProperties) (string, error) {
			return "", &hubspot.ConflictError{Message: "Contact already exists. Existing ID: 123"}
		},
	}
	service := newTestService(crm)

	result, err := service.Execute(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "123", result.ContactID)
	assert.Equal(t, 1, crm.createCalls)
	assert.Equal(t, 1, crm.updateCalls)
	assert.Equal(t, []string{"123"}, crm.updatedIDs)
}

func TestService_UnparseableConflict_FailsHard(t *testing.T) {
	crm := &fakeCRM{
		createFn: func(props hubspot.ContactProperties) (string, error) {
			return "", &hubspot.ConflictError{Message: "Contact already exists"}
		},
	}
	service := newTestService(crm)

	result, err := service.Execute(context.Background(), validSubmission())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, errors.ErrCodeConflictUnresolved, errors.Normalize(err).Code)
	assert.Equal(t, 0, crm.updateCalls)
}

func TestService_UpstreamWriteFailure_FailsHard(t *testing.T) {
	crm := &fakeCRM{
		createFn: func(props hubspot.ContactProperties) (string, error) {
			return "", fmt.Errorf("failed to create contact (status 502): upstream broken")
		},
	}
	service := newTestService(crm)

	_, err := service.Execute(context.Background(), validSubmission())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeContactWriteFailed, errors.Normalize(err).Code)
	assert.Equal(t, 0, crm.updateCalls)
}

func TestService_MissingCredential_FailsBeforeOutboundCall(t *testing.T) {
	service := newTestService(nil)

	_, err := service.Execute(context.Background(), validSubmission())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCRMNotConfigured, errors.Normalize(err).Code)
}

// ==========================
// Field Normalization
// ==========================

func TestSplitContactName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantFirst string
		wantLast  string
	}{
		{"first and last", "Jane Doe", "Jane", "Doe"},
		{"three parts", "Jane van Doe", "Jane", "van Doe"},
		{"single name", "Jane", "Jane", ""},
		{"empty", "", "", ""},
		{"surrounding whitespace", "  Jane Doe  ", "Jane", "Doe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := splitContactName(tt.input)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func TestBuildContactProperties_PhaseJoining(t *testing.T) {
	sub := validSubmission()
	sub.Phase = []string{"exploring", "preparing-next-budget"}

	props := buildContactProperties(sub)
	assert.Equal(t, "exploring;preparing-next-budget", props["planning_phase"])

	sub.Phase = nil
	props = buildContactProperties(sub)
	assert.Equal(t, "", props["planning_phase"])

	sub.Phase = []string{"exploring"}
	props = buildContactProperties(sub)
	assert.Equal(t, "exploring", props["planning_phase"])
}

func TestBuildContactProperties_AllKeysAlwaysPresent(t *testing.T) {
	props := buildContactProperties(&Submission{ContactName: "Jane", Email: "jane@example.com"})

	expectedKeys := []string{
		"firstname", "lastname", "email", "phone", "company", "jobtitle",
		"service_type", "student_count", "indicative_budget", "age_group",
		"planning_phase", "additional_info",
	}
	for _, key := range expectedKeys {
		_, present := props[key]
		assert.True(t, present, "property %q must always be present", key)
	}
	assert.Equal(t, "", props["age_group"])
}

// ==========================
// Photo Sub-Flow
// ==========================

func TestService_PartialPhotoFailure_NoteGetsSurvivors(t *testing.T) {
	uploads := 0
	crm := &fakeCRM{
		uploadFn: func(filename string, data []byte) (string, error) {
			uploads++
			if uploads == 2 {
				return "", fmt.Errorf("failed to upload file (status 500)")
			}
			return fmt.Sprintf("file-%d", uploads), nil
		},
	}
	service := newTestService(crm)

	sub := validSubmission()
	sub.Photos = []string{photoDataURL("one"), photoDataURL("two"), photoDataURL("three")}

	result, err := service.Execute(context.Background(), sub)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, crm.uploadCalls)
	require.Equal(t, 1, crm.noteCalls)
	assert.Equal(t, []string{"file-1", "file-3"}, crm.noteAttachments[0])
}

func TestService_NoPhotos_NoUploadsNoNote(t *testing.T) {
	crm := &fakeCRM{}
	service := newTestService(crm)

	result, err := service.Execute(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, crm.uploadCalls)
	assert.Equal(t, 0, crm.noteCalls)
}

func TestService_AllPhotosFail_NoNote(t *testing.T) {
	crm := &fakeCRM{
		uploadFn: func(filename string, data []byte) (string, error) {
			return "", fmt.Errorf("failed to upload file (status 500)")
		},
	}
	service := newTestService(crm)

	sub := validSubmission()
	sub.Photos = []string{photoDataURL("one"), photoDataURL("two")}

	result, err := service.Execute(context.Background(), sub)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, crm.uploadCalls)
	assert.Equal(t, 0, crm.noteCalls)
}

func TestService_UndecodablePhoto_SkippedWithoutUpload(t *testing.T) {
	crm := &fakeCRM{}
	service := newTestService(crm)

	sub := validSubmission()
	sub.Photos = []string{"data:image/jpeg;base64,&&&not-base64&&&", photoDataURL("fine")}

	result, err := service.Execute(context.Background(), sub)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, crm.uploadCalls)
	require.Equal(t, 1, crm.noteCalls)
	assert.Equal(t, []string{"file-1"}, crm.noteAttachments[0])
}

func TestService_NoteCreationFailure_StillSucceeds(t *testing.T) {
	crm := &fakeCRM{
		noteFn: func(contactID string, attachmentIDs []string) (string, error) {
			return "", fmt.Errorf("failed to create note (status 500)")
		},
	}
	service := newTestService(crm)

	sub := validSubmission()
	sub.Photos = []string{photoDataURL("one")}

	result, err := service.Execute(context.Background(), sub)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, crm.noteCalls)
}

func TestDecodePhoto(t *testing.T) {
	data, err := decodePhoto(photoDataURL("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// Bare base64 without a data-URL prefix still decodes
	data, err = decodePhoto(base64.StdEncoding.EncodeToString([]byte("raw")))
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), data)

	_, err = decodePhoto("data:image/jpeg;base64,???")
	assert.Error(t, err)
}

// ==========================
// Deferred Property Confirmation
// ==========================

func TestService_DeferredUpdate_PatchesCustomPropertiesOnce(t *testing.T) {
	crm := &fakeCRM{}
	cfg := DefaultConfig()
	cfg.DeferredUpdate = true
	cfg.DeferredDelay = 10 * time.Millisecond
	service := NewService(ServiceDependencies{
		Logger: logger.NewNoOpLogger(),
		CRM:    crm,
	}, cfg)

	result, err := service.Execute(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, crm.createCalls)
	require.Equal(t, 1, crm.updateCalls)

	// The confirmation carries only the custom fields
	props := crm.updatedProps[0]
	_, hasEmail := props["email"]
	assert.False(t, hasEmail)
	assert.Equal(t, "day-nursery", props["service_type"])
}

func TestService_DeferredUpdate_CancelledContextSkipsPatch(t *testing.T) {
	crm := &fakeCRM{}
	cfg := DefaultConfig()
	cfg.DeferredUpdate = true
	cfg.DeferredDelay = 5 * time.Second
	service := NewService(ServiceDependencies{
		Logger: logger.NewNoOpLogger(),
		CRM:    crm,
	}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result, err := service.Execute(ctx, validSubmission())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, crm.updateCalls)
}

// ==========================
// Dedupe Integration
// ==========================

type fakeDeduper struct {
	cached     map[string]string
	remembered map[string]string
}

func (f *fakeDeduper) Lookup(ctx context.Context, email string) (string, bool) {
	id, ok := f.cached[email]
	return id, ok
}

func (f *fakeDeduper) Remember(ctx context.Context, email, contactID string) {
	if f.remembered == nil {
		f.remembered = make(map[string]string)
	}
	f.remembered[email] = contactID
}

func TestService_DedupeHit_SkipsCreate(t *testing.T) {
	crm := &fakeCRM{}
	service := NewService(ServiceDependencies{
		Logger:  logger.NewNoOpLogger(),
		CRM:     crm,
		Deduper: &fakeDeduper{cached: map[string]string{"jane@example.com": "555"}},
	}, DefaultConfig())

	result, err := service.Execute(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.Equal(t, "555", result.ContactID)
	assert.Equal(t, 0, crm.createCalls)
	assert.Equal(t, 1, crm.updateCalls)
}

func TestService_RemembersResolvedContact(t *testing.T) {
	crm := &fakeCRM{
		createFn: func(props hubspot.ContactProperties) (string, error) {
			return "808", nil
		},
	}
	deduper := &fakeDeduper{}
	service := NewService(ServiceDependencies{
		Logger:  logger.NewNoOpLogger(),
		CRM:     crm,
		Deduper: deduper,
	}, DefaultConfig())

	_, err := service.Execute(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.Equal(t, "808", deduper.remembered["jane@example.com"])
}
