package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"sync"

	"github.com/atelier-labs/tailor-orders-api/utils"
)

// mockObject is one stored document in the in-memory bucket.
type mockObject struct {
	content     []byte
	contentType string
}

// MockS3Service keeps uploaded documents in memory so the upload and
// download paths can be tested without AWS credentials.
type MockS3Service struct {
	objects map[string]mockObject
	mu      sync.RWMutex
}

// NewMockS3Service creates an empty in-memory document store
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		objects: make(map[string]mockObject),
	}
}

// SetAsMockForTesting installs this mock as the global S3 service
func (m *MockS3Service) SetAsMockForTesting() {
	SetS3Service(m)
}

// UploadFile stores the document under a deterministic key so tests can
// assert on it: documents/mock_<filename>.
func (m *MockS3Service) UploadFile(fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	s3Key := fmt.Sprintf("documents/mock_%s", fileHeader.Filename)

	m.mu.Lock()
	m.objects[s3Key] = mockObject{
		content:     content,
		contentType: utils.ContentTypeForExt(filepath.Ext(fileHeader.Filename)),
	}
	m.mu.Unlock()

	return s3Key, nil
}

// GetPresignedURL returns a fake URL that embeds the key, which is all the
// download tests need to verify.
func (m *MockS3Service) GetPresignedURL(s3Key string) (string, error) {
	if s3Key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.objects[s3Key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("file not found in mock S3: %s", s3Key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", s3Key), nil
}

// DeleteFile removes the document; deleting a missing key is not an error,
// matching S3 semantics.
func (m *MockS3Service) DeleteFile(s3Key string) error {
	if s3Key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.objects, s3Key)
	m.mu.Unlock()

	return nil
}

// GetUploadedFiles returns a copy of all stored documents keyed by S3 key
func (m *MockS3Service) GetUploadedFiles() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make(map[string][]byte, len(m.objects))
	for k, v := range m.objects {
		files[k] = v.content
	}
	return files
}

// ContentType returns the stored content type for a key, or "" if absent
func (m *MockS3Service) ContentType(s3Key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[s3Key].contentType
}

// FileExists reports whether a document is stored under the key
func (m *MockS3Service) FileExists(s3Key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.objects[s3Key]
	return exists
}

// Clear empties the bucket between tests
func (m *MockS3Service) Clear() {
	m.mu.Lock()
	m.objects = make(map[string]mockObject)
	m.mu.Unlock()
}
