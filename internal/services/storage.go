package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedFile = errors.New("only PDF files are accepted")

type StorageService interface {
	SaveUpload(file *multipart.FileHeader, docType string) (filename, path string, err error)
	SaveReader(r io.Reader, originalName, docType string) (filename, path string, err error)
	DeleteFile(filename string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{uploadPath: uploadPath}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

func (s *storageService) SaveUpload(file *multipart.FileHeader, docType string) (string, string, error) {
	if err := checkPDFName(file.Filename); err != nil {
		return "", "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	return s.SaveReader(src, file.Filename, docType)
}

// SaveReader stores r under a unique name derived from docType.
func (s *storageService) SaveReader(r io.Reader, originalName, docType string) (string, string, error) {
	if err := checkPDFName(originalName); err != nil {
		return "", "", err
	}

	filename := fmt.Sprintf("%s_%s.pdf", safeSegment(docType), uuid.NewString())
	path := filepath.Join(s.uploadPath, filename)

	dst, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		_ = os.Remove(path)
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, path, nil
}

func (s *storageService) DeleteFile(filename string) error {
	if err := os.Remove(filepath.Join(s.uploadPath, filepath.Base(filename))); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func checkPDFName(name string) error {
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".pdf" {
		return fmt.Errorf("%w: got %q", ErrUnsupportedFile, ext)
	}
	return nil
}

func safeSegment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "reference"
	}
	return sb.String()
}
