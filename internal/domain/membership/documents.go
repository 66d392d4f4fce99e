package membership

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/event"
)

const modelDocument = "MemberDocument"

var allowedDocumentExtensions = map[string]struct{}{
	".pdf":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

func (s *Service) ListDocuments(ctx context.Context, memberID string) ([]Document, error) {
	items, err := s.repo.ListDocuments(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Document{}
	}
	return items, nil
}

// UploadDocument stores content under member_documents/YYYY/MM/ and records
// it. The file is removed again when the database write fails.
func (s *Service) UploadDocument(ctx context.Context, input UploadDocumentInput, content io.Reader) (*Document, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("document storage is not configured")
	}
	if !IsValidDocumentType(input.Type) {
		return nil, ErrInvalidDocumentType
	}
	ext := strings.ToLower(path.Ext(input.FileName))
	if _, ok := allowedDocumentExtensions[ext]; !ok {
		return nil, ErrInvalidFileExtension
	}
	if input.Size > s.maxDocumentBytes {
		return nil, ErrFileTooLarge
	}

	member, err := s.repo.GetMember(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	document := Document{
		ID:          uuid.NewString(),
		MemberID:    member.ID,
		Type:        input.Type,
		Description: strings.TrimSpace(input.Description),
		UploadedAt:  now,
	}
	document.FilePath = path.Join("member_documents", now.Format("2006"), now.Format("01"), document.ID+ext)

	limited := io.LimitReader(content, s.maxDocumentBytes+1)
	counter := &countingReader{r: limited}
	if err := s.storage.Save(ctx, document.FilePath, counter); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if counter.n > s.maxDocumentBytes {
		_ = s.storage.Delete(ctx, document.FilePath)
		return nil, ErrFileTooLarge
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateDocument(ctx, &document); err != nil {
			return err
		}
		return event.Dispatch(ctx, tx, now, event.Audit{
			ActorID:     input.ActorID,
			Action:      audit.ActionCreate,
			ModelName:   modelDocument,
			ObjectID:    document.ID,
			Description: fmt.Sprintf("Uploaded %s for %s", document.Type, member.MembershipID),
		})
	})
	if err != nil {
		_ = s.storage.Delete(ctx, document.FilePath)
		return nil, err
	}
	return &document, nil
}

// VerifyDocuments marks unverified documents as verified and returns how many
// changed.
func (s *Service) VerifyDocuments(ctx context.Context, documentIDs []string, actorID string) (int64, error) {
	if len(documentIDs) == 0 {
		return 0, nil
	}

	var affected int64
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var err error
		affected, err = tx.VerifyDocuments(ctx, documentIDs)
		if err != nil || affected == 0 {
			return err
		}
		objectID := "bulk"
		if len(documentIDs) == 1 {
			objectID = documentIDs[0]
		}
		return event.Dispatch(ctx, tx, s.now(), event.Audit{
			ActorID:     actorID,
			Action:      audit.ActionUpdate,
			ModelName:   modelDocument,
			ObjectID:    objectID,
			Description: fmt.Sprintf("Verified %d documents", affected),
			Metadata:    map[string]any{"document_ids": documentIDs},
		})
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
