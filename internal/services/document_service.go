// Package services – DocumentService
//
// This file implements document intake: hashing, type classification,
// filesystem storage, and best-effort anchoring of the hash into the
// reputation contract. Per-file chain failures do not abort the batch; each
// document record carries its own registered flag and error text.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/agritrust/go-agritrust-backend/internal/docscan"
	"github.com/agritrust/go-agritrust-backend/internal/domain"
)

// DocumentRegistrar anchors document hashes into the reputation contract.
type DocumentRegistrar interface {
	RegisterDocument(ctx context.Context, farmer common.Address, docHash, docType string) (string, error)
}

// DocumentRepo persists document records.
type DocumentRepo interface {
	CreateDocument(ctx context.Context, db *gorm.DB, d *domain.Document) error
	ListDocumentsByFarmer(ctx context.Context, db *gorm.DB, farmer string, offset, limit int) ([]domain.Document, int64, error)
}

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Filename string
	Content  []byte
}

// UploadReport summarizes one upload batch.
type UploadReport struct {
	Success         bool              `json:"success"`
	Message         string            `json:"message"`
	Documents       []domain.Document `json:"documents"`
	FarmerAddress   string            `json:"farmerAddress"`
	RegisteredCount int               `json:"registeredCount"`
	FailedCount     int               `json:"failedCount"`
	NeedsPrivateKey bool              `json:"needsPrivateKey,omitempty"`
}

// DocumentService handles document intake and history.
type DocumentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the document repository used by this service.
	Repo DocumentRepo
	// Registrar anchors hashes on-chain; nil when no contract is bound.
	Registrar DocumentRegistrar
	// UploadDir is where raw files are stored.
	UploadDir string
	// MaxFileBytes caps individual file sizes.
	MaxFileBytes int64
	// Events receives a document_validated event per registered document;
	// nil disables rule matching.
	Events EventSink
}

// NewDocumentService constructs a DocumentService. registrar and events may
// be nil.
func NewDocumentService(db *gorm.DB, r DocumentRepo, registrar DocumentRegistrar, uploadDir string, maxFileBytes int64, events EventSink) *DocumentService {
	return &DocumentService{
		DB:           db,
		Repo:         r,
		Registrar:    registrar,
		UploadDir:    uploadDir,
		MaxFileBytes: maxFileBytes,
		Events:       events,
	}
}

// ProcessUpload hashes, classifies, stores, and registers each file of a
// batch. declaredType may be empty; unrecognized or missing types are
// detected from content.
func (s *DocumentService) ProcessUpload(ctx context.Context, farmerAddress, declaredType string, files []UploadFile) (*UploadReport, error) {
	if !common.IsHexAddress(farmerAddress) {
		return nil, ErrInvalidAddress
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if declaredType != "" && !docscan.ValidType(declaredType) {
		return nil, ErrInvalidDocType
	}

	report := &UploadReport{FarmerAddress: farmerAddress}
	for _, f := range files {
		doc, err := s.processFile(ctx, farmerAddress, declaredType, f)
		if err != nil {
			return nil, err
		}
		if doc.Registered {
			report.RegisteredCount++
		} else {
			report.FailedCount++
			if strings.Contains(doc.RegisterError, "PRIVATE_KEY") {
				report.NeedsPrivateKey = true
			}
		}
		report.Documents = append(report.Documents, *doc)
	}

	report.Success = report.RegisteredCount > 0
	switch {
	case report.FailedCount == 0:
		report.Message = fmt.Sprintf("%d documento(s) registrado(s) exitosamente en blockchain.", report.RegisteredCount)
	case report.RegisteredCount > 0:
		report.Message = fmt.Sprintf("%d documento(s) registrado(s), %d fallido(s).", report.RegisteredCount, report.FailedCount)
	default:
		report.Message = "No se pudieron registrar los documentos. Verifica la configuración del backend."
	}
	return report, nil
}

// processFile handles a single file end to end. Infrastructure errors
// (oversize file, unwritable upload dir, failed insert) abort the batch;
// chain registration failures are folded into the record.
func (s *DocumentService) processFile(ctx context.Context, farmerAddress, declaredType string, f UploadFile) (*domain.Document, error) {
	if s.MaxFileBytes > 0 && int64(len(f.Content)) > s.MaxFileBytes {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, f.Filename, len(f.Content))
	}

	sum := sha256.Sum256(f.Content)
	hash := hex.EncodeToString(sum[:])

	docType := declaredType
	if docType == "" {
		docType = docscan.Detect(string(f.Content))
	}

	doc := &domain.Document{
		ID:            uuid.NewString(),
		FarmerAddress: farmerAddress,
		Filename:      filepath.Base(f.Filename),
		Hash:          hash,
		DocType:       docType,
		SizeBytes:     int64(len(f.Content)),
	}

	path, err := s.store(doc.ID, f.Content)
	if err != nil {
		return nil, err
	}
	doc.StoragePath = path

	if s.Registrar == nil {
		doc.RegisterError = registrationHint(ErrContractNotConfigured)
	} else {
		txHash, err := s.Registrar.RegisterDocument(ctx, common.HexToAddress(farmerAddress), hash, docType)
		if err != nil {
			doc.RegisterError = registrationHint(err)
			log.Warn().Err(err).
				Str("farmer", farmerAddress).
				Str("filename", doc.Filename).
				Msg("document registration failed")
		} else {
			doc.TxHash = txHash
			doc.Registered = true
		}
	}

	if err := s.Repo.CreateDocument(ctx, s.DB, doc); err != nil {
		return nil, err
	}

	// Anchored documents count as validated and can trigger automatic
	// payment rules.
	if doc.Registered && s.Events != nil {
		s.Events.ProcessEvent(ctx, domain.EventDocumentValidated, EventData{
			FarmerAddress: farmerAddress,
		})
	}
	return doc, nil
}

// store writes the raw file under UploadDir keyed by document ID.
func (s *DocumentService) store(id string, content []byte) (string, error) {
	if err := os.MkdirAll(s.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(s.UploadDir, id)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return path, nil
}

// History returns a page of a producer's documents, newest first.
func (s *DocumentService) History(ctx context.Context, farmer string, offset, limit int) ([]domain.Document, int64, error) {
	return s.Repo.ListDocumentsByFarmer(ctx, s.DB, farmer, offset, limit)
}

// registrationHint maps raw chain errors onto operator guidance, matching
// the hints the dashboard surfaces to users.
func registrationHint(err error) string {
	msg := err.Error()
	low := strings.ToLower(msg)
	switch {
	case strings.Contains(low, "no signing key"), strings.Contains(low, "contract not configured"):
		return "PRIVATE_KEY no configurada en el backend. El backend necesita una clave privada para firmar transacciones en blockchain."
	case strings.Contains(low, "insufficient funds"), strings.Contains(low, "gas"):
		return "Fondos insuficientes para pagar gas. El wallet del backend necesita MATIC."
	case strings.Contains(low, "nonce"):
		return "Error de nonce. Intenta de nuevo en unos segundos."
	}
	return msg
}
