package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
)

type fakeDocumentRepo struct {
	created []*domain.Document
}

func (f *fakeDocumentRepo) CreateDocument(_ context.Context, _ *gorm.DB, d *domain.Document) error {
	f.created = append(f.created, d)
	return nil
}

func (f *fakeDocumentRepo) ListDocumentsByFarmer(_ context.Context, _ *gorm.DB, farmer string, offset, limit int) ([]domain.Document, int64, error) {
	out := []domain.Document{}
	for _, d := range f.created {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

type fakeRegistrar struct {
	err   error
	calls int
}

func (f *fakeRegistrar) RegisterDocument(_ context.Context, _ common.Address, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "0xreg", nil
}

func newDocService(t *testing.T, registrar DocumentRegistrar) (*DocumentService, *fakeDocumentRepo) {
	t.Helper()
	r := &fakeDocumentRepo{}
	return NewDocumentService(nil, r, registrar, t.TempDir(), 1<<20, nil), r
}

func TestProcessUpload_Validation(t *testing.T) {
	svc, _ := newDocService(t, &fakeRegistrar{})
	ctx := context.Background()
	file := []UploadFile{{Filename: "a.pdf", Content: []byte("x")}}

	if _, err := svc.ProcessUpload(ctx, "bogus", "", file); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("want ErrInvalidAddress, got %v", err)
	}
	if _, err := svc.ProcessUpload(ctx, testFarmer, "", nil); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("want ErrNoFiles, got %v", err)
	}
	if _, err := svc.ProcessUpload(ctx, testFarmer, "passport", file); !errors.Is(err, ErrInvalidDocType) {
		t.Fatalf("want ErrInvalidDocType, got %v", err)
	}
}

func TestProcessUpload_RegistersAndStores(t *testing.T) {
	reg := &fakeRegistrar{}
	svc, repo := newDocService(t, reg)

	report, err := svc.ProcessUpload(context.Background(), testFarmer, "certification", []UploadFile{
		{Filename: "/sneaky/../cert.pdf", Content: []byte("certificado orgánico SAGARPA")},
	})
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if !report.Success || report.RegisteredCount != 1 || report.FailedCount != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if reg.calls != 1 {
		t.Fatalf("registrar not called: %d", reg.calls)
	}

	if len(repo.created) != 1 {
		t.Fatalf("document not persisted: %+v", repo.created)
	}
	doc := repo.created[0]
	if doc.Filename != "cert.pdf" {
		t.Fatalf("path not stripped from filename: %s", doc.Filename)
	}
	if doc.DocType != "certification" || !doc.Registered || doc.TxHash != "0xreg" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if len(doc.Hash) != 64 {
		t.Fatalf("hash not hex sha-256: %s", doc.Hash)
	}
	if filepath.Dir(doc.StoragePath) != svc.UploadDir {
		t.Fatalf("stored outside upload dir: %s", doc.StoragePath)
	}
	if _, err := os.Stat(doc.StoragePath); err != nil {
		t.Fatalf("raw file missing: %v", err)
	}
}

func TestProcessUpload_DetectsTypeWhenUndeclared(t *testing.T) {
	svc, repo := newDocService(t, &fakeRegistrar{})

	_, err := svc.ProcessUpload(context.Background(), testFarmer, "", []UploadFile{
		{Filename: "ine.pdf", Content: []byte("credencial INE con CURP")},
	})
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if repo.created[0].DocType != "identity" {
		t.Fatalf("type not detected: %s", repo.created[0].DocType)
	}
}

func TestProcessUpload_ChainFailureIsPerFile(t *testing.T) {
	reg := &fakeRegistrar{err: errors.New("no signing key configured")}
	svc, repo := newDocService(t, reg)

	report, err := svc.ProcessUpload(context.Background(), testFarmer, "certification", []UploadFile{
		{Filename: "a.pdf", Content: []byte("uno")},
		{Filename: "b.pdf", Content: []byte("dos")},
	})
	if err != nil {
		t.Fatalf("chain failure must not abort the batch: %v", err)
	}
	if report.Success || report.FailedCount != 2 || report.RegisteredCount != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !report.NeedsPrivateKey {
		t.Fatalf("missing key hint not surfaced: %+v", report)
	}
	for _, d := range repo.created {
		if d.Registered || d.RegisterError == "" {
			t.Fatalf("failed registration not recorded: %+v", d)
		}
	}
}

func TestProcessUpload_NilRegistrar(t *testing.T) {
	svc, _ := newDocService(t, nil)

	report, err := svc.ProcessUpload(context.Background(), testFarmer, "certification", []UploadFile{
		{Filename: "a.pdf", Content: []byte("uno")},
	})
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if report.Success || !report.NeedsPrivateKey {
		t.Fatalf("unexpected report without contract: %+v", report)
	}
}

func TestProcessUpload_EmitsDocumentValidated(t *testing.T) {
	sink := &fakeEventSink{}
	r := &fakeDocumentRepo{}
	svc := NewDocumentService(nil, r, &fakeRegistrar{}, t.TempDir(), 1<<20, sink)

	_, err := svc.ProcessUpload(context.Background(), testFarmer, "certification", []UploadFile{
		{Filename: "a.pdf", Content: []byte("uno")},
		{Filename: "b.pdf", Content: []byte("dos")},
	})
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("want one event per registered document, got %v", sink.events)
	}
	for i, et := range sink.events {
		if et != domain.EventDocumentValidated {
			t.Fatalf("wrong event emitted: %v", sink.events)
		}
		if sink.data[i].FarmerAddress != testFarmer {
			t.Fatalf("event carries wrong farmer: %+v", sink.data[i])
		}
	}
}

func TestProcessUpload_NoEventWhenRegistrationFails(t *testing.T) {
	sink := &fakeEventSink{}
	r := &fakeDocumentRepo{}
	reg := &fakeRegistrar{err: errors.New("no signing key configured")}
	svc := NewDocumentService(nil, r, reg, t.TempDir(), 1<<20, sink)

	_, err := svc.ProcessUpload(context.Background(), testFarmer, "certification", []UploadFile{
		{Filename: "a.pdf", Content: []byte("uno")},
	})
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("unregistered document must not emit events: %v", sink.events)
	}
}

func TestProcessUpload_FiresMatchingRule(t *testing.T) {
	autopay, _, exec := newAutoPay(t)
	seedRule(t, autopay, RuleSpec{
		FarmerAddress: testFarmer,
		Trigger:       domain.TriggerDocumentValidated,
		Action:        "document_validation",
	})

	svc := NewDocumentService(nil, &fakeDocumentRepo{}, &fakeRegistrar{}, t.TempDir(), 1<<20, autopay)
	_, err := svc.ProcessUpload(context.Background(), testFarmer, "certification", []UploadFile{
		{Filename: "cert.pdf", Content: []byte("certificado orgánico")},
	})
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("matching rule did not pay: %v", exec.calls)
	}
}

func TestProcessUpload_FileTooLarge(t *testing.T) {
	r := &fakeDocumentRepo{}
	svc := NewDocumentService(nil, r, &fakeRegistrar{}, t.TempDir(), 4, nil)

	_, err := svc.ProcessUpload(context.Background(), testFarmer, "", []UploadFile{
		{Filename: "big.pdf", Content: []byte("too large for the cap")},
	})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("want ErrFileTooLarge, got %v", err)
	}
	if len(r.created) != 0 {
		t.Fatalf("oversize file must not be recorded: %+v", r.created)
	}
}
